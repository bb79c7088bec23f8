package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"media-aggregator/domain/model"
)

func item(code string, views int64) model.MediaItem {
	return model.MediaItem{FileCode: code, Views: views}
}

func TestMergeListing_FirstOccurrenceWins(t *testing.T) {
	got := mergeListing(
		[]model.MediaItem{item("a", 1), item("b", 2)},
		[]model.MediaItem{item("b", 99), item("c", 3)},
	)

	assert.Equal(t, []model.MediaItem{item("a", 1), item("b", 2), item("c", 3)}, got)
}

func TestMergeSearch_HigherViewsReplaceInPlace(t *testing.T) {
	got := mergeSearch(
		[]model.MediaItem{item("abc", 10), item("x", 5)},
		[]model.MediaItem{item("abc", 50), item("x", 5), item("y", 1)},
	)

	assert.Equal(t, []model.MediaItem{item("abc", 50), item("x", 5), item("y", 1)}, got)
}

func TestMergeSearch_TieKeepsEarlierCopy(t *testing.T) {
	first := model.MediaItem{FileCode: "abc", Views: 7, Source: model.SourcePrimary}
	second := model.MediaItem{FileCode: "abc", Views: 7, Source: model.SourceSecondary}

	got := mergeSearch([]model.MediaItem{first}, []model.MediaItem{second})

	assert.Equal(t, []model.MediaItem{first}, got)
}

func TestMerge_EmptyGroups(t *testing.T) {
	assert.Empty(t, mergeListing())
	assert.Empty(t, mergeSearch(nil, nil))
}
