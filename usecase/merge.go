package usecase

import (
	"media-aggregator/domain/model"

	"github.com/samber/lo"
)

// mergeListing concatenates the groups in order and drops any item whose
// file code already appeared.
func mergeListing(groups ...[]model.MediaItem) []model.MediaItem {
	return lo.UniqBy(lo.Flatten(groups), func(it model.MediaItem) string {
		return it.FileCode
	})
}

// mergeSearch concatenates the groups in order; a duplicate file code
// replaces the earlier copy in place only when it has strictly more views.
func mergeSearch(groups ...[]model.MediaItem) []model.MediaItem {
	index := make(map[string]int)
	out := make([]model.MediaItem, 0, totalLen(groups))
	for _, g := range groups {
		for _, it := range g {
			if i, dup := index[it.FileCode]; dup {
				if it.Views > out[i].Views {
					out[i] = it
				}
				continue
			}
			index[it.FileCode] = len(out)
			out = append(out, it)
		}
	}
	return out
}

func totalLen(groups [][]model.MediaItem) int {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	return n
}
