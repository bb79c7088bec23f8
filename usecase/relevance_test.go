package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"media-aggregator/domain/model"
)

func TestCalculateRelevance(t *testing.T) {
	kws := queryKeywords("red car")

	tests := []struct {
		name  string
		title string
		want  int
	}{
		{"phrase at start", "Red Car Chase", 205},
		{"phrase inside", "Big Red Car", 165},
		{"words only", "Car Red", 55},
		{"partial word", "Redcarpet", 35},
		{"no match", "Boat", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateRelevance(tt.title, kws, "red car"))
		})
	}
}

func TestCalculateRelevance_LongTitlePenalty(t *testing.T) {
	long := "zz"
	for len(long) <= 100 {
		long += " filler"
	}
	assert.Equal(t, -5, CalculateRelevance(long, []string{"nothing"}, "nothing"))
}

func TestCalculateRelevance_QueryPrefixNeverLowersScore(t *testing.T) {
	const query = "red car"
	kws := queryKeywords(query)
	pad := func(s string) string {
		for len(s) <= 100 {
			s += " filler"
		}
		return s
	}

	tests := []struct {
		name   string
		title  string
		strict bool
	}{
		{"no match", "Boat", true},
		{"query inside", "Big Red Car", true},
		{"keyword at start", "Red Chase", true},
		{"long without query", pad("zz"), true},
		{"long with query inside", pad("Big red car"), true},
		{"query already at start", "Red Car Chase", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := CalculateRelevance(tt.title, kws, query)
			after := CalculateRelevance(query+" "+tt.title, kws, query)
			if tt.strict {
				assert.Greater(t, after, before)
				return
			}
			assert.GreaterOrEqual(t, after, before)
		})
	}
}

func TestCalculateRelevance_MoreMatchesScoreHigher(t *testing.T) {
	kws := queryKeywords("ocean waves sunset")
	one := CalculateRelevance("ocean", kws, "ocean waves sunset")
	two := CalculateRelevance("ocean waves", kws, "ocean waves sunset")
	three := CalculateRelevance("ocean waves sunset", kws, "ocean waves sunset")

	assert.Less(t, one, two)
	assert.Less(t, two, three)
}

func TestRankByRelevance_TieBreaksOnViews(t *testing.T) {
	items := []model.MediaItem{
		{FileCode: "low", Title: "cat video", Views: 1},
		{FileCode: "high", Title: "cat video", Views: 100},
		{FileCode: "short", Title: "cat", Views: 0},
	}

	got := RankByRelevance(items, []string{"cat"}, "cat")

	assert.Equal(t, "high", got[0].FileCode)
	assert.Equal(t, "low", got[1].FileCode)
	assert.Equal(t, "short", got[2].FileCode)
}

func TestSearchKeywords(t *testing.T) {
	assert.Equal(t, []string{"ab", "cd"}, searchKeywords("a AB  cd", 5))
	assert.Equal(t, []string{"one", "two"}, searchKeywords("one two three", 2))
	assert.Len(t, searchKeywords("aa bb cc dd ee ff gg", 0), defaultMaxKeywords)
	assert.Empty(t, searchKeywords("a b", 5))
}
