package usecase

import (
	"regexp"
	"sort"
	"strings"

	"media-aggregator/domain/model"
)

// CalculateRelevance scores title against the lower-cased keywords split
// from query. Matching is case-insensitive.
func CalculateRelevance(title string, keywords []string, query string) int {
	titleLower := strings.ToLower(title)
	queryLower := strings.ToLower(query)
	score := 0

	if idx := strings.Index(titleLower, queryLower); idx >= 0 {
		score += 100
		if idx == 0 {
			score += 50
		} else {
			score += 25
		}
	}

	for _, kw := range keywords {
		if len(kw) < 2 {
			continue
		}
		idx := strings.Index(titleLower, kw)
		if idx < 0 {
			continue
		}
		if wholeWord(titleLower, kw) {
			score += 20
		} else {
			score += 10
		}
		if idx == 0 {
			score += 15
		}
	}

	if len(title) > 100 {
		score -= 5
	}
	return score
}

func wholeWord(text, word string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// RankByRelevance orders items by descending relevance, ties by descending
// views. The input order is kept for full ties.
func RankByRelevance(items []model.MediaItem, keywords []string, query string) []model.MediaItem {
	scores := make(map[string]int, len(items))
	for _, it := range items {
		scores[it.FileCode] = CalculateRelevance(it.Title, keywords, query)
	}
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := scores[items[i].FileCode], scores[items[j].FileCode]
		if si != sj {
			return si > sj
		}
		return items[i].Views > items[j].Views
	})
	return items
}

// queryKeywords lower-cases query and splits it on whitespace.
func queryKeywords(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// searchKeywords are the keywords sent upstream: at least two characters
// long, at most limit of them.
func searchKeywords(query string, limit int) []string {
	if limit <= 0 {
		limit = defaultMaxKeywords
	}
	out := make([]string, 0, limit)
	for _, kw := range queryKeywords(query) {
		if len(kw) < 2 {
			continue
		}
		out = append(out, kw)
		if len(out) == limit {
			break
		}
	}
	return out
}
