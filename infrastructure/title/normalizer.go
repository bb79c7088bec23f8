// Package title turns raw upstream titles into uniform display titles.
package title

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"media-aggregator/infrastructure/utils"
)

const (
	DefaultMinWords = 6
	DefaultMaxWords = 9
)

// DefaultKeywords pad titles that are shorter than the minimum word count.
var DefaultKeywords = []string{
	"Video", "Full", "Terbaru", "Viral", "Streaming", "Update", "Online",
	"Watch", "New", "Trending", "Clip", "Official", "Popular", "Latest",
	"Exclusive", "Highlights", "Collection", "Series", "Episode", "Premiere",
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9\s]+`)

// Config configures a Normalizer. Zero values take the defaults.
type Config struct {
	MinWords int
	MaxWords int
	Keywords []string
}

// Normalizer produces display titles of MinWords to MaxWords title-cased
// words, unique within the instance. Results are memoized by file code so
// the same item always gets the same title.
type Normalizer struct {
	minWords int
	maxWords int
	keywords []string
	now      func() time.Time

	mu       sync.Mutex
	byCode   map[string]string
	existing map[string]struct{}
}

func NewNormalizer(cfg Config) *Normalizer {
	n := &Normalizer{
		minWords: cfg.MinWords,
		maxWords: cfg.MaxWords,
		keywords: cfg.Keywords,
		now:      utils.GetCurrentTime,
		byCode:   make(map[string]string),
		existing: make(map[string]struct{}),
	}
	if n.minWords <= 0 {
		n.minWords = DefaultMinWords
	}
	if n.maxWords < n.minWords {
		n.maxWords = max(DefaultMaxWords, n.minWords)
	}
	if len(n.keywords) == 0 {
		n.keywords = DefaultKeywords
	}
	return n
}

// Process returns the display title for raw. When fileCode is non-empty the
// result is memoized under it.
func (n *Normalizer) Process(raw, fileCode string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if fileCode != "" {
		if t, ok := n.byCode[fileCode]; ok {
			return t
		}
	}

	words := cleanWords(raw)
	used := make(map[string]struct{}, len(words))
	for _, w := range words {
		used[strings.ToLower(w)] = struct{}{}
	}

	switch {
	case len(words) < n.minWords:
		for _, kw := range n.orderedKeywords(fileCode) {
			if len(words) >= n.minWords {
				break
			}
			lower := strings.ToLower(kw)
			if _, dup := used[lower]; dup {
				continue
			}
			words = append(words, capitalize(kw))
			used[lower] = struct{}{}
		}
	case len(words) > n.maxWords:
		words = words[:n.maxWords]
	}

	base := strings.Join(words, " ")
	final := base
	for i := 1; ; i++ {
		if _, taken := n.existing[strings.ToLower(final)]; !taken {
			break
		}
		final = base + " " + strconv.Itoa(i)
	}
	n.existing[strings.ToLower(final)] = struct{}{}

	if fileCode != "" {
		n.byCode[fileCode] = final
	}
	return final
}

// Reset forgets every memoized and issued title.
func (n *Normalizer) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.byCode = make(map[string]string)
	n.existing = make(map[string]struct{})
}

// orderedKeywords returns the padding keywords in a deterministic order:
// seeded by fileCode, or by the current hour when there is no code.
func (n *Normalizer) orderedKeywords(fileCode string) []string {
	seed := fileCode
	if seed == "" {
		seed = "hour-" + strconv.FormatInt(n.now().Unix()/3600, 10)
	}
	out := make([]string, len(n.keywords))
	copy(out, n.keywords)
	for i := len(out) - 1; i > 0; i-- {
		j := int(stringRandom(seed+strconv.Itoa(i)) * float64(i+1))
		if j > i {
			j = i
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// cleanWords strips punctuation, collapses whitespace and drops repeated
// words (case-insensitive), title-casing what remains.
func cleanWords(raw string) []string {
	fields := strings.Fields(nonAlphanumeric.ReplaceAllString(raw, " "))
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		lower := strings.ToLower(f)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, capitalize(f))
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// stringRandom maps s to [0,1] with a 32-bit rolling hash.
func stringRandom(s string) float64 {
	var h int32
	for _, c := range s {
		h = (h << 5) - h + int32(c)
	}
	return math.Abs(float64(h)) / math.MaxInt32
}
