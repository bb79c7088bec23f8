package http

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultPage          = 1
	defaultPerPage       = 50
	defaultSearchPerPage = 100

	maxPage     = 10000
	maxPerPage  = 1000
	minQueryLen = 2
	maxQueryLen = 100
	maxInputLen = 500
	minFileCode = 3
	maxFileCode = 50
)

var (
	errInvalidPage    = errors.New("invalid page number (1-10000)")
	errInvalidPerPage = errors.New("invalid per_page value (1-1000)")
	errQueryRequired  = errors.New("search query is required")
	errQueryShort     = errors.New("search query must be at least 2 characters")
	errQueryLong      = errors.New("search query too long (max 100 characters)")
	errCodeRequired   = errors.New("file_code is required")
	errCodeShort      = errors.New("file_code must be at least 3 characters after sanitization")
	errCodeLong       = errors.New("file_code too long (max 50 characters)")

	htmlEscaper   = strings.NewReplacer("<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#x27;", "&", "&amp;")
	whitespace    = regexp.MustCompile(`\s+`)
	fileCodeJunk  = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	leadingNumber = regexp.MustCompile(`^[+-]?\d+`)
)

// parsePagination reads page and per_page, defaulting missing values.
// Leading digits are accepted the way parseInt accepts them ("12abc" is 12).
func parsePagination(pageRaw, perPageRaw string, perPageDefault int) (int, int, error) {
	page, ok := parseLeadingInt(pageRaw, defaultPage)
	if !ok || page < 1 || page > maxPage {
		return 0, 0, errInvalidPage
	}
	perPage, ok := parseLeadingInt(perPageRaw, perPageDefault)
	if !ok || perPage < 1 || perPage > maxPerPage {
		return 0, 0, errInvalidPerPage
	}
	return page, perPage, nil
}

func parseLeadingInt(raw string, def int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, true
	}
	m := leadingNumber.FindString(raw)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// sanitizeString trims, HTML-escapes, collapses whitespace and caps the length.
func sanitizeString(s string) string {
	s = htmlEscaper.Replace(strings.TrimSpace(s))
	s = whitespace.ReplaceAllString(s, " ")
	if len(s) > maxInputLen {
		s = s[:maxInputLen]
	}
	return s
}

func validateQuery(q string) (string, error) {
	if q == "" {
		return "", errQueryRequired
	}
	s := sanitizeString(q)
	switch n := len([]rune(s)); {
	case n < minQueryLen:
		return "", errQueryShort
	case n > maxQueryLen:
		return "", errQueryLong
	}
	return s, nil
}

func validateFileCode(code string) (string, error) {
	if code == "" {
		return "", errCodeRequired
	}
	s := fileCodeJunk.ReplaceAllString(code, "")
	switch {
	case len(s) < minFileCode:
		return "", errCodeShort
	case len(s) > maxFileCode:
		return "", errCodeLong
	}
	return s, nil
}
