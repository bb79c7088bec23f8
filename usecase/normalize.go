package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"media-aggregator/domain/dto"
	"media-aggregator/domain/model"
)

const (
	maxTags = 15

	primaryImageBase    = "https://img.lulucdn.com/"
	primaryDownloadBase = "https://lulustream.com/dl/"
	defaultStatus       = "active"
)

var (
	titleJunk = regexp.MustCompile(`[^\w\s-]+`)
	tagJunk   = regexp.MustCompile(`[^a-zA-Z0-9\s]+`)
)

// NormalizePrimaryItem maps a primary provider file to a MediaItem. Missing
// fields fall back to URLs derived from the file code, status "active",
// canplay true and zero views.
func NormalizePrimaryItem(f dto.PrimaryFile, embedBase string) model.MediaItem {
	code := firstNonEmpty(f.FileCode, f.FileCodeAlt)
	rawTitle := firstNonEmpty(f.Title, f.FileTitle)
	cleaned := cleanTitle(rawTitle)
	tags := titleTags(rawTitle)

	views := f.Views
	if !views.Valid {
		views = f.FileViews
	}
	length := string(f.Length)

	return model.MediaItem{
		FileCode:    code,
		Title:       cleaned,
		Views:       views.Value,
		Duration:    parseDuration(firstNonEmpty(string(f.FileLength), length)),
		Length:      length,
		Size:        length,
		CanPlay:     !f.CanPlay.Valid || f.CanPlay.Value,
		Status:      firstNonEmpty(string(f.Status), defaultStatus),
		SingleImg:   firstNonEmpty(f.PlayerImg, primaryImageBase+code+"_t.jpg"),
		SplashImg:   firstNonEmpty(f.PlayerImg, primaryImageBase+code+"_xt.jpg"),
		EmbedURL:    firstNonEmpty(f.ProtectedEmbed, joinURL(embedBase, code)),
		DownloadURL: firstNonEmpty(f.DownloadURL, primaryDownloadBase+code),
		Uploaded:    f.Uploaded,
		LastView:    f.LastView,
		Source:      firstNonEmpty(f.APISource, model.SourcePrimary),
		Tags:        tags,
		Description: describe(cleaned, tags),
	}
}

// NormalizeSecondaryItem maps a secondary provider file to a MediaItem.
func NormalizeSecondaryItem(f dto.SecondaryFile, embedBase string) model.MediaItem {
	code := f.Code()
	cleaned := cleanTitle(f.Title)
	tags := titleTags(f.Title)
	length := string(f.Length)

	return model.MediaItem{
		FileCode:    code,
		Title:       cleaned,
		Views:       f.Views.Value,
		Duration:    parseDuration(length),
		Length:      length,
		Size:        string(f.Size),
		CanPlay:     !f.CanPlay.Valid || f.CanPlay.Value,
		Status:      firstNonEmpty(string(f.Status), defaultStatus),
		SingleImg:   f.SingleImg,
		SplashImg:   f.SplashImg,
		EmbedURL:    firstNonEmpty(f.ProtectedEmbed, joinURL(embedBase, code)),
		DownloadURL: firstNonEmpty(f.ProtectedDL, f.DownloadURL),
		Uploaded:    f.Uploaded,
		LastView:    f.LastView,
		Source:      model.SourceSecondary,
		Tags:        tags,
		Description: describe(cleaned, tags),
	}
}

// parseDuration accepts plain seconds or [HH:]MM:SS.
func parseDuration(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	parts := strings.Split(s, ":")
	var total int64
	for _, p := range parts {
		n, _ := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		total = total*60 + n
	}
	return total
}

func cleanTitle(s string) string {
	return strings.TrimSpace(titleJunk.ReplaceAllString(s, ""))
}

func titleTags(raw string) []string {
	words := strings.Fields(tagJunk.ReplaceAllString(raw, ""))
	seen := make(map[string]struct{}, len(words))
	tags := make([]string, 0, min(len(words), maxTags))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		tags = append(tags, w)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

func describe(title string, tags []string) string {
	return fmt.Sprintf("%s - High quality video streaming. Tags: %s", title, strings.Join(tags, ", "))
}

func joinURL(base, code string) string {
	if code == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + code
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
