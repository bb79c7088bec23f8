package model

// Source tags naming the originating provider of a MediaItem.
const (
	SourcePrimary   = "lulustream"
	SourceSecondary = "doodstream"
)

// MediaItem is the provider-agnostic media record. FileCode is unique within
// one aggregated result set.
type MediaItem struct {
	FileCode    string   `json:"file_code"`
	Title       string   `json:"title"`
	Views       int64    `json:"views"`
	Duration    int64    `json:"duration"` // seconds
	Length      string   `json:"length"`
	Size        string   `json:"size,omitempty"`
	CanPlay     bool     `json:"canplay"`
	Status      string   `json:"status"`
	SingleImg   string   `json:"single_img"`
	SplashImg   string   `json:"splash_img"`
	EmbedURL    string   `json:"protected_embed"`
	DownloadURL string   `json:"protected_dl"`
	Uploaded    string   `json:"uploaded"`
	LastView    string   `json:"last_view,omitempty"`
	Source      string   `json:"api_source"`
	Tags        []string `json:"tag,omitempty"`
	Description string   `json:"deskripsi,omitempty"`
}

// MediaPage is one page of an aggregated listing.
type MediaPage struct {
	Items      []MediaItem `json:"items"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
}
