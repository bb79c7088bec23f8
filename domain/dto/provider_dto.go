package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Upstream payloads are loosely typed: the same field may arrive as a number,
// a numeric string, a boolean or be missing. The Flex* types accept all of
// those and record whether a value was present, so normalizers can apply
// their documented defaults.

// FlexInt decodes numbers, numeric strings and null.
type FlexInt struct {
	Value int64
	Valid bool
}

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = FlexInt{}
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*f = FlexInt{}
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = FlexInt{Value: n, Valid: true}
		return nil
	}
	fl, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparseable values are treated as missing.
		*f = FlexInt{}
		return nil
	}
	*f = FlexInt{Value: int64(fl), Valid: true}
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(f.Value, 10)), nil
}

// FlexBool decodes booleans, 0/1 numbers and their string forms.
type FlexBool struct {
	Value bool
	Valid bool
}

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.Trim(string(bytes.TrimSpace(b)), `"`))
	switch s {
	case "true", "1", "yes":
		*f = FlexBool{Value: true, Valid: true}
	case "false", "0", "no":
		*f = FlexBool{Value: false, Valid: true}
	default:
		*f = FlexBool{}
	}
	return nil
}

func (f FlexBool) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// FlexString decodes strings and numbers into their string form.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(string(b))
	return nil
}

// ProviderEnvelope is the {status, msg, server_time} header every provider response carries.
type ProviderEnvelope struct {
	Status     FlexInt `json:"status"`
	Msg        string  `json:"msg"`
	ServerTime string  `json:"server_time"`
}

// PrimaryListRequest is encoded with go-querystring.
type PrimaryListRequest struct {
	Key     string `url:"key"`
	Page    int    `url:"page"`
	PerPage int    `url:"per_page"`
}

// PrimaryFile is one file of the primary provider's list. Every field is optional.
type PrimaryFile struct {
	FileCode       string     `json:"file_code"`
	FileCodeAlt    string     `json:"filecode"`
	Title          string     `json:"title"`
	FileTitle      string     `json:"file_title"`
	Length         FlexString `json:"length"`
	FileLength     FlexString `json:"file_length"`
	Views          FlexInt    `json:"views"`
	FileViews      FlexInt    `json:"file_views"`
	CanPlay        FlexBool   `json:"canplay"`
	Status         FlexString `json:"status"`
	Uploaded       string     `json:"uploaded"`
	LastView       string     `json:"last_view"`
	PlayerImg      string     `json:"player_img"`
	ProtectedEmbed string     `json:"protected_embed"`
	DownloadURL    string     `json:"download_url"`
	APISource      string     `json:"api_source"`
}

// PrimaryListResult is the "result" object of a primary list response.
type PrimaryListResult struct {
	Files        []PrimaryFile `json:"files"`
	Pages        FlexInt       `json:"pages"`
	ResultsTotal FlexInt       `json:"results_total"`
}

type PrimaryListResponse struct {
	ProviderEnvelope
	Result *PrimaryListResult `json:"result"`
}

// SecondaryListRequest is encoded with go-querystring.
type SecondaryListRequest struct {
	Key     string `url:"key"`
	Page    int    `url:"page"`
	PerPage int    `url:"per_page"`
}

type SecondarySearchRequest struct {
	Key        string `url:"key"`
	SearchTerm string `url:"search_term"`
}

type SecondaryInfoRequest struct {
	Key      string `url:"key"`
	FileCode string `url:"file_code"`
}

// SecondaryFile covers the list, search and info shapes of the secondary provider.
type SecondaryFile struct {
	FileCode       string     `json:"file_code"`
	FileCodeAlt    string     `json:"filecode"`
	Title          string     `json:"title"`
	Length         FlexString `json:"length"`
	Size           FlexString `json:"size"`
	Views          FlexInt    `json:"views"`
	CanPlay        FlexBool   `json:"canplay"`
	Status         FlexString `json:"status"`
	Public         FlexString `json:"public"`
	FldID          FlexString `json:"fld_id"`
	Uploaded       string     `json:"uploaded"`
	LastView       string     `json:"last_view"`
	SingleImg      string     `json:"single_img"`
	SplashImg      string     `json:"splash_img"`
	ProtectedEmbed string     `json:"protected_embed"`
	ProtectedDL    string     `json:"protected_dl"`
	DownloadURL    string     `json:"download_url"`

	// MatchedKeyword is set locally by keyword search, never by the provider.
	MatchedKeyword string `json:"matched_keyword,omitempty"`
}

// Code returns whichever identity field the provider populated.
func (f SecondaryFile) Code() string {
	if f.FileCode != "" {
		return f.FileCode
	}
	return f.FileCodeAlt
}

type SecondaryListResult struct {
	Files        []SecondaryFile `json:"files"`
	TotalPages   FlexInt         `json:"total_pages"`
	ResultsTotal FlexInt         `json:"results_total"`
}

type SecondaryListResponse struct {
	ProviderEnvelope
	Result *SecondaryListResult `json:"result"`
}

type SecondarySearchResponse struct {
	ProviderEnvelope
	Result []SecondaryFile `json:"result"`
}

type SecondaryInfoResponse struct {
	ProviderEnvelope
	Result []SecondaryFile `json:"result"`
}
