package dto

import "media-aggregator/domain/model"

// ServerTimeLayout is the server_time format shared with the upstream providers.
const ServerTimeLayout = "2006-01-02 15:04:05"

// ListResult is the "result" object of a listing response.
type ListResult struct {
	TotalPages   int               `json:"total_pages"`
	ResultsTotal string            `json:"results_total"`
	Results      int               `json:"results"`
	Files        []model.MediaItem `json:"files"`
	PerPageLimit string            `json:"per_page_limit"`
	Query        string            `json:"query,omitempty"`
}

type ListResponse struct {
	Result     ListResult `json:"result"`
	Status     int        `json:"status"`
	Msg        string     `json:"msg"`
	ServerTime string     `json:"server_time"`
}

type InfoResponse struct {
	Result     []model.MediaItem `json:"result"`
	Status     int               `json:"status"`
	Msg        string            `json:"msg"`
	ServerTime string            `json:"server_time"`
}

type StatsResponse struct {
	Result     model.CacheStats `json:"result"`
	Status     int              `json:"status"`
	Msg        string           `json:"msg"`
	ServerTime string           `json:"server_time"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Endpoint documents one route of the API index.
type Endpoint struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Description string            `json:"description"`
	Params      map[string]string `json:"params,omitempty"`
}
