// Package lulustream is the client for the primary, full-catalogue provider.
package lulustream

import (
	"context"
	"net/http"

	"media-aggregator/domain/apperror"
	"media-aggregator/domain/dto"
	"media-aggregator/domain/model"
	"media-aggregator/domain/repository"
	"media-aggregator/infrastructure/clients"
)

// Config represents the provider connection settings
type Config struct {
	BaseURL string
	APIKey  string
	Limits  clients.Resilience
}

// Client implements repository.IPrimaryProvider
type Client struct {
	req    *clients.Requester
	apiKey string
}

// NewClient creates a new primary provider client
func NewClient(cfg Config, httpClient *http.Client) repository.IPrimaryProvider {
	return &Client{
		req:    clients.NewRequester(model.SourcePrimary, cfg.BaseURL, "", httpClient, cfg.Limits),
		apiKey: cfg.APIKey,
	}
}

// ListFiles fetches one page of the catalogue. A response whose status
// field is not 200 is an upstream error.
func (c *Client) ListFiles(ctx context.Context, page, perPage int) (*dto.PrimaryListResponse, error) {
	var resp dto.PrimaryListResponse
	params := dto.PrimaryListRequest{Key: c.apiKey, Page: page, PerPage: perPage}
	if err := c.req.GetJSON(ctx, "/file/list", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status.Value != http.StatusOK {
		return nil, apperror.NewUpstreamError(model.SourcePrimary, int(resp.Status.Value), resp.Msg, nil)
	}
	return &resp, nil
}
