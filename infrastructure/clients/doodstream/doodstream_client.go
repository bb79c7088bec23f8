// Package doodstream is the client for the secondary, per-query provider.
package doodstream

import (
	"context"
	"net/http"
	"strings"

	"media-aggregator/domain/apperror"
	"media-aggregator/domain/dto"
	"media-aggregator/domain/model"
	"media-aggregator/domain/repository"
	"media-aggregator/infrastructure/clients"
)

const invalidFileCodes = "invalid file codes"

// Config represents the provider connection settings
type Config struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Limits    clients.Resilience
}

// Client implements repository.ISecondaryProvider
type Client struct {
	req    *clients.Requester
	apiKey string
}

// NewClient creates a new secondary provider client
func NewClient(cfg Config, httpClient *http.Client) repository.ISecondaryProvider {
	return &Client{
		req:    clients.NewRequester(model.SourceSecondary, cfg.BaseURL, cfg.UserAgent, httpClient, cfg.Limits),
		apiKey: cfg.APIKey,
	}
}

// ListFiles fetches one page of the provider's own listing.
func (c *Client) ListFiles(ctx context.Context, page, perPage int) (*dto.SecondaryListResponse, error) {
	var resp dto.SecondaryListResponse
	params := dto.SecondaryListRequest{Key: c.apiKey, Page: page, PerPage: perPage}
	if err := c.req.GetJSON(ctx, "/file/list", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.ProviderEnvelope); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search returns the files matching one keyword.
func (c *Client) Search(ctx context.Context, term string) ([]dto.SecondaryFile, error) {
	var resp dto.SecondarySearchResponse
	params := dto.SecondarySearchRequest{Key: c.apiKey, SearchTerm: term}
	if err := c.req.GetJSON(ctx, "/search/videos", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.ProviderEnvelope); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// FileInfo returns the provider's record for fileCode. The provider answers
// an unknown code with status 400 and "Invalid file codes", which is
// reported as apperror.ErrNotFound, as is an empty result list.
func (c *Client) FileInfo(ctx context.Context, fileCode string) (*dto.SecondaryFile, error) {
	var resp dto.SecondaryInfoResponse
	params := dto.SecondaryInfoRequest{Key: c.apiKey, FileCode: fileCode}
	err := c.req.GetJSON(ctx, "/file/info", params, &resp)
	if isInvalidFileCode(resp.ProviderEnvelope) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp.ProviderEnvelope); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, apperror.ErrNotFound
	}
	file := resp.Result[0]
	return &file, nil
}

func isInvalidFileCode(env dto.ProviderEnvelope) bool {
	return env.Status.Value == http.StatusBadRequest && strings.EqualFold(strings.TrimSpace(env.Msg), invalidFileCodes)
}

func checkStatus(env dto.ProviderEnvelope) error {
	if env.Status.Value == http.StatusOK {
		return nil
	}
	return apperror.NewUpstreamError(model.SourceSecondary, int(env.Status.Value), env.Msg, nil)
}
