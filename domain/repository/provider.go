package repository

import (
	"context"

	"media-aggregator/domain/dto"
)

// IPrimaryProvider is the paged full-catalogue upstream.
type IPrimaryProvider interface {
	ListFiles(ctx context.Context, page, perPage int) (*dto.PrimaryListResponse, error)
}

// ISecondaryProvider is the per-query upstream.
type ISecondaryProvider interface {
	ListFiles(ctx context.Context, page, perPage int) (*dto.SecondaryListResponse, error)
	// Search returns the files matching a single keyword.
	Search(ctx context.Context, term string) ([]dto.SecondaryFile, error)
	// FileInfo returns apperror.ErrNotFound when the provider does not know fileCode.
	FileInfo(ctx context.Context, fileCode string) (*dto.SecondaryFile, error)
}
