package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"media-aggregator/domain/apperror"
	"media-aggregator/domain/model"
	"media-aggregator/domain/repository"
	"media-aggregator/infrastructure/cache"
	"media-aggregator/infrastructure/logger"
	"media-aggregator/infrastructure/title"
	"media-aggregator/infrastructure/utils"
)

const (
	defaultMaxKeywords = 5

	keyPrimaryCatalogue = "lulustream_all_data"
	keySecondaryList    = "doodapi_list"
	keySecondarySearch  = "doodapi_search"
	keySecondaryInfo    = "doodapi_info"
)

// IMediaUsecase serves the aggregated media listings.
type IMediaUsecase interface {
	// ListItems returns a page of the primary catalogue merged with the
	// same page of the secondary provider's listing.
	ListItems(ctx context.Context, page, perPage int) (*model.MediaPage, error)
	// RandomItems returns a page of the primary catalogue in hourly shuffled order.
	RandomItems(ctx context.Context, page, perPage int) (*model.MediaPage, error)
	// SearchItems returns a relevance-ranked page of items matching query.
	SearchItems(ctx context.Context, query string, page, perPage int) (*model.MediaPage, error)
	// GetItemInfo returns the item with fileCode, apperror.ErrNotFound when
	// no provider has it, or an apperror.ErrDataUnavailable error when that
	// cannot be determined.
	GetItemInfo(ctx context.Context, fileCode string) (*model.MediaItem, error)
	Stats() model.CacheStats
	ClearCache(ctx context.Context) error
	// WarmUp loads the primary catalogue and the first secondary page.
	WarmUp(ctx context.Context) error
}

// PrimarySettings configures how the primary catalogue is fetched and cached.
type PrimarySettings struct {
	PerPage   int
	MaxPages  int
	TTL       time.Duration
	EmbedBase string
}

// SecondarySettings configures the secondary provider queries.
type SecondarySettings struct {
	ListTTL     time.Duration
	SearchTTL   time.Duration
	InfoTTL     time.Duration
	MaxKeywords int
	EmbedBase   string
}

// MediaUsecase owns the fetcher, the cache behind it and the title
// normalizer; nothing is shared between instances.
type MediaUsecase struct {
	primary   repository.IPrimaryProvider
	secondary repository.ISecondaryProvider
	fetcher   *cache.Fetcher
	titles    *title.Normalizer
	primCfg   PrimarySettings
	secCfg    SecondarySettings
	now       func() time.Time
}

// secondaryPage is the cached form of one secondary listing page.
type secondaryPage struct {
	Items []model.MediaItem `json:"items"`
	Total int               `json:"total"`
}

// NewMediaUsecase creates a new media use case instance
func NewMediaUsecase(
	primary repository.IPrimaryProvider,
	secondary repository.ISecondaryProvider,
	fetcher *cache.Fetcher,
	titles *title.Normalizer,
	primCfg PrimarySettings,
	secCfg SecondarySettings,
) *MediaUsecase {
	if primCfg.PerPage <= 0 {
		primCfg.PerPage = 1000
	}
	if primCfg.MaxPages <= 0 {
		primCfg.MaxPages = 1000
	}
	if primCfg.TTL <= 0 {
		primCfg.TTL = cache.DefaultMaxAge
	}
	if secCfg.MaxKeywords <= 0 {
		secCfg.MaxKeywords = defaultMaxKeywords
	}
	return &MediaUsecase{
		primary:   primary,
		secondary: secondary,
		fetcher:   fetcher,
		titles:    titles,
		primCfg:   primCfg,
		secCfg:    secCfg,
		now:       utils.GetCurrentTime,
	}
}

func (u *MediaUsecase) ListItems(ctx context.Context, page, perPage int) (*model.MediaPage, error) {
	var (
		catalogue []model.MediaItem
		sec       secondaryPage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalogue, err = u.primaryCatalogue(gctx, true)
		return err
	})
	g.Go(func() error {
		sec = u.secondaryListing(gctx, page, perPage)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start, end := utils.PageBounds(len(catalogue), page, perPage)
	items := mergeListing(catalogue[start:end], sec.Items)
	total := len(catalogue) + sec.Total
	return u.page(items, page, perPage, total), nil
}

func (u *MediaUsecase) RandomItems(ctx context.Context, page, perPage int) (*model.MediaPage, error) {
	catalogue, err := u.primaryCatalogue(ctx, true)
	if err != nil {
		return nil, err
	}
	shuffled := ShuffleDeterministic(catalogue, HourSeed(u.now()))
	start, end := utils.PageBounds(len(shuffled), page, perPage)
	return u.page(shuffled[start:end], page, perPage, len(shuffled)), nil
}

func (u *MediaUsecase) SearchItems(ctx context.Context, query string, page, perPage int) (*model.MediaPage, error) {
	keywords := queryKeywords(query)

	var catalogue, remote []model.MediaItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalogue, err = u.primaryCatalogue(gctx, true)
		return err
	})
	g.Go(func() error {
		var err error
		remote, err = u.secondarySearch(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	local := lo.Filter(catalogue, func(it model.MediaItem, _ int) bool {
		titleLower := strings.ToLower(it.Title)
		return lo.SomeBy(keywords, func(kw string) bool {
			return strings.Contains(titleLower, kw)
		})
	})

	ranked := RankByRelevance(mergeSearch(local, remote), keywords, query)
	start, end := utils.PageBounds(len(ranked), page, perPage)
	return u.page(ranked[start:end], page, perPage, len(ranked)), nil
}

func (u *MediaUsecase) GetItemInfo(ctx context.Context, fileCode string) (*model.MediaItem, error) {
	primaryUnavailable := false
	catalogue, err := u.primaryCatalogue(ctx, false)
	switch {
	case apperror.IsDataUnavailable(err):
		primaryUnavailable = true
		logger.GetLogger().WithField("fileCode", fileCode).WithField("error", err).Warn("Primary catalogue unavailable for info lookup")
	case err != nil:
		return nil, err
	}

	for i := range catalogue {
		if catalogue[i].FileCode == fileCode {
			item := catalogue[i]
			item.Title = u.titles.Process(item.Title, item.FileCode)
			return &item, nil
		}
	}

	item, err := u.secondaryInfo(ctx, fileCode)
	if err != nil {
		if apperror.IsNotFound(err) && primaryUnavailable {
			return nil, fmt.Errorf("%w: %s unknown to %s and %s unreachable",
				apperror.ErrDataUnavailable, fileCode, model.SourceSecondary, model.SourcePrimary)
		}
		return nil, err
	}
	item.Title = u.titles.Process(item.Title, item.FileCode)
	return item, nil
}

func (u *MediaUsecase) Stats() model.CacheStats {
	return u.fetcher.Cache().Stats()
}

func (u *MediaUsecase) ClearCache(ctx context.Context) error {
	u.titles.Reset()
	return u.fetcher.Cache().Clear(ctx)
}

func (u *MediaUsecase) WarmUp(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := u.primaryCatalogue(gctx, false)
		if err != nil {
			return err
		}
		logger.GetLogger().WithField("items", len(items)).Info("Primary catalogue warmed")
		return nil
	})
	g.Go(func() error {
		sec := u.secondaryListing(gctx, 1, 50)
		logger.GetLogger().WithField("items", len(sec.Items)).Info("Secondary listing warmed")
		return nil
	})
	return g.Wait()
}

// page applies display titles to items and wraps them with page counts.
func (u *MediaUsecase) page(items []model.MediaItem, page, perPage, total int) *model.MediaPage {
	out := make([]model.MediaItem, len(items))
	for i, it := range items {
		it.Title = u.titles.Process(it.Title, it.FileCode)
		out[i] = it
	}
	return &model.MediaPage{
		Items:      out,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: utils.TotalPages(total, perPage),
	}
}

// primaryCatalogue returns the full primary catalogue. With fallback set an
// unavailable catalogue is reported as empty.
func (u *MediaUsecase) primaryCatalogue(ctx context.Context, fallback bool) ([]model.MediaItem, error) {
	var empty *[]model.MediaItem
	if fallback {
		empty = &[]model.MediaItem{}
	}
	key := u.fetcher.Cache().Keys().Key(keyPrimaryCatalogue, nil)
	return cache.Resolve(ctx, u.fetcher, key, u.fetchPrimaryCatalogue, empty, cache.WithMaxAge(u.primCfg.TTL))
}

// fetchPrimaryCatalogue pages through the provider until the reported page
// count is reached or a page comes back empty. Any failed page fails the
// whole fetch so a truncated catalogue is never cached.
func (u *MediaUsecase) fetchPrimaryCatalogue(ctx context.Context) ([]model.MediaItem, error) {
	var items []model.MediaItem
	for page := 1; page <= u.primCfg.MaxPages; page++ {
		resp, err := u.primary.ListFiles(ctx, page, u.primCfg.PerPage)
		if err != nil {
			return nil, fmt.Errorf("primary page %d: %w", page, err)
		}
		if resp.Result == nil || len(resp.Result.Files) == 0 {
			break
		}
		for _, f := range resp.Result.Files {
			items = append(items, NormalizePrimaryItem(f, u.primCfg.EmbedBase))
		}
		pages := int(resp.Result.Pages.Value)
		if pages < 1 {
			pages = 1
		}
		if page >= pages {
			break
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("primary catalogue: %w", apperror.ErrEmptyResult)
	}
	logger.GetLogger().WithField("items", len(items)).Info("Fetched primary catalogue")
	return items, nil
}

// secondaryListing returns one page of the secondary listing, or an empty
// page when the provider is unavailable.
func (u *MediaUsecase) secondaryListing(ctx context.Context, page, perPage int) secondaryPage {
	key := u.fetcher.Cache().Keys().Key(keySecondaryList, map[string]any{"page": page, "perPage": perPage})
	fetch := func(ctx context.Context) (secondaryPage, error) {
		resp, err := u.secondary.ListFiles(ctx, page, perPage)
		if err != nil {
			return secondaryPage{}, err
		}
		out := secondaryPage{Items: []model.MediaItem{}}
		if resp.Result == nil {
			return out, nil
		}
		for _, f := range resp.Result.Files {
			out.Items = append(out.Items, NormalizeSecondaryItem(f, u.secCfg.EmbedBase))
		}
		out.Total = int(resp.Result.ResultsTotal.Value)
		return out, nil
	}

	sec, err := cache.Resolve(ctx, u.fetcher, key, fetch, nil, cache.WithMaxAge(u.secCfg.ListTTL))
	if err != nil {
		logger.GetLogger().WithField("page", page).WithField("error", err).Warn("Secondary listing unavailable")
		return secondaryPage{}
	}
	return sec
}

// secondarySearch queries the secondary provider once per keyword,
// concurrently, and keeps the higher-view copy of duplicate codes. A failed
// keyword contributes nothing unless every keyword failed.
func (u *MediaUsecase) secondarySearch(ctx context.Context, query string) ([]model.MediaItem, error) {
	normalized := strings.Join(queryKeywords(query), " ")
	key := u.fetcher.Cache().Keys().Key(keySecondarySearch, map[string]any{"searchTerm": normalized})

	fetch := func(ctx context.Context) ([]model.MediaItem, error) {
		keywords := searchKeywords(normalized, u.secCfg.MaxKeywords)
		if len(keywords) == 0 {
			return nil, nil
		}

		results := make([][]model.MediaItem, len(keywords))
		var (
			mu       sync.Mutex
			failures []error
		)
		g, gctx := errgroup.WithContext(ctx)
		for i, kw := range keywords {
			i, kw := i, kw
			g.Go(func() error {
				files, err := u.secondary.Search(gctx, kw)
				if err != nil {
					logger.GetLogger().WithField("keyword", kw).WithField("error", err).Warn("Secondary search failed for keyword")
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
					return nil
				}
				items := make([]model.MediaItem, 0, len(files))
				for _, f := range files {
					items = append(items, NormalizeSecondaryItem(f, u.secCfg.EmbedBase))
				}
				results[i] = items
				return nil
			})
		}
		_ = g.Wait()

		if len(failures) == len(keywords) {
			return nil, failures[0]
		}
		merged := mergeSearch(results...)
		logger.GetLogger().WithField("keywords", len(keywords)).WithField("results", len(merged)).Debug("Secondary search finished")
		return merged, nil
	}

	return cache.Resolve(ctx, u.fetcher, key, fetch, &[]model.MediaItem{}, cache.WithMaxAge(u.secCfg.SearchTTL))
}

// secondaryInfo looks fileCode up on the secondary provider.
func (u *MediaUsecase) secondaryInfo(ctx context.Context, fileCode string) (*model.MediaItem, error) {
	key := u.fetcher.Cache().Keys().Key(keySecondaryInfo, map[string]any{"fileCode": fileCode})
	fetch := func(ctx context.Context) (*model.MediaItem, error) {
		f, err := u.secondary.FileInfo(ctx, fileCode)
		if err != nil {
			return nil, err
		}
		item := NormalizeSecondaryItem(*f, u.secCfg.EmbedBase)
		if item.FileCode == "" {
			item.FileCode = fileCode
		}
		return &item, nil
	}
	return cache.Resolve(ctx, u.fetcher, key, fetch, nil, cache.WithMaxAge(u.secCfg.InfoTTL))
}

var _ IMediaUsecase = (*MediaUsecase)(nil)
