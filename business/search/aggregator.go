package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mmDiagnosis/domain"
	"mmDiagnosis/pkg/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Rung is a step of the fallback ladder. Rungs only move forward.
type Rung int

const (
	RungStrict Rung = iota
	RungBudgetRelaxed
	RungKeywordRelaxed
	RungImageRelaxed
	RungEmpty
)

func (r Rung) String() string {
	switch r {
	case RungStrict:
		return "strict"
	case RungBudgetRelaxed:
		return "budget_relaxed"
	case RungKeywordRelaxed:
		return "keyword_relaxed"
	case RungImageRelaxed:
		return "image_relaxed"
	case RungEmpty:
		return "empty"
	}
	return fmt.Sprintf("rung(%d)", int(r))
}

func (r Rung) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

const (
	defaultRoundTimeout   = 8 * time.Second
	defaultCacheTTL       = 20 * time.Minute
	defaultLimit          = 20
	maxLimit              = 100
	defaultMaxConcurrency = 8
	defaultHitsPerQuery   = 30
)

const (
	defaultEmptyMessage       = "No matching pillows were found. Try a different budget or change a few answers."
	defaultBudgetRelaxedNote  = "Nothing matched your budget exactly, so these picks are outside it."
	defaultKeywordRelaxedNote = "Showing broader matches for your pillow type."
	defaultImageRelaxedNote   = "Some of these listings have no photo."
)

// Config tunes the aggregator. Per-call deadlines belong to the
// marketplaces; RoundTimeout bounds everything a round waits on, rate-limit
// queueing included.
type Config struct {
	RoundTimeout   time.Duration
	CacheTTL       time.Duration
	MaxConcurrency int
	HitsPerQuery   int
	EmptyMessage   string
}

func DefaultConfig() Config {
	return Config{
		RoundTimeout:   defaultRoundTimeout,
		CacheTTL:       defaultCacheTTL,
		MaxConcurrency: defaultMaxConcurrency,
		HitsPerQuery:   defaultHitsPerQuery,
		EmptyMessage:   defaultEmptyMessage,
	}
}

// Request is one aggregated search. Categories seed the broadened keyword
// set on relaxation; Band is optional.
type Request struct {
	Queries    []string            `json:"queries"`
	Categories []domain.CategoryID `json:"categories,omitempty"`
	Band       *domain.BudgetBand  `json:"band,omitempty"`
	Limit      int                 `json:"limit,omitempty"`
}

// Result is the outcome of the ladder. Rung is RungEmpty, with Message set,
// when every rung came back empty.
type Result struct {
	Items   []domain.SearchItem `json:"items"`
	Rung    Rung                `json:"rung"`
	Message string              `json:"message,omitempty"`
}

func (r Result) Empty() bool {
	return len(r.Items) == 0
}

// Aggregator fans queries out to every marketplace and walks the fallback
// ladder until something is found.
type Aggregator struct {
	markets []Marketplace
	cache   Cache
	filters []ItemFilter
	cfg     Config
	group   singleflight.Group
}

// NewAggregator builds an aggregator. A nil cache disables caching.
func NewAggregator(markets []Marketplace, cache Cache, cfg Config) *Aggregator {
	def := DefaultConfig()
	if cfg.RoundTimeout <= 0 {
		cfg.RoundTimeout = def.RoundTimeout
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	if cfg.HitsPerQuery <= 0 {
		cfg.HitsPerQuery = def.HitsPerQuery
	}
	if cfg.EmptyMessage == "" {
		cfg.EmptyMessage = def.EmptyMessage
	}

	return &Aggregator{
		markets: markets,
		cache:   cache,
		filters: []ItemFilter{FurusatoFilter, AccessoryFilter},
		cfg:     cfg,
	}
}

type attempt struct {
	rung         Rung
	queries      []string
	band         *domain.BudgetBand
	requireImage bool
	note         string
}

// Search runs the ladder strict -> budget relaxed -> keyword relaxed ->
// image relaxed and stops at the first rung with results. It never fails;
// marketplace errors only shrink the result set.
func (a *Aggregator) Search(ctx context.Context, req Request) Result {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	queries := uniqueStrings(req.Queries)
	if len(queries) == 0 {
		queries = KeywordsFor(req.Categories)
	}
	broad := BroadKeywords(req.Categories)

	ladder := []attempt{
		{rung: RungStrict, queries: queries, band: req.Band, requireImage: true},
		{rung: RungBudgetRelaxed, queries: queries, requireImage: true, note: defaultBudgetRelaxedNote},
		{rung: RungKeywordRelaxed, queries: broad, requireImage: true, note: defaultKeywordRelaxedNote},
		{rung: RungImageRelaxed, queries: broad, requireImage: false, note: defaultImageRelaxedNote},
	}

	for _, step := range ladder {
		if err := ctx.Err(); err != nil {
			logger.Warn("search abandoned", "rung", step.rung.String(), "error", err)
			break
		}

		items := a.attempt(ctx, step, limit)
		logger.Debug("search rung",
			"trace_id", logger.TraceIDFromContext(ctx),
			"rung", step.rung.String(),
			"queries", len(step.queries),
			"count", len(items),
		)
		if len(items) == 0 {
			continue
		}

		FallbackRungTotal.WithLabelValues(step.rung.String()).Inc()
		return Result{Items: items, Rung: step.rung, Message: step.note}
	}

	FallbackRungTotal.WithLabelValues(RungEmpty.String()).Inc()
	return Result{Items: []domain.SearchItem{}, Rung: RungEmpty, Message: a.cfg.EmptyMessage}
}

func (a *Aggregator) attempt(ctx context.Context, step attempt, limit int) []domain.SearchItem {
	if len(step.queries) == 0 {
		return nil
	}

	raw := a.fetch(ctx, step.queries, step.band)

	filters := append([]ItemFilter{PriceFilter(step.band)}, a.filters...)
	if step.requireImage {
		filters = append(filters, ImageFilter)
	}

	items := Dedup(ApplyFilters(raw, filters...))
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// fetch returns the merged marketplace results for one signature, from the
// cache when possible. Concurrent identical rounds share one fan-out.
func (a *Aggregator) fetch(ctx context.Context, queries []string, band *domain.BudgetBand) []domain.SearchItem {
	key := CacheKey(queries, band)

	if a.cache != nil {
		items, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("search cache read failed", "key", key, "error", err)
		}
		if ok {
			CacheHitsTotal.Inc()
			return items
		}
	}

	v, _, _ := a.group.Do(key, func() (any, error) {
		// the shared round outlives any single caller's cancellation
		roundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.RoundTimeout)
		defer cancel()

		items, complete := a.round(roundCtx, queries, band)
		if complete && a.cache != nil {
			if err := a.cache.Set(roundCtx, key, items, a.cfg.CacheTTL); err != nil {
				logger.Warn("search cache write failed", "key", key, "error", err)
			}
		}
		return items, nil
	})

	items, _ := v.([]domain.SearchItem)
	return cloneItems(items)
}

// round queries every marketplace with every keyword concurrently. Failed
// branches contribute nothing; complete is false when any branch failed.
func (a *Aggregator) round(ctx context.Context, queries []string, band *domain.BudgetBand) ([]domain.SearchItem, bool) {
	start := time.Now()
	defer func() { RoundDuration.Observe(time.Since(start).Seconds()) }()

	var minPrice, maxPrice int
	if band != nil {
		minPrice, maxPrice = band.Bounds()
	}

	type branch struct {
		market Marketplace
		query  Query
	}
	branches := make([]branch, 0, len(a.markets)*len(queries))
	for _, m := range a.markets {
		for _, q := range queries {
			branches = append(branches, branch{
				market: m,
				query:  Query{Keywords: q, MinPrice: minPrice, MaxPrice: maxPrice, Hits: a.cfg.HitsPerQuery},
			})
		}
	}

	results := make([][]domain.SearchItem, len(branches))
	failed := make([]bool, len(branches))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxConcurrency)

	for i, b := range branches {
		g.Go(func() error {
			items, err := b.market.Search(gCtx, b.query)
			if err != nil {
				failed[i] = true
				kind := "error"
				if errors.Is(err, context.DeadlineExceeded) {
					kind = "timeout"
				}
				MarketplaceFailuresTotal.WithLabelValues(string(b.market.Name()), kind).Inc()
				logger.Warn("marketplace search failed",
					"mall", string(b.market.Name()),
					"keywords", b.query.Keywords,
					"kind", kind,
					"error", err,
				)
				// settled: a failed branch never cancels its siblings
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	complete := true
	merged := make([]domain.SearchItem, 0)
	for i, r := range results {
		if failed[i] {
			complete = false
		}
		merged = append(merged, r...)
	}

	return merged, complete
}
