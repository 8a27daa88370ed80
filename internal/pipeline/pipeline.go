// Package pipeline orchestrates one batch run:
// fetch -> extract -> normalize -> resolve logos -> upsert.
// Each listings page is processed and upserted independently, so a run
// cancelled mid-batch leaves a valid partial dataset for the next run to
// complete.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/settlewatch/settlewatch/internal/cache"
	"github.com/settlewatch/settlewatch/internal/extract"
	"github.com/settlewatch/settlewatch/internal/llm"
	"github.com/settlewatch/settlewatch/internal/logo"
	"github.com/settlewatch/settlewatch/internal/model"
	"github.com/settlewatch/settlewatch/internal/normalize"
	"github.com/settlewatch/settlewatch/internal/store"
	"github.com/settlewatch/settlewatch/internal/worker"
	"go.uber.org/zap"
)

const aboutTextLimit = 500

// Pipeline wires the run's collaborators. The store is constructed by the
// caller and passed in; nothing here reaches for ambient state.
type Pipeline struct {
	cfg        *model.Config
	fetcher    *Fetcher
	extractor  *extract.CardExtractor
	resolver   *logo.Resolver
	store      store.Store
	classifier llm.Provider // nil unless configured
	logger     *zap.Logger
	runDate    time.Time
}

// New builds a pipeline around an opened store.
func New(cfg *model.Config, st store.Store, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	classifier, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		// Classification is an optional refinement; a misconfigured
		// provider downgrades to keywords-only instead of failing the run.
		logger.Warn("LLM classifier disabled", zap.Error(err))
		classifier = nil
	}

	return &Pipeline{
		cfg:        cfg,
		fetcher:    NewFetcher(cfg, cache.FromConfig(cfg.Cache), logger),
		extractor:  extract.NewCardExtractor(),
		resolver:   logo.NewResolver(cfg.Source.BaseURL, logger),
		store:      st,
		classifier: classifier,
		logger:     logger,
	}, nil
}

// Run executes the full batch and returns the summary. The returned error is
// non-nil when the run must exit non-zero: every page fetch failed, the
// persistence error rate crossed the abort threshold, or cards existed but
// none could be written.
func (p *Pipeline) Run(ctx context.Context) (*model.RunSummary, error) {
	p.runDate = time.Now().UTC()

	summary := &model.RunSummary{StartedAt: p.runDate}
	urls := p.pageURLs()
	summary.Pages = len(urls)

	results := worker.ProcessPages(ctx, p, urls, p.cfg.Concurrency.PageWorkers)

	var fetchFailures, abortErrs []error
	for _, res := range results {
		summary.Merge(res.Stats)
		if res.Err == nil {
			continue
		}
		var netErr *model.NetworkError
		if errors.As(res.Err, &netErr) {
			fetchFailures = append(fetchFailures, res.Err)
			summary.Warnings = append(summary.Warnings, res.Err.Error())
			continue
		}
		abortErrs = append(abortErrs, res.Err)
	}
	summary.FinishedAt = time.Now().UTC()

	switch {
	case len(abortErrs) > 0:
		return summary, abortErrs[0]
	case len(fetchFailures) == len(urls):
		return summary, fetchFailures[0]
	case summary.Failed():
		return summary, fmt.Errorf("%d records seen but none written", summary.Seen)
	}
	return summary, nil
}

// ProcessPage fetches, extracts, normalizes, logo-resolves, and upserts one
// listings page. Implements worker.PageProcessor.
func (p *Pipeline) ProcessPage(ctx context.Context, pageURL string) (model.PageStats, error) {
	var stats model.PageStats
	if p.runDate.IsZero() {
		p.runDate = time.Now().UTC()
	}

	html, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return stats, err
	}

	cards, parseErrs := p.extractor.Extract(html)
	stats.Seen = len(cards) + len(parseErrs)
	stats.Skipped = len(parseErrs)
	for _, perr := range parseErrs {
		p.logger.Warn("card skipped", zap.Error(perr))
		stats.Warnings = append(stats.Warnings, perr.Error())
	}

	logoMaps := p.resolver.Build(html)

	records := make([]model.Settlement, 0, len(cards))
	for _, card := range cards {
		rec := p.normalizeCard(ctx, card, pageURL, &stats)
		if rec.LogoURL == "" {
			if url, ok := logoMaps.Resolve(rec.SourceID, rec.Name); ok {
				rec.LogoURL = url
			}
		}
		records = append(records, rec)
	}

	return p.upsert(ctx, records, stats)
}

// normalizeCard turns one raw card into a canonical settlement record.
func (p *Pipeline) normalizeCard(ctx context.Context, card extract.RawCard, pageURL string, stats *model.PageStats) model.Settlement {
	rec := model.Settlement{
		SourceID:    card.Slug,
		Name:        normalize.FullName(card.Name),
		CompanyName: normalize.CompanyName(card.Name),
		ClaimURL:    p.absolutizeLink(card.ClaimURL),
		SourceURL:   pageURL,
		LogoURL:     card.LogoURL,
	}

	payout := normalize.ParsePayout(card.CardText)
	payout, clamped := payout.Clamp()
	if clamped {
		verr := &model.ValidationError{SourceID: rec.SourceID, Field: "payout", Reason: "min exceeds max, dropped max"}
		p.logger.Warn("field clamped", zap.Error(verr))
		stats.Warnings = append(stats.Warnings, verr.Error())
	}
	rec.PayoutMin = payout.Min
	rec.PayoutMax = payout.Max

	deadline := normalize.ParseDeadline(card.CardText, p.runDate)
	rec.Deadline = deadline.Date
	rec.DaysLeft = deadline.DaysLeft
	if deadline.Warning != "" {
		p.logger.Warn("deadline mismatch", zap.String("source_id", rec.SourceID), zap.String("detail", deadline.Warning))
		stats.Warnings = append(stats.Warnings, rec.SourceID+": "+deadline.Warning)
	}

	rec.Category = p.classifyCategory(ctx, card)
	rec.CaseType = rec.Category

	proof := normalize.InferProof(card.CardText)
	rec.RequiresProof = &proof

	rec.EligibilityText = normalize.ExtractEligibility(card.CardText)
	rec.AboutText = truncate(card.CardText, aboutTextLimit)

	major := normalize.IsMajorBrand(rec.CompanyName)
	rec.IsMajorBrand = &major
	if strings.Contains(card.CardText, "Featured") {
		featured := true
		rec.IsFeatured = &featured
	}

	return rec
}

// classifyCategory runs the keyword classifier and, only when it fell
// through to the fallback, asks the optional LLM provider for a better
// label. Classifier failures are logged and ignored.
func (p *Pipeline) classifyCategory(ctx context.Context, card extract.RawCard) string {
	category := normalize.ClassifyCategory(card.Name, card.CardText)
	if category != model.CategoryConsumer || p.classifier == nil {
		return category
	}

	refined, err := p.classifier.ClassifyCategory(ctx, llm.ClassifyRequest{
		Name:     card.Name,
		CardText: card.CardText,
	})
	if err != nil {
		p.logger.Debug("LLM classification failed", zap.String("slug", card.Slug), zap.Error(err))
		return category
	}
	return refined
}

// upsert writes one page's records and folds the outcome into stats. The
// run aborts when the per-batch persistence error rate crosses the
// configured threshold.
func (p *Pipeline) upsert(ctx context.Context, records []model.Settlement, stats model.PageStats) (model.PageStats, error) {
	if len(records) == 0 {
		return stats, nil
	}

	writeCtx := ctx
	if p.cfg.Storage.Timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, p.cfg.Storage.Timeout)
		defer cancel()
	}

	results, err := p.store.UpsertBatch(writeCtx, records)
	for _, res := range results {
		switch {
		case res.Err != nil:
			stats.Errors++
			p.logger.Error("record not persisted", zap.Error(res.Err))
			stats.Warnings = append(stats.Warnings, res.Err.Error())
		case res.Inserted:
			stats.Inserted++
		default:
			stats.Updated++
		}
	}
	if err != nil {
		return stats, fmt.Errorf("upsert batch: %w", err)
	}

	if rate := float64(stats.Errors) / float64(len(records)); rate > p.cfg.Storage.ErrorRateAbort {
		return stats, fmt.Errorf("persistence error rate %.0f%% exceeds abort threshold", rate*100)
	}
	return stats, nil
}

// pageURLs expands the listings URL into the configured number of pages.
func (p *Pipeline) pageURLs() []string {
	pages := p.cfg.Source.Pages
	if pages < 1 {
		pages = 1
	}
	urls := make([]string, 0, pages)
	urls = append(urls, p.cfg.Source.ListingsURL)
	for n := 2; n <= pages; n++ {
		sep := "?"
		if strings.Contains(p.cfg.Source.ListingsURL, "?") {
			sep = "&"
		}
		urls = append(urls, fmt.Sprintf("%s%spage=%d", p.cfg.Source.ListingsURL, sep, n))
	}
	return urls
}

func (p *Pipeline) absolutizeLink(href string) string {
	if href == "" || !strings.HasPrefix(href, "/") {
		return href
	}
	return strings.TrimRight(p.cfg.Source.BaseURL, "/") + href
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		return cut[:i]
	}
	// No space to break on; back the cut off to a rune boundary.
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
