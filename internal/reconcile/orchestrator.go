package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"avvatracker/internal/crawler"
	"avvatracker/internal/model"
	"avvatracker/internal/observability"
)

var (
	// ErrRepository wraps a persistence failure. On an item it is item-fatal;
	// while opening or closing a sweep it is category-fatal.
	ErrRepository = errors.New("repository error")
	// ErrCancelled marks a sweep stopped by its context.
	ErrCancelled = errors.New("sweep cancelled")
)

type Options struct {
	RecordVariants bool
	SendSummary    bool
	TopDrops       int
	CategoryDelay  time.Duration
	// SiteURL prefixes category slugs when a category row is created.
	SiteURL string
}

// Orchestrator runs category sweeps one at a time. It is not safe for
// concurrent use.
type Orchestrator struct {
	repo     Repository
	source   Source
	notifier Notifier
	recorder *HistoryRecorder
	policy   Policy
	opts     Options
	logger   *zap.Logger

	Metrics *observability.Metrics
	Now     func() time.Time
	Sleep   crawler.SleepFunc
}

func New(repo Repository, source Source, notifier Notifier, policy Policy, opts Options, logger *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		repo:     repo,
		source:   source,
		notifier: notifier,
		recorder: NewHistoryRecorder(repo),
		policy:   policy,
		opts:     opts,
		logger:   logger,
		Now:      time.Now,
		Sleep:    crawler.Sleep,
	}
	o.recorder.Now = func() time.Time { return o.Now() }
	return o
}

// CategoryResult is what one sweep contributes to the report.
type CategoryResult struct {
	Category     model.CategoryRef
	Run          model.ScrapeRun
	Found        int
	New          int
	Updated      int
	PriceChanges []model.PriceChange
	Errors       []model.ItemError
	// Err is the category-fatal failure, nil on success.
	Err error
}

// ItemOutcome is the result of reconciling one catalog item.
type ItemOutcome struct {
	Product   model.Product
	Detection Detection
	Events    []model.Event
}

// ScrapeCategory sweeps one category: running -> success | error | cancelled.
// Item failures are collected and never stop the sweep.
func (o *Orchestrator) ScrapeCategory(ctx context.Context, cat model.CategoryRef) *CategoryResult {
	started := o.Now()
	res := &CategoryResult{Category: cat}
	log := o.logger.With(zap.Int64("category_id", cat.CategoryID), zap.String("category", cat.DisplayName()))
	log.Info("category sweep started")

	run, err := o.repo.CreateScrapeRun(ctx, cat.CategoryID, started)
	if err != nil {
		res.Err = fmt.Errorf("%w: create scrape run: %w", ErrRepository, err)
		res.Errors = append(res.Errors, model.ItemError{CategoryID: cat.CategoryID, Error: res.Err.Error()})
		log.Error("category sweep not started", zap.Error(res.Err))
		return res
	}
	res.Run = run

	category, err := o.repo.UpsertCategory(ctx, model.Category{
		ExternalID: cat.CategoryID,
		Slug:       cat.Slug,
		Name:       cat.DisplayName(),
		URL:        strings.TrimRight(o.opts.SiteURL, "/") + "/" + cat.Slug,
		IsActive:   true,
	})
	if err != nil {
		err = fmt.Errorf("%w: upsert category: %w", ErrRepository, err)
	} else {
		err = o.source.FetchAllPages(ctx, cat.CategoryID, func(p model.Page) error {
			for _, rej := range p.Rejected {
				res.Found++
				res.Errors = append(res.Errors, rej)
				o.Metrics.ItemProcessed("rejected")
			}
			for _, item := range p.Items {
				if err := ctx.Err(); err != nil {
					return err
				}
				o.processItem(ctx, category.ID, item, res)
			}
			return nil
		})
	}

	o.finalize(ctx, res, err, started, log)
	return res
}

func (o *Orchestrator) processItem(ctx context.Context, categoryID int64, item model.CatalogItem, res *CategoryResult) {
	res.Found++

	out, err := o.ProcessProduct(ctx, categoryID, item)
	if err != nil {
		res.Errors = append(res.Errors, model.ItemError{ProductID: item.ExternalID, Error: err.Error()})
		o.Metrics.ItemProcessed("error")
		o.logger.Warn("item reconciliation failed",
			zap.Int64("product_id", item.ExternalID),
			zap.String("stock_code", item.StockCode),
			zap.Error(err))
		return
	}

	if out.Detection.IsNew {
		res.New++
		o.Metrics.ItemProcessed("new")
	} else {
		res.Updated++
		o.Metrics.ItemProcessed("updated")
		if out.Detection.PriceChanged {
			delta := out.Detection.Delta()
			res.PriceChanges = append(res.PriceChanges, model.PriceChange{
				ProductID: item.ExternalID,
				Name:      item.Name,
				OldPrice:  out.Detection.OldPrice,
				NewPrice:  out.Detection.NewPrice,
				Change:    delta,
			})
			o.Metrics.PriceChanged(delta)
		}
	}

	o.dispatch(ctx, out.Events)
}

// ProcessProduct upserts the item, records its history and decides its
// notifications. It does not dispatch them.
func (o *Orchestrator) ProcessProduct(ctx context.Context, categoryID int64, item model.CatalogItem) (ItemOutcome, error) {
	discount := DiscountPercent(item.ListPrice, item.SellPrice)
	record := model.NewProduct(item, categoryID, float64(discount), o.Now())

	stored, previous, err := o.repo.UpsertProduct(ctx, record)
	if err != nil {
		return ItemOutcome{}, fmt.Errorf("%w: upsert product: %w", ErrRepository, err)
	}

	det := Detect(item, previous)

	if _, err := o.recorder.RecordPrice(ctx, stored.ID, item.SellPrice, item.ListPrice, discount); err != nil {
		return ItemOutcome{}, fmt.Errorf("%w: record price: %w", ErrRepository, err)
	}
	if _, err := o.recorder.RecordStock(ctx, stored.ID, item.TotalStock, item.InStock); err != nil {
		return ItemOutcome{}, fmt.Errorf("%w: record stock: %w", ErrRepository, err)
	}
	if o.opts.RecordVariants {
		if err := o.recorder.RecordVariants(ctx, stored.ID, item.StockCode, item.Variants); err != nil {
			return ItemOutcome{}, fmt.Errorf("%w: record variants: %w", ErrRepository, err)
		}
	}

	return ItemOutcome{
		Product:   stored,
		Detection: det,
		Events:    o.policy.Decide(item, det),
	}, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, events []model.Event) {
	if len(events) == 0 || o.notifier == nil || !o.notifier.IsEnabled() {
		return
	}
	for _, ev := range events {
		ok := o.notifier.SendEvent(ctx, ev)
		o.Metrics.NotificationSent(string(ev.Kind), ok)
		if !ok {
			o.logger.Warn("notification not delivered",
				zap.String("kind", string(ev.Kind)),
				zap.Int64("product_id", ev.ExternalID))
		}
	}
}

func (o *Orchestrator) finalize(ctx context.Context, res *CategoryResult, sweepErr error, started time.Time, log *zap.Logger) {
	completed := o.Now()
	duration := completed.Sub(started)

	run := res.Run
	run.ProductsFound = res.Found
	run.ProductsNew = res.New
	run.ProductsUpdated = res.Updated
	run.DurationMs = duration.Milliseconds()
	run.CompletedAt = &completed

	switch {
	case sweepErr == nil:
		run.Status = model.RunStatusSuccess
	case errors.Is(sweepErr, context.Canceled), errors.Is(sweepErr, context.DeadlineExceeded):
		run.Status = model.RunStatusCancelled
		res.Err = fmt.Errorf("%w: %w", ErrCancelled, sweepErr)
	default:
		run.Status = model.RunStatusError
		res.Err = sweepErr
	}
	if res.Err != nil {
		run.ErrorMessage = res.Err.Error()
		res.Errors = append(res.Errors, model.ItemError{CategoryID: res.Category.CategoryID, Error: run.ErrorMessage})
	}

	// The sweep's context may already be done; the run must still close.
	if err := o.repo.FinalizeScrapeRun(context.WithoutCancel(ctx), run); err != nil {
		err = fmt.Errorf("%w: finalize scrape run %d: %w", ErrRepository, run.ID, err)
		res.Errors = append(res.Errors, model.ItemError{CategoryID: res.Category.CategoryID, Error: err.Error()})
		log.Error("scrape run not finalized", zap.Error(err))
	}
	res.Run = run
	o.Metrics.SweepFinished(string(run.Status), duration)

	fields := []zap.Field{
		zap.String("status", string(run.Status)),
		zap.Int("found", res.Found),
		zap.Int("new", res.New),
		zap.Int("updated", res.Updated),
		zap.Int("item_errors", len(res.Errors)),
		zap.Duration("duration", duration),
	}
	if res.Err != nil {
		log.Error("category sweep failed", append(fields, zap.Error(res.Err))...)
		return
	}
	log.Info("category sweep finished", fields...)
}

// ScrapeAll sweeps the categories in order, never concurrently, waiting
// CategoryDelay between sweeps. A failed category does not stop the others;
// cancellation does.
func (o *Orchestrator) ScrapeAll(ctx context.Context, categories []model.CategoryRef) *model.Report {
	started := o.Now()
	report := &model.Report{
		RunID:        uuid.NewString(),
		StartedAt:    started,
		PriceChanges: []model.PriceChange{},
		Errors:       []model.ItemError{},
	}
	log := o.logger.With(zap.String("run_id", report.RunID))
	log.Info("scrape started", zap.Int("categories", len(categories)))

	for i, cat := range categories {
		if i > 0 {
			if err := o.Sleep(ctx, o.opts.CategoryDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		res := o.ScrapeCategory(ctx, cat)
		report.ProductsFound += res.Found
		report.ProductsNew += res.New
		report.ProductsUpdated += res.Updated
		report.PriceChanges = append(report.PriceChanges, res.PriceChanges...)
		report.Errors = append(report.Errors, res.Errors...)
		if res.Err == nil {
			report.CategoriesProcessed++
		}
	}
	report.Duration = o.Now().Sub(started)

	log.Info("scrape finished",
		zap.Int("categories_processed", report.CategoriesProcessed),
		zap.Int("found", report.ProductsFound),
		zap.Int("new", report.ProductsNew),
		zap.Int("updated", report.ProductsUpdated),
		zap.Int("price_changes", len(report.PriceChanges)),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("duration", report.Duration))

	if ctx.Err() != nil {
		log.Warn("scrape interrupted, summary not sent", zap.Error(ctx.Err()))
		return report
	}
	o.sendSummary(ctx, report)
	return report
}

// ScrapeCategories sweeps bare category ids with placeholder slugs.
func (o *Orchestrator) ScrapeCategories(ctx context.Context, ids []int64) *model.Report {
	cats := make([]model.CategoryRef, 0, len(ids))
	for _, id := range ids {
		cats = append(cats, model.CategoryRef{CategoryID: id, Slug: fmt.Sprintf("category-%d", id)})
	}
	return o.ScrapeAll(ctx, cats)
}

func (o *Orchestrator) sendSummary(ctx context.Context, report *model.Report) {
	if !o.opts.SendSummary || o.notifier == nil || !o.notifier.IsEnabled() {
		return
	}

	events := []model.Event{{Kind: model.EventScrapeSummary, Report: report}}
	if drops := TopPriceDrops(report.PriceChanges, o.opts.TopDrops); len(drops) > 0 {
		events = append(events, model.Event{Kind: model.EventTopPriceDrops, Drops: drops})
	}
	o.dispatch(ctx, events)
}
