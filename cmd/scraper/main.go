package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"avvatracker/internal/config"
	"avvatracker/internal/crawler"
	"avvatracker/internal/db"
	"avvatracker/internal/logger"
	"avvatracker/internal/model"
	"avvatracker/internal/notify"
	"avvatracker/internal/observability"
	"avvatracker/internal/reconcile"
	"avvatracker/internal/repository"
	"avvatracker/internal/runstate"
)

const testCategoryID = 1154

type flags struct {
	category int64
	quick    bool
	test     bool
	dryRun   bool
	out      string
}

// go run ./cmd/scraper                  all categories
// go run ./cmd/scraper -quick           first five
// go run ./cmd/scraper -category=1154   one category
// go run ./cmd/scraper -test -dry-run   category 1154, nothing persisted
func main() {
	var f flags
	flag.Int64Var(&f.category, "category", 0, "sweep only this category id")
	flag.BoolVar(&f.quick, "quick", false, "sweep only the first five categories")
	flag.BoolVar(&f.test, "test", false, fmt.Sprintf("sweep only category %d", testCategoryID))
	flag.BoolVar(&f.dryRun, "dry-run", false, "keep state in memory and log notifications instead of sending them")
	flag.StringVar(&f.out, "out", "data/last-scrape.json", "where to write the run report")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.Logger, cfg.Development())
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f, log); err != nil {
		log.Error("scrape failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, f flags, log *zap.Logger) error {
	var metrics *observability.Metrics
	if cfg.MetricsPort != "" && !f.dryRun {
		var err error
		metrics, err = observability.Start(cfg.MetricsPort, log)
		if err != nil {
			log.Warn("metrics endpoint unavailable", zap.Error(err))
		}
	}

	var (
		repo reconcile.Repository
		pg   *repository.PostgresRepository
	)
	if f.dryRun {
		repo = repository.NewMemory()
		log.Info("dry run: using in-memory repository")
	} else {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		pg = &repository.PostgresRepository{DB: pool}
		repo = pg
	}

	var state *runstate.Store
	if cfg.Redis.URL != "" && !f.dryRun {
		client, err := runstate.NewClient(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		state = &runstate.Store{Client: client}

		lock, err := state.Acquire(ctx, cfg.Redis.LockTTL)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("scrape lock not released", zap.Error(err))
			}
		}()
	}

	cats, err := selectCategories(ctx, cfg, f, pg, log)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		return errors.New("no categories to sweep")
	}

	var notifier reconcile.Notifier
	if f.dryRun {
		notifier = &notify.Log{Logger: log, SiteURL: cfg.Telegram.SiteURL}
	} else {
		tg := notify.NewTelegram(cfg.Telegram, log)
		if !tg.IsEnabled() {
			log.Info("telegram not configured, notifications disabled")
		}
		notifier = tg
	}

	orch := reconcile.New(repo, crawler.NewClient(cfg.Source, log), notifier,
		reconcile.PolicyFromConfig(cfg.Scrape),
		reconcile.Options{
			RecordVariants: cfg.Scrape.RecordVariants,
			SendSummary:    cfg.Scrape.SendSummary,
			TopDrops:       cfg.Scrape.TopDrops,
			CategoryDelay:  cfg.Source.CategoryDelay,
			SiteURL:        cfg.Telegram.SiteURL,
		}, log)
	orch.Metrics = metrics

	report := orch.ScrapeAll(ctx, cats)

	// the report is kept even when the run was interrupted
	bg := context.WithoutCancel(ctx)
	if err := writeReport(f.out, report); err != nil {
		log.Warn("report file not written", zap.String("path", f.out), zap.Error(err))
	}
	if state != nil {
		if err := state.SaveReport(bg, report); err != nil {
			log.Warn("report not cached", zap.Error(err))
		}
	}

	printSummary(report)
	if stats, err := repo.GetStats(bg); err != nil {
		log.Warn("stats unavailable", zap.Error(err))
	} else {
		fmt.Printf("\nDatabase: %d products, %d categories, %d price records\n",
			stats.TotalProducts, stats.TotalCategories, stats.TotalPriceRecords)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", reconcile.ErrCancelled, err)
	}
	return nil
}

// selectCategories reads the category file, falling back to the active
// categories stored in the database when the file does not exist.
func selectCategories(ctx context.Context, cfg *config.Config, f flags, pg *repository.PostgresRepository, log *zap.Logger) ([]model.CategoryRef, error) {
	id := f.category
	if f.test {
		id = testCategoryID
	}

	all, err := config.LoadCategories(cfg.CategoriesFile)
	if errors.Is(err, fs.ErrNotExist) && pg != nil {
		log.Info("category file missing, using stored categories", zap.String("path", cfg.CategoriesFile))
		all, err = pg.ListActiveCategories(ctx)
	}
	if err != nil && id == 0 {
		return nil, err
	}

	cats := config.FilterCategories(all, id, f.quick)
	if len(cats) == 0 && id > 0 {
		cats = []model.CategoryRef{{CategoryID: id, Slug: fmt.Sprintf("category-%d", id)}}
	}
	return cats, nil
}

type reportFile struct {
	Timestamp    time.Time           `json:"timestamp"`
	RunID        string              `json:"runId"`
	Stats        reportStats         `json:"stats"`
	PriceChanges []model.PriceChange `json:"priceChanges"`
	Errors       []model.ItemError   `json:"errors"`
}

type reportStats struct {
	CategoriesProcessed int    `json:"categoriesProcessed"`
	ProductsFound       int    `json:"productsFound"`
	ProductsNew         int    `json:"productsNew"`
	ProductsUpdated     int    `json:"productsUpdated"`
	PriceDrops          int    `json:"priceDrops"`
	PriceIncreases      int    `json:"priceIncreases"`
	Duration            string `json:"duration"`
}

func writeReport(path string, r *model.Report) error {
	b, err := json.MarshalIndent(reportFile{
		Timestamp: time.Now(),
		RunID:     r.RunID,
		Stats: reportStats{
			CategoriesProcessed: r.CategoriesProcessed,
			ProductsFound:       r.ProductsFound,
			ProductsNew:         r.ProductsNew,
			ProductsUpdated:     r.ProductsUpdated,
			PriceDrops:          r.Drops(),
			PriceIncreases:      r.Increases(),
			Duration:            r.Duration.Round(time.Millisecond).String(),
		},
		PriceChanges: r.PriceChanges,
		Errors:       r.Errors,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func printSummary(r *model.Report) {
	fmt.Printf("\nScrape %s finished in %s\n", r.RunID, r.Duration.Round(time.Second))
	fmt.Printf("  categories: %d\n", r.CategoriesProcessed)
	fmt.Printf("  products:   %d found, %d new, %d updated\n", r.ProductsFound, r.ProductsNew, r.ProductsUpdated)
	fmt.Printf("  prices:     %d changes (%d down, %d up)\n", len(r.PriceChanges), r.Drops(), r.Increases())
	fmt.Printf("  errors:     %d\n", len(r.Errors))

	drops := reconcile.TopPriceDrops(r.PriceChanges, 5)
	if len(drops) == 0 {
		return
	}
	fmt.Println("\nTop price drops:")
	for _, d := range drops {
		fmt.Printf("  %-40.40s %10.2f -> %10.2f (%.2f)\n", d.Name, d.OldPrice, d.NewPrice, d.Change)
	}
}
