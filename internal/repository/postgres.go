package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"avvatracker/internal/model"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	DB *pgxpool.Pool
}

const productColumns = `id, product_id, stock_code, barcode, name, brand, category_id, url, image_url,
	current_price, original_price, discount_rate, in_stock, total_stock, variant_count,
	first_seen_at, last_seen_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	var categoryID *int64
	err := row.Scan(&p.ID, &p.ExternalID, &p.StockCode, &p.Barcode, &p.Name, &p.Brand, &categoryID,
		&p.URL, &p.ImageURL, &p.CurrentPrice, &p.OriginalPrice, &p.DiscountRate, &p.InStock,
		&p.TotalStock, &p.VariantCount, &p.FirstSeenAt, &p.LastSeenAt)
	if categoryID != nil {
		p.CategoryID = *categoryID
	}
	return p, err
}

func findByExternalID(ctx context.Context, q querier, externalID int64, lock bool) (*model.Product, error) {
	sql := `SELECT ` + productColumns + ` FROM products WHERE product_id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	p, err := scanProduct(q.QueryRow(ctx, sql, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) FindByExternalID(ctx context.Context, externalID int64) (*model.Product, error) {
	return findByExternalID(ctx, r.DB, externalID, false)
}

// UpsertProduct reads the previous row and writes the new one in a single
// transaction. first_seen_at is kept from the stored row.
func (r *PostgresRepository) UpsertProduct(ctx context.Context, p model.Product) (model.Product, *model.Product, error) {
	var stored model.Product
	var previous *model.Product

	err := pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		previous, err = findByExternalID(ctx, tx, p.ExternalID, true)
		if err != nil {
			return err
		}

		var categoryID *int64
		if p.CategoryID != 0 {
			categoryID = &p.CategoryID
		}
		stored, err = scanProduct(tx.QueryRow(ctx, `
			INSERT INTO products
			(product_id, stock_code, barcode, name, brand, category_id, url, image_url,
			 current_price, original_price, discount_rate, in_stock, total_stock, variant_count,
			 first_seen_at, last_seen_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (product_id) DO UPDATE SET
				stock_code = EXCLUDED.stock_code,
				barcode = EXCLUDED.barcode,
				name = EXCLUDED.name,
				brand = EXCLUDED.brand,
				category_id = EXCLUDED.category_id,
				url = EXCLUDED.url,
				image_url = EXCLUDED.image_url,
				current_price = EXCLUDED.current_price,
				original_price = EXCLUDED.original_price,
				discount_rate = EXCLUDED.discount_rate,
				in_stock = EXCLUDED.in_stock,
				total_stock = EXCLUDED.total_stock,
				variant_count = EXCLUDED.variant_count,
				last_seen_at = EXCLUDED.last_seen_at,
				updated_at = NOW()
			RETURNING `+productColumns,
			p.ExternalID, p.StockCode, p.Barcode, p.Name, p.Brand, categoryID, p.URL, p.ImageURL,
			p.CurrentPrice, p.OriginalPrice, p.DiscountRate, p.InStock, p.TotalStock, p.VariantCount,
			p.FirstSeenAt, p.LastSeenAt))
		return err
	})
	if err != nil {
		return model.Product{}, nil, err
	}
	return stored, previous, nil
}

func (r *PostgresRepository) UpsertCategory(ctx context.Context, c model.Category) (model.Category, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO categories (category_id, slug, name, url, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (category_id) DO UPDATE SET
			slug = EXCLUDED.slug,
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			updated_at = NOW()
		RETURNING id, is_active
	`, c.ExternalID, c.Slug, c.Name, c.URL, c.IsActive).Scan(&c.ID, &c.IsActive)
	return c, err
}

// ListActiveCategories returns the stored categories that are still swept.
func (r *PostgresRepository) ListActiveCategories(ctx context.Context) ([]model.CategoryRef, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT category_id, slug, name FROM categories
		WHERE is_active
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.CategoryRef
	for rows.Next() {
		var c model.CategoryRef
		if err := rows.Scan(&c.CategoryID, &c.Slug, &c.Name); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) LastPriceSample(ctx context.Context, productID int64) (*model.PriceSample, error) {
	var s model.PriceSample
	err := r.DB.QueryRow(ctx, `
		SELECT id, product_id, price, original_price, discount_rate, recorded_at
		FROM price_history
		WHERE product_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`, productID).Scan(&s.ID, &s.ProductID, &s.Price, &s.OriginalPrice, &s.DiscountRate, &s.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) AppendPriceSample(ctx context.Context, s model.PriceSample) (model.PriceSample, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO price_history (product_id, price, original_price, discount_rate, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.ProductID, s.Price, s.OriginalPrice, s.DiscountRate, s.RecordedAt).Scan(&s.ID)
	return s, err
}

func (r *PostgresRepository) LastStockSample(ctx context.Context, productID int64) (*model.StockSample, error) {
	var s model.StockSample
	err := r.DB.QueryRow(ctx, `
		SELECT id, product_id, total_stock, in_stock, recorded_at
		FROM stock_history
		WHERE product_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`, productID).Scan(&s.ID, &s.ProductID, &s.TotalStock, &s.InStock, &s.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) AppendStockSample(ctx context.Context, s model.StockSample) (model.StockSample, error) {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO stock_history (product_id, total_stock, in_stock, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.ProductID, s.TotalStock, s.InStock, s.RecordedAt).Scan(&s.ID)
	return s, err
}

// ReplaceVariantStock swaps the product's variant rows for rows in one
// transaction, batching the inserts.
func (r *PostgresRepository) ReplaceVariantStock(ctx context.Context, productID int64, rows []model.VariantStock) error {
	return pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM variant_stocks WHERE product_id = $1`, productID); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, v := range rows {
			batch.Queue(`
				INSERT INTO variant_stocks (product_id, color, size, stock_amount, recorded_at)
				VALUES ($1, $2, $3, $4, $5)
			`, productID, v.Color, v.Size, v.StockAmount, v.RecordedAt)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *PostgresRepository) CreateScrapeRun(ctx context.Context, categoryID int64, startedAt time.Time) (model.ScrapeRun, error) {
	run := model.ScrapeRun{CategoryID: categoryID, Status: model.RunStatusRunning, StartedAt: startedAt}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO scrape_logs (category_id, status, started_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, categoryID, string(run.Status), startedAt).Scan(&run.ID)
	return run, err
}

// FinalizeScrapeRun closes a running log. A run that was already finalized is
// left untouched.
func (r *PostgresRepository) FinalizeScrapeRun(ctx context.Context, run model.ScrapeRun) error {
	var errMsg *string
	if run.ErrorMessage != "" {
		errMsg = &run.ErrorMessage
	}
	tag, err := r.DB.Exec(ctx, `
		UPDATE scrape_logs SET
			status = $2,
			products_found = $3,
			products_new = $4,
			products_updated = $5,
			duration_ms = $6,
			error_message = $7,
			completed_at = $8
		WHERE id = $1 AND status = 'running'
	`, run.ID, string(run.Status), run.ProductsFound, run.ProductsNew, run.ProductsUpdated,
		run.DurationMs, errMsg, run.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotRunning
	}
	return nil
}

func (r *PostgresRepository) GetStats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.DB.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM price_history)
	`).Scan(&s.TotalProducts, &s.TotalCategories, &s.TotalPriceRecords)
	return s, err
}
