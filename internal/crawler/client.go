package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"avvatracker/internal/config"
	"avvatracker/internal/model"
)

const listPath = "/api/product/GetProductList"

// Client reads paginated category listings from the source API. It never
// touches persisted state.
type Client struct {
	BaseURL       string
	PageItemCount int
	RequestDelay  time.Duration
	DefaultBrand  string
	Retry         RetryPolicy
	HTTP          *http.Client
	Logger        *zap.Logger
	Sleep         SleepFunc
}

func NewClient(cfg config.SourceConfig, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		PageItemCount: cfg.PageItemCount,
		RequestDelay:  cfg.RequestDelay,
		DefaultBrand:  cfg.DefaultBrand,
		Retry:         DefaultRetryPolicy(cfg.MaxRetries, cfg.BackoffBase),
		HTTP:          &http.Client{Timeout: cfg.Timeout},
		Logger:        logger,
		Sleep:         Sleep,
	}
}

// FetchPage returns one listing page. A page with no products at all marks the
// end of the category.
func (c *Client) FetchPage(ctx context.Context, categoryID int64, page int) (model.Page, error) {
	u, err := c.pageURL(categoryID, page)
	if err != nil {
		return model.Page{}, err
	}

	var body AvvaListResponse
	err = c.Retry.Do(ctx, c.Sleep,
		func(attempt int, wait time.Duration, err error) {
			c.Logger.Warn("source request failed, retrying",
				zap.Int64("category_id", categoryID),
				zap.Int("page", page),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Bool("rate_limited", IsRateLimited(err)),
				zap.Error(err))
		},
		func(ctx context.Context) error {
			body = AvvaListResponse{}
			return c.getJSON(ctx, u, &body)
		})
	if err != nil {
		return model.Page{}, fmt.Errorf("category %d page %d: %w", categoryID, page, err)
	}

	out := model.Page{Number: page, Items: make([]model.CatalogItem, 0, len(body.Products))}
	for _, p := range body.Products {
		item, err := ToCatalogItem(p, c.DefaultBrand)
		if err != nil {
			c.Logger.Warn("rejected source product",
				zap.Int64("category_id", categoryID),
				zap.Int("page", page),
				zap.Error(err))
			rej := model.ItemError{ProductID: p.ProductID, Error: err.Error()}
			if p.ProductID <= 0 {
				rej = model.ItemError{CategoryID: categoryID, Error: err.Error()}
			}
			out.Rejected = append(out.Rejected, rej)
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// FetchAllPages walks the category page by page, handing each non-empty page
// to fn in order. It stops at the first page without products, at the first
// fetch error, or when fn returns an error. RequestDelay is waited after every
// page.
func (c *Client) FetchAllPages(ctx context.Context, categoryID int64, fn func(p model.Page) error) error {
	for page := 1; ; page++ {
		p, err := c.FetchPage(ctx, categoryID, page)
		if err != nil {
			return err
		}
		if p.Empty() {
			c.Logger.Debug("category exhausted", zap.Int64("category_id", categoryID), zap.Int("pages", page-1))
			return nil
		}

		c.Logger.Debug("page fetched",
			zap.Int64("category_id", categoryID),
			zap.Int("page", page),
			zap.Int("items", len(p.Items)),
			zap.Int("rejected", len(p.Rejected)))

		if err := fn(p); err != nil {
			return err
		}
		if err := c.Sleep(ctx, c.RequestDelay); err != nil {
			return err
		}
	}
}

func (c *Client) pageURL(categoryID int64, page int) (string, error) {
	filterJSON, err := json.Marshal(newAvvaFilter(categoryID))
	if err != nil {
		return "", fmt.Errorf("failed to marshal filter: %w", err)
	}
	pagingJSON, err := json.Marshal(avvaPaging{
		PageItemCount:  c.PageItemCount,
		PageNumber:     page,
		OrderBy:        "KATEGORISIRA",
		OrderDirection: "ASC",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal paging: %w", err)
	}

	q := url.Values{}
	q.Set("c", "trtry0000")
	q.Set("FilterJson", string(filterJSON))
	q.Set("PagingJson", string(pagingJSON))
	q.Set("CreateFilter", "false")
	q.Set("TransitionOrder", "0")
	q.Set("PageType", "1")
	q.Set("PageId", strconv.FormatInt(categoryID, 10))

	return c.BaseURL + listPath + "?" + q.Encode(), nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: c.BaseURL + listPath}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
