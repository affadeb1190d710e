package repository

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"avvatracker/internal/model"
)

// ErrRunNotRunning is returned when finalizing a run that is unknown or was
// already finalized.
var ErrRunNotRunning = errors.New("scrape run is not running")

// Memory keeps everything in process. It backs dry runs and tests.
type Memory struct {
	mu sync.Mutex

	nextID     int64
	categories map[int64]model.Category // by external id
	products   map[int64]model.Product  // by external id
	prices     map[int64][]model.PriceSample
	stocks     map[int64][]model.StockSample
	variants   map[int64][]model.VariantStock
	runs       []model.ScrapeRun
}

func NewMemory() *Memory {
	return &Memory{
		categories: map[int64]model.Category{},
		products:   map[int64]model.Product{},
		prices:     map[int64][]model.PriceSample{},
		stocks:     map[int64][]model.StockSample{},
		variants:   map[int64][]model.VariantStock{},
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) FindByExternalID(_ context.Context, externalID int64) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[externalID]
	if !ok {
		return nil, nil
	}
	return clone(p), nil
}

func (m *Memory) UpsertProduct(_ context.Context, p model.Product) (model.Product, *model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.products[p.ExternalID]
	if !ok {
		p.ID = m.id()
		m.products[p.ExternalID] = *clone(p)
		return p, nil, nil
	}

	p.ID = prev.ID
	p.FirstSeenAt = prev.FirstSeenAt
	m.products[p.ExternalID] = *clone(p)
	return p, clone(prev), nil
}

func (m *Memory) UpsertCategory(_ context.Context, c model.Category) (model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.categories[c.ExternalID]; ok {
		c.ID = prev.ID
		c.IsActive = prev.IsActive
	} else {
		c.ID = m.id()
	}
	m.categories[c.ExternalID] = c
	return c, nil
}

func (m *Memory) LastPriceSample(_ context.Context, productID int64) (*model.PriceSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.prices[productID]
	if len(h) == 0 {
		return nil, nil
	}
	s := h[len(h)-1]
	return &s, nil
}

func (m *Memory) AppendPriceSample(_ context.Context, s model.PriceSample) (model.PriceSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = m.id()
	m.prices[s.ProductID] = append(m.prices[s.ProductID], s)
	return s, nil
}

func (m *Memory) LastStockSample(_ context.Context, productID int64) (*model.StockSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.stocks[productID]
	if len(h) == 0 {
		return nil, nil
	}
	s := h[len(h)-1]
	return &s, nil
}

func (m *Memory) AppendStockSample(_ context.Context, s model.StockSample) (model.StockSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = m.id()
	m.stocks[s.ProductID] = append(m.stocks[s.ProductID], s)
	return s, nil
}

func (m *Memory) ReplaceVariantStock(_ context.Context, productID int64, rows []model.VariantStock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.variants[productID] = slices.Clone(rows)
	return nil
}

func (m *Memory) CreateScrapeRun(_ context.Context, categoryID int64, startedAt time.Time) (model.ScrapeRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run := model.ScrapeRun{
		ID:         m.id(),
		CategoryID: categoryID,
		Status:     model.RunStatusRunning,
		StartedAt:  startedAt,
	}
	m.runs = append(m.runs, run)
	return run, nil
}

func (m *Memory) FinalizeScrapeRun(_ context.Context, run model.ScrapeRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.runs {
		if r.ID != run.ID {
			continue
		}
		if r.Finalized() {
			return ErrRunNotRunning
		}
		run.CategoryID = r.CategoryID
		run.StartedAt = r.StartedAt
		m.runs[i] = run
		return nil
	}
	return ErrRunNotRunning
}

func (m *Memory) GetStats(_ context.Context) (model.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := model.Stats{
		TotalProducts:   int64(len(m.products)),
		TotalCategories: int64(len(m.categories)),
	}
	for _, h := range m.prices {
		s.TotalPriceRecords += int64(len(h))
	}
	return s, nil
}

// PriceHistory returns the samples of a product, oldest first.
func (m *Memory) PriceHistory(productID int64) []model.PriceSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.prices[productID])
}

func (m *Memory) StockHistory(productID int64) []model.StockSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.stocks[productID])
}

func (m *Memory) VariantStock(productID int64) []model.VariantStock {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.variants[productID])
}

// Runs returns every scrape run in creation order.
func (m *Memory) Runs() []model.ScrapeRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.runs)
}

func clone(p model.Product) *model.Product {
	if p.CurrentPrice != nil {
		price := *p.CurrentPrice
		p.CurrentPrice = &price
	}
	return &p
}
