package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"avvatracker/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *sleepRecorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	rec := &sleepRecorder{}
	return &Client{
		BaseURL:       srv.URL,
		PageItemCount: 48,
		RequestDelay:  1500 * time.Millisecond,
		DefaultBrand:  "AVVA",
		Retry:         DefaultRetryPolicy(3, 10*time.Millisecond),
		HTTP:          srv.Client(),
		Logger:        zap.NewNop(),
		Sleep:         rec.sleep,
	}, rec
}

func pageNumber(t *testing.T, r *http.Request) int {
	t.Helper()
	var p avvaPaging
	if err := json.Unmarshal([]byte(r.URL.Query().Get("PagingJson")), &p); err != nil {
		t.Errorf("bad PagingJson: %v", err)
	}
	return p.PageNumber
}

func TestFetchAllPages_StopsOnEmptyPage(t *testing.T) {
	pages := map[int][]AvvaProduct{
		1: {{ProductID: 1, Name: "Polo", ProductCartPrice: 100}, {ProductID: 2, Name: "Tee", ProductCartPrice: 50}},
		2: {{ProductID: 3, Name: "Shirt", ProductCartPrice: 80}},
	}
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != listPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("PageId") != "1154" {
			t.Errorf("unexpected PageId %q", r.URL.Query().Get("PageId"))
		}
		json.NewEncoder(w).Encode(AvvaListResponse{Products: pages[pageNumber(t, r)]})
	})

	var got []int64
	var seen []int
	err := c.FetchAllPages(context.Background(), 1154, func(p model.Page) error {
		seen = append(seen, p.Number)
		for _, it := range p.Items {
			got = append(got, it.ExternalID)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("want items 1,2,3 in order, got %v", got)
	}
	if len(seen) != 2 {
		t.Fatalf("want 2 pages, got %v", seen)
	}
	if len(rec.waits) != 2 || rec.waits[0] != 1500*time.Millisecond {
		t.Fatalf("want request delay after each page, got %v", rec.waits)
	}
}

func TestFetchAllPages_EmptyFirstPage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[]}`))
	})

	calls := 0
	err := c.FetchAllPages(context.Background(), 9, func(model.Page) error {
		calls++
		return nil
	})
	if err != nil || calls != 0 {
		t.Fatalf("want no pages and no error, got %d / %v", calls, err)
	}
}

func TestFetchPage_RetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"products":[{"productId":7,"name":"Belt","productCartPrice":20}]}`))
	})

	p, err := c.FetchPage(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 1 || p.Items[0].ExternalID != 7 {
		t.Fatalf("unexpected items %+v", p.Items)
	}
	if len(rec.waits) != 1 || rec.waits[0] != 10*time.Millisecond {
		t.Fatalf("want one backoff wait, got %v", rec.waits)
	}
}

func TestFetchPage_ServerErrorIsSourceUnavailable(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchPage(context.Background(), 1, 1)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 500 {
		t.Fatalf("want wrapped 500, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("want one retry, got %d hits", hits.Load())
	}
}

func TestFetchPage_SkipsInvalidProducts(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[{"productId":0,"name":"ghost"},{"productId":5,"productCartPrice":10}]}`))
	})

	p, err := c.FetchPage(context.Background(), 1154, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 1 || p.Items[0].ExternalID != 5 {
		t.Fatalf("want only product 5, got %+v", p.Items)
	}
	if len(p.Rejected) != 1 || p.Rejected[0].CategoryID != 1154 || !strings.Contains(p.Rejected[0].Error, ErrInvalidItem.Error()) {
		t.Fatalf("want the ghost product rejected, got %+v", p.Rejected)
	}
}

func TestFetchAllPages_RejectedPageDoesNotEndCategory(t *testing.T) {
	pages := map[int]string{
		1: `{"products":[{"productId":0,"name":"ghost"},{"productId":4,"productCartPrice":-1}]}`,
		2: `{"products":[{"productId":7,"name":"Belt","productCartPrice":10}]}`,
	}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[pageNumber(t, r)]
		if !ok {
			body = `{"products":[]}`
		}
		w.Write([]byte(body))
	})

	var got []int64
	var rejected []model.ItemError
	var seen []int
	err := c.FetchAllPages(context.Background(), 1154, func(p model.Page) error {
		seen = append(seen, p.Number)
		rejected = append(rejected, p.Rejected...)
		for _, it := range p.Items {
			got = append(got, it.ExternalID)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("want product 7 from page 2, got %v", got)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("want pages 1 and 2, got %v", seen)
	}
	if len(rejected) != 2 || rejected[1].ProductID != 4 {
		t.Fatalf("want both page 1 products rejected, got %+v", rejected)
	}
}
