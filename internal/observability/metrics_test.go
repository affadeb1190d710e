package observability

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ItemProcessed("new")
	m.ItemProcessed("new")
	m.PriceChanged(-20)
	m.NotificationSent("price_drop", false)
	m.SweepFinished("success", 3*time.Second)

	if got := testutil.ToFloat64(m.ItemsProcessed.WithLabelValues("new")); got != 2 {
		t.Fatalf("items new: want 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.PriceChanges.WithLabelValues("down")); got != 1 {
		t.Fatalf("price down: want 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.Notifications.WithLabelValues("price_drop", "failed")); got != 1 {
		t.Fatalf("notification failed: want 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.CategorySweeps.WithLabelValues("success")); got != 1 {
		t.Fatalf("sweeps: want 1, got %v", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ItemProcessed("error")
	m.PriceChanged(1)
	m.NotificationSent("x", true)
	m.SweepFinished("error", time.Second)
}

func TestListen_ServesAndReportsBindFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ItemProcessed("new")

	addr, err := Listen("127.0.0.1:0", reg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `avvatracker_items_processed_total{result="new"} 1`) {
		t.Fatalf("metric not exposed:\n%s", body)
	}

	if _, err := Listen(addr.String(), reg, zap.NewNop()); err == nil {
		t.Fatal("want an error when the port is taken")
	}
}
