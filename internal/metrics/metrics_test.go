package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus(nil)
	p.RecordRender("ward_tree", 4, 20*time.Millisecond, nil)
	p.RecordRender("ward_tree", 0, time.Millisecond, errors.New("boom"))
	p.RecordIndexLoad("ivf", 1000, nil)
	p.RecordRejected("too_large")

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`tessera_renders_total{index="ward_tree",status="success"} 1`,
		`tessera_renders_total{index="ward_tree",status="error"} 1`,
		`tessera_tiles_queried_total 4`,
		`tessera_index_size_tiles{index="ivf"} 1000`,
		`tessera_index_loads_total{status="success"} 1`,
		`tessera_requests_rejected_total{reason="too_large"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestPrometheus_IndexSizeTracksLatestLoad(t *testing.T) {
	p := NewPrometheus(nil)
	p.RecordIndexLoad("ivf", 10, nil)
	p.RecordIndexLoad("ward_tree", 20, nil)
	p.RecordIndexLoad("ward_tree", 0, errors.New("corrupt"))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	text := rec.Body.String()
	if strings.Contains(text, `tessera_index_size_tiles{index="ivf"}`) {
		t.Error("stale index size should be cleared on reload")
	}
	if !strings.Contains(text, `tessera_index_size_tiles{index="ward_tree"} 20`) {
		t.Error("expected current index size")
	}
	if !strings.Contains(text, `tessera_index_loads_total{status="error"} 1`) {
		t.Error("expected failed load to be counted")
	}
}

func TestNoopCollector(t *testing.T) {
	var c Collector = NoopCollector{}
	c.RecordRender("ivf", 1, time.Second, nil)
	c.RecordIndexLoad("ivf", 1, nil)
	c.RecordRejected("rate_limited")
}
