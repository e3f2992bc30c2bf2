package metrics

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joeblew999/plat-map/internal/feature"
	"github.com/joeblew999/plat-map/internal/service"
)

func TestListenerTracksStore(t *testing.T) {
	m := New()
	s := service.NewStore()
	s.Subscribe(m.Listener())

	id := s.AddLayer("a", []feature.Feature{{ID: "f", Geometry: orb.Point{1, 1}}})
	if got := testutil.ToFloat64(m.ActiveFeatures); got != 1 {
		t.Fatalf("active=%v, want 1", got)
	}
	s.DeleteLayer(id)
	if got := testutil.ToFloat64(m.LayersDeleted); got != 1 {
		t.Fatalf("deleted=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActiveFeatures); got != 0 {
		t.Fatalf("active=%v, want 0", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RowsSkipped.Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "platmap_rows_skipped_total 3") {
		t.Fatalf("body missing counter:\n%s", rec.Body.String())
	}
}

func TestObserveImport(t *testing.T) {
	m := New()
	m.ObserveImport(feature.FormatCSV, 2, nil)
	m.ObserveImport(feature.FormatGeoJSON, 0, fmt.Errorf("x.geojson: %w", feature.ErrInvalidGeoJSON))
	m.ObserveImport("", 0, feature.ErrUnsupportedFormat)
	m.ObserveImport(feature.FormatCSV, 1, service.ErrNoFeatures)

	if got := testutil.ToFloat64(m.RowsSkipped); got != 3 {
		t.Fatalf("skipped=%v, want 3", got)
	}
	if got := testutil.ToFloat64(m.UploadsFailed.WithLabelValues("geojson")); got != 1 {
		t.Fatalf("geojson failures=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UploadsFailed.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("unknown failures=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UploadsFailed.WithLabelValues("csv")); got != 0 {
		t.Fatalf("csv failures=%v, want 0", got)
	}
}
