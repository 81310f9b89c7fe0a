package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func counterValue(t *testing.T, r *Recorder, name, label string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.TokenFetch()
	r.Group("SUCCESS")
	r.Group("SUCCESS")
	r.Group("FAILED")
	r.PersistFailure()
	r.ObserveRequest("create", 120*time.Millisecond)

	if v := counterValue(t, r, "focorders_token_fetches_total", ""); v != 1 {
		t.Fatalf("token fetches=%v", v)
	}
	if v := counterValue(t, r, "focorders_groups_total", "SUCCESS"); v != 2 {
		t.Fatalf("success=%v", v)
	}
	if v := counterValue(t, r, "focorders_groups_total", "FAILED"); v != 1 {
		t.Fatalf("failed=%v", v)
	}
	if v := counterValue(t, r, "focorders_persist_failures_total", ""); v != 1 {
		t.Fatalf("persist failures=%v", v)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.TokenFetch()
	r.Group("SUCCESS")
	r.PersistFailure()
	r.ObserveRequest("token", time.Second)
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatal(err)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Group("FAILED")
	path := filepath.Join(t.TempDir(), "focorders.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(blob), `focorders_groups_total{status="FAILED"} 1`) {
		t.Fatalf("textfile=%s", blob)
	}
}
