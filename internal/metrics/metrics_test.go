package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNoopRegistrySatisfiesInterface(t *testing.T) {
	var r Registry = NoopRegistry{}
	r.SetActiveWorkers(3)
	r.IncCacheHit()
	r.IncCacheMiss()
	r.IncOCRInvocation()
}

func TestPrometheusRegistryExposesCountersOnHandler(t *testing.T) {
	reg := NewPrometheusRegistry("kreuzberg")
	reg.SetActiveWorkers(2)
	reg.IncCacheHit()
	reg.IncCacheHit()
	reg.IncCacheMiss()
	reg.IncOCRInvocation()

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("unexpected error reading body: %v", err)
	}
	body := buf.String()

	for _, want := range []string{
		"kreuzberg_active_workers 2",
		"kreuzberg_cache_hit_total 2",
		"kreuzberg_cache_miss_total 1",
		"kreuzberg_ocr_invocations_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to contain %q, got:\n%s", want, body)
		}
	}
}

func TestNewPrometheusRegistryTwiceDoesNotPanic(t *testing.T) {
	_ = NewPrometheusRegistry("kreuzberg")
	_ = NewPrometheusRegistry("kreuzberg")
}
