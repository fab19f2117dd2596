package capability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAvailableUnavailableHandle(t *testing.T) {
	avail := Available[int](42)
	if h, ok := avail.Handle(); !ok || h != 42 {
		t.Fatalf("expected available handle 42, got %v ok=%v", h, ok)
	}
	if avail.Reason() != "" {
		t.Fatalf("expected empty reason on available capability, got %q", avail.Reason())
	}

	unavail := Unavailable[int]("no credentials configured")
	if _, ok := unavail.Handle(); ok {
		t.Fatal("expected unavailable capability to report ok=false")
	}
	if unavail.Reason() != "no credentials configured" {
		t.Fatalf("unexpected reason: %q", unavail.Reason())
	}
}

func TestNewEntityExtractorAvailableOnHealthyService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/api/internal/nlp/extract-entities":
			_ = json.NewEncoder(w).Encode(entityResponse{
				Success: true,
				Data: struct {
					Entities []struct {
						Type  string `json:"type"`
						Text  string `json:"text"`
						Start int    `json:"start"`
						End   int    `json:"end"`
					} `json:"entities"`
				}{Entities: []struct {
					Type  string `json:"type"`
					Text  string `json:"text"`
					Start int    `json:"start"`
					End   int    `json:"end"`
				}{{Type: "PERSON", Text: "Ada", Start: 0, End: 3}}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	got := NewEntityExtractor(context.Background(), srv.URL, nil)
	handle, ok := got.Handle()
	if !ok {
		t.Fatalf("expected available capability, got reason %q", got.Reason())
	}

	entities, err := handle.ExtractEntities(context.Background(), "Ada wrote the first program.", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 1 || entities[0].Text != "Ada" {
		t.Fatalf("unexpected entities: %+v", entities)
	}
}

func TestNewKeywordExtractorUnavailableOnUnhealthyService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	got := NewKeywordExtractor(context.Background(), srv.URL, nil)
	if _, ok := got.Handle(); ok {
		t.Fatal("expected capability to be unavailable when health check fails")
	}
	if got.Reason() == "" {
		t.Fatal("expected a non-empty unavailable reason")
	}
}

func TestHTTPTranslatorFallbackContractSatisfied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/api/internal/nlp/translate":
			_ = json.NewEncoder(w).Encode(translateResponse{
				Success: true,
				Data:    struct{ Text string `json:"text"` }{Text: "hola mundo"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	got := NewTranslator(context.Background(), srv.URL, nil)
	handle, ok := got.Handle()
	if !ok {
		t.Fatalf("expected available translator, got reason %q", got.Reason())
	}

	translated, err := handle.Translate(context.Background(), "hello world", "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if translated != "hola mundo" {
		t.Fatalf("unexpected translation: %q", translated)
	}
}
