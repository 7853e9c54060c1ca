package rag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWikipediaFetchExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "query" {
			t.Fatalf("expected action=query, got %q", got)
		}
		if got := r.URL.Query().Get("explaintext"); got != "1" {
			t.Fatalf("expected explaintext=1, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Marathon","extract":"Le marathon est une épreuve de course à pied."}]}}`))
	}))
	defer server.Close()

	client := NewWikipediaClient(server.URL)
	extract, title, err := client.FetchExtract(context.Background(), "Marathon")
	if err != nil {
		t.Fatalf("fetch extract: %v", err)
	}
	if title != "Marathon" {
		t.Fatalf("expected resolved title, got %q", title)
	}
	if extract == "" {
		t.Fatalf("expected non-empty extract")
	}
}

func TestWikipediaFetchExtractMissingPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Nope","missing":true}]}}`))
	}))
	defer server.Close()

	client := NewWikipediaClient(server.URL)
	extract, _, err := client.FetchExtract(context.Background(), "Nope")
	if err != nil {
		t.Fatalf("expected missing page to be tolerated, got %v", err)
	}
	if extract != "" {
		t.Fatalf("expected empty extract for missing page, got %q", extract)
	}
}

func TestWikipediaFetchExtractServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewWikipediaClient(server.URL)
	if _, _, err := client.FetchExtract(context.Background(), "Marathon"); err == nil {
		t.Fatalf("expected error on server failure")
	}
}
