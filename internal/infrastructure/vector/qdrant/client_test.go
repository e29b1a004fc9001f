package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

func testChunks(sessionID string) []domain.Chunk {
	return []domain.Chunk{
		{ID: sessionID + ":0000", SessionID: sessionID, Text: "a", Vector: []float32{0.1, 0.2}},
		{ID: sessionID + ":0001", SessionID: sessionID, Text: "b", Vector: []float32{0.3, 0.4}, Priority: true, Section: domain.SectionContact},
	}
}

func TestUpsertEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	if err := client.Upsert(context.Background(), "s1", testChunks("s1")); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	if err := client.Upsert(context.Background(), "s1", testChunks("s1")); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestEnsureCollectionToleratesConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/chunks" {
			http.Error(w, "exists", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := New(server.URL, "chunks").Upsert(context.Background(), "s1", testChunks("s1")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	err := New(server.URL, "chunks").Upsert(context.Background(), "s1", testChunks("s1"))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}

func TestUpsertRejectsChunksFromAnotherSession(t *testing.T) {
	err := New("http://unused", "chunks").Upsert(context.Background(), "s1", testChunks("s2"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSearchSendsSessionFilterAndDropsForeignHits(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/search" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.9,"payload":{"session_id":"s1","chunk_id":"s1:0001","text":"email: john@x.com","start":11,"end":21,"section":"contact","priority":true}},
			{"score":0.8,"payload":{"session_id":"s2","chunk_id":"s2:0000","text":"leak"}}
		]}`))
	}))
	defer server.Close()

	hits, err := New(server.URL, "chunks").Search(context.Background(), "s1", []float32{1, 0}, 5, domain.SearchFilter{PriorityOnly: true})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected one hit after session post-check, got %d", len(hits))
	}
	got := hits[0].Chunk
	if got.ID != "s1:0001" || got.Start != 11 || got.End != 21 || !got.Priority || got.Section != domain.SectionContact {
		t.Fatalf("unexpected chunk %+v", got)
	}

	filter, _ := captured["filter"].(map[string]any)
	must, _ := filter["must"].([]any)
	if len(must) != 2 {
		t.Fatalf("expected session and priority conditions, got %v", captured["filter"])
	}
}

func TestDropSessionDeletesBySessionFilter(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := New(server.URL, "chunks").DropSession(context.Background(), "s1"); err != nil {
		t.Fatalf("DropSession() error = %v", err)
	}
	if path != "/collections/chunks/points/delete" {
		t.Fatalf("unexpected path %q", path)
	}
}
