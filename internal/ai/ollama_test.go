package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codescout/scout-mcp/internal/config"
)

func testClient(t *testing.T, handler http.Handler) *OllamaClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOllamaClient(config.AIConfig{
		Endpoint:          srv.URL,
		EmbedModel:        "test-embed",
		GenerateModel:     "test-gen",
		GenerateTimeoutMS: 2000,
	})
}

func TestAvailable(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	if !client.Available(context.Background()) {
		t.Error("expected backend to be available")
	}
}

func TestAvailable_Down(t *testing.T) {
	client := NewOllamaClient(config.AIConfig{Endpoint: "http://127.0.0.1:1", GenerateTimeoutMS: 100})

	if client.Available(context.Background()) {
		t.Error("expected unreachable backend to be unavailable")
	}
}

func TestEmbed(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "test-embed" {
			t.Errorf("expected model test-embed, got %s", req.Model)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2}})
	}))

	vec, err := client.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("expected 2-dim vector, got %v", vec)
	}
}

func TestEmbed_TimeoutIsUnavailable(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Embed(ctx, "slow")
	if err == nil {
		t.Fatal("expected error from slow backend")
	}
}

func TestGenerate(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "consider the existing limiter package"})
	}))

	text, err := client.Generate(context.Background(), "what about rate limiting?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text == "" {
		t.Error("expected non-empty generation")
	}
}

func TestStubClient_Deterministic(t *testing.T) {
	stub := NewStubClient(8)

	a, err := stub.Embed(context.Background(), "same input")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := stub.Embed(context.Background(), "same input")

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("stub embedding not deterministic at %d: %f != %f", i, a[i], b[i])
		}
	}
}

func TestStubClient_Down(t *testing.T) {
	stub := &StubClient{Dim: 4, Down: true}

	if stub.Available(context.Background()) {
		t.Error("expected down stub to be unavailable")
	}
	if _, err := stub.Embed(context.Background(), "x"); err == nil {
		t.Error("expected embed error from down stub")
	}
}
