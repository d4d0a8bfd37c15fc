package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codescout/scout-mcp/internal/advisor"
	"github.com/codescout/scout-mcp/internal/ai"
	"github.com/codescout/scout-mcp/internal/config"
	"github.com/codescout/scout-mcp/internal/feedback"
	"github.com/codescout/scout-mcp/internal/orchestrator"
	"github.com/codescout/scout-mcp/internal/routing"
	"github.com/codescout/scout-mcp/internal/search"
	"github.com/codescout/scout-mcp/internal/store"
)

type fixture struct {
	store   store.Store
	orch    *orchestrator.Orchestrator
	learner *feedback.Learner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.NewConfig()
	cfg.RepoRoot = t.TempDir()
	cfg.DataDir = t.TempDir()

	st := store.New(filepath.Join(cfg.DataDir, "patterns.db"))
	if err := st.Init(); err != nil {
		t.Fatalf("store init: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.SeedAffinities(routing.DefaultAffinities()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	indexer, err := search.NewIndexer()
	if err != nil {
		t.Fatalf("indexer: %v", err)
	}
	t.Cleanup(func() { indexer.Close() })
	if err := indexer.IndexDocuments([]search.Document{{
		ID:      "pkg/api/server.go:Serve",
		Kind:    search.KindCodeSymbol,
		Path:    "pkg/api/server.go",
		Module:  "pkg/api",
		Symbol:  "Serve",
		Summary: "Serve starts the HTTP listener.",
		Content: "func Serve in package api",
	}}); err != nil {
		t.Fatalf("index: %v", err)
	}

	client := ai.NewStubClient(8)
	semantic := search.NewSemantic(client, st, indexer, time.Second)
	engine := search.NewEngine(indexer, semantic, search.FusionFromConfig(cfg.Search))
	adv := advisor.New(st, cfg.Advisor)

	return &fixture{
		store:   st,
		orch:    orchestrator.New(cfg, st, engine, adv, client),
		learner: feedback.New(st, cfg.Learning),
	}
}

func makeRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestServerRegistersTools(t *testing.T) {
	f := newFixture(t)
	s := New(f.orch, f.learner, f.store)
	if s == nil {
		t.Fatal("expected a server")
	}
}

func TestQueryToolDefinition(t *testing.T) {
	f := newFixture(t)
	def := NewQueryTool(f.orch).Definition()
	if def.Name != "scout_query" {
		t.Errorf("name = %q, want scout_query", def.Name)
	}
}

func TestQueryToolRequiresQuery(t *testing.T) {
	f := newFixture(t)
	tool := NewQueryTool(f.orch)

	result, err := tool.Handle(context.Background(), makeRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing query")
	}
}

func TestQueryToolReturnsFindings(t *testing.T) {
	f := newFixture(t)
	tool := NewQueryTool(f.orch)

	result, err := tool.Handle(context.Background(), makeRequest(map[string]interface{}{
		"query": "where is the HTTP listener started",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(result))
	}
	text := resultText(result)
	if !strings.Contains(text, "query id:") {
		t.Errorf("response should include the query id:\n%s", text)
	}
}

func TestFeedbackToolRoundTrip(t *testing.T) {
	f := newFixture(t)

	queryResult, err := NewQueryTool(f.orch).Handle(context.Background(), makeRequest(map[string]interface{}{
		"query": "where is the HTTP listener started",
	}))
	if err != nil {
		t.Fatalf("query Handle: %v", err)
	}
	text := resultText(queryResult)
	idx := strings.LastIndex(text, "query id: ")
	if idx < 0 {
		t.Fatalf("no query id in response:\n%s", text)
	}
	queryID := strings.TrimSpace(text[idx+len("query id: "):])

	fbResult, err := NewFeedbackTool(f.learner).Handle(context.Background(), makeRequest(map[string]interface{}{
		"query_id":  queryID,
		"relevance": 1.0,
		"noise":     -0.5,
	}))
	if err != nil {
		t.Fatalf("feedback Handle: %v", err)
	}
	if fbResult.IsError {
		t.Fatalf("unexpected error: %s", resultText(fbResult))
	}
	if !strings.Contains(resultText(fbResult), "Feedback recorded") {
		t.Errorf("unexpected feedback output: %s", resultText(fbResult))
	}

	if _, err := f.store.GetFeedback(queryID); err != nil {
		t.Errorf("feedback not persisted: %v", err)
	}
}

func TestFeedbackToolUnknownQuery(t *testing.T) {
	f := newFixture(t)

	result, err := NewFeedbackTool(f.learner).Handle(context.Background(), makeRequest(map[string]interface{}{
		"query_id":  "does-not-exist",
		"relevance": 1.0,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for unknown query id")
	}
}

func TestViolationsToolEmpty(t *testing.T) {
	f := newFixture(t)

	result, err := NewViolationsTool(f.store).Handle(context.Background(), makeRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resultText(result), "No open violations") {
		t.Errorf("unexpected output: %s", resultText(result))
	}
}

func TestViolationsToolLists(t *testing.T) {
	f := newFixture(t)
	if err := f.store.UpsertViolation(store.ViolationFact{
		Module:      "pkg/api",
		Rule:        "file-size",
		Severity:    store.SeverityCritical,
		Description: "oversized files: server.go (900 lines, hard limit 800)",
		FirstSeen:   time.Now(),
		LastSeen:    time.Now(),
	}); err != nil {
		t.Fatalf("UpsertViolation: %v", err)
	}

	result, err := NewViolationsTool(f.store).Handle(context.Background(), makeRequest(map[string]interface{}{
		"module": "pkg/api",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(result)
	if !strings.Contains(text, "[critical]") || !strings.Contains(text, "file-size") {
		t.Errorf("unexpected output: %s", text)
	}
}
