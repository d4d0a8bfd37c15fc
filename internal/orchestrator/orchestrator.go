/*
Package orchestrator drives a query through its full lifecycle: classify
the intent, route to components, run the selected components, compose the
response, and record the query for later feedback.

Component failures are isolated: one failing component degrades the
response instead of aborting it, and only a total failure produces the
minimal apology response. Every handled query leaves an immutable record
in the pattern store so feedback can reference it.
*/
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codescout/scout-mcp/internal/advisor"
	"github.com/codescout/scout-mcp/internal/ai"
	"github.com/codescout/scout-mcp/internal/compose"
	"github.com/codescout/scout-mcp/internal/config"
	"github.com/codescout/scout-mcp/internal/intent"
	"github.com/codescout/scout-mcp/internal/routing"
	"github.com/codescout/scout-mcp/internal/search"
	"github.com/codescout/scout-mcp/internal/store"
)

// ErrEmptyQuery is returned for blank input. Boundary validation only;
// anything non-blank is classified, never rejected.
var ErrEmptyQuery = errors.New("orchestrator: empty query")

// Orchestrator wires the pipeline components together.
type Orchestrator struct {
	classifier *intent.Classifier
	router     *routing.Router
	engine     *search.Engine
	advisor    *advisor.Advisor
	client     ai.Client
	store      store.Store
	composer   *compose.Composer
	cfg        *config.Config
}

// New creates an orchestrator over already-constructed components. client
// may be nil when no local AI endpoint is configured.
func New(cfg *config.Config, st store.Store, engine *search.Engine, adv *advisor.Advisor, client ai.Client) *Orchestrator {
	return &Orchestrator{
		classifier: intent.NewClassifier(intent.DefaultRules()),
		router:     routing.NewRouter(st, cfg.Routing.ActivationThreshold),
		engine:     engine,
		advisor:    adv,
		client:     client,
		store:      st,
		composer: compose.New(compose.Limits{
			MaxFindings: cfg.Search.Limit,
			MinSeverity: cfg.Advisor.MinSeverity,
		}),
		cfg: cfg,
	}
}

// componentOutput collects what the concurrent component runs produced.
type componentOutput struct {
	hits       []search.Hit
	violations []store.ViolationFact
	notes      string
	degraded   bool
	failures   int
	ran        int
}

// Handle processes one query end to end and returns the composed response.
func (o *Orchestrator) Handle(ctx context.Context, rawQuery string) (compose.Response, error) {
	started := time.Now()

	trimmed := strings.TrimSpace(rawQuery)
	if trimmed == "" {
		return compose.Response{}, ErrEmptyQuery
	}

	detected, confidence := o.classifier.Classify(trimmed)
	decision := o.router.Route(detected, confidence)

	queryID := uuid.New().String()
	log.Debug().
		Str("query", queryID).
		Str("intent", string(detected)).
		Strs("components", decision.Selected).
		Msg("executing components")

	out := o.runComponents(ctx, trimmed, decision.Selected)

	var resp compose.Response
	if out.ran > 0 && out.failures == out.ran {
		resp = compose.Apology(queryID, string(detected), confidence)
	} else {
		resp = o.composer.Compose(compose.Input{
			QueryID:    queryID,
			RawQuery:   trimmed,
			Intent:     string(detected),
			Confidence: confidence,
			Components: decision.Selected,
			Hits:       out.hits,
			Violations: out.violations,
			Notes:      out.notes,
			Degraded:   out.degraded || out.failures > 0,
		})
	}

	record := store.QueryRecord{
		ID:               queryID,
		RawQuery:         trimmed,
		Intent:           string(detected),
		Confidence:       confidence,
		Components:       decision.Selected,
		AffinitySnapshot: decision.Weights,
		HitCount:         len(resp.Findings),
		LatencyMS:        time.Since(started).Milliseconds(),
		Timestamp:        started.UTC(),
	}
	if err := o.store.RecordQuery(record); err != nil {
		// The response is still useful without the record; feedback on it
		// will fail with not-found.
		log.Warn().Err(err).Str("query", queryID).Msg("failed to record query")
	}

	return resp, nil
}

// runComponents executes the selected components. Search runs first because
// the advisor scopes its checks to the modules search surfaced; advisor and
// inference then run concurrently.
func (o *Orchestrator) runComponents(ctx context.Context, query string, selected []string) componentOutput {
	var out componentOutput
	want := make(map[string]bool, len(selected))
	for _, component := range selected {
		want[component] = true
	}

	if want[routing.ComponentSearch] {
		out.ran++
		result, err := o.engine.Search(ctx, query, o.cfg.Search.Limit)
		if err != nil {
			log.Warn().Err(err).Msg("search component failed")
			out.failures++
		} else {
			out.hits = result.Hits
			out.degraded = out.degraded || result.Degraded
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	if want[routing.ComponentAdvisor] {
		out.ran++
		wg.Add(1)
		go func() {
			defer wg.Done()
			facts, err := o.advisor.Check(o.cfg.RepoRoot, targetModules(out.hits))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Msg("advisor component failed")
				out.failures++
				return
			}
			out.violations = facts
		}()
	}

	if want[routing.ComponentInference] {
		out.ran++
		wg.Add(1)
		go func() {
			defer wg.Done()
			notes, err := o.research(ctx, query, out.hits)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, ai.ErrUnavailable) {
					log.Warn().Err(err).Msg("inference component failed")
					out.failures++
					return
				}
				// An absent collaborator degrades instead of failing.
				out.degraded = true
				return
			}
			out.notes = notes
		}()
	}

	wg.Wait()
	return out
}

// research asks the inference collaborator for advisory notes grounded on
// the search findings.
func (o *Orchestrator) research(ctx context.Context, query string, hits []search.Hit) (string, error) {
	if o.client == nil || !o.client.Available(ctx) {
		return "", ai.ErrUnavailable
	}

	timeout := time.Duration(o.cfg.AI.GenerateTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "Question about this codebase: %s\n", query)
	if len(hits) > 0 {
		b.WriteString("Relevant locations:\n")
		for i, hit := range hits {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", hit.Location, hit.Summary)
		}
	}
	b.WriteString("Answer concisely for a developer working in this repo.")

	notes, err := o.client.Generate(genCtx, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(notes), nil
}

// targetModules extracts the distinct modules of the top hits, in rank
// order, for the advisor to check.
func targetModules(hits []search.Hit) []string {
	seen := make(map[string]bool)
	var modules []string
	for _, hit := range hits {
		if hit.Module == "" || seen[hit.Module] {
			continue
		}
		seen[hit.Module] = true
		modules = append(modules, hit.Module)
		if len(modules) >= 5 {
			break
		}
	}
	return modules
}
