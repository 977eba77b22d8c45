package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/studypilot/studypilot/agent/contract"
	statex "github.com/studypilot/studypilot/agent/state"
)

const (
	routerContextEntries  = 2
	routerContextQueryCap = 100
)

// Keyword groups for fallback routing. Order is significant: the first
// matching group wins, so "explain python" routes to theory, not code.
var fallbackGroups = []struct {
	tokens    []string
	queryType contractx.QueryType
	target    contractx.AgentType
}{
	{
		tokens:    []string{"what is", "explain", "concept", "theory", "how does"},
		queryType: contractx.QueryTypeTheory,
		target:    contractx.AgentTypeTheory,
	},
	{
		tokens:    []string{"code", "implement", "python", "function", "debug", "syntax"},
		queryType: contractx.QueryTypeCode,
		target:    contractx.AgentTypeCode,
	},
	{
		tokens:    []string{"plan", "schedule", "learn", "study", "steps"},
		queryType: contractx.QueryTypePlanning,
		target:    contractx.AgentTypePlanner,
	},
}

type routerImpl struct {
	runner   compose.Runnable[map[string]any, routerLLMOutput]
	attempts int
	timeout  time.Duration
}

type routerLLMOutput struct {
	QueryType    string   `json:"query_type"`
	TargetAgents []string `json:"target_agents"`
	Reasoning    string   `json:"reasoning"`
	Priority     int      `json:"priority,omitempty"`
	NeedsMemory  bool     `json:"needs_memory"`
	NeedsTools   bool     `json:"needs_tools"`
}

func newRouter(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	attempts int,
	timeout time.Duration,
) (*routerImpl, error) {
	runner, err := compileStructuredGraph[routerLLMOutput](ctx, chatModel, systemPrompt, "router.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile router graph: %v", contractx.ErrModelInvoke, err)
	}
	return &routerImpl{runner: runner, attempts: attempts, timeout: timeout}, nil
}

// Classify never fails: generator trouble degrades to keyword routing.
func (r *routerImpl) Classify(
	ctx context.Context,
	query string,
	recent []statex.HistoryEntry,
) contractx.RoutingDecision {
	payload := map[string]any{
		"query":   query,
		"context": recentContextHint(recent),
	}
	input, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Msg("router payload marshal failed, using keyword fallback")
		return KeywordRouting(query, recent)
	}

	out, err := invokeWithRetry(ctx, r.runner, map[string]any{
		"input": string(input),
	}, r.attempts, r.timeout)
	if err != nil {
		log.Warn().Err(err).Msg("router generation failed, using keyword fallback")
		return KeywordRouting(query, recent)
	}

	decision, err := decisionFromLLMOutput(out)
	if err != nil {
		log.Warn().Err(err).Msg("router output invalid, using keyword fallback")
		return KeywordRouting(query, recent)
	}
	return decision
}

// KeywordRouting is the deterministic second tier of the router contract:
// ordered keyword groups with first-match-wins precedence, then general.
func KeywordRouting(query string, recent []statex.HistoryEntry) contractx.RoutingDecision {
	lowered := strings.ToLower(query)

	queryType := contractx.QueryTypeGeneral
	target := contractx.AgentTypeTheory
	for _, group := range fallbackGroups {
		if containsAny(lowered, group.tokens) {
			queryType = group.queryType
			target = group.target
			break
		}
	}

	return contractx.RoutingDecision{
		QueryType:    queryType,
		TargetAgents: []contractx.AgentType{target},
		Reasoning:    "Fallback routing based on keywords",
		Priority:     1,
		NeedsMemory:  len(recent) > 0,
		NeedsTools:   false,
	}
}

func decisionFromLLMOutput(out routerLLMOutput) (contractx.RoutingDecision, error) {
	queryType := contractx.QueryType(strings.TrimSpace(out.QueryType))
	switch queryType {
	case contractx.QueryTypeTheory, contractx.QueryTypeCode, contractx.QueryTypePlanning,
		contractx.QueryTypeGeneral, contractx.QueryTypeMemory:
	default:
		return contractx.RoutingDecision{}, fmt.Errorf("%w: unknown query_type=%q", contractx.ErrSchemaViolation, out.QueryType)
	}

	if len(out.TargetAgents) == 0 {
		return contractx.RoutingDecision{}, fmt.Errorf("%w: target_agents is empty", contractx.ErrSchemaViolation)
	}
	targets := make([]contractx.AgentType, 0, len(out.TargetAgents))
	for _, name := range out.TargetAgents {
		targets = append(targets, contractx.AgentType(strings.TrimSpace(name)))
	}

	priority := out.Priority
	if priority <= 0 {
		priority = 1
	}

	return contractx.RoutingDecision{
		QueryType:    queryType,
		TargetAgents: targets,
		Reasoning:    strings.TrimSpace(out.Reasoning),
		Priority:     priority,
		NeedsMemory:  out.NeedsMemory,
		NeedsTools:   out.NeedsTools,
	}, nil
}

func recentContextHint(recent []statex.HistoryEntry) string {
	if len(recent) == 0 {
		return ""
	}
	if len(recent) > routerContextEntries {
		recent = recent[len(recent)-routerContextEntries:]
	}
	var b strings.Builder
	b.WriteString("Recent interactions:\n")
	for _, entry := range recent {
		fmt.Fprintf(&b, "- Q: %s\n", capRunes(entry.Query, routerContextQueryCap))
	}
	return b.String()
}

// capRunes cuts s to at most max runes. Cutting on rune boundaries keeps
// multi-byte input valid UTF-8.
func capRunes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func containsAny(haystack string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(haystack, token) {
			return true
		}
	}
	return false
}
