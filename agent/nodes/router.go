package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"
	contractx "github.com/studypilot/studypilot/agent/contract"
	statex "github.com/studypilot/studypilot/agent/state"
)

// Node names double as branch targets in the orchestrator graph.
const (
	NodeRouter        = "router"
	NodeMemoryManager = "memory_manager"
	NodeTheory        = "theory_explainer"
	NodeCode          = "code_helper"
	NodePlanner       = "planner"
	NodeSynthesizer   = "synthesizer"
)

// RouterNode classifies the query. The router contract never fails, so this
// stage always produces a routing decision.
func RouterNode(
	ctx context.Context,
	in *GraphState,
	router contractx.Router,
	memory *statex.Memory,
) (*GraphState, error) {
	var recent []statex.HistoryEntry
	if memory != nil {
		recent = memory.RecentContext(2)
	}

	decision := router.Classify(ctx, in.Query, recent)
	in.Routing = &decision
	in.AddAgent(contractx.AgentTypeRouter)

	log.Info().
		Str("query_type", string(decision.QueryType)).
		Bool("needs_memory", decision.NeedsMemory).
		Str("reasoning", decision.Reasoning).
		Msg("query routed")
	return in, nil
}

// RouteAfterRouter picks the next stage: memory first when requested,
// otherwise straight to the primary specialist.
func RouteAfterRouter(in *GraphState) string {
	if in == nil || in.Routing == nil {
		return NodeSynthesizer
	}
	if in.Routing.NeedsMemory {
		return NodeMemoryManager
	}
	return specialistTarget(in.Routing)
}

// RouteAfterMemory dispatches to the primary specialist from the original
// routing decision; the memory stage never loops back to the router.
func RouteAfterMemory(in *GraphState) string {
	if in == nil || in.Routing == nil {
		return NodeSynthesizer
	}
	return specialistTarget(in.Routing)
}

// Only target_agents[0] executes, even when the router listed several.
func specialistTarget(routing *contractx.RoutingDecision) string {
	if len(routing.TargetAgents) == 0 {
		return NodeSynthesizer
	}
	switch routing.TargetAgents[0] {
	case contractx.AgentTypeTheory:
		return NodeTheory
	case contractx.AgentTypeCode:
		return NodeCode
	case contractx.AgentTypePlanner:
		return NodePlanner
	default:
		return NodeSynthesizer
	}
}
