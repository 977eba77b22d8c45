package orchestratornode

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/studypilot/studypilot/agent/contract"
	statex "github.com/studypilot/studypilot/agent/state"
)

// The specialist nodes never propagate generator failures: when the agent
// exhausts its retry budget the node substitutes the canned fallback value
// and the run keeps going. Profile updates fire either way, so a degraded
// answer still leaves a trace of what the user asked about.

func TheoryNode(
	ctx context.Context,
	in *GraphState,
	agent contractx.TheoryExplainer,
	memory *statex.Memory,
) (*GraphState, error) {
	result, err := agent.Explain(ctx, in.Query, in.MemoryContext)
	if err != nil {
		log.Warn().Err(err).Msg("theory explainer failed, using fallback explanation")
		result = contractx.FallbackTheoryExplanation(in.Query)
	}
	in.Theory = &result
	in.AddAgent(contractx.AgentTypeTheory)

	updateProfile(ctx, memory, statex.ProfileTopicsAsked, result.Concept)
	return in, nil
}

func CodeNode(
	ctx context.Context,
	in *GraphState,
	agent contractx.CodeHelper,
	memory *statex.Memory,
) (*GraphState, error) {
	result, err := agent.HelpWithCode(ctx, in.Query, in.MemoryContext)
	if err != nil {
		log.Warn().Err(err).Msg("code helper failed, using fallback help")
		result = contractx.FallbackCodeHelp(in.Query)
	}
	in.Code = &result
	in.AddAgent(contractx.AgentTypeCode)

	if strings.Contains(strings.ToLower(in.Query), "python") {
		updateProfile(ctx, memory, statex.ProfileCodingLanguages, "Python")
	}
	if result.CodeExample != "" {
		in.AddTool(contractx.ToolCodeExecutor)
	}
	return in, nil
}

func PlannerNode(
	ctx context.Context,
	in *GraphState,
	agent contractx.Planner,
	memory *statex.Memory,
) (*GraphState, error) {
	var profile statex.UserProfile
	if memory != nil {
		profile = memory.Profile()
	}

	result, err := agent.CreatePlan(ctx, in.Query, profile)
	if err != nil {
		log.Warn().Err(err).Msg("planner failed, using fallback plan")
		result = contractx.FallbackStudyPlan(in.Query)
	}
	in.Plan = &result
	in.AddAgent(contractx.AgentTypePlanner)

	updateProfile(ctx, memory, statex.ProfileStudyGoals, result.Goal)
	in.AddTool(contractx.ToolScheduler)
	return in, nil
}

func updateProfile(ctx context.Context, memory *statex.Memory, field, value string) {
	if memory == nil || value == "" {
		return
	}
	if err := memory.UpdateProfile(ctx, field, value); err != nil {
		log.Error().Err(err).Str("field", field).Msg("profile update failed")
	}
}
