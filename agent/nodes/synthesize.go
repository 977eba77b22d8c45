package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/studypilot/studypilot/agent/contract"
	statex "github.com/studypilot/studypilot/agent/state"
)

const (
	contextPreviewCap = 300

	emptyRunAnswer = "I'm here to help! Could you provide more details?"
)

// SynthesizeNode merges every specialist result into the final markdown
// answer, in fixed section order, then records the completed interaction.
// This is the only stage allowed to fail the graph; the orchestrator turns
// that failure into a degraded FinalResponse.
func SynthesizeNode(
	ctx context.Context,
	in *GraphState,
	memory *statex.Memory,
) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, errors.New("synthesize: nil state")
	}

	var b strings.Builder
	var contributed []contractx.AgentType

	if in.Theory != nil {
		writeTheorySection(&b, in.Theory)
		contributed = append(contributed, contractx.AgentTypeTheory)
	}
	if in.Code != nil {
		writeCodeSection(&b, in.Code)
		contributed = append(contributed, contractx.AgentTypeCode)
	}
	if in.Plan != nil {
		writePlanSection(&b, in.Plan)
		contributed = append(contributed, contractx.AgentTypePlanner)
	}
	if in.MemoryUpdate != nil && in.MemoryUpdate.RetrievedContext != "" {
		writeContextSection(&b, in.MemoryUpdate.RetrievedContext)
		contributed = append(contributed, contractx.AgentTypeMemoryManager)
	}

	answer := strings.TrimSpace(b.String())
	if answer == "" {
		answer = emptyRunAnswer
	}

	confidence := contractx.ConfidenceMedium
	switch {
	case in.Err != "":
		confidence = contractx.ConfidenceLow
	case len(contributed) > 1:
		confidence = contractx.ConfidenceHigh
	}

	agents := dedupAgents(append(contributed, in.AgentsInvolved...))
	final := contractx.FinalResponse{
		Answer:         answer,
		AgentsInvolved: agents,
		ToolsUsed:      dedupStrings(in.ToolsUsed),
		MemoryAccessed: in.MemoryAccessed,
		Confidence:     confidence,
	}

	if memory != nil {
		memory.StoreInteraction(ctx, in.Query, answer, agentNames(agents))
	}

	log.Info().
		Str("confidence", string(confidence)).
		Int("agents", len(agents)).
		Msg("response synthesized")
	return GraphOutput{Final: final}, nil
}

func writeTheorySection(b *strings.Builder, theory *contractx.TheoryExplanation) {
	fmt.Fprintf(b, "## Explanation: %s\n\n%s\n\n", theory.Concept, theory.Explanation)
	if len(theory.KeyPoints) > 0 {
		b.WriteString("**Key Points:**\n")
		for _, point := range theory.KeyPoints {
			fmt.Fprintf(b, "- %s\n", point)
		}
		b.WriteString("\n")
	}
	if len(theory.Examples) > 0 {
		b.WriteString("**Examples:**\n")
		for _, example := range theory.Examples {
			fmt.Fprintf(b, "- %s\n", example)
		}
		b.WriteString("\n")
	}
}

func writeCodeSection(b *strings.Builder, code *contractx.CodeHelp) {
	fmt.Fprintf(b, "## Code Help\n\n%s\n\n", code.Explanation)
	if code.SolutionApproach != "" {
		fmt.Fprintf(b, "**Approach:** %s\n\n", code.SolutionApproach)
	}
	if code.CodeExample != "" {
		fmt.Fprintf(b, "**Code Example:**\n```python\n%s\n```\n\n", code.CodeExample)
	}
	if len(code.BestPractices) > 0 {
		b.WriteString("**Best Practices:**\n")
		for _, practice := range code.BestPractices {
			fmt.Fprintf(b, "- %s\n", practice)
		}
		b.WriteString("\n")
	}
}

func writePlanSection(b *strings.Builder, plan *contractx.StudyPlan) {
	fmt.Fprintf(b, "## Study Plan: %s\n\n", plan.Goal)
	for _, step := range plan.Steps {
		fmt.Fprintf(b, "**Step %d:** %s\n   Estimated time: %s\n\n", step.Step, step.Description, step.EstimatedTime)
	}
	if plan.TotalEstimatedTime != "" {
		fmt.Fprintf(b, "**Total estimated time:** %s\n\n", plan.TotalEstimatedTime)
	}
	if len(plan.Resources) > 0 {
		b.WriteString("**Resources:**\n")
		for _, resource := range plan.Resources {
			fmt.Fprintf(b, "- %s\n", resource)
		}
		b.WriteString("\n")
	}
}

func writeContextSection(b *strings.Builder, retrieved string) {
	preview := retrieved
	if runes := []rune(preview); len(runes) > contextPreviewCap {
		preview = string(runes[:contextPreviewCap])
	}
	fmt.Fprintf(b, "## Context from Previous Conversations\n\n%s...\n\n", preview)
}

func dedupAgents(agents []contractx.AgentType) []contractx.AgentType {
	seen := make(map[contractx.AgentType]bool, len(agents))
	out := make([]contractx.AgentType, 0, len(agents))
	for _, agent := range agents {
		if !seen[agent] {
			seen[agent] = true
			out = append(out, agent)
		}
	}
	return out
}

func dedupStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}
	return out
}

func agentNames(agents []contractx.AgentType) []string {
	names := make([]string, len(agents))
	for i, agent := range agents {
		names[i] = string(agent)
	}
	return names
}
