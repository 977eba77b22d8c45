package orchestratornode

import (
	"strings"

	contractx "github.com/studypilot/studypilot/agent/contract"
)

type GraphInput struct {
	Query string
}

type GraphOutput struct {
	Final contractx.FinalResponse
}

// GraphState is the single mutable aggregate threaded through every stage.
// Stages only add: a field set once is never cleared, and the involvement
// lists are append-only. Err keeps the most recent stage error only.
type GraphState struct {
	Query string

	Routing      *contractx.RoutingDecision
	Theory       *contractx.TheoryExplanation
	Code         *contractx.CodeHelp
	Plan         *contractx.StudyPlan
	MemoryUpdate *contractx.MemoryUpdate

	// MemoryContext is the retrieved context text; MemoryAccessed records
	// that a retrieve actually ran, which matters even when the text says
	// nothing was found.
	MemoryContext  string
	MemoryAccessed bool

	AgentsInvolved []contractx.AgentType
	ToolsUsed      []string
	Err            string
}

func NewGraphState(in GraphInput) (*GraphState, error) {
	return &GraphState{Query: strings.TrimSpace(in.Query)}, nil
}

func (s *GraphState) AddAgent(agent contractx.AgentType) {
	s.AgentsInvolved = append(s.AgentsInvolved, agent)
}

func (s *GraphState) AddTool(tool string) {
	s.ToolsUsed = append(s.ToolsUsed, tool)
}

// SetError records a stage error, last-write-wins.
func (s *GraphState) SetError(stage string, err error) {
	if err == nil {
		return
	}
	s.Err = stage + ": " + err.Error()
}
