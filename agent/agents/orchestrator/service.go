package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/studypilot/studypilot/agent/contract"
	nodex "github.com/studypilot/studypilot/agent/nodes"
	statex "github.com/studypilot/studypilot/agent/state"
)

// Orchestrator owns one compiled pipeline graph and the shared memory.
// It is safe for concurrent Process calls; memory serializes its own access.
type Orchestrator struct {
	agents contractx.Registry
	memory *statex.Memory

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

func New(agents contractx.Registry, memory *statex.Memory) (*Orchestrator, error) {
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}

	o := &Orchestrator{
		agents: agents,
		memory: memory,
	}

	graphRunner, err := o.compileProcessGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Process runs one query through the pipeline. It always returns a
// FinalResponse: when even the synthesizer fails, the response carries the
// error text with low confidence and the interaction is not recorded in
// history.
func (o *Orchestrator) Process(ctx context.Context, query string) (contractx.FinalResponse, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Query: query})
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed before a response could be synthesized")
		return contractx.FinalResponse{
			Answer:         fmt.Sprintf("Error generating response: %v", err),
			AgentsInvolved: []contractx.AgentType{},
			ToolsUsed:      []string{},
			MemoryAccessed: false,
			Confidence:     contractx.ConfidenceLow,
		}, nil
	}
	return out.Final, nil
}

// Memory exposes the shared context store, mainly for entry points that
// report profile or history state alongside answers.
func (o *Orchestrator) Memory() *statex.Memory {
	return o.memory
}
