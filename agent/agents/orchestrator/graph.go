package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/studypilot/studypilot/agent/nodes"
)

// compileProcessGraph wires the pipeline as a branching state machine:
//
//	START -> router -> {memory_manager | specialist | synthesizer}
//	memory_manager -> {specialist | synthesizer}
//	specialist -> synthesizer -> END
//
// Exactly one specialist path executes per run; every path ends at the
// synthesizer.
func (o *Orchestrator) compileProcessGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("prepare_state",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.NewGraphState(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node prepare_state: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeRouter,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RouterNode(ctx, in, o.agents.Router(), o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node router: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeMemoryManager,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.MemoryNode(ctx, in, o.agents.MemoryManager(), o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node memory_manager: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeTheory,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.TheoryNode(ctx, in, o.agents.Theory(), o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node theory_explainer: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeCode,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CodeNode(ctx, in, o.agents.Code(), o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node code_helper: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodePlanner,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PlannerNode(ctx, in, o.agents.Planner(), o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node planner: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeSynthesizer,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.SynthesizeNode(ctx, in, o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node synthesizer: %w", err)
	}

	routerBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			return nodex.RouteAfterRouter(in), nil
		},
		map[string]bool{
			nodex.NodeMemoryManager: true,
			nodex.NodeTheory:        true,
			nodex.NodeCode:          true,
			nodex.NodePlanner:       true,
			nodex.NodeSynthesizer:   true,
		},
	)
	if err := graph.AddBranch(nodex.NodeRouter, routerBranch); err != nil {
		return nil, fmt.Errorf("add router branch: %w", err)
	}

	memoryBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			return nodex.RouteAfterMemory(in), nil
		},
		map[string]bool{
			nodex.NodeTheory:      true,
			nodex.NodeCode:        true,
			nodex.NodePlanner:     true,
			nodex.NodeSynthesizer: true,
		},
	)
	if err := graph.AddBranch(nodex.NodeMemoryManager, memoryBranch); err != nil {
		return nil, fmt.Errorf("add memory branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prepare_state"},
		{"prepare_state", nodex.NodeRouter},
		{nodex.NodeTheory, nodex.NodeSynthesizer},
		{nodex.NodeCode, nodex.NodeSynthesizer},
		{nodex.NodePlanner, nodex.NodeSynthesizer},
		{nodex.NodeSynthesizer, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.process_query"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
