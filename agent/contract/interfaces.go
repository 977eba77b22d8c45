package contract

import (
	"context"

	statex "github.com/studypilot/studypilot/agent/state"
)

// Router classifies a query into a routing decision. Implementations never
// fail: a generator failure degrades to deterministic keyword routing.
type Router interface {
	Classify(ctx context.Context, query string, recent []statex.HistoryEntry) RoutingDecision
}

type TheoryExplainer interface {
	Explain(ctx context.Context, query, memoryContext string) (TheoryExplanation, error)
}

type CodeHelper interface {
	HelpWithCode(ctx context.Context, query, memoryContext string) (CodeHelp, error)
}

type Planner interface {
	CreatePlan(ctx context.Context, query string, profile statex.UserProfile) (StudyPlan, error)
}

// MemoryManager is deterministic; it never calls the generator.
type MemoryManager interface {
	Manage(ctx context.Context, query string, action MemoryAction) (MemoryUpdate, error)
}

type Registry interface {
	Router() Router
	Theory() TheoryExplainer
	Code() CodeHelper
	Planner() Planner
	MemoryManager() MemoryManager
}
