package specialist

import (
	"context"
	"fmt"

	contractx "github.com/studypilot/studypilot/agent/contract"
	llmx "github.com/studypilot/studypilot/agent/llm"
	promptx "github.com/studypilot/studypilot/agent/prompt"
	statex "github.com/studypilot/studypilot/agent/state"
	toolx "github.com/studypilot/studypilot/agent/tool"
)

type registryImpl struct {
	router        contractx.Router
	theory        contractx.TheoryExplainer
	code          contractx.CodeHelper
	planner       contractx.Planner
	memoryManager contractx.MemoryManager
}

func (r *registryImpl) Router() contractx.Router               { return r.router }
func (r *registryImpl) Theory() contractx.TheoryExplainer      { return r.theory }
func (r *registryImpl) Code() contractx.CodeHelper             { return r.code }
func (r *registryImpl) Planner() contractx.Planner             { return r.planner }
func (r *registryImpl) MemoryManager() contractx.MemoryManager { return r.memoryManager }

// NewRegistry constructs every agent once, each with its own chat model.
// The generator retry budget and per-attempt timeout come from cfg and are
// owned here, not by the orchestrator.
func NewRegistry(ctx context.Context, cfg llmx.Config, memory *statex.Memory) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	kb := toolx.NewKnowledgeBase()
	tools := toolx.NewExecutor(kb)
	attempts := cfg.Attempts()
	timeout := cfg.Timeout

	routerModelCfg := cfg.OpenRouterFor(contractx.AgentTypeRouter)
	routerModel, err := routerModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create router model: %v", contractx.ErrModelInvoke, err)
	}
	theoryModelCfg := cfg.OpenRouterFor(contractx.AgentTypeTheory)
	theoryModel, err := theoryModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create theory model: %v", contractx.ErrModelInvoke, err)
	}
	codeModelCfg := cfg.OpenRouterFor(contractx.AgentTypeCode)
	codeModel, err := codeModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create code model: %v", contractx.ErrModelInvoke, err)
	}
	plannerModelCfg := cfg.OpenRouterFor(contractx.AgentTypePlanner)
	plannerModel, err := plannerModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create planner model: %v", contractx.ErrModelInvoke, err)
	}

	router, err := newRouter(ctx, routerModel, prompts.Router, attempts, timeout)
	if err != nil {
		return nil, err
	}
	theory, err := newTheory(ctx, theoryModel, prompts.Theory, kb, attempts, timeout)
	if err != nil {
		return nil, err
	}
	code, err := newCode(ctx, codeModel, prompts.Code, tools, attempts, timeout)
	if err != nil {
		return nil, err
	}
	planner, err := newPlanner(ctx, plannerModel, prompts.Planner, attempts, timeout)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		router:        router,
		theory:        theory,
		code:          code,
		planner:       planner,
		memoryManager: NewMemoryManager(memory),
	}, nil
}
