package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	contractx "github.com/studypilot/studypilot/agent/contract"
	toolx "github.com/studypilot/studypilot/agent/tool"
)

type theoryImpl struct {
	runner   compose.Runnable[map[string]any, contractx.TheoryExplanation]
	kb       *toolx.KnowledgeBase
	attempts int
	timeout  time.Duration
}

func newTheory(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	kb *toolx.KnowledgeBase,
	attempts int,
	timeout time.Duration,
) (*theoryImpl, error) {
	runner, err := compileStructuredGraph[contractx.TheoryExplanation](ctx, chatModel, systemPrompt, "theory.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile theory graph: %v", contractx.ErrModelInvoke, err)
	}
	if kb == nil {
		kb = toolx.NewKnowledgeBase()
	}
	return &theoryImpl{runner: runner, kb: kb, attempts: attempts, timeout: timeout}, nil
}

func (t *theoryImpl) Explain(ctx context.Context, query, memoryContext string) (contractx.TheoryExplanation, error) {
	payload := map[string]any{
		"query":   query,
		"context": memoryContext,
	}
	if fact, found := t.kb.Lookup(query); found {
		payload["knowledge_base"] = fact
	}

	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.TheoryExplanation{}, fmt.Errorf("%w: marshal theory payload: %v", contractx.ErrValidation, err)
	}

	out, err := invokeWithRetry(ctx, t.runner, map[string]any{
		"input": string(input),
	}, t.attempts, t.timeout)
	if err != nil {
		return contractx.TheoryExplanation{}, err
	}

	if strings.TrimSpace(out.Explanation) == "" {
		return contractx.TheoryExplanation{}, fmt.Errorf("%w: theory explanation is empty", contractx.ErrSchemaViolation)
	}
	if strings.TrimSpace(out.Concept) == "" {
		out.Concept = query
	}
	if strings.TrimSpace(out.DifficultyLevel) == "" {
		out.DifficultyLevel = "intermediate"
	}
	return out, nil
}
