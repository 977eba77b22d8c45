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
	toolx "github.com/studypilot/studypilot/agent/tool"
)

type codeImpl struct {
	runner   compose.Runnable[map[string]any, contractx.CodeHelp]
	tools    toolx.Executor
	attempts int
	timeout  time.Duration
}

func newCode(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	tools toolx.Executor,
	attempts int,
	timeout time.Duration,
) (*codeImpl, error) {
	runner, err := compileStructuredGraph[contractx.CodeHelp](ctx, chatModel, systemPrompt, "code.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile code graph: %v", contractx.ErrModelInvoke, err)
	}
	return &codeImpl{runner: runner, tools: tools, attempts: attempts, timeout: timeout}, nil
}

func (c *codeImpl) HelpWithCode(ctx context.Context, query, memoryContext string) (contractx.CodeHelp, error) {
	payload := map[string]any{
		"query":   query,
		"context": memoryContext,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.CodeHelp{}, fmt.Errorf("%w: marshal code payload: %v", contractx.ErrValidation, err)
	}

	out, err := invokeWithRetry(ctx, c.runner, map[string]any{
		"input": string(input),
	}, c.attempts, c.timeout)
	if err != nil {
		return contractx.CodeHelp{}, err
	}

	if strings.TrimSpace(out.Explanation) == "" {
		return contractx.CodeHelp{}, fmt.Errorf("%w: code explanation is empty", contractx.ErrSchemaViolation)
	}
	if strings.TrimSpace(out.ProblemDescription) == "" {
		out.ProblemDescription = query
	}

	c.tryExecuteExample(ctx, &out)
	return out, nil
}

// tryExecuteExample runs print-style examples through the snippet sandbox
// and appends the captured output to the explanation. Sandbox trouble only
// costs the execution note, never the result.
func (c *codeImpl) tryExecuteExample(ctx context.Context, help *contractx.CodeHelp) {
	if c.tools == nil || help.CodeExample == "" {
		return
	}
	if !strings.Contains(strings.ToLower(help.CodeExample), "print") {
		return
	}

	result, err := c.tools(ctx, toolx.ToolCodeExecute, map[string]any{
		"code": help.CodeExample,
	})
	if err != nil {
		log.Warn().Err(err).Msg("code example execution failed")
		return
	}
	run, ok := result.Result.(toolx.ExecResult)
	if !ok || !run.Success || strings.TrimSpace(run.Output) == "" {
		return
	}
	help.Explanation += fmt.Sprintf("\n\nExecution result: %s", strings.TrimSpace(run.Output))
}
