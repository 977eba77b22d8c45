package tool

import (
	"context"
	"fmt"

	contractx "github.com/studypilot/studypilot/agent/contract"
)

const (
	ToolCalcEvaluate    = "calc.evaluate"
	ToolCodeExecute     = "code.execute"
	ToolScheduleParse   = "schedule.parse"
	ToolKnowledgeLookup = "knowledge.lookup"
)

// Executor dispatches one tool invocation by name.
type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// NewExecutor builds the catalog executor covering all auxiliary tools.
// Unknown tools yield an unavailable result, never an error.
func NewExecutor(kb *KnowledgeBase) Executor {
	if kb == nil {
		kb = NewKnowledgeBase()
	}
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolCalcEvaluate:
			return executeCalc(tool, args)
		case ToolCodeExecute:
			return executeSnippetTool(ctx, tool, args)
		case ToolScheduleParse:
			return executeScheduleParse(tool, args)
		case ToolKnowledgeLookup:
			return executeKnowledgeLookup(kb, tool, args)
		default:
			return contractx.ToolResult{
				Tool:  tool,
				Error: fmt.Sprintf("tool=%s is not available", tool),
			}, nil
		}
	}
}

func executeCalc(tool string, args map[string]any) (contractx.ToolResult, error) {
	expression, ok := stringArg(args, "expression")
	if !ok {
		return contractx.ToolResult{Tool: tool, Error: "expression is required"}, nil
	}
	result, err := Evaluate(expression)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: result}, nil
}

func executeSnippetTool(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
	code, ok := stringArg(args, "code")
	if !ok {
		return contractx.ToolResult{Tool: tool, Error: "code is required"}, nil
	}
	out := ExecuteSnippet(ctx, code, 0)
	result := contractx.ToolResult{Tool: tool, Result: out}
	if !out.Success {
		result.Error = out.Error
	}
	return result, nil
}

func executeScheduleParse(tool string, args map[string]any) (contractx.ToolResult, error) {
	duration, ok := stringArg(args, "duration")
	if !ok {
		return contractx.ToolResult{Tool: tool, Error: "duration is required"}, nil
	}
	minutes, ok := ParseDurationMinutes(duration)
	if !ok {
		return contractx.ToolResult{Tool: tool, Error: fmt.Sprintf("unrecognized duration %q", duration)}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: minutes}, nil
}

func executeKnowledgeLookup(kb *KnowledgeBase, tool string, args map[string]any) (contractx.ToolResult, error) {
	query, ok := stringArg(args, "query")
	if !ok {
		return contractx.ToolResult{Tool: tool, Error: "query is required"}, nil
	}
	fact, found := kb.Lookup(query)
	if !found {
		return contractx.ToolResult{Tool: tool, Error: "no matching concept"}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: fact}, nil
}

func stringArg(args map[string]any, key string) (string, bool) {
	raw, ok := args[key]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
