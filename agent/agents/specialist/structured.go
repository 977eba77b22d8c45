package specialist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/studypilot/studypilot/agent/contract"
)

// compileStructuredGraph wires prompt -> model -> JSON parser into one
// runnable producing a typed record. Every generator-backed agent owns one.
func compileStructuredGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, T], error) {
	// The instruction text contains literal JSON braces; escape them so the
	// FString formatter only substitutes {input}.
	escaped := strings.ReplaceAll(strings.ReplaceAll(systemPrompt, "{", "{{"), "}", "}}")
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(escaped),
		schema.UserMessage("{input}"),
	)

	parser := schema.NewMessageJSONParser[T](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, T]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add structured prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add structured model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add structured parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "parse_json"},
		{"parse_json", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add structured edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile structured graph: %w", err)
	}
	return runner, nil
}

// invokeWithRetry runs the structured graph under the generator's retry
// budget: each attempt gets its own timeout, and budget exhaustion is one
// ordinary ErrModelInvoke for the caller.
func invokeWithRetry[T any](
	ctx context.Context,
	runner compose.Runnable[map[string]any, T],
	input map[string]any,
	attempts int,
	timeout time.Duration,
) (T, error) {
	var zero T
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		out, err := runner.Invoke(attemptCtx, input)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return out, nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Msg("structured generation attempt failed")
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no attempts executed")
	}
	return zero, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, lastErr)
}
