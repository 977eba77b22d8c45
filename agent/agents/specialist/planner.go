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
	statex "github.com/studypilot/studypilot/agent/state"
	toolx "github.com/studypilot/studypilot/agent/tool"
)

type plannerImpl struct {
	runner   compose.Runnable[map[string]any, contractx.StudyPlan]
	attempts int
	timeout  time.Duration
}

func newPlanner(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	attempts int,
	timeout time.Duration,
) (*plannerImpl, error) {
	runner, err := compileStructuredGraph[contractx.StudyPlan](ctx, chatModel, systemPrompt, "planner.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile planner graph: %v", contractx.ErrModelInvoke, err)
	}
	return &plannerImpl{runner: runner, attempts: attempts, timeout: timeout}, nil
}

func (p *plannerImpl) CreatePlan(
	ctx context.Context,
	query string,
	profile statex.UserProfile,
) (contractx.StudyPlan, error) {
	payload := map[string]any{
		"query": query,
		"profile": map[string]any{
			"topics_asked":     profile.TopicsAsked,
			"coding_languages": profile.CodingLanguages,
			"study_goals":      profile.StudyGoals,
		},
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.StudyPlan{}, fmt.Errorf("%w: marshal planner payload: %v", contractx.ErrValidation, err)
	}

	out, err := invokeWithRetry(ctx, p.runner, map[string]any{
		"input": string(input),
	}, p.attempts, p.timeout)
	if err != nil {
		return contractx.StudyPlan{}, err
	}

	if strings.TrimSpace(out.Goal) == "" {
		out.Goal = query
	}
	if len(out.Steps) == 0 {
		return contractx.StudyPlan{}, fmt.Errorf("%w: study plan has no steps", contractx.ErrSchemaViolation)
	}

	log.Debug().
		Int("steps", len(out.Steps)).
		Int("total_minutes", toolx.TotalMinutes(out.Steps)).
		Str("schedule", toolx.FormatSchedule(out.Steps)).
		Msg("study plan generated")
	return out, nil
}
