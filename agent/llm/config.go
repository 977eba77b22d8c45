package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/studypilot/studypilot/agent/contract"
	openrouterx "github.com/studypilot/studypilot/pkg/openrouter"
)

// Config carries the shared generator endpoint plus per-agent overrides.
// Temperatures below zero mean "use the role default".
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	MaxAttempts        int           `envconfig:"MAX_ATTEMPTS" split_words:"true" default:"3"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	RouterModel        string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	TheoryModel        string  `envconfig:"THEORY_MODEL" split_words:"true"`
	CodeModel          string  `envconfig:"CODE_MODEL" split_words:"true"`
	PlannerModel       string  `envconfig:"PLANNER_MODEL" split_words:"true"`
	RouterTemperature  float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	TheoryTemperature  float32 `envconfig:"THEORY_TEMPERATURE" split_words:"true" default:"-1"`
	CodeTemperature    float32 `envconfig:"CODE_TEMPERATURE" split_words:"true" default:"-1"`
	PlannerTemperature float32 `envconfig:"PLANNER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: generator api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive", contractx.ErrValidation)
	}
	return nil
}

// Attempts returns the generator retry budget.
func (c Config) Attempts() int {
	if c.MaxAttempts <= 0 {
		return 3
	}
	return c.MaxAttempts
}

// OpenRouterFor resolves the endpoint config for one agent, applying
// per-agent model and temperature overrides.
func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := defaultTemperature(agentType)

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}

	switch agentType {
	case contractx.AgentTypeRouter:
		override(c.RouterModel, c.RouterTemperature)
	case contractx.AgentTypeTheory:
		override(c.TheoryModel, c.TheoryTemperature)
	case contractx.AgentTypeCode:
		override(c.CodeModel, c.CodeTemperature)
	case contractx.AgentTypePlanner:
		override(c.PlannerModel, c.PlannerTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// Classification wants determinism; explanation wants range.
func defaultTemperature(agentType contractx.AgentType) float32 {
	switch agentType {
	case contractx.AgentTypeRouter:
		return 0.1
	case contractx.AgentTypeTheory:
		return 0.7
	case contractx.AgentTypeCode:
		return 0.3
	case contractx.AgentTypePlanner:
		return 0.5
	default:
		return 0.5
	}
}
