package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/theory.txt
	theoryRaw string

	//go:embed template/code.txt
	codeRaw string

	//go:embed template/planner.txt
	plannerRaw string
)

// PromptSet holds the system instructions for every generator-backed agent.
type PromptSet struct {
	Router  string
	Theory  string
	Code    string
	Planner string
}

// LoadPromptSet returns the embedded prompts, trimmed. Safe for concurrent use.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:  strings.TrimSpace(routerRaw),
		Theory:  strings.TrimSpace(theoryRaw),
		Code:    strings.TrimSpace(codeRaw),
		Planner: strings.TrimSpace(plannerRaw),
	}
}
