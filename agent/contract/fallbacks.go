package contract

import "strings"

// Deterministic canned results substituted when a specialist's generator call
// fails. The orchestrator converts stage errors into these before advancing,
// so a run always reaches the synthesizer with a usable value.

func FallbackTheoryExplanation(query string) TheoryExplanation {
	concept := query
	if idx := strings.Index(concept, "?"); idx >= 0 {
		concept = concept[:idx]
	} else if runes := []rune(concept); len(runes) > 50 {
		concept = string(runes[:50])
	}
	return TheoryExplanation{
		Concept:         strings.TrimSpace(concept),
		Explanation:     "I'll help explain this concept. Let me provide a clear explanation...",
		KeyPoints:       []string{"Key point 1", "Key point 2"},
		DifficultyLevel: "intermediate",
	}
}

func FallbackCodeHelp(query string) CodeHelp {
	return CodeHelp{
		ProblemDescription: query,
		SolutionApproach:   "Analyze the problem step by step",
		Explanation:        "I'll help you with this coding question.",
	}
}

func FallbackStudyPlan(query string) StudyPlan {
	return StudyPlan{
		Goal: query,
		Steps: []PlanStep{
			{Step: 1, Description: "Understand basics", EstimatedTime: "2 hours"},
			{Step: 2, Description: "Practice examples", EstimatedTime: "3 hours"},
		},
		TotalEstimatedTime: "5 hours",
		PriorityOrder:      []int{1, 2},
	}
}
