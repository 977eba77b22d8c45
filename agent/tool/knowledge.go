package tool

import "strings"

// Fact is one knowledge-base record.
type Fact struct {
	Definition  string   `json:"definition"`
	KeyConcepts []string `json:"key_concepts"`
	Examples    []string `json:"examples,omitempty"`
}

// KnowledgeBase is a small fixed table of study concepts consulted by the
// theory agent before it generates.
type KnowledgeBase struct {
	facts map[string]Fact
}

func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		facts: map[string]Fact{
			"multi-agent system": {
				Definition:  "A system composed of multiple interacting agents that work together to solve problems",
				KeyConcepts: []string{"agents", "coordination", "communication", "distributed problem solving"},
				Examples:    []string{"Router pattern", "Planner-executor pattern", "Supervisor pattern"},
			},
			"recursion": {
				Definition:  "A technique where a function solves a problem by calling itself on smaller inputs until a base case is reached",
				KeyConcepts: []string{"base case", "recursive case", "call stack", "divide and conquer"},
				Examples:    []string{"Factorial", "Tree traversal", "Merge sort"},
			},
			"state machine": {
				Definition:  "A computational model described by a finite set of states and transitions driven by inputs",
				KeyConcepts: []string{"states", "transitions", "initial state", "terminal state"},
				Examples:    []string{"Protocol handshakes", "Workflow engines", "Lexers"},
			},
		},
	}
}

// Lookup finds a fact by substring match against the query, falling back to
// token overlap. Returns false when nothing matches.
func (kb *KnowledgeBase) Lookup(query string) (Fact, bool) {
	lowered := strings.ToLower(query)

	for key, fact := range kb.facts {
		if strings.Contains(lowered, key) || strings.Contains(key, lowered) {
			return fact, true
		}
	}

	for key, fact := range kb.facts {
		for _, word := range strings.Fields(lowered) {
			if strings.Contains(key, word) {
				return fact, true
			}
		}
	}
	return Fact{}, false
}

// Add registers a new concept, replacing any existing entry.
func (kb *KnowledgeBase) Add(concept string, fact Fact) {
	kb.facts[strings.ToLower(concept)] = fact
}
