package specialist

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/studypilot/studypilot/agent/contract"
	statex "github.com/studypilot/studypilot/agent/state"
)

const (
	memoryRecentEntries   = 3
	memoryResponseCap     = 200
	memoryRelatedQueryCap = 100
	memoryKeywordLimit    = 2
	memoryRelatedLimit    = 2
	memoryKeywordMinLen   = 3

	noContextFound = "No previous context found"
)

var (
	storeTokens    = []string{"remember", "store", "save"}
	retrieveTokens = []string{"what did", "previous", "earlier", "before"}
)

// memoryManagerImpl is the one specialist with no generator behind it:
// memory management is keyword dispatch plus store lookups.
type memoryManagerImpl struct {
	memory *statex.Memory
}

func NewMemoryManager(memory *statex.Memory) contractx.MemoryManager {
	return &memoryManagerImpl{memory: memory}
}

func (m *memoryManagerImpl) Manage(
	ctx context.Context,
	query string,
	action contractx.MemoryAction,
) (contractx.MemoryUpdate, error) {
	if m.memory == nil {
		return contractx.MemoryUpdate{
			Action:    contractx.MemoryActionNone,
			Reasoning: "Memory store not available",
		}, nil
	}

	lowered := strings.ToLower(query)
	if action == contractx.MemoryActionAuto {
		switch {
		case containsAny(lowered, storeTokens):
			action = contractx.MemoryActionStore
		case containsAny(lowered, retrieveTokens):
			action = contractx.MemoryActionRetrieve
		default:
			// ambiguous queries default to retrieval, not a no-op
			action = contractx.MemoryActionRetrieve
		}
	}

	switch action {
	case contractx.MemoryActionRetrieve:
		return contractx.MemoryUpdate{
			Action:           contractx.MemoryActionRetrieve,
			Key:              "session_context",
			RetrievedContext: m.retrieveContext(lowered),
			Reasoning:        "Retrieved recent session history and related discussions",
		}, nil
	case contractx.MemoryActionStore:
		return contractx.MemoryUpdate{
			Action:    contractx.MemoryActionStore,
			Key:       "user_preference",
			Value:     query,
			Reasoning: "Storing user preference or information",
		}, nil
	}

	return contractx.MemoryUpdate{
		Action:    contractx.MemoryActionNone,
		Reasoning: "No memory action needed",
	}, nil
}

func (m *memoryManagerImpl) retrieveContext(loweredQuery string) string {
	recent := m.memory.RecentContext(memoryRecentEntries)

	var parts []string
	for _, entry := range recent {
		response := capRunes(entry.Response, memoryResponseCap)
		parts = append(parts, fmt.Sprintf("Q: %s\nA: %s", entry.Query, response))
	}

	retrieved := noContextFound
	if len(parts) > 0 {
		retrieved = strings.Join(parts, "\n")
	}

	related := m.searchRelated(loweredQuery)
	if len(related) > 0 {
		var b strings.Builder
		b.WriteString(retrieved)
		b.WriteString("\n\nRelated previous discussions:\n")
		for _, entry := range related {
			fmt.Fprintf(&b, "- %s\n", capRunes(entry.Query, memoryRelatedQueryCap))
		}
		retrieved = b.String()
	}
	return retrieved
}

// searchRelated keyword-searches history with the first few long-enough
// query tokens. Matches come back in storage order, capped, unranked.
func (m *memoryManagerImpl) searchRelated(loweredQuery string) []statex.HistoryEntry {
	var keywords []string
	for _, word := range strings.Fields(loweredQuery) {
		if len(word) > memoryKeywordMinLen {
			keywords = append(keywords, word)
			if len(keywords) == memoryKeywordLimit {
				break
			}
		}
	}

	var matches []statex.HistoryEntry
	for _, keyword := range keywords {
		matches = append(matches, m.memory.SearchHistory(keyword)...)
	}
	if len(matches) > memoryRelatedLimit {
		matches = matches[:memoryRelatedLimit]
	}
	return matches
}
