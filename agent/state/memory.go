package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrDocumentNotFound = errors.New("memory document not found")
	ErrNilDocument      = errors.New("memory document is nil")
	ErrUnknownProfile   = errors.New("unknown profile field")
	ErrStoreClosed      = errors.New("memory store is closed")
)

const (
	// historyCap bounds session history: oldest entries are evicted first.
	historyCap = 20
	// responseCap bounds the stored response text per history entry.
	responseCap = 500
)

// Profile field names, matching the persisted document keys.
const (
	ProfileTopicsAsked     = "topics_asked"
	ProfileCodingLanguages = "coding_languages"
	ProfileStudyGoals      = "study_goals"
	ProfileUserPreferences = "user_preferences"
)

// HistoryEntry is one completed interaction.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Agents    []string  `json:"agents"`
}

// UserProfile accumulates deduplicated tags across runs.
type UserProfile struct {
	TopicsAsked     []string `json:"topics_asked"`
	CodingLanguages []string `json:"coding_languages"`
	StudyGoals      []string `json:"study_goals"`
	UserPreferences []string `json:"user_preferences,omitempty"`
}

// Document is the durable shape of the context store. The Context section is
// reserved and round-tripped untouched.
type Document struct {
	SessionHistory []HistoryEntry `json:"session_history"`
	UserProfile    UserProfile    `json:"user_profile"`
	Context        map[string]any `json:"context"`
}

func NewDocument() *Document {
	return &Document{
		SessionHistory: []HistoryEntry{},
		Context:        map[string]any{},
	}
}

// Store is the persistence contract for the memory document.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// Memory is the session-scoped context store shared across runs. All reads
// and writes go through one mutex; persistence is best-effort (a save failure
// is logged and swallowed, the in-memory view stays authoritative).
type Memory struct {
	mu    sync.Mutex
	store Store
	doc   *Document
	now   func() time.Time
}

// NewMemory loads the document from the store. A missing or unreadable
// document yields a fresh empty one, never an error.
func NewMemory(ctx context.Context, store Store) *Memory {
	m := &Memory{
		store: store,
		doc:   NewDocument(),
		now:   time.Now,
	}
	if store == nil {
		return m
	}
	doc, err := store.Load(ctx)
	switch {
	case err == nil && doc != nil:
		if doc.Context == nil {
			doc.Context = map[string]any{}
		}
		if doc.SessionHistory == nil {
			doc.SessionHistory = []HistoryEntry{}
		}
		m.doc = doc
	case errors.Is(err, ErrDocumentNotFound):
		// first run, start empty
	case err != nil:
		log.Warn().Err(err).Msg("memory load failed, starting with empty document")
	}
	return m
}

// StoreInteraction appends a completed interaction to session history,
// truncating the response and evicting the oldest entry past the cap.
func (m *Memory) StoreInteraction(ctx context.Context, query, response string, agents []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := HistoryEntry{
		Timestamp: m.now().UTC(),
		Query:     query,
		Response:  truncate(response, responseCap),
		Agents:    append([]string(nil), agents...),
	}
	m.doc.SessionHistory = append(m.doc.SessionHistory, entry)
	if n := len(m.doc.SessionHistory); n > historyCap {
		m.doc.SessionHistory = m.doc.SessionHistory[n-historyCap:]
	}
	m.persist(ctx)
}

// RecentContext returns up to limit most-recent history entries in storage order.
func (m *Memory) RecentContext(limit int) []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		return nil
	}
	history := m.doc.SessionHistory
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append([]HistoryEntry(nil), history...)
}

// SearchHistory returns entries whose query or response contains the keyword,
// case-insensitive, in storage order.
func (m *Memory) SearchHistory(keyword string) []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := strings.ToLower(keyword)
	if needle == "" {
		return nil
	}
	var matches []HistoryEntry
	for _, entry := range m.doc.SessionHistory {
		if strings.Contains(strings.ToLower(entry.Query), needle) ||
			strings.Contains(strings.ToLower(entry.Response), needle) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// UpdateProfile appends value to the named profile list, skipping duplicates.
func (m *Memory) UpdateProfile(ctx context.Context, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile := &m.doc.UserProfile
	switch field {
	case ProfileTopicsAsked:
		profile.TopicsAsked = appendUnique(profile.TopicsAsked, value)
	case ProfileCodingLanguages:
		profile.CodingLanguages = appendUnique(profile.CodingLanguages, value)
	case ProfileStudyGoals:
		profile.StudyGoals = appendUnique(profile.StudyGoals, value)
	case ProfileUserPreferences:
		profile.UserPreferences = appendUnique(profile.UserPreferences, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProfile, field)
	}
	m.persist(ctx)
	return nil
}

// Profile returns a copy of the current user profile.
func (m *Memory) Profile() UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()

	return UserProfile{
		TopicsAsked:     append([]string(nil), m.doc.UserProfile.TopicsAsked...),
		CodingLanguages: append([]string(nil), m.doc.UserProfile.CodingLanguages...),
		StudyGoals:      append([]string(nil), m.doc.UserProfile.StudyGoals...),
		UserPreferences: append([]string(nil), m.doc.UserProfile.UserPreferences...),
	}
}

// HistoryLen reports the current number of stored interactions.
func (m *Memory) HistoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.doc.SessionHistory)
}

// Clear resets the document to its initial empty shape.
func (m *Memory) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = NewDocument()
	m.persist(ctx)
}

func (m *Memory) persist(ctx context.Context) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, m.doc); err != nil {
		log.Error().Err(err).Msg("memory save failed")
	}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

// truncate cuts s to at most max runes so persisted documents stay valid
// UTF-8 even when the cut lands inside a multi-byte character.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
