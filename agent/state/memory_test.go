package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	doc     *Document
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeStore) Load(ctx context.Context) (*Document, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.doc, nil
}

func (f *fakeStore) Save(ctx context.Context, doc *Document) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.doc = doc
	return nil
}

func TestMemoryStartsEmptyWhenDocumentMissing(t *testing.T) {
	t.Parallel()

	m := NewMemory(context.Background(), &fakeStore{loadErr: ErrDocumentNotFound})
	assert.Equal(t, 0, m.HistoryLen())
	assert.Empty(t, m.Profile().TopicsAsked)
}

func TestMemoryStartsEmptyWhenLoadFails(t *testing.T) {
	t.Parallel()

	m := NewMemory(context.Background(), &fakeStore{loadErr: errors.New("disk on fire")})
	assert.Equal(t, 0, m.HistoryLen())
}

func TestStoreInteractionEvictsOldestPastCap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(ctx, nil)
	for i := 0; i < historyCap+1; i++ {
		m.StoreInteraction(ctx, fmt.Sprintf("query %d", i), "answer", []string{"router"})
	}

	require.Equal(t, historyCap, m.HistoryLen())

	recent := m.RecentContext(historyCap)
	assert.Equal(t, "query 1", recent[0].Query, "oldest entry must be evicted first")
	assert.Equal(t, fmt.Sprintf("query %d", historyCap), recent[len(recent)-1].Query)
}

func TestStoreInteractionTruncatesResponse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(ctx, nil)
	m.StoreInteraction(ctx, "q", strings.Repeat("x", responseCap+100), nil)

	recent := m.RecentContext(1)
	require.Len(t, recent, 1)
	assert.Len(t, recent[0].Response, responseCap)
}

func TestStoreInteractionTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(ctx, nil)
	m.StoreInteraction(ctx, "q", strings.Repeat("日", responseCap+100), nil)

	recent := m.RecentContext(1)
	require.Len(t, recent, 1)
	assert.True(t, utf8.ValidString(recent[0].Response))
	assert.Equal(t, responseCap, utf8.RuneCountInString(recent[0].Response))
}

func TestStoreInteractionPersistFailureKeepsInMemoryView(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &fakeStore{saveErr: errors.New("save failed")}
	m := NewMemory(ctx, store)
	m.StoreInteraction(ctx, "q", "a", nil)

	assert.Equal(t, 1, m.HistoryLen())
	assert.Equal(t, 1, store.saves)
}

func TestRecentContextLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(ctx, nil)
	for i := 0; i < 5; i++ {
		m.StoreInteraction(ctx, fmt.Sprintf("query %d", i), "answer", nil)
	}

	recent := m.RecentContext(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "query 3", recent[0].Query)
	assert.Equal(t, "query 4", recent[1].Query)

	assert.Nil(t, m.RecentContext(0))
}

func TestSearchHistoryCaseInsensitive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(ctx, nil)
	m.StoreInteraction(ctx, "What is Recursion?", "a function calling itself", nil)
	m.StoreInteraction(ctx, "plan my week", "sure, here is a PLAN", nil)

	assert.Len(t, m.SearchHistory("recursion"), 1)
	assert.Len(t, m.SearchHistory("plan"), 1, "matches responses too")
	assert.Empty(t, m.SearchHistory("quantum"))
	assert.Empty(t, m.SearchHistory(""))
}

func TestUpdateProfileDeduplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(ctx, nil)
	require.NoError(t, m.UpdateProfile(ctx, ProfileTopicsAsked, "recursion"))
	require.NoError(t, m.UpdateProfile(ctx, ProfileTopicsAsked, "recursion"))
	require.NoError(t, m.UpdateProfile(ctx, ProfileCodingLanguages, "Python"))

	profile := m.Profile()
	assert.Equal(t, []string{"recursion"}, profile.TopicsAsked)
	assert.Equal(t, []string{"Python"}, profile.CodingLanguages)
}

func TestUpdateProfileUnknownField(t *testing.T) {
	t.Parallel()

	m := NewMemory(context.Background(), nil)
	err := m.UpdateProfile(context.Background(), "favorite_color", "blue")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestProfileReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(ctx, nil)
	require.NoError(t, m.UpdateProfile(ctx, ProfileStudyGoals, "pass exam"))

	profile := m.Profile()
	profile.StudyGoals[0] = "mutated"
	assert.Equal(t, []string{"pass exam"}, m.Profile().StudyGoals)
}

func TestClearResetsDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(ctx, nil)
	m.StoreInteraction(ctx, "q", "a", nil)
	require.NoError(t, m.UpdateProfile(ctx, ProfileTopicsAsked, "recursion"))

	m.Clear(ctx)
	assert.Equal(t, 0, m.HistoryLen())
	assert.Empty(t, m.Profile().TopicsAsked)
}

func TestMemoryLoadsExistingDocument(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		doc: &Document{
			SessionHistory: []HistoryEntry{
				{Timestamp: time.Now().UTC(), Query: "old question", Response: "old answer"},
			},
			UserProfile: UserProfile{TopicsAsked: []string{"recursion"}},
		},
	}

	m := NewMemory(context.Background(), store)
	assert.Equal(t, 1, m.HistoryLen())
	assert.Equal(t, []string{"recursion"}, m.Profile().TopicsAsked)
}
