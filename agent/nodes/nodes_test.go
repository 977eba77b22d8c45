package orchestratornode

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/studypilot/studypilot/agent/contract"
	statex "github.com/studypilot/studypilot/agent/state"
)

type fakeTheory struct {
	resp contractx.TheoryExplanation
	err  error
}

func (f *fakeTheory) Explain(ctx context.Context, query, memoryContext string) (contractx.TheoryExplanation, error) {
	if f.err != nil {
		return contractx.TheoryExplanation{}, f.err
	}
	return f.resp, nil
}

type fakeCode struct {
	resp contractx.CodeHelp
	err  error
}

func (f *fakeCode) HelpWithCode(ctx context.Context, query, memoryContext string) (contractx.CodeHelp, error) {
	if f.err != nil {
		return contractx.CodeHelp{}, f.err
	}
	return f.resp, nil
}

type fakePlanner struct {
	resp        contractx.StudyPlan
	err         error
	lastProfile statex.UserProfile
}

func (f *fakePlanner) CreatePlan(ctx context.Context, query string, profile statex.UserProfile) (contractx.StudyPlan, error) {
	f.lastProfile = profile
	if f.err != nil {
		return contractx.StudyPlan{}, f.err
	}
	return f.resp, nil
}

type fakeMemoryManager struct {
	resp       contractx.MemoryUpdate
	err        error
	lastAction contractx.MemoryAction
}

func (f *fakeMemoryManager) Manage(ctx context.Context, query string, action contractx.MemoryAction) (contractx.MemoryUpdate, error) {
	f.lastAction = action
	if f.err != nil {
		return contractx.MemoryUpdate{}, f.err
	}
	return f.resp, nil
}

func TestRouteAfterRouter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		routing *contractx.RoutingDecision
		want    string
	}{
		{"nil routing", nil, NodeSynthesizer},
		{"memory first", &contractx.RoutingDecision{NeedsMemory: true, TargetAgents: []contractx.AgentType{contractx.AgentTypeTheory}}, NodeMemoryManager},
		{"theory", &contractx.RoutingDecision{TargetAgents: []contractx.AgentType{contractx.AgentTypeTheory}}, NodeTheory},
		{"code", &contractx.RoutingDecision{TargetAgents: []contractx.AgentType{contractx.AgentTypeCode}}, NodeCode},
		{"planner", &contractx.RoutingDecision{TargetAgents: []contractx.AgentType{contractx.AgentTypePlanner}}, NodePlanner},
		{"no targets", &contractx.RoutingDecision{}, NodeSynthesizer},
		{"unknown target", &contractx.RoutingDecision{TargetAgents: []contractx.AgentType{contractx.AgentTypeMemoryManager}}, NodeSynthesizer},
	}
	for _, tc := range cases {
		got := RouteAfterRouter(&GraphState{Routing: tc.routing})
		if got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestRouteAfterMemoryIgnoresNeedsMemory(t *testing.T) {
	t.Parallel()

	in := &GraphState{Routing: &contractx.RoutingDecision{
		NeedsMemory:  true,
		TargetAgents: []contractx.AgentType{contractx.AgentTypeCode},
	}}
	if got := RouteAfterMemory(in); got != NodeCode {
		t.Fatalf("got %s, want %s", got, NodeCode)
	}
}

func TestMemoryNodeRetrieveSetsContext(t *testing.T) {
	t.Parallel()

	mgr := &fakeMemoryManager{
		resp: contractx.MemoryUpdate{
			Action:           contractx.MemoryActionRetrieve,
			Key:              "session_context",
			RetrievedContext: "Q: earlier\nA: answer",
		},
	}
	in := &GraphState{
		Query:   "what did we discuss",
		Routing: &contractx.RoutingDecision{NeedsMemory: true},
	}

	out, err := MemoryNode(context.Background(), in, mgr, nil)
	if err != nil {
		t.Fatalf("MemoryNode() error = %v", err)
	}
	if mgr.lastAction != contractx.MemoryActionRetrieve {
		t.Fatalf("expected retrieve action, got %s", mgr.lastAction)
	}
	if !out.MemoryAccessed {
		t.Fatal("expected memory accessed")
	}
	if out.MemoryContext != "Q: earlier\nA: answer" {
		t.Fatalf("unexpected memory context: %q", out.MemoryContext)
	}
}

func TestMemoryNodeStoreUpdatesPreferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := statex.NewMemory(ctx, nil)
	mgr := &fakeMemoryManager{
		resp: contractx.MemoryUpdate{
			Action: contractx.MemoryActionStore,
			Key:    "user_preference",
			Value:  "Remember that I like Go",
		},
	}
	in := &GraphState{Query: "Remember that I like Go"}

	out, err := MemoryNode(ctx, in, mgr, memory)
	if err != nil {
		t.Fatalf("MemoryNode() error = %v", err)
	}
	if out.MemoryAccessed {
		t.Fatal("store action must not mark memory accessed")
	}
	prefs := memory.Profile().UserPreferences
	if len(prefs) != 1 || prefs[0] != "Remember that I like Go" {
		t.Fatalf("unexpected preferences: %#v", prefs)
	}
}

func TestMemoryNodeFailureRecordsErrorAndContinues(t *testing.T) {
	t.Parallel()

	mgr := &fakeMemoryManager{err: errors.New("store unreachable")}
	in := &GraphState{Query: "what did we discuss"}

	out, err := MemoryNode(context.Background(), in, mgr, nil)
	if err != nil {
		t.Fatalf("MemoryNode() error = %v", err)
	}
	if out.Err == "" {
		t.Fatal("expected stage error recorded in state")
	}
	if out.MemoryAccessed {
		t.Fatal("failed retrieve must not mark memory accessed")
	}
	for _, agent := range out.AgentsInvolved {
		if agent == contractx.AgentTypeMemoryManager {
			t.Fatal("failed memory manager must not count as involved")
		}
	}
}

func TestTheoryNodeFallbackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := statex.NewMemory(ctx, nil)
	in := &GraphState{Query: "What is recursion?"}

	out, err := TheoryNode(ctx, in, &fakeTheory{err: errors.New("model down")}, memory)
	if err != nil {
		t.Fatalf("TheoryNode() error = %v", err)
	}
	if out.Theory == nil {
		t.Fatal("expected fallback explanation")
	}
	if out.Err != "" {
		t.Fatalf("fallback substitution must not record a stage error, got %q", out.Err)
	}
	// the fallback concept still feeds the profile
	topics := memory.Profile().TopicsAsked
	if len(topics) != 1 || topics[0] != out.Theory.Concept {
		t.Fatalf("unexpected topics: %#v", topics)
	}
}

func TestCodeNodeTracksLanguageAndTool(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := statex.NewMemory(ctx, nil)
	in := &GraphState{Query: "write a python function to sort a list"}

	out, err := CodeNode(ctx, in, &fakeCode{
		resp: contractx.CodeHelp{Explanation: "use sorted()", CodeExample: "print(sorted(xs))"},
	}, memory)
	if err != nil {
		t.Fatalf("CodeNode() error = %v", err)
	}
	langs := memory.Profile().CodingLanguages
	if len(langs) != 1 || langs[0] != "Python" {
		t.Fatalf("unexpected languages: %#v", langs)
	}
	if len(out.ToolsUsed) != 1 || out.ToolsUsed[0] != contractx.ToolCodeExecutor {
		t.Fatalf("unexpected tools: %#v", out.ToolsUsed)
	}
}

func TestCodeNodeNoExampleNoTool(t *testing.T) {
	t.Parallel()

	in := &GraphState{Query: "how do I sort a list"}
	out, err := CodeNode(context.Background(), in, &fakeCode{
		resp: contractx.CodeHelp{Explanation: "use a sorting algorithm"},
	}, nil)
	if err != nil {
		t.Fatalf("CodeNode() error = %v", err)
	}
	if len(out.ToolsUsed) != 0 {
		t.Fatalf("expected no tools, got %#v", out.ToolsUsed)
	}
}

func TestPlannerNodeUsesProfileAndRecordsGoal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := statex.NewMemory(ctx, nil)
	if err := memory.UpdateProfile(ctx, statex.ProfileTopicsAsked, "recursion"); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	planner := &fakePlanner{
		resp: contractx.StudyPlan{
			Goal:  "learn Go",
			Steps: []contractx.PlanStep{{Step: 1, Description: "tour", EstimatedTime: "2 hours"}},
		},
	}
	in := &GraphState{Query: "plan my go study"}

	out, err := PlannerNode(ctx, in, planner, memory)
	if err != nil {
		t.Fatalf("PlannerNode() error = %v", err)
	}
	if len(planner.lastProfile.TopicsAsked) != 1 {
		t.Fatalf("planner did not receive profile: %#v", planner.lastProfile)
	}
	goals := memory.Profile().StudyGoals
	if len(goals) != 1 || goals[0] != "learn Go" {
		t.Fatalf("unexpected goals: %#v", goals)
	}
	if len(out.ToolsUsed) != 1 || out.ToolsUsed[0] != contractx.ToolScheduler {
		t.Fatalf("unexpected tools: %#v", out.ToolsUsed)
	}
}

func TestSynthesizeTheoryOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	memory := statex.NewMemory(ctx, nil)
	in := &GraphState{
		Query: "What is recursion?",
		Theory: &contractx.TheoryExplanation{
			Concept:     "recursion",
			Explanation: "a function calling itself",
			KeyPoints:   []string{"base case"},
		},
		AgentsInvolved: []contractx.AgentType{contractx.AgentTypeRouter, contractx.AgentTypeTheory},
	}

	out, err := SynthesizeNode(ctx, in, memory)
	if err != nil {
		t.Fatalf("SynthesizeNode() error = %v", err)
	}
	final := out.Final
	if !strings.HasPrefix(final.Answer, "## Explanation: recursion") {
		t.Fatalf("answer must start with theory section, got %q", final.Answer)
	}
	if !strings.Contains(final.Answer, "- base case") {
		t.Fatalf("answer missing key points: %q", final.Answer)
	}
	if final.Confidence != contractx.ConfidenceMedium {
		t.Fatalf("single contributor must be medium, got %s", final.Confidence)
	}
	if final.MemoryAccessed {
		t.Fatal("memory was not accessed")
	}
	if memory.HistoryLen() != 1 {
		t.Fatalf("expected interaction recorded, history len = %d", memory.HistoryLen())
	}
}

func TestSynthesizeSectionOrderAndHighConfidence(t *testing.T) {
	t.Parallel()

	in := &GraphState{
		Query:  "help me",
		Theory: &contractx.TheoryExplanation{Concept: "recursion", Explanation: "calls itself"},
		Plan: &contractx.StudyPlan{
			Goal:  "learn recursion",
			Steps: []contractx.PlanStep{{Step: 1, Description: "read", EstimatedTime: "1 hour"}},
		},
		MemoryUpdate: &contractx.MemoryUpdate{
			Action:           contractx.MemoryActionRetrieve,
			RetrievedContext: "Q: earlier\nA: answer",
		},
		MemoryAccessed: true,
	}

	out, err := SynthesizeNode(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("SynthesizeNode() error = %v", err)
	}
	answer := out.Final.Answer
	theoryAt := strings.Index(answer, "## Explanation:")
	planAt := strings.Index(answer, "## Study Plan:")
	contextAt := strings.Index(answer, "## Context from Previous Conversations")
	if theoryAt < 0 || planAt < 0 || contextAt < 0 {
		t.Fatalf("missing sections in answer: %q", answer)
	}
	if !(theoryAt < planAt && planAt < contextAt) {
		t.Fatalf("sections out of order: theory=%d plan=%d context=%d", theoryAt, planAt, contextAt)
	}
	if out.Final.Confidence != contractx.ConfidenceHigh {
		t.Fatalf("multiple contributors must be high, got %s", out.Final.Confidence)
	}
	if !out.Final.MemoryAccessed {
		t.Fatal("expected memory accessed")
	}
}

func TestSynthesizeEmptyRunUsesFallbackAnswer(t *testing.T) {
	t.Parallel()

	in := &GraphState{
		Query:          "Remember that I like Go",
		AgentsInvolved: []contractx.AgentType{contractx.AgentTypeRouter, contractx.AgentTypeMemoryManager},
		MemoryUpdate: &contractx.MemoryUpdate{
			Action: contractx.MemoryActionStore,
			Value:  "Remember that I like Go",
		},
	}

	out, err := SynthesizeNode(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("SynthesizeNode() error = %v", err)
	}
	if out.Final.Answer != emptyRunAnswer {
		t.Fatalf("unexpected answer: %q", out.Final.Answer)
	}
	if out.Final.Confidence != contractx.ConfidenceMedium {
		t.Fatalf("unexpected confidence: %s", out.Final.Confidence)
	}
	if out.Final.MemoryAccessed {
		t.Fatal("store-only run must not report memory accessed")
	}
}

func TestSynthesizeStageErrorLowersConfidence(t *testing.T) {
	t.Parallel()

	in := &GraphState{
		Query:  "help",
		Theory: &contractx.TheoryExplanation{Concept: "x", Explanation: "y"},
		Plan:   &contractx.StudyPlan{Goal: "z", Steps: []contractx.PlanStep{{Step: 1, Description: "a", EstimatedTime: "1 hour"}}},
		Err:    "memory_manager: store unreachable",
	}

	out, err := SynthesizeNode(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("SynthesizeNode() error = %v", err)
	}
	if out.Final.Confidence != contractx.ConfidenceLow {
		t.Fatalf("stage error must lower confidence, got %s", out.Final.Confidence)
	}
}

func TestSynthesizeTruncatesContextPreview(t *testing.T) {
	t.Parallel()

	in := &GraphState{
		Query: "what did we discuss",
		MemoryUpdate: &contractx.MemoryUpdate{
			Action:           contractx.MemoryActionRetrieve,
			RetrievedContext: strings.Repeat("x", contextPreviewCap+50),
		},
		MemoryAccessed: true,
	}

	out, err := SynthesizeNode(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("SynthesizeNode() error = %v", err)
	}
	if !strings.Contains(out.Final.Answer, strings.Repeat("x", contextPreviewCap)+"...") {
		t.Fatalf("context preview not truncated: %q", out.Final.Answer)
	}
	if strings.Contains(out.Final.Answer, strings.Repeat("x", contextPreviewCap+1)) {
		t.Fatalf("context preview exceeds cap: %d chars", len(out.Final.Answer))
	}
}

func TestSynthesizeContextPreviewAlwaysEllipsized(t *testing.T) {
	t.Parallel()

	in := &GraphState{
		Query: "what did we discuss",
		MemoryUpdate: &contractx.MemoryUpdate{
			Action:           contractx.MemoryActionRetrieve,
			RetrievedContext: "Q: earlier\nA: short answer",
		},
		MemoryAccessed: true,
	}

	out, err := SynthesizeNode(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("SynthesizeNode() error = %v", err)
	}
	if !strings.Contains(out.Final.Answer, "A: short answer...") {
		t.Fatalf("short context preview missing trailing ellipsis: %q", out.Final.Answer)
	}
}

func TestSynthesizeDeduplicatesAgentsAndTools(t *testing.T) {
	t.Parallel()

	in := &GraphState{
		Query:  "plan",
		Plan:   &contractx.StudyPlan{Goal: "g", Steps: []contractx.PlanStep{{Step: 1, Description: "d", EstimatedTime: "1 hour"}}},
		AgentsInvolved: []contractx.AgentType{
			contractx.AgentTypeRouter,
			contractx.AgentTypePlanner,
			contractx.AgentTypeRouter,
		},
		ToolsUsed: []string{contractx.ToolScheduler, contractx.ToolScheduler},
	}

	out, err := SynthesizeNode(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("SynthesizeNode() error = %v", err)
	}
	if len(out.Final.AgentsInvolved) != 2 {
		t.Fatalf("agents not deduplicated: %#v", out.Final.AgentsInvolved)
	}
	if len(out.Final.ToolsUsed) != 1 {
		t.Fatalf("tools not deduplicated: %#v", out.Final.ToolsUsed)
	}
}
