package contract

type AgentType string

const (
	AgentTypeRouter        AgentType = "router"
	AgentTypeTheory        AgentType = "theory_explainer"
	AgentTypeCode          AgentType = "code_helper"
	AgentTypePlanner       AgentType = "planner"
	AgentTypeMemoryManager AgentType = "memory_manager"
)

type QueryType string

const (
	QueryTypeTheory   QueryType = "theory"
	QueryTypeCode     QueryType = "code"
	QueryTypePlanning QueryType = "planning"
	QueryTypeGeneral  QueryType = "general"
	QueryTypeMemory   QueryType = "memory"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type MemoryAction string

const (
	MemoryActionStore    MemoryAction = "store"
	MemoryActionRetrieve MemoryAction = "retrieve"
	MemoryActionAuto     MemoryAction = "auto"
	MemoryActionNone     MemoryAction = "none"
)

const (
	ToolCodeExecutor = "code_executor"
	ToolScheduler    = "schedule_tool"
)

// RoutingDecision is produced once per run by the router and never mutated
// afterwards. TargetAgents is ordered; only the first element is dispatched.
type RoutingDecision struct {
	QueryType    QueryType   `json:"query_type"`
	TargetAgents []AgentType `json:"target_agents"`
	Reasoning    string      `json:"reasoning"`
	Priority     int         `json:"priority,omitempty"`
	NeedsMemory  bool        `json:"needs_memory"`
	NeedsTools   bool        `json:"needs_tools"`
}

type TheoryExplanation struct {
	Concept         string   `json:"concept"`
	Explanation     string   `json:"explanation"`
	KeyPoints       []string `json:"key_points"`
	Examples        []string `json:"examples,omitempty"`
	RelatedConcepts []string `json:"related_concepts,omitempty"`
	DifficultyLevel string   `json:"difficulty_level,omitempty"`
}

type CodeHelp struct {
	ProblemDescription string   `json:"problem_description"`
	SolutionApproach   string   `json:"solution_approach"`
	CodeExample        string   `json:"code_example,omitempty"`
	Explanation        string   `json:"explanation"`
	BestPractices      []string `json:"best_practices,omitempty"`
	CommonPitfalls     []string `json:"common_pitfalls,omitempty"`
}

type PlanStep struct {
	Step          int    `json:"step"`
	Description   string `json:"description"`
	EstimatedTime string `json:"estimated_time"`
}

type StudyPlan struct {
	Goal               string     `json:"goal"`
	Steps              []PlanStep `json:"steps"`
	TotalEstimatedTime string     `json:"total_estimated_time"`
	PriorityOrder      []int      `json:"priority_order,omitempty"`
	Resources          []string   `json:"resources,omitempty"`
	Milestones         []string   `json:"milestones,omitempty"`
}

type MemoryUpdate struct {
	Action           MemoryAction `json:"action"`
	Key              string       `json:"key"`
	Value            string       `json:"value,omitempty"`
	RetrievedContext string       `json:"retrieved_context,omitempty"`
	Reasoning        string       `json:"reasoning"`
}

// ToolResult carries one auxiliary tool invocation outcome. Tool failures
// are reported in Error, not as Go errors, so agents can degrade gracefully.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FinalResponse is the terminal value of an orchestration run.
type FinalResponse struct {
	Answer         string      `json:"answer"`
	AgentsInvolved []AgentType `json:"agents_involved"`
	ToolsUsed      []string    `json:"tools_used"`
	MemoryAccessed bool        `json:"memory_accessed"`
	Confidence     Confidence  `json:"confidence"`
}
