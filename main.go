package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	orchestratorx "github.com/studypilot/studypilot/agent/agents/orchestrator"
	specialistx "github.com/studypilot/studypilot/agent/agents/specialist"
	contractx "github.com/studypilot/studypilot/agent/contract"
	llmx "github.com/studypilot/studypilot/agent/llm"
	statex "github.com/studypilot/studypilot/agent/state"
	configx "github.com/studypilot/studypilot/pkg/config"
	_ "github.com/studypilot/studypilot/pkg/logger/autoload"
	openrouterx "github.com/studypilot/studypilot/pkg/openrouter"
)

var quitSentinels = map[string]bool{"quit": true, "exit": true, "q": true}

// isQuitSentinel reports whether the query terminates the session without
// invoking the pipeline, regardless of whether it came from argv or the
// interactive prompt.
func isQuitSentinel(query string) bool {
	return quitSentinels[strings.ToLower(strings.TrimSpace(query))]
}

func main() {
	ctx := context.Background()

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	checkGeneratorEndpoint(ctx, *llmCfg)

	store := newStore(ctx)
	memory := statex.NewMemory(ctx, store)

	agents, err := specialistx.NewRegistry(ctx, *llmCfg, memory)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build agent registry")
	}

	svc, err := orchestratorx.New(agents, memory)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	if args := flag.Args(); len(args) > 0 {
		query := strings.Join(args, " ")
		if isQuitSentinel(query) {
			fmt.Println("Goodbye!")
			return
		}
		runOnce(ctx, svc, query)
		return
	}
	runInteractive(ctx, svc)
}

// checkGeneratorEndpoint verifies the endpoint is reachable before any query
// runs. A failure is a warning, not fatal: every agent degrades to fallbacks.
func checkGeneratorEndpoint(ctx context.Context, cfg llmx.Config) {
	client := openrouterx.NewClient(cfg.OpenRouterFor(contractx.AgentTypeRouter))
	if client == nil {
		log.Warn().Msg("generator client not configured, agents will run on fallbacks")
		return
	}
	if _, err := client.Models.List(ctx); err != nil {
		log.Warn().Err(err).Msg("generator endpoint unreachable, agents will degrade to fallbacks")
		return
	}
	log.Info().Str("model", cfg.Model).Msg("generator endpoint reachable")
}

// newStore picks the memory backend: Postgres when a DSN is configured,
// otherwise the local JSON file.
func newStore(ctx context.Context) statex.Store {
	pgCfg := configx.MustNew[statex.PostgresConfig]("MEMORY_POSTGRES")
	if strings.TrimSpace(pgCfg.DSN) != "" {
		store, err := statex.NewPostgresStore(ctx, *pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open postgres memory store")
		}
		log.Info().Msg("using postgres memory store")
		return store
	}

	fileCfg := configx.MustNew[statex.FileStoreConfig]("MEMORY")
	store, err := statex.NewFileStore(*fileCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open file memory store")
	}
	log.Info().Str("path", fileCfg.Path).Msg("using file memory store")
	return store
}

func runOnce(ctx context.Context, svc *orchestratorx.Orchestrator, query string) {
	final, err := svc.Process(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("query processing failed")
	}
	printResponse(final)
}

func runInteractive(ctx context.Context, svc *orchestratorx.Orchestrator) {
	fmt.Println("Study assistant ready. Type a question, or quit/exit/q to leave.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if isQuitSentinel(query) {
			break
		}

		final, err := svc.Process(ctx, query)
		if err != nil {
			log.Error().Err(err).Msg("query processing failed")
			continue
		}
		printResponse(final)
	}

	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("input read failed")
	}
	fmt.Println("Goodbye!")
}

func printResponse(final contractx.FinalResponse) {
	fmt.Println()
	fmt.Println(final.Answer)
	fmt.Println()
	fmt.Printf("[agents: %s | tools: %s | memory: %t | confidence: %s]\n",
		joinAgents(final.AgentsInvolved),
		joinOrNone(final.ToolsUsed),
		final.MemoryAccessed,
		final.Confidence,
	)
}

func joinAgents(agents []contractx.AgentType) string {
	names := make([]string, len(agents))
	for i, agent := range agents {
		names[i] = string(agent)
	}
	return joinOrNone(names)
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
