package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"
	contractx "github.com/studypilot/studypilot/agent/contract"
	statex "github.com/studypilot/studypilot/agent/state"
)

// MemoryNode runs the memory manager before the specialist. A manager failure
// is recorded in state and the run continues without retrieved context.
func MemoryNode(
	ctx context.Context,
	in *GraphState,
	manager contractx.MemoryManager,
	memory *statex.Memory,
) (*GraphState, error) {
	action := contractx.MemoryActionAuto
	if in.Routing != nil && in.Routing.NeedsMemory {
		action = contractx.MemoryActionRetrieve
	}

	update, err := manager.Manage(ctx, in.Query, action)
	if err != nil {
		log.Warn().Err(err).Msg("memory manager failed, continuing without context")
		in.SetError(NodeMemoryManager, err)
		return in, nil
	}

	in.MemoryUpdate = &update
	switch update.Action {
	case contractx.MemoryActionRetrieve:
		in.MemoryContext = update.RetrievedContext
		in.MemoryAccessed = true
	case contractx.MemoryActionStore:
		if memory != nil && update.Value != "" {
			if perr := memory.UpdateProfile(ctx, statex.ProfileUserPreferences, update.Value); perr != nil {
				log.Error().Err(perr).Msg("profile update failed")
			}
		}
	}
	in.AddAgent(contractx.AgentTypeMemoryManager)

	log.Info().
		Str("action", string(update.Action)).
		Str("key", update.Key).
		Msg("memory managed")
	return in, nil
}
