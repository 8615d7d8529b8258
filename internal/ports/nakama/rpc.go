package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"royale/internal/config"
	"royale/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcCreateMatch, rpcCreateMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcFindMatch, rpcFindMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcHealthcheck, rpcHealthcheck)
}

// rpcCreateMatch creates a fresh authoritative match for the requested
// variant and returns its ID.
//
// Payload: (Optional) {"variant": "standard"|"simple"}; empty picks the
// configured default.
// Returns: JSON {"match_id": "..."}.
func rpcCreateMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	variant, err := variantFromPayload(payload)
	if err != nil {
		logger.Warn("RpcCreateMatch [User:%s]: %v", userID, err)
		return "", err
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameRoyale, map[string]interface{}{"variant": variant})
	if err != nil {
		logger.Error("RpcCreateMatch [User:%s]: Failed to create match: %v", userID, err)
		return "", err
	}

	logger.Info("RpcCreateMatch [User:%s]: Created match %s, variant %s", userID, matchID, variant)
	response, err := json.Marshal(CreateMatchResponse{MatchID: matchID})
	if err != nil {
		return "", err
	}
	return string(response), nil
}

// rpcFindMatch searches for an open match of the requested variant. If
// one is found its ID is returned; otherwise a new match is created.
//
// Payload: (Optional) {"variant": "standard"|"simple"}; empty picks the
// configured default.
// Returns: JSON {"match_id": "...", "is_new": bool}.
func rpcFindMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	variant, err := variantFromPayload(payload)
	if err != nil {
		logger.Warn("RpcFindMatch [User:%s]: %v", userID, err)
		return "", err
	}

	// Filter on the label document the match handler maintains: still
	// accepting joins, and running the variant the caller asked for.
	query := fmt.Sprintf("+label.open:T +label.variant:%s", variant)
	limit := 1
	authoritative := true
	minSize := 0
	maxSize := config.MaxParticipants() - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("RpcFindMatch [User:%s]: Failed to list matches: %v", userID, err)
		return "", err
	}

	if len(matches) > 0 {
		matchID := matches[0].MatchId
		logger.Info("RpcFindMatch [User:%s]: Found existing match %s", userID, matchID)
		response, err := json.Marshal(FindMatchResponse{MatchID: matchID})
		if err != nil {
			return "", err
		}
		return string(response), nil
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameRoyale, map[string]interface{}{"variant": variant})
	if err != nil {
		logger.Error("RpcFindMatch [User:%s]: Failed to create match: %v", userID, err)
		return "", err
	}

	logger.Info("RpcFindMatch [User:%s]: Created new match %s", userID, matchID)
	response, err := json.Marshal(FindMatchResponse{MatchID: matchID, IsNew: true})
	if err != nil {
		return "", err
	}
	return string(response), nil
}

// rpcHealthcheck answers liveness probes.
func rpcHealthcheck(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	logger.Debug("RpcHealthcheck called")
	response, err := json.Marshal(HealthcheckResponse{Healthy: true})
	if err != nil {
		return "", err
	}
	return string(response), nil
}

// variantFromPayload extracts and validates the variant choice from an
// RPC payload. An empty payload or empty variant picks the configured
// default; an unknown variant is an error.
func variantFromPayload(payload string) (string, error) {
	variant := ""
	if payload != "" {
		var request CreateMatchRequest
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			return "", fmt.Errorf("invalid payload: %w", err)
		}
		variant = request.Variant
	}
	if variant == "" {
		variant = config.DefaultVariant()
	}
	if _, ok := domain.ConfigForVariant(variant); !ok {
		return "", fmt.Errorf("unknown variant %q", variant)
	}
	return variant, nil
}
