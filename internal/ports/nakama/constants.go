package nakama

const (
	// RpcCreateMatch is the Nakama RPC id clients call to create a royale match.
	RpcCreateMatch = "create_royale_match"

	// RpcFindMatch is the Nakama RPC id clients call to find or create a joinable match.
	RpcFindMatch = "find_royale_match"

	// RpcHealthcheck is the liveness probe RPC id.
	RpcHealthcheck = "royale_healthcheck"

	// MatchNameRoyale is the authoritative match handler name registered with Nakama.
	MatchNameRoyale = "royale_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStart  int64 = 1
	OpPause  int64 = 2
	OpResume int64 = 3
	OpReset  int64 = 4
	OpSpend  int64 = 5

	// Server -> Client events
	OpSnapshot          int64 = 10
	OpMatchStarted      int64 = 11
	OpMatchPaused       int64 = 12
	OpMatchResumed      int64 = 13
	OpMatchReset        int64 = 14
	OpPhaseChanged      int64 = 15
	OpMatchEnded        int64 = 16
	OpElixirSpent       int64 = 17
	OpParticipantJoined int64 = 18
	OpParticipantLeft   int64 = 19
	OpError             int64 = 20
)
