package nakama

// SpendRequest is the client payload for OpSpend.
type SpendRequest struct {
	Amount int `json:"amount"`
}

// ErrorEvent reports a rejected command back to its sender.
type ErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Label is the queryable match listing document.
type Label struct {
	Open    bool   `json:"open"`
	Variant string `json:"variant"`
	Phase   string `json:"phase"`
}

// CreateMatchRequest is the payload for the create-match RPC.
type CreateMatchRequest struct {
	Variant string `json:"variant"`
}

// CreateMatchResponse carries the created match id.
type CreateMatchResponse struct {
	MatchID string `json:"match_id"`
}

// FindMatchResponse carries the found or newly created match id.
type FindMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// HealthcheckResponse answers the liveness probe.
type HealthcheckResponse struct {
	Healthy bool `json:"healthy"`
}
