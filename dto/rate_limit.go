package dto

type RateLimitPolicyResponse struct {
	ActionClass   string `json:"action_class"`
	MaxRequests   int    `json:"max_requests"`
	WindowSeconds int64  `json:"window_seconds"`
	Description   string `json:"description,omitempty"`
}

type RateLimitStatsResponse struct {
	Store    string                    `json:"store"`
	Policies []RateLimitPolicyResponse `json:"policies"`
}
