package models

// AgentFeedback is one rubric agent's resolved output: an integer score
// and a short natural-language comment.
type AgentFeedback struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// GradingResult bundles the four agent outputs with their summed total.
// The total is a plain sum; an over-scoring agent is reported, not
// corrected.
type GradingResult struct {
	Feedbacks []AgentFeedback `json:"feedbacks"`
	Total     int             `json:"total"`
}
