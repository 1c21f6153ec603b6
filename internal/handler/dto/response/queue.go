package response

type QueueStatsResponse struct {
	Depth           int64 `json:"depth"`
	DeadLetterDepth int64 `json:"dead_letter_depth"`
}

type RedriveResponse struct {
	Moved int64 `json:"moved"`
}
