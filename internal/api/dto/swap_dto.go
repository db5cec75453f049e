package dto

// SubmitSwapRequest is the body of POST /api/v1/swaps
type SubmitSwapRequest struct {
	OwnerID        string   `json:"owner_id" binding:"required"`
	DeliveryTarget string   `json:"delivery_target" binding:"required"`
	Kind           string   `json:"kind" binding:"required"`
	Assets         []string `json:"assets" binding:"required,min=1"`
}

// JobDTO is the API representation of a swap job
type JobDTO struct {
	RequestID      string `json:"request_id"`
	OwnerID        string `json:"owner_id"`
	DeliveryTarget string `json:"delivery_target"`
	Kind           string `json:"kind"`
	Status         string `json:"status"`
	ResultRef      string `json:"result_ref,omitempty"`
	FailureReason  string `json:"failure_reason,omitempty"`
	ReservedCost   int64  `json:"reserved_cost"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// ListJobsRequest holds the query parameters of GET /api/v1/swaps
type ListJobsRequest struct {
	OwnerID  string `form:"owner_id"`
	Kind     string `form:"kind"`
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// ListJobsResponse is the body of GET /api/v1/swaps
type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}
