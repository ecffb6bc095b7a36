package v1

type SubmitBatchRequest struct {
	CSV      string `json:"csv"`
	Template string `json:"template"`
	Send     bool   `json:"send"`
}

type TopUpRequest struct {
	Amount int64 `json:"amount"`
}
