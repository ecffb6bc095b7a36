package service

import "github.com/smsbulk293/bulksend/internal/model"

type EstimateBatchCommand struct {
	Rows     []map[string]string
	Template string
}

type SubmitBatchCommand struct {
	Rows     []map[string]string
	Template string
}

type AcceptedRow struct {
	Phone    string            `json:"phone"`
	Message  string            `json:"message"`
	Segments int               `json:"segments"`
	Original map[string]string `json:"original"`
}

type RejectedRow struct {
	Original map[string]string `json:"original"`
	Reason   string            `json:"reason"`
}

type EstimateResult struct {
	Accepted        []AcceptedRow `json:"rows"`
	Rejected        []RejectedRow `json:"rejected"`
	TotalSegments   int           `json:"totalSegments"`
	TotalCost       int64         `json:"totalCost"`
	PricePerSegment int64         `json:"pricePerSegment"`
}

type SubmitBatchResult struct {
	JobID    string
	Estimate EstimateResult
}

type JobStatusResult struct {
	Job        model.Job
	Recipients []model.Recipient
}

type DeliveryStatusCommand struct {
	ProviderMsgID string
	Phone         string
	Status        string
}
