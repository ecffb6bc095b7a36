package v1

import (
	"github.com/smsbulk293/bulksend/internal/model"
	"github.com/smsbulk293/bulksend/internal/service"
)

type EstimateResponse struct {
	Rows          []service.AcceptedRow `json:"rows"`
	Rejected      []service.RejectedRow `json:"rejected"`
	TotalSegments int                   `json:"totalSegments"`
	TotalCost     int64                 `json:"totalCost"`
}

type SubmitBatchResponse struct {
	OK            bool                  `json:"ok"`
	JobID         string                `json:"jobId"`
	Rows          []service.AcceptedRow `json:"rows"`
	Rejected      []service.RejectedRow `json:"rejected"`
	TotalSegments int                   `json:"totalSegments"`
	TotalCost     int64                 `json:"totalCost"`
}

type WalletResponse struct {
	Balance int64 `json:"balance"`
}

type TopUpResponse struct {
	OK      bool  `json:"ok"`
	Balance int64 `json:"balance"`
}

type JobResponse struct {
	Job        model.Job         `json:"job"`
	Recipients []model.Recipient `json:"recipients"`
}
