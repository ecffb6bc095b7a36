package v1

import (
	"encoding/csv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/smsbulk293/bulksend/internal/config"
	"github.com/smsbulk293/bulksend/internal/constants"
	"github.com/smsbulk293/bulksend/internal/service"
	"go.uber.org/zap"
)

type Handler struct {
	logger     *zap.Logger
	batch      service.BatchService
	ledger     service.LedgerService
	reconciler service.ReconcilerService
	adminToken string
}

func NewHandler(logger *zap.Logger, batch service.BatchService, ledger service.LedgerService,
	reconciler service.ReconcilerService, cfg *config.Config) *Handler {
	return &Handler{
		logger:     logger,
		batch:      batch,
		ledger:     ledger,
		reconciler: reconciler,
		adminToken: cfg.API.AdminToken,
	}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

// Batch estimates a CSV batch and, when send is set, reserves funds and
// queues it for dispatch.
func (h *Handler) Batch(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request SubmitBatchRequest
	if err := c.BodyParser(&request); err != nil {
		h.logger.Warn("Failed to parse body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    constants.ErrCodeInvalidRequestBody,
			"message": constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody),
		})
	}

	if strings.TrimSpace(request.CSV) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    constants.ErrCodeInvalidRequestBody,
			"message": "CSV missing",
		})
	}

	rows, err := parseCSV(request.CSV)
	if err != nil {
		h.logger.Warn("Failed to parse CSV", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    constants.ErrCodeInvalidRequestBody,
			"message": "CSV parse error: " + err.Error(),
		})
	}

	if !request.Send {
		estimate := h.batch.Estimate(service.EstimateBatchCommand{Rows: rows, Template: request.Template})
		return c.JSON(EstimateResponse{
			Rows:          estimate.Accepted,
			Rejected:      estimate.Rejected,
			TotalSegments: estimate.TotalSegments,
			TotalCost:     estimate.TotalCost,
		})
	}

	result, err := h.batch.Submit(ctx, service.SubmitBatchCommand{Rows: rows, Template: request.Template})
	if err != nil {
		h.logger.Warn("Batch submission rejected", zap.Error(err))
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(SubmitBatchResponse{
		OK:            true,
		JobID:         result.JobID,
		Rows:          result.Estimate.Accepted,
		Rejected:      result.Estimate.Rejected,
		TotalSegments: result.Estimate.TotalSegments,
		TotalCost:     result.Estimate.TotalCost,
	})
}

func (h *Handler) Wallet(c *fiber.Ctx) error {
	balance, err := h.ledger.Read(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(WalletResponse{Balance: balance})
}

// TopUp is the privileged corrective credit/debit, guarded by a static
// admin token header.
func (h *Handler) TopUp(c *fiber.Ctx) error {
	token := c.Get("X-Admin-Token")
	if h.adminToken == "" || token != h.adminToken {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"code":    constants.ErrCodeUnauthorized,
			"message": constants.GetErrorMessage(constants.ErrCodeUnauthorized),
		})
	}

	var request TopUpRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    constants.ErrCodeInvalidRequestBody,
			"message": constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody),
		})
	}

	balance, err := h.ledger.TopUp(c.UserContext(), request.Amount)
	if err != nil {
		return err
	}

	return c.JSON(TopUpResponse{OK: true, Balance: balance})
}

// ProviderStatus ingests the carrier's delivery callback. It always
// returns 200: unmatched receipts are dropped, not errors.
func (h *Handler) ProviderStatus(c *fiber.Ctx) error {
	messageID := c.FormValue("MessageSid")
	if messageID == "" {
		messageID = c.FormValue("SmsSid")
	}

	status := c.FormValue("MessageStatus")
	if status == "" {
		status = c.FormValue("SmsStatus")
	}

	to := c.FormValue("To")

	if messageID == "" && to == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	cmd := service.DeliveryStatusCommand{ProviderMsgID: messageID, Phone: to, Status: status}
	if err := h.reconciler.ReportDeliveryStatus(c.UserContext(), cmd); err != nil {
		h.logger.Error("Failed to apply delivery callback",
			zap.Error(err),
			zap.String("providerMessageID", messageID))
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *Handler) Job(c *fiber.Ctx) error {
	result, err := h.batch.JobStatus(c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(JobResponse{Job: result.Job, Recipients: result.Recipients})
}

// parseCSV converts CSV text to column-keyed rows, skipping blank lines.
func parseCSV(text string) ([]map[string]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)

	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		empty := true
		for i, col := range header {
			var value string
			if i < len(record) {
				value = record[i]
			}
			row[col] = value
			if strings.TrimSpace(value) != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	return rows, nil
}
