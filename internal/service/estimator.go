package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/smsbulk293/bulksend/internal/config"
	"github.com/smsbulk293/bulksend/pkg/phone"
	"go.uber.org/zap"
)

// Column names probed for the destination address, in order.
var phoneColumns = []string{"phone", "phone_number", "mobile", "msisdn"}

var templateToken = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// EstimatorService prices a batch. It is pure: no side effects, and the
// same input always yields the same output.
type EstimatorService interface {
	Estimate(cmd EstimateBatchCommand) EstimateResult
}

type estimator struct {
	resolver phone.Resolver
	pricing  config.Pricing
	logger   *zap.Logger
}

func NewEstimatorService(resolver phone.Resolver, cfg *config.Config, logger *zap.Logger) EstimatorService {
	return &estimator{resolver: resolver, pricing: cfg.Pricing, logger: logger}
}

func (e *estimator) Estimate(cmd EstimateBatchCommand) EstimateResult {
	result := EstimateResult{
		Accepted:        []AcceptedRow{},
		Rejected:        []RejectedRow{},
		PricePerSegment: e.pricing.PricePerSegment,
	}

	seen := make(map[string]bool)

	for _, row := range cmd.Rows {
		raw := rawPhone(row)
		if raw == "" {
			result.Rejected = append(result.Rejected, RejectedRow{Original: row, Reason: phone.ErrMissing.Error()})
			continue
		}

		canonical, err := e.resolver.Validate(raw, e.pricing.DefaultRegion)
		if err != nil {
			result.Rejected = append(result.Rejected, RejectedRow{Original: row, Reason: err.Error()})
			continue
		}

		// First occurrence of an address wins; later duplicates are
		// dropped without a rejection entry.
		if seen[canonical] {
			continue
		}
		seen[canonical] = true

		body := messageBody(row, cmd.Template)
		segments := SegmentsForText(body)

		result.Accepted = append(result.Accepted, AcceptedRow{
			Phone:    canonical,
			Message:  body,
			Segments: segments,
			Original: row,
		})
		result.TotalSegments += segments
	}

	result.TotalCost = int64(result.TotalSegments) * e.pricing.PricePerSegment

	e.logger.Debug("Batch estimated",
		zap.Int("rows", len(cmd.Rows)),
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("totalSegments", result.TotalSegments),
		zap.Int64("totalCost", result.TotalCost))

	return result
}

func rawPhone(row map[string]string) string {
	for _, col := range phoneColumns {
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
	}
	return ""
}

// messageBody uses an explicit per-row message verbatim when present,
// otherwise instantiates the template. Unknown columns substitute empty.
func messageBody(row map[string]string, template string) string {
	if msg := strings.TrimSpace(row["message"]); msg != "" {
		return msg
	}

	return templateToken.ReplaceAllStringFunc(template, func(token string) string {
		column := templateToken.FindStringSubmatch(token)[1]
		return row[column]
	})
}

// SegmentsForText applies carrier segmentation rules: 160/153 for
// GSM-7 encodable text, 70/67 otherwise. Lengths are counted in runes.
func SegmentsForText(text string) int {
	length := utf8.RuneCountInString(text)

	if isGSM7(text) {
		if length <= 160 {
			return 1
		}
		return (length + 152) / 153
	}

	if length <= 70 {
		return 1
	}
	return (length + 66) / 67
}

func isGSM7(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
	}
	return true
}
