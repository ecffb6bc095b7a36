package service_test

import (
	"strings"
	"testing"

	"github.com/smsbulk293/bulksend/internal/config"
	"github.com/smsbulk293/bulksend/internal/mocks"
	"github.com/smsbulk293/bulksend/internal/service"
	"github.com/smsbulk293/bulksend/pkg/phone"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func estimatorConfig() *config.Config {
	return &config.Config{Pricing: config.Pricing{
		PricePerSegment: 50,
		DefaultRegion:   "IN",
		AllowedRegion:   "IN",
	}}
}

func TestSegmentsForText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty text", "", 1},
		{"ascii at single segment boundary", strings.Repeat("a", 160), 1},
		{"ascii one past single segment boundary", strings.Repeat("a", 161), 2},
		{"ascii two full concatenated segments", strings.Repeat("a", 306), 2},
		{"ascii one past two concatenated segments", strings.Repeat("a", 307), 3},
		{"unicode at single segment boundary", strings.Repeat("н", 70), 1},
		{"unicode one past single segment boundary", strings.Repeat("н", 71), 2},
		{"single unicode char forces ucs2 rules", strings.Repeat("a", 70) + "н", 2},
		{"unicode two concatenated segments", strings.Repeat("н", 134), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, service.SegmentsForText(tt.text))
		})
	}
}

func TestEstimator_Estimate(t *testing.T) {
	logger := zap.NewNop()

	t.Run("accepts row and instantiates template", func(t *testing.T) {
		mockResolver := &mocks.Resolver{}
		mockResolver.On("Validate", "9876543210", "IN").Return("+919876543210", nil)

		svc := service.NewEstimatorService(mockResolver, estimatorConfig(), logger)

		result := svc.Estimate(service.EstimateBatchCommand{
			Rows:     []map[string]string{{"phone": "9876543210", "name": "Asha"}},
			Template: "Hi {{name}}, your code is {{code}}!",
		})

		assert.Len(t, result.Accepted, 1)
		assert.Empty(t, result.Rejected)
		assert.Equal(t, "+919876543210", result.Accepted[0].Phone)
		assert.Equal(t, "Hi Asha, your code is !", result.Accepted[0].Message)
		assert.Equal(t, 1, result.Accepted[0].Segments)
		assert.Equal(t, 1, result.TotalSegments)
		assert.Equal(t, int64(50), result.TotalCost)
	})

	t.Run("explicit message wins over template", func(t *testing.T) {
		mockResolver := &mocks.Resolver{}
		mockResolver.On("Validate", "9876543210", "IN").Return("+919876543210", nil)

		svc := service.NewEstimatorService(mockResolver, estimatorConfig(), logger)

		result := svc.Estimate(service.EstimateBatchCommand{
			Rows:     []map[string]string{{"phone": "9876543210", "message": "custom text"}},
			Template: "ignored {{phone}}",
		})

		assert.Len(t, result.Accepted, 1)
		assert.Equal(t, "custom text", result.Accepted[0].Message)
	})

	t.Run("rejects row without address", func(t *testing.T) {
		mockResolver := &mocks.Resolver{}

		svc := service.NewEstimatorService(mockResolver, estimatorConfig(), logger)

		result := svc.Estimate(service.EstimateBatchCommand{
			Rows:     []map[string]string{{"name": "Asha"}},
			Template: "hi",
		})

		assert.Empty(t, result.Accepted)
		assert.Len(t, result.Rejected, 1)
		assert.Equal(t, "address missing", result.Rejected[0].Reason)
		assert.Equal(t, 0, result.TotalSegments)
		assert.Equal(t, int64(0), result.TotalCost)
		mockResolver.AssertNotCalled(t, "Validate")
	})

	t.Run("rejects row the resolver refuses", func(t *testing.T) {
		mockResolver := &mocks.Resolver{}
		mockResolver.On("Validate", "12345", "IN").Return("", phone.ErrInvalid)
		mockResolver.On("Validate", "+447911123456", "IN").Return("", phone.ErrRegionNotAllowed)

		svc := service.NewEstimatorService(mockResolver, estimatorConfig(), logger)

		result := svc.Estimate(service.EstimateBatchCommand{
			Rows: []map[string]string{
				{"phone": "12345"},
				{"phone": "+447911123456"},
			},
			Template: "hi",
		})

		assert.Empty(t, result.Accepted)
		assert.Len(t, result.Rejected, 2)
		assert.Equal(t, "invalid number", result.Rejected[0].Reason)
		assert.Equal(t, "region not allowed", result.Rejected[1].Reason)
	})

	t.Run("first occurrence of an address wins", func(t *testing.T) {
		mockResolver := &mocks.Resolver{}
		mockResolver.On("Validate", "9876543210", "IN").Return("+919876543210", nil)
		mockResolver.On("Validate", "+91 98765 43210", "IN").Return("+919876543210", nil)

		svc := service.NewEstimatorService(mockResolver, estimatorConfig(), logger)

		result := svc.Estimate(service.EstimateBatchCommand{
			Rows: []map[string]string{
				{"phone": "9876543210", "name": "first"},
				{"phone": "+91 98765 43210", "name": "second"},
			},
			Template: "hello",
		})

		assert.Len(t, result.Accepted, 1)
		assert.Equal(t, "first", result.Accepted[0].Original["name"])
		assert.Empty(t, result.Rejected)
		assert.Equal(t, 1, result.TotalSegments)
	})

	t.Run("alternate phone columns are probed", func(t *testing.T) {
		mockResolver := &mocks.Resolver{}
		mockResolver.On("Validate", "9876543210", "IN").Return("+919876543210", nil)

		svc := service.NewEstimatorService(mockResolver, estimatorConfig(), logger)

		result := svc.Estimate(service.EstimateBatchCommand{
			Rows:     []map[string]string{{"msisdn": "9876543210"}},
			Template: "hi",
		})

		assert.Len(t, result.Accepted, 1)
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		mockResolver := &mocks.Resolver{}
		mockResolver.On("Validate", "9876543210", "IN").Return("+919876543210", nil)

		svc := service.NewEstimatorService(mockResolver, estimatorConfig(), logger)

		cmd := service.EstimateBatchCommand{
			Rows:     []map[string]string{{"phone": "9876543210", "name": "Asha"}},
			Template: "Hi {{name}}",
		}

		first := svc.Estimate(cmd)
		second := svc.Estimate(cmd)

		assert.Equal(t, first, second)
	})
}
