package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/shopspring/decimal"
)

// NewTicketLineItem is one requested line of a bulk ticket create. Lines are
// validated independently; a bad line never blocks its neighbors.
type NewTicketLineItem struct {
	VariantSku   string          `json:"variant_sku" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	ExpectedDate *time.Time      `json:"expected_date"`
	Note         string          `json:"note"`
}

type BulkCreateTicketInput struct {
	Name      string              `json:"name" binding:"required"`
	LineItems []NewTicketLineItem `json:"line_items" binding:"required"`
}

type UpdateDetailStatusInput struct {
	NewStatus string `json:"new_status" binding:"required"`
	Note      string `json:"note"`
}

type CancelTicketInput struct {
	Reason string `json:"reason" binding:"required"`
}

// validateTicketLine runs the per-line checks shared by all three ticket
// families. It resolves the SKU against the given ledger kind and returns
// the variant id.
func validateTicketLine(ctx context.Context, kind LedgerKind, line NewTicketLineItem) (int, error) {
	if !line.Quantity.IsPositive() {
		return 0, utils.NewCodedError(utils.ErrCodeInvalidQuantity, "quantity must be greater than zero for sku "+line.VariantSku)
	}
	if line.ExpectedDate != nil && line.ExpectedDate.IsZero() {
		return 0, utils.NewCodedError(utils.ErrCodeInvalidDate, "expected date is invalid for sku "+line.VariantSku)
	}
	variant, err := GetVariantBySku(ctx, kind, line.VariantSku)
	if err != nil {
		return 0, utils.NewCodedError(utils.ErrCodeNotFound, "variant sku not found: "+line.VariantSku)
	}
	return variant.ID, nil
}
