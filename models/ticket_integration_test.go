package models_test

import (
	"testing"

	"github.com/mmdatafocus/warehouse_backend/models"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/shopspring/decimal"
)

// Bulk create with one unknown SKU: the ticket carries the two valid lines,
// the bad one is reported by message.
func TestTickets_BulkCreatePartialFailure(t *testing.T) {
	ctx := setupLedgerEnv(t)

	mustCreateVariant(t, ctx, models.LedgerKindProduct, "PROD-A")
	mustCreateVariant(t, ctx, models.LedgerKindProduct, "PROD-B")

	result, err := models.BulkCreateProductionTickets(ctx, &models.BulkCreateTicketInput{
		Name: "Run 42",
		LineItems: []models.NewTicketLineItem{
			{VariantSku: "PROD-A", Quantity: decimal.NewFromInt(5)},
			{VariantSku: "MISSING", Quantity: decimal.NewFromInt(5)},
			{VariantSku: "PROD-B", Quantity: decimal.NewFromInt(2)},
		},
	})
	if err != nil {
		t.Fatalf("BulkCreateProductionTickets: %v", err)
	}

	if result.TotalRequested != 3 || result.TotalCreated != 2 || result.TotalFailed != 1 {
		t.Fatalf("totals = %d/%d/%d, want 3/2/1", result.TotalRequested, result.TotalCreated, result.TotalFailed)
	}
	if len(result.CreatedTickets) != 1 {
		t.Fatalf("created tickets = %d, want 1", len(result.CreatedTickets))
	}
	ticket := result.CreatedTickets[0]
	if ticket.CurrentStatus != models.TicketStatusNew {
		t.Fatalf("ticket status = %s, want NEW", ticket.CurrentStatus)
	}
	if len(ticket.Details) != 2 {
		t.Fatalf("detail count = %d, want 2", len(ticket.Details))
	}
	for _, d := range ticket.Details {
		if d.Status != models.ProductionDetailStatusNew {
			t.Fatalf("detail status = %s, want NEW", d.Status)
		}
	}
}

func TestTickets_BulkCreateRejectsInvalidQuantity(t *testing.T) {
	ctx := setupLedgerEnv(t)

	mustCreateVariant(t, ctx, models.LedgerKindProduct, "QTY-A")

	result, err := models.BulkCreateProductionTickets(ctx, &models.BulkCreateTicketInput{
		Name: "Bad quantities",
		LineItems: []models.NewTicketLineItem{
			{VariantSku: "QTY-A", Quantity: decimal.Zero},
		},
	})
	if err != nil {
		t.Fatalf("BulkCreateProductionTickets: %v", err)
	}
	if result.TotalCreated != 0 || result.TotalFailed != 1 {
		t.Fatalf("totals = created %d failed %d, want 0/1", result.TotalCreated, result.TotalFailed)
	}
	if len(result.CreatedTickets) != 0 {
		t.Fatalf("no ticket should exist when every line fails")
	}
}

// Advance one of two details to COMPLETE and watch the parent cascade to
// PARTIAL_COMPLETE; an illegal jump must leave everything untouched.
func TestTickets_DetailStatusCascade(t *testing.T) {
	ctx := setupLedgerEnv(t)

	mustCreateVariant(t, ctx, models.LedgerKindProduct, "CAS-A")
	mustCreateVariant(t, ctx, models.LedgerKindProduct, "CAS-B")

	created, err := models.BulkCreateProductionTickets(ctx, &models.BulkCreateTicketInput{
		Name: "Cascade run",
		LineItems: []models.NewTicketLineItem{
			{VariantSku: "CAS-A", Quantity: decimal.NewFromInt(1)},
			{VariantSku: "CAS-B", Quantity: decimal.NewFromInt(1)},
		},
	})
	if err != nil {
		t.Fatalf("BulkCreateProductionTickets: %v", err)
	}
	ticket := created.CreatedTickets[0]
	detailA := ticket.Details[0]

	// NEW -> COMPLETE skips APPROVAL and must be rejected.
	_, err = models.UpdateProductionDetailStatus(ctx, ticket.ID, detailA.ID, &models.UpdateDetailStatusInput{
		NewStatus: string(models.ProductionDetailStatusComplete),
	})
	if utils.CodeOf(err) != utils.ErrCodeIllegalTransition {
		t.Fatalf("skip transition error = %v, want ILLEGAL_TRANSITION", err)
	}

	updated, err := models.UpdateProductionDetailStatus(ctx, ticket.ID, detailA.ID, &models.UpdateDetailStatusInput{
		NewStatus: string(models.ProductionDetailStatusApproval),
	})
	if err != nil {
		t.Fatalf("NEW -> APPROVAL: %v", err)
	}
	if updated.CurrentStatus != models.TicketStatusInProgress {
		t.Fatalf("parent after APPROVAL = %s, want IN_PROGRESS", updated.CurrentStatus)
	}

	updated, err = models.UpdateProductionDetailStatus(ctx, ticket.ID, detailA.ID, &models.UpdateDetailStatusInput{
		NewStatus: string(models.ProductionDetailStatusComplete),
	})
	if err != nil {
		t.Fatalf("APPROVAL -> COMPLETE: %v", err)
	}
	if updated.CurrentStatus != models.TicketStatusPartialComplete {
		t.Fatalf("parent after COMPLETE = %s, want PARTIAL_COMPLETE", updated.CurrentStatus)
	}

	logs, err := models.GetTicketStatusLogs(ctx, models.TicketFamilyProduction, ticket.ID)
	if err != nil {
		t.Fatalf("GetTicketStatusLogs: %v", err)
	}
	// create + 2 detail changes + 2 parent cascades
	if len(logs) != 5 {
		t.Fatalf("status log rows = %d, want 5", len(logs))
	}
}

// Cancelling a ticket cancels every detail that may still be cancelled and
// leaves the rest; the parent follows the cascade rules.
func TestTickets_CancelCascade(t *testing.T) {
	ctx := setupLedgerEnv(t)

	mustCreateVariant(t, ctx, models.LedgerKindProduct, "CXL-A")
	mustCreateVariant(t, ctx, models.LedgerKindProduct, "CXL-B")

	created, err := models.BulkCreateProductionTickets(ctx, &models.BulkCreateTicketInput{
		Name: "Cancel run",
		LineItems: []models.NewTicketLineItem{
			{VariantSku: "CXL-A", Quantity: decimal.NewFromInt(1)},
			{VariantSku: "CXL-B", Quantity: decimal.NewFromInt(1)},
		},
	})
	if err != nil {
		t.Fatalf("BulkCreateProductionTickets: %v", err)
	}
	ticket := created.CreatedTickets[0]

	_, err = models.CancelProductionTicket(ctx, ticket.ID, &models.CancelTicketInput{})
	if utils.CodeOf(err) != utils.ErrCodeInvalidRequest {
		t.Fatalf("cancel without reason = %v, want INVALID_REQUEST", err)
	}

	cancelled, err := models.CancelProductionTicket(ctx, ticket.ID, &models.CancelTicketInput{
		Reason: "customer withdrew the order",
	})
	if err != nil {
		t.Fatalf("CancelProductionTicket: %v", err)
	}
	if cancelled.CurrentStatus != models.TicketStatusCancelled {
		t.Fatalf("ticket status = %s, want CANCELLED", cancelled.CurrentStatus)
	}
	for _, d := range cancelled.Details {
		if d.Status != models.ProductionDetailStatusCancelled {
			t.Fatalf("detail %d status = %s, want CANCELLED", d.ID, d.Status)
		}
		if d.CompletedDate == nil {
			t.Fatalf("detail %d has no completed date after cancel", d.ID)
		}
	}

	// A second cancel hits a terminal ticket.
	_, err = models.CancelProductionTicket(ctx, ticket.ID, &models.CancelTicketInput{Reason: "again"})
	if utils.CodeOf(err) != utils.ErrCodeIllegalTransition {
		t.Fatalf("double cancel = %v, want ILLEGAL_TRANSITION", err)
	}
}

// Purchasing lines resolve against the material ledger, not the product one.
func TestTickets_PurchasingUsesMaterialLedger(t *testing.T) {
	ctx := setupLedgerEnv(t)

	mustCreateVariant(t, ctx, models.LedgerKindProduct, "SHARED-SKU")

	result, err := models.BulkCreatePurchasingTickets(ctx, &models.BulkCreateTicketInput{
		Name: "Restock",
		LineItems: []models.NewTicketLineItem{
			{VariantSku: "SHARED-SKU", Quantity: decimal.NewFromInt(3)},
		},
	})
	if err != nil {
		t.Fatalf("BulkCreatePurchasingTickets: %v", err)
	}
	if result.TotalFailed != 1 || result.TotalCreated != 0 {
		t.Fatalf("product-only sku should not resolve for purchasing: %+v", result)
	}

	mustCreateVariant(t, ctx, models.LedgerKindMaterial, "SHARED-SKU")
	result, err = models.BulkCreatePurchasingTickets(ctx, &models.BulkCreateTicketInput{
		Name: "Restock again",
		LineItems: []models.NewTicketLineItem{
			{VariantSku: "SHARED-SKU", Quantity: decimal.NewFromInt(3)},
		},
	})
	if err != nil {
		t.Fatalf("BulkCreatePurchasingTickets: %v", err)
	}
	if result.TotalCreated != 1 {
		t.Fatalf("material sku should resolve for purchasing: %+v", result)
	}
}
