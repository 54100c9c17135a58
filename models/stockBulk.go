package models

import (
	"context"
	"sync"

	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/shopspring/decimal"
)

// BulkStockItem is one line of a bulk add/subtract/set call.
type BulkStockItem struct {
	VariantId             int                 `json:"variant_id" binding:"required"`
	NewQuantity           decimal.Decimal     `json:"new_quantity" binding:"required"`
	Note                  string              `json:"note"`
	ReferenceDocumentType *StockReferenceType `json:"reference_document_type"`
	ReferenceDocumentId   *int                `json:"reference_document_id"`
	TransactionSource     *TransactionSource  `json:"transaction_source"`
}

// BulkInitItem is one line of a bulk ledger init, keyed by SKU because the
// variants have no stock records yet.
type BulkInitItem struct {
	VariantSku    string           `json:"variant_sku" binding:"required"`
	CurrentStock  decimal.Decimal  `json:"current_stock"`
	MinAlertStock *decimal.Decimal `json:"min_alert_stock"`
	MaxStockLevel *decimal.Decimal `json:"max_stock_level"`
}

// FailedStockItem reports one item that could not be applied. The item's
// error is downgraded to data here; the bulk call itself still succeeds.
type FailedStockItem struct {
	VariantId  int             `json:"variant_id,omitempty"`
	VariantSku string          `json:"variant_sku,omitempty"`
	ErrorCode  utils.ErrorCode `json:"error_code"`
	Message    string          `json:"message"`
}

type BulkTransactionResult struct {
	SuccessfulTransactions []StockTransaction `json:"successful_transactions"`
	FailedTransactions     []FailedStockItem  `json:"failed_transactions"`
	TotalProcessed         int                `json:"total_processed"`
	SuccessCount           int                `json:"success_count"`
	FailureCount           int                `json:"failure_count"`
}

type BulkInitResult struct {
	SuccessfulRecords []StockRecord     `json:"successful_records"`
	FailedRecords     []FailedStockItem `json:"failed_records"`
	TotalProcessed    int               `json:"total_processed"`
	SuccessCount      int               `json:"success_count"`
	FailureCount      int               `json:"failure_count"`
}

// ApplyBulkTransactions runs one ledger operation per item, each in its own
// DB transaction. One bad item never rolls back its neighbors; its error is
// captured and the loop moves on.
func ApplyBulkTransactions(ctx context.Context, kind LedgerKind, txType StockTransactionType, items []BulkStockItem) (*BulkTransactionResult, error) {
	if len(items) == 0 {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "bulk request must contain at least one item")
	}

	if businessId, ok := utils.GetBusinessIdFromContext(ctx); ok {
		release := utils.AcquireBusinessLock(ctx, businessId, "bulk-stock", "StockBulk", "ApplyBulkTransactions")
		defer release()
	}

	type itemOutcome struct {
		index int
		tx    *StockTransaction
		fail  *FailedStockItem
	}

	applyOne := func(item BulkStockItem) itemOutcome {
		input := &StockTransactionInput{
			NewQuantity:           item.NewQuantity,
			Note:                  item.Note,
			ReferenceDocumentType: item.ReferenceDocumentType,
			ReferenceDocumentId:   item.ReferenceDocumentId,
			TransactionSource:     item.TransactionSource,
		}
		stockTx, err := applyStockTransaction(ctx, kind, item.VariantId, txType, input)
		if err != nil {
			return itemOutcome{fail: &FailedStockItem{
				VariantId: item.VariantId,
				ErrorCode: utils.CodeOf(err),
				Message:   err.Error(),
			}}
		}
		return itemOutcome{tx: stockTx}
	}

	outcomes := make([]itemOutcome, len(items))
	workers := config.BulkFanoutWorkers()
	if workers <= 1 || len(items) == 1 {
		for i, item := range items {
			outcomes[i] = applyOne(item)
		}
	} else {
		// Bounded fan-out. Ordering of the result lists still follows the
		// request order; the per-row locks keep each item atomic.
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i, item := range items {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, item BulkStockItem) {
				defer wg.Done()
				defer func() { <-sem }()
				outcomes[i] = applyOne(item)
			}(i, item)
		}
		wg.Wait()
	}

	result := &BulkTransactionResult{
		SuccessfulTransactions: []StockTransaction{},
		FailedTransactions:     []FailedStockItem{},
	}
	for _, out := range outcomes {
		if out.fail != nil {
			result.FailedTransactions = append(result.FailedTransactions, *out.fail)
		} else if out.tx != nil {
			result.SuccessfulTransactions = append(result.SuccessfulTransactions, *out.tx)
		}
	}
	result.SuccessCount = len(result.SuccessfulTransactions)
	result.FailureCount = len(result.FailedTransactions)
	result.TotalProcessed = result.SuccessCount + result.FailureCount
	return result, nil
}

// ApplyBulkInit creates ledgers for many SKUs with the same per-item
// isolation as ApplyBulkTransactions. Inits are sequential; they share the
// per-business advisory lock.
func ApplyBulkInit(ctx context.Context, kind LedgerKind, items []BulkInitItem) (*BulkInitResult, error) {
	if len(items) == 0 {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "bulk request must contain at least one item")
	}

	if businessId, ok := utils.GetBusinessIdFromContext(ctx); ok {
		release := utils.AcquireBusinessLock(ctx, businessId, "bulk-init", "StockBulk", "ApplyBulkInit")
		defer release()
	}

	result := &BulkInitResult{
		SuccessfulRecords: []StockRecord{},
		FailedRecords:     []FailedStockItem{},
	}
	for _, item := range items {
		record, err := InitStockRecord(ctx, kind, &NewStockRecord{
			VariantSku:    item.VariantSku,
			CurrentStock:  item.CurrentStock,
			MinAlertStock: item.MinAlertStock,
			MaxStockLevel: item.MaxStockLevel,
		})
		if err != nil {
			result.FailedRecords = append(result.FailedRecords, FailedStockItem{
				VariantSku: item.VariantSku,
				ErrorCode:  utils.CodeOf(err),
				Message:    err.Error(),
			})
			continue
		}
		result.SuccessfulRecords = append(result.SuccessfulRecords, *record)
	}
	result.SuccessCount = len(result.SuccessfulRecords)
	result.FailureCount = len(result.FailedRecords)
	result.TotalProcessed = result.SuccessCount + result.FailureCount
	return result, nil
}
