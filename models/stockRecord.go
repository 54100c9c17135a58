package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRecord is the current-state row of one variant's ledger. There is at
// most one record per (variant, ledger kind); quantities only move through
// stock transactions, never by direct writes.
//
// InventoryStatus is a denormalized read value kept for querying. It is
// recomputed from the thresholds on every read and every write; the stored
// value is never trusted as authoritative.
type StockRecord struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	VariantId       int             `gorm:"not null;index:idx_stock_record_variant,unique" json:"variant_id"`
	LedgerKind      LedgerKind      `gorm:"type:enum('product','material');not null;index:idx_stock_record_variant,unique" json:"ledger_kind"`
	CurrentStock    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_stock"`
	AllocatedStock  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"allocated_stock"`
	FutureStock     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"future_stock"`
	MinAlertStock   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_alert_stock"`
	MaxStockLevel   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"max_stock_level"`
	InventoryStatus InventoryStatus `gorm:"type:enum('OUT_OF_STOCK','LOW_STOCK','IN_STOCK','OVER_STOCK');not null" json:"inventory_status"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStockRecord struct {
	VariantSku    string           `json:"variant_sku" binding:"required"`
	CurrentStock  decimal.Decimal  `json:"current_stock"`
	MinAlertStock *decimal.Decimal `json:"min_alert_stock"`
	MaxStockLevel *decimal.Decimal `json:"max_stock_level"`
}

// StockTransactionInput is the body of add/subtract/set calls.
type StockTransactionInput struct {
	NewQuantity           decimal.Decimal     `json:"new_quantity" binding:"required"`
	Note                  string              `json:"note"`
	ReferenceDocumentType *StockReferenceType `json:"reference_document_type"`
	ReferenceDocumentId   *int                `json:"reference_document_id"`
	TransactionSource     *TransactionSource  `json:"transaction_source"`
}

func (sr StockRecord) GetId() int {
	return sr.ID
}

// ClassifyStock maps a quantity against its thresholds. Priority order:
// out-of-stock, low, over, in. A non-positive MaxStockLevel means the record
// has no upper bound configured.
func ClassifyStock(current, minAlert, maxStock decimal.Decimal) InventoryStatus {
	switch {
	case current.LessThanOrEqual(decimal.Zero):
		return InventoryStatusOutOfStock
	case current.LessThanOrEqual(minAlert):
		return InventoryStatusLowStock
	case maxStock.IsPositive() && current.GreaterThanOrEqual(maxStock):
		return InventoryStatusOverStock
	default:
		return InventoryStatusInStock
	}
}

func (sr *StockRecord) reclassify() {
	sr.InventoryStatus = ClassifyStock(sr.CurrentStock, sr.MinAlertStock, sr.MaxStockLevel)
}

func validateThresholds(minAlert, maxStock decimal.Decimal) error {
	if minAlert.IsNegative() || maxStock.IsNegative() {
		return utils.NewCodedError(utils.ErrCodeInvalidQuantity, "thresholds cannot be negative")
	}
	if maxStock.IsPositive() && minAlert.GreaterThanOrEqual(maxStock) {
		return utils.NewCodedError(utils.ErrCodeInvalidQuantity, "minimum alert stock must be less than maximum stock level")
	}
	return nil
}

// InitStockRecord creates the one record for a variant. Fails with
// ALREADY_EXISTS when the variant already has a ledger of this kind.
func InitStockRecord(ctx context.Context, kind LedgerKind, input *NewStockRecord) (*StockRecord, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if input.CurrentStock.IsNegative() {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidQuantity, "opening stock cannot be negative")
	}
	minAlert := utils.DereferencePtr(input.MinAlertStock)
	maxStock := utils.DereferencePtr(input.MaxStockLevel)
	if err := validateThresholds(minAlert, maxStock); err != nil {
		return nil, err
	}

	variant, err := GetVariantBySku(ctx, kind, input.VariantSku)
	if err != nil {
		return nil, utils.NewCodedError(utils.ErrCodeNotFound, "variant sku not found: "+input.VariantSku)
	}

	db := config.GetDB()
	tx := db.Begin()

	// Serialize concurrent inits for the same business; there is no record
	// row to lock yet. Same approach as the posting lock. GET_LOCK is
	// connection-scoped and survives COMMIT, so the release must also run
	// on tx before it commits or rolls back.
	if err := AcquireLedgerInitLock(tx, businessId); err != nil {
		tx.Rollback()
		return nil, err
	}

	record, err := initStockRecordLocked(ctx, tx, businessId, kind, variant.ID, input, minAlert, maxStock)
	ReleaseLedgerInitLock(tx, businessId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return record, nil
}

// initStockRecordLocked does the init work inside an open transaction that
// already holds the per-business init lock. The caller owns rollback/commit.
func initStockRecordLocked(ctx context.Context, tx *gorm.DB, businessId string, kind LedgerKind, variantId int, input *NewStockRecord, minAlert, maxStock decimal.Decimal) (*StockRecord, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&StockRecord{}).
		Where("business_id = ? AND ledger_kind = ? AND variant_id = ?", businessId, kind, variantId).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewCodedError(utils.ErrCodeAlreadyExists, "stock record already exists for sku "+input.VariantSku)
	}

	record := StockRecord{
		BusinessId:    businessId,
		VariantId:     variantId,
		LedgerKind:    kind,
		CurrentStock:  input.CurrentStock,
		MinAlertStock: minAlert,
		MaxStockLevel: maxStock,
	}
	record.reclassify()

	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}

	// Opening stock is part of the history too.
	if input.CurrentStock.IsPositive() {
		opening := &StockTransaction{
			BusinessId:        businessId,
			StockRecordId:     record.ID,
			LedgerKind:        kind,
			VariantId:         variantId,
			TransactionType:   StockTransactionTypeSet,
			Quantity:          input.CurrentStock,
			PreviousStock:     decimal.Zero,
			NewStock:          input.CurrentStock,
			Note:              "opening stock",
			TransactionSource: TransactionSourceOpeningStock,
		}
		if err := opening.fillActor(ctx); err != nil {
			return nil, err
		}
		if err := tx.WithContext(ctx).Create(opening).Error; err != nil {
			return nil, err
		}
		if err := PublishStockEvent(ctx, tx, businessId, opening); err != nil {
			return nil, err
		}
	}
	return &record, nil
}

// AddStock applies an IN transaction.
func AddStock(ctx context.Context, kind LedgerKind, variantId int, input *StockTransactionInput) (*StockTransaction, error) {
	return applyStockTransaction(ctx, kind, variantId, StockTransactionTypeIn, input)
}

// SubtractStock applies an OUT transaction. Driving the stock below zero is a
// hard validation failure, not a clamp.
func SubtractStock(ctx context.Context, kind LedgerKind, variantId int, input *StockTransactionInput) (*StockTransaction, error) {
	return applyStockTransaction(ctx, kind, variantId, StockTransactionTypeOut, input)
}

// SetStock overwrites the quantity. Setting the same value still writes a
// ledger row; history completeness wins over storage economy.
func SetStock(ctx context.Context, kind LedgerKind, variantId int, input *StockTransactionInput) (*StockTransaction, error) {
	return applyStockTransaction(ctx, kind, variantId, StockTransactionTypeSet, input)
}

// applyStockTransaction is the single mutation path of the ledger:
// lock the record row, validate, write exactly one transaction row, update
// the current quantity and recompute the status, all in one DB transaction.
func applyStockTransaction(ctx context.Context, kind LedgerKind, variantId int, txType StockTransactionType, input *StockTransactionInput) (*StockTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	qty := input.NewQuantity
	switch txType {
	case StockTransactionTypeIn, StockTransactionTypeOut:
		if !qty.IsPositive() {
			return nil, utils.NewCodedError(utils.ErrCodeInvalidQuantity, "quantity must be greater than zero")
		}
	case StockTransactionTypeSet:
		if qty.IsNegative() {
			return nil, utils.NewCodedError(utils.ErrCodeInvalidQuantity, "quantity cannot be negative")
		}
	}

	source := TransactionSourceManualAdjustment
	if input.TransactionSource != nil {
		source = *input.TransactionSource
	}

	db := config.GetDB()
	tx := db.Begin()

	var record StockRecord
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND ledger_kind = ? AND variant_id = ?", businessId, kind, variantId).
		First(&record).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "no stock record for variant")
		}
		return nil, err
	}

	previousStock := record.CurrentStock
	var newStock decimal.Decimal
	switch txType {
	case StockTransactionTypeIn:
		newStock = previousStock.Add(qty)
	case StockTransactionTypeOut:
		newStock = previousStock.Sub(qty)
		if newStock.IsNegative() {
			tx.Rollback()
			return nil, utils.NewCodedError(utils.ErrCodeInsufficientStock, "subtract qty is more than the current stock on hand")
		}
	case StockTransactionTypeSet:
		newStock = qty
	}

	record.CurrentStock = newStock
	record.reclassify()
	if err := tx.WithContext(ctx).Model(&StockRecord{}).Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"current_stock":    record.CurrentStock,
			"inventory_status": record.InventoryStatus,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	stockTx := &StockTransaction{
		BusinessId:            businessId,
		StockRecordId:         record.ID,
		LedgerKind:            kind,
		VariantId:             variantId,
		TransactionType:       txType,
		Quantity:              qty,
		PreviousStock:         previousStock,
		NewStock:              newStock,
		Note:                  input.Note,
		ReferenceDocumentType: input.ReferenceDocumentType,
		ReferenceDocumentId:   input.ReferenceDocumentId,
		TransactionSource:     source,
	}
	if err := stockTx.fillActor(ctx); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Create(stockTx).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := PublishStockEvent(ctx, tx, businessId, stockTx); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return stockTx, nil
}

// SetMinimumAlert changes the low-stock threshold. Configuration changes are
// not stock movements: the status is recomputed but no transaction is written.
func SetMinimumAlert(ctx context.Context, kind LedgerKind, variantId int, value decimal.Decimal) (*StockRecord, error) {
	return setThreshold(ctx, kind, variantId, value, true)
}

// SetMaximumLevel changes the over-stock threshold; same rules as SetMinimumAlert.
func SetMaximumLevel(ctx context.Context, kind LedgerKind, variantId int, value decimal.Decimal) (*StockRecord, error) {
	return setThreshold(ctx, kind, variantId, value, false)
}

func setThreshold(ctx context.Context, kind LedgerKind, variantId int, value decimal.Decimal, isMinimum bool) (*StockRecord, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if value.IsNegative() {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidQuantity, "threshold cannot be negative")
	}

	db := config.GetDB()
	tx := db.Begin()

	var record StockRecord
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND ledger_kind = ? AND variant_id = ?", businessId, kind, variantId).
		First(&record).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "no stock record for variant")
		}
		return nil, err
	}

	if isMinimum {
		record.MinAlertStock = value
	} else {
		record.MaxStockLevel = value
	}
	if err := validateThresholds(record.MinAlertStock, record.MaxStockLevel); err != nil {
		tx.Rollback()
		return nil, err
	}
	record.reclassify()

	if err := tx.WithContext(ctx).Model(&StockRecord{}).Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"min_alert_stock":  record.MinAlertStock,
			"max_stock_level":  record.MaxStockLevel,
			"inventory_status": record.InventoryStatus,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetStockRecord reads one record, recomputing the status from the stored
// thresholds rather than trusting the persisted value.
func GetStockRecord(ctx context.Context, kind LedgerKind, variantId int) (*StockRecord, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var record StockRecord
	err := db.WithContext(ctx).
		Where("business_id = ? AND ledger_kind = ? AND variant_id = ?", businessId, kind, variantId).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "no stock record for variant")
		}
		return nil, err
	}
	record.reclassify()
	return &record, nil
}
