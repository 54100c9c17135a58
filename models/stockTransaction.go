package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockTransaction is one append-only ledger row. Rows are never updated or
// deleted; replaying them in id order must reproduce the record's current
// stock (see cmd/inventory-rebuild).
type StockTransaction struct {
	ID                    int                  `gorm:"primary_key" json:"id"`
	BusinessId            string               `gorm:"index;not null" json:"business_id"`
	StockRecordId         int                  `gorm:"index;not null" json:"stock_record_id"`
	LedgerKind            LedgerKind           `gorm:"type:enum('product','material');not null" json:"ledger_kind"`
	VariantId             int                  `gorm:"index;not null" json:"variant_id"`
	TransactionType       StockTransactionType `gorm:"type:enum('IN','OUT','SET');not null" json:"transaction_type"`
	Quantity              decimal.Decimal      `gorm:"type:decimal(20,4)" json:"quantity"`
	PreviousStock         decimal.Decimal      `gorm:"type:decimal(20,4)" json:"previous_stock"`
	NewStock              decimal.Decimal      `gorm:"type:decimal(20,4)" json:"new_stock"`
	Note                  string               `gorm:"type:varchar(255)" json:"note"`
	ReferenceDocumentType *StockReferenceType  `gorm:"type:enum('PT','PCT','SO','ADJ')" json:"reference_document_type"`
	ReferenceDocumentId   *int                 `json:"reference_document_id"`
	TransactionSource     TransactionSource    `gorm:"type:enum('MANUAL_ADJUSTMENT','TICKET_FULFILLMENT','PURCHASE_RECEIPT','SALE_FULFILLMENT','OPENING_STOCK');not null" json:"transaction_source"`
	CreatedBy             int                  `gorm:"not null" json:"created_by"`
	CreatedByName         string               `gorm:"type:varchar(100)" json:"created_by_name"`
	CreatedByRole         string               `gorm:"type:varchar(50)" json:"created_by_role"`
	CreatedAt             time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

func (st StockTransaction) GetId() int {
	return st.ID
}

// Corrections go through a compensating SET/OUT transaction, not an edit.
// With STRICT_LEDGER_IMMUTABLE on, the ORM refuses updates and deletes too.
func (StockTransaction) BeforeUpdate(tx *gorm.DB) error {
	if config.StrictLedgerImmutability() {
		return utils.NewCodedError(utils.ErrCodeInvalidRequest, "stock transactions are immutable")
	}
	return nil
}

func (StockTransaction) BeforeDelete(tx *gorm.DB) error {
	if config.StrictLedgerImmutability() {
		return utils.NewCodedError(utils.ErrCodeInvalidRequest, "stock transactions are immutable")
	}
	return nil
}

func (st *StockTransaction) fillActor(ctx context.Context) error {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}
	userName, ok := utils.GetUserNameFromContext(ctx)
	if !ok {
		return errors.New("user name is required")
	}
	// Role is informational only.
	userRole, _ := utils.GetUserRoleFromContext(ctx)

	st.CreatedBy = userId
	st.CreatedByName = userName
	st.CreatedByRole = userRole
	return nil
}

// GetStockTransactions returns the full history of one variant's ledger,
// oldest first.
func GetStockTransactions(ctx context.Context, kind LedgerKind, variantId int) ([]StockTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var transactions []StockTransaction
	err := db.WithContext(ctx).
		Where("business_id = ? AND ledger_kind = ? AND variant_id = ?", businessId, kind, variantId).
		Order("id asc").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}
