package models

import (
	"encoding/json"
	"errors"
)

// Enum values arriving from the outside are rejected at the boundary:
// every UnmarshalJSON below maps through a closed value table.

type LedgerKind string

const (
	LedgerKindProduct  LedgerKind = "product"
	LedgerKindMaterial LedgerKind = "material"
)

var ledgerKindValues = map[string]LedgerKind{
	"product":  LedgerKindProduct,
	"material": LedgerKindMaterial,
}

func ParseLedgerKind(str string) (LedgerKind, bool) {
	v, ok := ledgerKindValues[str]
	return v, ok
}

func (s *LedgerKind) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("ledger kind must be string")
	}
	v, ok := ledgerKindValues[str]
	if !ok {
		return errors.New("invalid ledger kind")
	}
	*s = v
	return nil
}

type InventoryStatus string

const (
	InventoryStatusOutOfStock InventoryStatus = "OUT_OF_STOCK"
	InventoryStatusLowStock   InventoryStatus = "LOW_STOCK"
	InventoryStatusInStock    InventoryStatus = "IN_STOCK"
	InventoryStatusOverStock  InventoryStatus = "OVER_STOCK"
)

type StockTransactionType string

const (
	StockTransactionTypeIn  StockTransactionType = "IN"
	StockTransactionTypeOut StockTransactionType = "OUT"
	StockTransactionTypeSet StockTransactionType = "SET"
)

var stockTransactionTypeValues = map[string]StockTransactionType{
	"IN":  StockTransactionTypeIn,
	"OUT": StockTransactionTypeOut,
	"SET": StockTransactionTypeSet,
}

func (s *StockTransactionType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("stock transaction type must be string")
	}
	v, ok := stockTransactionTypeValues[str]
	if !ok {
		return errors.New("invalid stock transaction type")
	}
	*s = v
	return nil
}

// StockReferenceType links a transaction to the document that caused it.
type StockReferenceType string

const (
	StockReferenceTypeProductionTicket StockReferenceType = "PT"
	StockReferenceTypePurchasingTicket StockReferenceType = "PCT"
	StockReferenceTypeSaleOrder        StockReferenceType = "SO"
	StockReferenceTypeAdjustment       StockReferenceType = "ADJ"
)

var stockReferenceTypeValues = map[string]StockReferenceType{
	"PT":  StockReferenceTypeProductionTicket,
	"PCT": StockReferenceTypePurchasingTicket,
	"SO":  StockReferenceTypeSaleOrder,
	"ADJ": StockReferenceTypeAdjustment,
}

func (s *StockReferenceType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("stock reference type must be string")
	}
	v, ok := stockReferenceTypeValues[str]
	if !ok {
		return errors.New("invalid stock reference type")
	}
	*s = v
	return nil
}

// TransactionSource describes the business origin of a stock movement.
type TransactionSource string

const (
	TransactionSourceManualAdjustment  TransactionSource = "MANUAL_ADJUSTMENT"
	TransactionSourceTicketFulfillment TransactionSource = "TICKET_FULFILLMENT"
	TransactionSourcePurchaseReceipt   TransactionSource = "PURCHASE_RECEIPT"
	TransactionSourceSaleFulfillment   TransactionSource = "SALE_FULFILLMENT"
	TransactionSourceOpeningStock      TransactionSource = "OPENING_STOCK"
)

var transactionSourceValues = map[string]TransactionSource{
	"MANUAL_ADJUSTMENT":  TransactionSourceManualAdjustment,
	"TICKET_FULFILLMENT": TransactionSourceTicketFulfillment,
	"PURCHASE_RECEIPT":   TransactionSourcePurchaseReceipt,
	"SALE_FULFILLMENT":   TransactionSourceSaleFulfillment,
	"OPENING_STOCK":      TransactionSourceOpeningStock,
}

func (s *TransactionSource) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("transaction source must be string")
	}
	v, ok := transactionSourceValues[str]
	if !ok {
		return errors.New("invalid transaction source")
	}
	*s = v
	return nil
}

type TicketFamily string

const (
	TicketFamilyProduction TicketFamily = "production"
	TicketFamilyPurchasing TicketFamily = "purchasing"
	TicketFamilySale       TicketFamily = "sale"
)

type ProductionDetailStatus string

const (
	ProductionDetailStatusNew       ProductionDetailStatus = "NEW"
	ProductionDetailStatusApproval  ProductionDetailStatus = "APPROVAL"
	ProductionDetailStatusComplete  ProductionDetailStatus = "COMPLETE"
	ProductionDetailStatusReady     ProductionDetailStatus = "READY"
	ProductionDetailStatusClosed    ProductionDetailStatus = "CLOSED"
	ProductionDetailStatusCancelled ProductionDetailStatus = "CANCELLED"
)

var productionDetailStatusValues = map[string]ProductionDetailStatus{
	"NEW":       ProductionDetailStatusNew,
	"APPROVAL":  ProductionDetailStatusApproval,
	"COMPLETE":  ProductionDetailStatusComplete,
	"READY":     ProductionDetailStatusReady,
	"CLOSED":    ProductionDetailStatusClosed,
	"CANCELLED": ProductionDetailStatusCancelled,
}

func (s *ProductionDetailStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("production detail status must be string")
	}
	v, ok := productionDetailStatusValues[str]
	if !ok {
		return errors.New("invalid production detail status")
	}
	*s = v
	return nil
}

type PurchasingDetailStatus string

const (
	PurchasingDetailStatusNew        PurchasingDetailStatus = "NEW"
	PurchasingDetailStatusApproval   PurchasingDetailStatus = "APPROVAL"
	PurchasingDetailStatusSuccessful PurchasingDetailStatus = "SUCCESSFUL"
	PurchasingDetailStatusShipping   PurchasingDetailStatus = "SHIPPING"
	PurchasingDetailStatusReady      PurchasingDetailStatus = "READY"
	PurchasingDetailStatusClosed     PurchasingDetailStatus = "CLOSED"
	PurchasingDetailStatusCancelled  PurchasingDetailStatus = "CANCELLED"
)

var purchasingDetailStatusValues = map[string]PurchasingDetailStatus{
	"NEW":        PurchasingDetailStatusNew,
	"APPROVAL":   PurchasingDetailStatusApproval,
	"SUCCESSFUL": PurchasingDetailStatusSuccessful,
	"SHIPPING":   PurchasingDetailStatusShipping,
	"READY":      PurchasingDetailStatusReady,
	"CLOSED":     PurchasingDetailStatusClosed,
	"CANCELLED":  PurchasingDetailStatusCancelled,
}

func (s *PurchasingDetailStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("purchasing detail status must be string")
	}
	v, ok := purchasingDetailStatusValues[str]
	if !ok {
		return errors.New("invalid purchasing detail status")
	}
	*s = v
	return nil
}

type SaleOrderDetailStatus string

const (
	SaleOrderDetailStatusNew       SaleOrderDetailStatus = "NEW"
	SaleOrderDetailStatusAllocated SaleOrderDetailStatus = "ALLOCATED"
	SaleOrderDetailStatusPacked    SaleOrderDetailStatus = "PACKED"
	SaleOrderDetailStatusShipped   SaleOrderDetailStatus = "SHIPPED"
	SaleOrderDetailStatusDone      SaleOrderDetailStatus = "DONE"
	SaleOrderDetailStatusCancelled SaleOrderDetailStatus = "CANCELLED"
)

var saleOrderDetailStatusValues = map[string]SaleOrderDetailStatus{
	"NEW":       SaleOrderDetailStatusNew,
	"ALLOCATED": SaleOrderDetailStatusAllocated,
	"PACKED":    SaleOrderDetailStatusPacked,
	"SHIPPED":   SaleOrderDetailStatusShipped,
	"DONE":      SaleOrderDetailStatusDone,
	"CANCELLED": SaleOrderDetailStatusCancelled,
}

func (s *SaleOrderDetailStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("sale order detail status must be string")
	}
	v, ok := saleOrderDetailStatusValues[str]
	if !ok {
		return errors.New("invalid sale order detail status")
	}
	*s = v
	return nil
}

// TicketStatus is the parent-level status. It is always derived from the
// multiset of detail statuses, never set directly by a caller.
type TicketStatus string

const (
	TicketStatusNew              TicketStatus = "NEW"
	TicketStatusInProgress       TicketStatus = "IN_PROGRESS"
	TicketStatusPartialComplete  TicketStatus = "PARTIAL_COMPLETE"
	TicketStatusPartialCancelled TicketStatus = "PARTIAL_CANCELLED"
	TicketStatusComplete         TicketStatus = "COMPLETE"
	TicketStatusCancelled        TicketStatus = "CANCELLED"
)
