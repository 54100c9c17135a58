package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/warehouse_backend/models"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/shopspring/decimal"
)

// BulkStockRequest applies the same quantity and metadata across many
// variant ids in one call.
type BulkStockRequest struct {
	VariantIds            []int                      `json:"variant_ids" binding:"required"`
	NewQuantity           decimal.Decimal            `json:"new_quantity" binding:"required"`
	Note                  string                     `json:"note"`
	ReferenceDocumentType *models.StockReferenceType `json:"reference_document_type"`
	ReferenceDocumentId   *int                       `json:"reference_document_id"`
	TransactionSource     *models.TransactionSource  `json:"transaction_source"`
}

type BulkInitRequest struct {
	VariantSkus   []string         `json:"variant_skus" binding:"required"`
	CurrentStock  decimal.Decimal  `json:"current_stock"`
	MinAlertStock *decimal.Decimal `json:"min_alert_stock"`
	MaxStockLevel *decimal.Decimal `json:"max_stock_level"`
}

type ThresholdRequest struct {
	Value decimal.Decimal `json:"value" binding:"required"`
}

// RegisterInventoryRoutes mounts one ledger surface per kind, so products
// and materials share handlers but never record space.
func RegisterInventoryRoutes(r *gin.Engine) {
	for _, kind := range []models.LedgerKind{models.LedgerKindProduct, models.LedgerKindMaterial} {
		group := r.Group("/" + string(kind) + "-inventory")
		registerLedgerRoutes(group, kind)
	}
}

func registerLedgerRoutes(group *gin.RouterGroup, kind models.LedgerKind) {
	group.POST("/init", initStockRecordHandler(kind))
	group.POST("/bulk/init", bulkInitHandler(kind))
	group.PUT("/bulk/add", bulkTransactionHandler(kind, models.StockTransactionTypeIn))
	group.PUT("/bulk/subtract", bulkTransactionHandler(kind, models.StockTransactionTypeOut))
	group.PUT("/bulk/set", bulkTransactionHandler(kind, models.StockTransactionTypeSet))
	group.PUT("/:variantId/add", stockTransactionHandler(kind, models.StockTransactionTypeIn))
	group.PUT("/:variantId/subtract", stockTransactionHandler(kind, models.StockTransactionTypeOut))
	group.PUT("/:variantId/set", stockTransactionHandler(kind, models.StockTransactionTypeSet))
	group.PUT("/:variantId/set-minimum", thresholdHandler(kind, true))
	group.PUT("/:variantId/set-maximum", thresholdHandler(kind, false))
	group.GET("/:variantId", getStockRecordHandler(kind))
	group.GET("/:variantId/transactions", getStockTransactionsHandler(kind))
	group.GET("/enums/transaction-enums", transactionEnumsHandler)
}

func variantIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("variantId"))
	if err != nil || id <= 0 {
		respondError(c, "handlers", "variantIdParam",
			utils.NewCodedError(utils.ErrCodeInvalidRequest, "variant id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func initStockRecordHandler(kind models.LedgerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		var input models.NewStockRecord
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		record, err := models.InitStockRecord(c.Request.Context(), kind, &input)
		if err != nil {
			respondError(c, "handlers", "InitStockRecord", err)
			return
		}
		c.JSON(http.StatusCreated, record)
	}
}

func stockTransactionHandler(kind models.LedgerKind, txType models.StockTransactionType) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		variantId, ok := variantIdParam(c)
		if !ok {
			return
		}
		var input models.StockTransactionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}

		var (
			stockTx *models.StockTransaction
			err     error
		)
		switch txType {
		case models.StockTransactionTypeIn:
			stockTx, err = models.AddStock(c.Request.Context(), kind, variantId, &input)
		case models.StockTransactionTypeOut:
			stockTx, err = models.SubtractStock(c.Request.Context(), kind, variantId, &input)
		default:
			stockTx, err = models.SetStock(c.Request.Context(), kind, variantId, &input)
		}
		if err != nil {
			respondError(c, "handlers", "StockTransaction", err)
			return
		}
		c.JSON(http.StatusOK, stockTx)
	}
}

func bulkTransactionHandler(kind models.LedgerKind, txType models.StockTransactionType) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		var req BulkStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		// A repeated id would apply the shared quantity twice.
		variantIds := utils.UniqueSlice(req.VariantIds)
		items := make([]models.BulkStockItem, 0, len(variantIds))
		for _, id := range variantIds {
			items = append(items, models.BulkStockItem{
				VariantId:             id,
				NewQuantity:           req.NewQuantity,
				Note:                  req.Note,
				ReferenceDocumentType: req.ReferenceDocumentType,
				ReferenceDocumentId:   req.ReferenceDocumentId,
				TransactionSource:     req.TransactionSource,
			})
		}
		result, err := models.ApplyBulkTransactions(c.Request.Context(), kind, txType, items)
		if err != nil {
			// Only malformed requests fail the whole call; per-item errors
			// ride back in the result body with a 200.
			respondError(c, "handlers", "ApplyBulkTransactions", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func bulkInitHandler(kind models.LedgerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		var req BulkInitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		skus := utils.UniqueSlice(req.VariantSkus)
		items := make([]models.BulkInitItem, 0, len(skus))
		for _, sku := range skus {
			items = append(items, models.BulkInitItem{
				VariantSku:    sku,
				CurrentStock:  req.CurrentStock,
				MinAlertStock: req.MinAlertStock,
				MaxStockLevel: req.MaxStockLevel,
			})
		}
		result, err := models.ApplyBulkInit(c.Request.Context(), kind, items)
		if err != nil {
			respondError(c, "handlers", "ApplyBulkInit", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func thresholdHandler(kind models.LedgerKind, isMinimum bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		variantId, ok := variantIdParam(c)
		if !ok {
			return
		}
		var req ThresholdRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		var (
			record *models.StockRecord
			err    error
		)
		if isMinimum {
			record, err = models.SetMinimumAlert(c.Request.Context(), kind, variantId, req.Value)
		} else {
			record, err = models.SetMaximumLevel(c.Request.Context(), kind, variantId, req.Value)
		}
		if err != nil {
			respondError(c, "handlers", "SetThreshold", err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func getStockRecordHandler(kind models.LedgerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		variantId, ok := variantIdParam(c)
		if !ok {
			return
		}
		record, err := models.GetStockRecord(c.Request.Context(), kind, variantId)
		if err != nil {
			respondError(c, "handlers", "GetStockRecord", err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func getStockTransactionsHandler(kind models.LedgerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		variantId, ok := variantIdParam(c)
		if !ok {
			return
		}
		transactions, err := models.GetStockTransactions(c.Request.Context(), kind, variantId)
		if err != nil {
			respondError(c, "handlers", "GetStockTransactions", err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	}
}

func transactionEnumsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"reference_document_types": []models.StockReferenceType{
			models.StockReferenceTypeProductionTicket,
			models.StockReferenceTypePurchasingTicket,
			models.StockReferenceTypeSaleOrder,
			models.StockReferenceTypeAdjustment,
		},
		"transaction_sources": []models.TransactionSource{
			models.TransactionSourceManualAdjustment,
			models.TransactionSourceTicketFulfillment,
			models.TransactionSourcePurchaseReceipt,
			models.TransactionSourceSaleFulfillment,
			models.TransactionSourceOpeningStock,
		},
	})
}
