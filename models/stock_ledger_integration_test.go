package models_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/models"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/shopspring/decimal"
)

// setupLedgerEnv boots the containers once per test and returns a context
// carrying a fresh tenant plus an actor.
func setupLedgerEnv(t *testing.T) context.Context {
	t.Helper()
	skipUnlessIntegration(t)

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "warehouse_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetBusinessIdInContext(ctx, uuid.NewString())
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUserRoleInContext(ctx, "admin")
	return ctx
}

func mustCreateVariant(t *testing.T, ctx context.Context, kind models.LedgerKind, sku string) *models.Variant {
	t.Helper()
	v, err := models.CreateVariant(ctx, &models.NewVariant{
		LedgerKind: kind,
		Sku:        sku,
		Name:       "Variant " + sku,
		UnitName:   "pcs",
	})
	if err != nil {
		t.Fatalf("CreateVariant(%s): %v", sku, err)
	}
	return v
}

// init 50 with min 10 / max 100, subtract 45 down to 5 (LOW_STOCK), then a
// further subtract of 10 must fail without touching the stock or history.
func TestLedger_SubtractScenario(t *testing.T) {
	ctx := setupLedgerEnv(t)

	variant := mustCreateVariant(t, ctx, models.LedgerKindProduct, "SKU-1")

	minAlert := decimal.NewFromInt(10)
	maxStock := decimal.NewFromInt(100)
	record, err := models.InitStockRecord(ctx, models.LedgerKindProduct, &models.NewStockRecord{
		VariantSku:    "SKU-1",
		CurrentStock:  decimal.NewFromInt(50),
		MinAlertStock: &minAlert,
		MaxStockLevel: &maxStock,
	})
	if err != nil {
		t.Fatalf("InitStockRecord: %v", err)
	}
	if record.InventoryStatus != models.InventoryStatusInStock {
		t.Fatalf("initial status = %s, want IN_STOCK", record.InventoryStatus)
	}

	stockTx, err := models.SubtractStock(ctx, models.LedgerKindProduct, variant.ID, &models.StockTransactionInput{
		NewQuantity: decimal.NewFromInt(45),
	})
	if err != nil {
		t.Fatalf("SubtractStock(45): %v", err)
	}
	if !stockTx.PreviousStock.Equal(decimal.NewFromInt(50)) || !stockTx.NewStock.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("transaction stocks = %s -> %s, want 50 -> 5", stockTx.PreviousStock, stockTx.NewStock)
	}

	record, err = models.GetStockRecord(ctx, models.LedgerKindProduct, variant.ID)
	if err != nil {
		t.Fatalf("GetStockRecord: %v", err)
	}
	if record.InventoryStatus != models.InventoryStatusLowStock {
		t.Fatalf("status after subtract = %s, want LOW_STOCK", record.InventoryStatus)
	}

	_, err = models.SubtractStock(ctx, models.LedgerKindProduct, variant.ID, &models.StockTransactionInput{
		NewQuantity: decimal.NewFromInt(10),
	})
	if utils.CodeOf(err) != utils.ErrCodeInsufficientStock {
		t.Fatalf("SubtractStock(10) error = %v, want INSUFFICIENT_STOCK", err)
	}

	record, err = models.GetStockRecord(ctx, models.LedgerKindProduct, variant.ID)
	if err != nil {
		t.Fatalf("GetStockRecord: %v", err)
	}
	if !record.CurrentStock.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("stock after failed subtract = %s, want 5", record.CurrentStock)
	}

	// Failed subtract must leave no ledger row behind: opening SET + OUT.
	transactions, err := models.GetStockTransactions(ctx, models.LedgerKindProduct, variant.ID)
	if err != nil {
		t.Fatalf("GetStockTransactions: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("transaction count = %d, want 2", len(transactions))
	}
}

// Setting the same value twice leaves the quantity alone but still writes a
// ledger row per call.
func TestLedger_SetWritesHistoryEveryTime(t *testing.T) {
	ctx := setupLedgerEnv(t)

	variant := mustCreateVariant(t, ctx, models.LedgerKindMaterial, "MAT-1")
	if _, err := models.InitStockRecord(ctx, models.LedgerKindMaterial, &models.NewStockRecord{
		VariantSku: "MAT-1",
	}); err != nil {
		t.Fatalf("InitStockRecord: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := models.SetStock(ctx, models.LedgerKindMaterial, variant.ID, &models.StockTransactionInput{
			NewQuantity: decimal.NewFromInt(30),
		}); err != nil {
			t.Fatalf("SetStock #%d: %v", i+1, err)
		}
	}

	record, err := models.GetStockRecord(ctx, models.LedgerKindMaterial, variant.ID)
	if err != nil {
		t.Fatalf("GetStockRecord: %v", err)
	}
	if !record.CurrentStock.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("stock = %s, want 30", record.CurrentStock)
	}

	transactions, err := models.GetStockTransactions(ctx, models.LedgerKindMaterial, variant.ID)
	if err != nil {
		t.Fatalf("GetStockTransactions: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("transaction count = %d, want 2", len(transactions))
	}
	for _, tx := range transactions {
		if tx.TransactionType != models.StockTransactionTypeSet {
			t.Fatalf("transaction type = %s, want SET", tx.TransactionType)
		}
	}
}

func TestLedger_InitRejectsDuplicate(t *testing.T) {
	ctx := setupLedgerEnv(t)

	mustCreateVariant(t, ctx, models.LedgerKindProduct, "DUP-1")
	if _, err := models.InitStockRecord(ctx, models.LedgerKindProduct, &models.NewStockRecord{
		VariantSku:   "DUP-1",
		CurrentStock: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("first init: %v", err)
	}

	_, err := models.InitStockRecord(ctx, models.LedgerKindProduct, &models.NewStockRecord{
		VariantSku: "DUP-1",
	})
	if utils.CodeOf(err) != utils.ErrCodeAlreadyExists {
		t.Fatalf("second init error = %v, want ALREADY_EXISTS", err)
	}
}

// The init advisory lock is connection-scoped, so it has to be released on
// the init transaction itself. If it leaked, the next init for the same
// business would run on a different pooled connection, block on GET_LOCK for
// its full 30s timeout and then fail.
func TestLedger_InitReleasesAdvisoryLock(t *testing.T) {
	ctx := setupLedgerEnv(t)

	for i, sku := range []string{"LOCK-1", "LOCK-2", "LOCK-3"} {
		mustCreateVariant(t, ctx, models.LedgerKindProduct, sku)

		start := time.Now()
		if _, err := models.InitStockRecord(ctx, models.LedgerKindProduct, &models.NewStockRecord{
			VariantSku:   sku,
			CurrentStock: decimal.NewFromInt(int64(i + 1)),
		}); err != nil {
			t.Fatalf("init %s: %v", sku, err)
		}
		if elapsed := time.Since(start); elapsed > 10*time.Second {
			t.Fatalf("init %s took %v, lock from a previous init still held", sku, elapsed)
		}
	}
}

// Reads go through the redis cache, so an update has to evict the cached
// copy or stale names would be served until the key expires.
func TestVariant_UpdateEvictsCache(t *testing.T) {
	ctx := setupLedgerEnv(t)

	created := mustCreateVariant(t, ctx, models.LedgerKindProduct, "VAR-UPD")

	// warm the cache
	if _, err := models.GetVariant(ctx, created.ID); err != nil {
		t.Fatalf("first get: %v", err)
	}

	if _, err := models.UpdateVariant(ctx, created.ID, &models.UpdateVariantInput{
		Name:     "Renamed Widget",
		UnitName: "box",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := models.GetVariant(ctx, created.ID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if got.Name != "Renamed Widget" || got.UnitName != "box" {
		t.Fatalf("got name=%q unit=%q after update, cache not evicted", got.Name, got.UnitName)
	}
}

// Three ids where one has no stock record: the batch still succeeds with two
// transactions and one NOT_FOUND entry, totals adding up.
func TestLedger_BulkAddPartialFailure(t *testing.T) {
	ctx := setupLedgerEnv(t)

	v1 := mustCreateVariant(t, ctx, models.LedgerKindProduct, "BULK-1")
	v2 := mustCreateVariant(t, ctx, models.LedgerKindProduct, "BULK-2")
	v3 := mustCreateVariant(t, ctx, models.LedgerKindProduct, "BULK-3")

	for _, sku := range []string{"BULK-1", "BULK-3"} {
		if _, err := models.InitStockRecord(ctx, models.LedgerKindProduct, &models.NewStockRecord{
			VariantSku: sku,
		}); err != nil {
			t.Fatalf("init %s: %v", sku, err)
		}
	}

	qty := decimal.NewFromInt(10)
	result, err := models.ApplyBulkTransactions(ctx, models.LedgerKindProduct, models.StockTransactionTypeIn,
		[]models.BulkStockItem{
			{VariantId: v1.ID, NewQuantity: qty},
			{VariantId: v2.ID, NewQuantity: qty},
			{VariantId: v3.ID, NewQuantity: qty},
		})
	if err != nil {
		t.Fatalf("ApplyBulkTransactions: %v", err)
	}

	if result.TotalProcessed != 3 || result.SuccessCount != 2 || result.FailureCount != 1 {
		t.Fatalf("totals = %d/%d/%d, want 3/2/1", result.TotalProcessed, result.SuccessCount, result.FailureCount)
	}
	if len(result.FailedTransactions) != 1 {
		t.Fatalf("failed list length = %d, want 1", len(result.FailedTransactions))
	}
	failed := result.FailedTransactions[0]
	if failed.VariantId != v2.ID || failed.ErrorCode != utils.ErrCodeNotFound {
		t.Fatalf("failed entry = %+v, want variant %d NOT_FOUND", failed, v2.ID)
	}
}

func TestLedger_BulkRejectsEmptyList(t *testing.T) {
	ctx := setupLedgerEnv(t)

	_, err := models.ApplyBulkTransactions(ctx, models.LedgerKindProduct, models.StockTransactionTypeIn, nil)
	if utils.CodeOf(err) != utils.ErrCodeInvalidRequest {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}
}

// Every mutating ledger call stages exactly one outbox row in the same
// transaction; a failed call stages none.
func TestLedger_OutboxStagedWithCommit(t *testing.T) {
	ctx := setupLedgerEnv(t)

	variant := mustCreateVariant(t, ctx, models.LedgerKindProduct, "EVT-1")
	if _, err := models.InitStockRecord(ctx, models.LedgerKindProduct, &models.NewStockRecord{
		VariantSku:   "EVT-1",
		CurrentStock: decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("InitStockRecord: %v", err)
	}

	if _, err := models.AddStock(ctx, models.LedgerKindProduct, variant.ID, &models.StockTransactionInput{
		NewQuantity: decimal.NewFromInt(3),
	}); err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	if _, err := models.SubtractStock(ctx, models.LedgerKindProduct, variant.ID, &models.StockTransactionInput{
		NewQuantity: decimal.NewFromInt(100),
	}); utils.CodeOf(err) != utils.ErrCodeInsufficientStock {
		t.Fatalf("want INSUFFICIENT_STOCK, got %v", err)
	}

	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	var count int64
	if err := config.GetDB().Model(&models.StockEventRecord{}).
		Where("business_id = ?", businessId).
		Count(&count).Error; err != nil {
		t.Fatalf("counting outbox rows: %v", err)
	}
	// Opening stock + add; the failed subtract stages nothing.
	if count != 2 {
		t.Fatalf("outbox rows = %d, want 2", count)
	}
}
