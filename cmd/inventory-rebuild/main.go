package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// inventory-rebuild replays every stock transaction of a business in id
// order and compares the result against the stored current stock. With
// --fix it also rewrites drifted records and reclassifies their status.
func main() {
	businessID := flag.String("business-id", "", "Required: business id")
	kindFlag := flag.String("ledger-kind", "", "Optional: restrict to one ledger kind (product|material)")
	fix := flag.Bool("fix", false, "Rewrite drifted records (default is report only)")
	confirm := flag.String("confirm", "", "Type REBUILD to proceed when fix=true")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}
	var kind *models.LedgerKind
	if strings.TrimSpace(*kindFlag) != "" {
		parsed, ok := models.ParseLedgerKind(*kindFlag)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown ledger kind %q\n", *kindFlag)
			os.Exit(1)
		}
		kind = &parsed
	}
	if *fix && strings.TrimSpace(*confirm) != "REBUILD" {
		fmt.Fprintln(os.Stderr, "set --confirm=REBUILD to proceed")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	query := db.Where("business_id = ?", *businessID)
	if kind != nil {
		query = query.Where("ledger_kind = ?", *kind)
	}
	var records []models.StockRecord
	if err := query.Order("id asc").Find(&records).Error; err != nil {
		fmt.Fprintf(os.Stderr, "loading stock records: %v\n", err)
		os.Exit(1)
	}

	drifted := 0
	for _, record := range records {
		replayed, err := replayRecord(db, &record)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay failed for record %d: %v\n", record.ID, err)
			os.Exit(1)
		}
		if replayed.Equal(record.CurrentStock) {
			continue
		}
		drifted++
		fmt.Printf("record=%d kind=%s variant=%d stored=%s replayed=%s\n",
			record.ID, record.LedgerKind, record.VariantId,
			record.CurrentStock.String(), replayed.String())

		if !*fix {
			continue
		}
		status := models.ClassifyStock(replayed, record.MinAlertStock, record.MaxStockLevel)
		if err := db.Model(&models.StockRecord{}).Where("id = ?", record.ID).
			Updates(map[string]interface{}{
				"current_stock":    replayed,
				"inventory_status": status,
			}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "fix failed for record %d: %v\n", record.ID, err)
			os.Exit(1)
		}
		fmt.Printf("record=%d fixed to %s (%s)\n", record.ID, replayed.String(), status)
	}

	fmt.Printf("checked=%d drifted=%d fix=%v\n", len(records), drifted, *fix)
	if drifted > 0 && !*fix {
		os.Exit(2)
	}
}

// replayRecord folds the transaction history in id order. The final SET, if
// any, resets the running total; IN/OUT apply relative to it.
func replayRecord(db *gorm.DB, record *models.StockRecord) (decimal.Decimal, error) {
	var transactions []models.StockTransaction
	err := db.Where("stock_record_id = ?", record.ID).
		Order("id asc").
		Find(&transactions).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, tx := range transactions {
		switch tx.TransactionType {
		case models.StockTransactionTypeIn:
			total = total.Add(tx.Quantity)
		case models.StockTransactionTypeOut:
			total = total.Sub(tx.Quantity)
		case models.StockTransactionTypeSet:
			total = tx.Quantity
		default:
			return decimal.Zero, fmt.Errorf("unknown transaction type %q in row %d", tx.TransactionType, tx.ID)
		}
	}
	return total, nil
}
