package models

import (
	"log"

	"github.com/mmdatafocus/warehouse_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Variant{},
		&StockRecord{}, &StockTransaction{},
		&ProductionTicket{}, &ProductionTicketDetail{},
		&PurchasingTicket{}, &PurchasingTicketDetail{},
		&SaleOrder{}, &SaleOrderDetail{},
		&TicketStatusLog{},
		&StockEventRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
