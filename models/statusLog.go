package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"gorm.io/gorm"
)

// TicketStatusLog is the append-only audit trail of every status change on
// tickets and their details. Rows are written in the same transaction as the
// change itself.
type TicketStatusLog struct {
	ID            int          `gorm:"primary_key" json:"id"`
	BusinessId    string       `gorm:"index;not null" json:"business_id"`
	TicketFamily  TicketFamily `gorm:"type:enum('production','purchasing','sale');not null;index:idx_status_log_ticket,priority:1" json:"ticket_family"`
	TicketId      int          `gorm:"not null;index:idx_status_log_ticket,priority:2" json:"ticket_id"`
	DetailId      *int         `gorm:"index" json:"detail_id"`
	OldStatus     string       `gorm:"size:32" json:"old_status"`
	NewStatus     string       `gorm:"size:32;not null" json:"new_status"`
	Note          string       `gorm:"size:255" json:"note"`
	CreatedBy     int          `gorm:"not null" json:"created_by"`
	CreatedByName string       `gorm:"size:100" json:"created_by_name"`
	CreatedByRole string       `gorm:"size:50" json:"created_by_role"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func appendStatusLog(ctx context.Context, tx *gorm.DB, family TicketFamily, ticketId int, detailId *int, oldStatus, newStatus, note string) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}
	userName, _ := utils.GetUserNameFromContext(ctx)
	userRole, _ := utils.GetUserRoleFromContext(ctx)

	log := TicketStatusLog{
		BusinessId:    businessId,
		TicketFamily:  family,
		TicketId:      ticketId,
		DetailId:      detailId,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		Note:          note,
		CreatedBy:     userId,
		CreatedByName: userName,
		CreatedByRole: userRole,
	}
	return tx.WithContext(ctx).Create(&log).Error
}

// GetTicketStatusLogs returns the audit trail of one ticket, oldest first.
func GetTicketStatusLogs(ctx context.Context, family TicketFamily, ticketId int) ([]TicketStatusLog, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var err error
	switch family {
	case TicketFamilyProduction:
		err = utils.ValidateResourceId[ProductionTicket](ctx, businessId, ticketId)
	case TicketFamilyPurchasing:
		err = utils.ValidateResourceId[PurchasingTicket](ctx, businessId, ticketId)
	case TicketFamilySale:
		err = utils.ValidateResourceId[SaleOrder](ctx, businessId, ticketId)
	}
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var logs []TicketStatusLog
	err = db.WithContext(ctx).
		Where("business_id = ? AND ticket_family = ? AND ticket_id = ?", businessId, family, ticketId).
		Order("id asc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
