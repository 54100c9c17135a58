package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchasingTicket tracks inbound material orders. Same derived-status rules
// as ProductionTicket, with the purchasing transition table.
type PurchasingTicket struct {
	ID            int                      `gorm:"primary_key" json:"id"`
	BusinessId    string                   `gorm:"index;not null" json:"business_id"`
	Name          string                   `gorm:"size:255;not null" json:"name"`
	CurrentStatus TicketStatus             `gorm:"type:enum('NEW','IN_PROGRESS','PARTIAL_COMPLETE','PARTIAL_CANCELLED','COMPLETE','CANCELLED');not null" json:"current_status"`
	CancelReason  string                   `gorm:"size:255" json:"cancel_reason"`
	IsActive      *bool                    `gorm:"not null;default:true" json:"is_active"`
	CreatedBy     int                      `gorm:"not null" json:"created_by"`
	CreatedByName string                   `gorm:"size:100" json:"created_by_name"`
	CreatedByRole string                   `gorm:"size:50" json:"created_by_role"`
	Details       []PurchasingTicketDetail `gorm:"foreignKey:TicketId" json:"details"`
	CreatedAt     time.Time                `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchasingTicketDetail struct {
	ID            int                    `gorm:"primary_key" json:"id"`
	BusinessId    string                 `gorm:"index;not null" json:"business_id"`
	TicketId      int                    `gorm:"index;not null" json:"ticket_id"`
	VariantId     int                    `gorm:"index;not null" json:"variant_id"`
	VariantSku    string                 `gorm:"size:100;not null" json:"variant_sku"`
	Quantity      decimal.Decimal        `gorm:"type:decimal(20,4)" json:"quantity"`
	Status        PurchasingDetailStatus `gorm:"type:enum('NEW','APPROVAL','SUCCESSFUL','SHIPPING','READY','CLOSED','CANCELLED');not null" json:"status"`
	ExpectedDate  *time.Time             `json:"expected_date"`
	CompletedDate *time.Time             `json:"completed_date"`
	Note          string                 `gorm:"size:255" json:"note"`
	CreatedAt     time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t PurchasingTicket) GetId() int {
	return t.ID
}

type PurchasingBulkCreateResult struct {
	CreatedTickets []PurchasingTicket `json:"created_tickets"`
	Errors         []string           `json:"errors"`
	TotalRequested int                `json:"total_requested"`
	TotalCreated   int                `json:"total_created"`
	TotalFailed    int                `json:"total_failed"`
}

// BulkCreatePurchasingTickets mirrors the production bulk create; purchasing
// lines resolve against the material ledger.
func BulkCreatePurchasingTickets(ctx context.Context, input *BulkCreateTicketInput) (*PurchasingBulkCreateResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if input.Name == "" {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "ticket name is required")
	}
	if len(input.LineItems) == 0 {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "at least one line item is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}
	userName, _ := utils.GetUserNameFromContext(ctx)
	userRole, _ := utils.GetUserRoleFromContext(ctx)

	result := &PurchasingBulkCreateResult{
		CreatedTickets: []PurchasingTicket{},
		Errors:         []string{},
		TotalRequested: len(input.LineItems),
	}

	var details []PurchasingTicketDetail
	for _, line := range input.LineItems {
		variantId, err := validateTicketLine(ctx, LedgerKindMaterial, line)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		details = append(details, PurchasingTicketDetail{
			BusinessId:   businessId,
			VariantId:    variantId,
			VariantSku:   line.VariantSku,
			Quantity:     line.Quantity,
			Status:       PurchasingDetailMachine.Initial,
			ExpectedDate: line.ExpectedDate,
			Note:         line.Note,
		})
	}
	result.TotalFailed = len(result.Errors)

	if len(details) == 0 {
		return result, nil
	}

	ticket := PurchasingTicket{
		BusinessId:    businessId,
		Name:          input.Name,
		CurrentStatus: TicketStatusNew,
		IsActive:      utils.Ptr(true),
		CreatedBy:     userId,
		CreatedByName: userName,
		CreatedByRole: userRole,
		Details:       details,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&ticket).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := appendStatusLog(ctx, tx, TicketFamilyPurchasing, ticket.ID, nil, "", string(TicketStatusNew), "ticket created"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	result.CreatedTickets = append(result.CreatedTickets, ticket)
	result.TotalCreated = len(ticket.Details)
	return result, nil
}

func UpdatePurchasingDetailStatus(ctx context.Context, ticketId, detailId int, input *UpdateDetailStatusInput) (*PurchasingTicket, error) {
	newStatus, ok := purchasingDetailStatusValues[input.NewStatus]
	if !ok {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, fmt.Sprintf("unknown purchasing detail status %q", input.NewStatus))
	}

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()

	var ticket PurchasingTicket
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND id = ?", businessId, ticketId).
		First(&ticket).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "purchasing ticket not found")
		}
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("ticket_id = ?", ticket.ID).Order("id asc").Find(&ticket.Details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var detail *PurchasingTicketDetail
	for i := range ticket.Details {
		if ticket.Details[i].ID == detailId {
			detail = &ticket.Details[i]
			break
		}
	}
	if detail == nil {
		tx.Rollback()
		return nil, utils.NewCodedError(utils.ErrCodeNotFound, "purchasing ticket detail not found")
	}

	oldStatus := detail.Status
	if err := PurchasingDetailMachine.Validate(oldStatus, newStatus); err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{"status": newStatus}
	if PurchasingDetailMachine.IsTerminal(newStatus) {
		now := time.Now().UTC()
		detail.CompletedDate = &now
		updates["completed_date"] = detail.CompletedDate
	}
	detail.Status = newStatus
	if err := tx.WithContext(ctx).Model(&PurchasingTicketDetail{}).Where("id = ?", detail.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := appendStatusLog(ctx, tx, TicketFamilyPurchasing, ticket.ID, &detail.ID, string(oldStatus), string(newStatus), input.Note); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := recomputePurchasingTicketStatus(ctx, tx, &ticket); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func recomputePurchasingTicketStatus(ctx context.Context, tx *gorm.DB, ticket *PurchasingTicket) error {
	statuses := make([]PurchasingDetailStatus, len(ticket.Details))
	for i, d := range ticket.Details {
		statuses[i] = d.Status
	}
	derived := PurchasingDetailMachine.DeriveParentStatus(statuses)
	if derived == ticket.CurrentStatus {
		return nil
	}
	oldStatus := ticket.CurrentStatus
	ticket.CurrentStatus = derived
	if err := tx.WithContext(ctx).Model(&PurchasingTicket{}).Where("id = ?", ticket.ID).
		Update("current_status", derived).Error; err != nil {
		return err
	}
	return appendStatusLog(ctx, tx, TicketFamilyPurchasing, ticket.ID, nil, string(oldStatus), string(derived), "cascaded from detail change")
}

func CancelPurchasingTicket(ctx context.Context, ticketId int, input *CancelTicketInput) (*PurchasingTicket, error) {
	if input.Reason == "" {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "cancel reason is required")
	}
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()

	var ticket PurchasingTicket
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND id = ?", businessId, ticketId).
		First(&ticket).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "purchasing ticket not found")
		}
		return nil, err
	}
	if ticket.CurrentStatus == TicketStatusCancelled || ticket.CurrentStatus == TicketStatusComplete {
		tx.Rollback()
		return nil, utils.NewCodedError(utils.ErrCodeIllegalTransition, fmt.Sprintf("ticket is already %s", ticket.CurrentStatus))
	}
	if err := tx.WithContext(ctx).Where("ticket_id = ?", ticket.ID).Order("id asc").Find(&ticket.Details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now().UTC()
	for i := range ticket.Details {
		detail := &ticket.Details[i]
		if !PurchasingDetailMachine.CanTransition(detail.Status, PurchasingDetailStatusCancelled) {
			continue
		}
		oldStatus := detail.Status
		detail.Status = PurchasingDetailStatusCancelled
		detail.CompletedDate = &now
		if err := tx.WithContext(ctx).Model(&PurchasingTicketDetail{}).Where("id = ?", detail.ID).
			Updates(map[string]interface{}{"status": detail.Status, "completed_date": detail.CompletedDate}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := appendStatusLog(ctx, tx, TicketFamilyPurchasing, ticket.ID, &detail.ID, string(oldStatus), string(detail.Status), input.Reason); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Model(&PurchasingTicket{}).Where("id = ?", ticket.ID).
		Update("cancel_reason", input.Reason).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	ticket.CancelReason = input.Reason

	if err := recomputePurchasingTicketStatus(ctx, tx, &ticket); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func CancelPurchasingDetail(ctx context.Context, ticketId, detailId int, input *CancelTicketInput) (*PurchasingTicket, error) {
	if input.Reason == "" {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "cancel reason is required")
	}
	return UpdatePurchasingDetailStatus(ctx, ticketId, detailId, &UpdateDetailStatusInput{
		NewStatus: string(PurchasingDetailStatusCancelled),
		Note:      input.Reason,
	})
}

func GetPurchasingTicket(ctx context.Context, ticketId int) (*PurchasingTicket, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var ticket PurchasingTicket
	err := db.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND id = ?", businessId, ticketId).
		First(&ticket).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "purchasing ticket not found")
		}
		return nil, err
	}
	statuses := make([]PurchasingDetailStatus, len(ticket.Details))
	for i, d := range ticket.Details {
		statuses[i] = d.Status
	}
	if len(statuses) > 0 {
		ticket.CurrentStatus = PurchasingDetailMachine.DeriveParentStatus(statuses)
	}
	return &ticket, nil
}

func GetPurchasingTickets(ctx context.Context) ([]PurchasingTicket, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var tickets []PurchasingTicket
	err := db.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND is_active = ?", businessId, true).
		Order("id desc").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func DeletePurchasingTicket(ctx context.Context, ticketId int) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}

	db := config.GetDB()
	result := db.WithContext(ctx).Model(&PurchasingTicket{}).
		Where("business_id = ? AND id = ?", businessId, ticketId).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NewCodedError(utils.ErrCodeNotFound, "purchasing ticket not found")
	}
	return nil
}
