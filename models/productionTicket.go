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

// ProductionTicket groups the product variants one manufacturing run should
// produce. Its CurrentStatus is never set by a caller; it is always derived
// from the detail statuses (see StatusMachine.DeriveParentStatus) and stored
// only as a denormalized read value.
type ProductionTicket struct {
	ID            int                      `gorm:"primary_key" json:"id"`
	BusinessId    string                   `gorm:"index;not null" json:"business_id"`
	Name          string                   `gorm:"size:255;not null" json:"name"`
	CurrentStatus TicketStatus             `gorm:"type:enum('NEW','IN_PROGRESS','PARTIAL_COMPLETE','PARTIAL_CANCELLED','COMPLETE','CANCELLED');not null" json:"current_status"`
	CancelReason  string                   `gorm:"size:255" json:"cancel_reason"`
	IsActive      *bool                    `gorm:"not null;default:true" json:"is_active"`
	CreatedBy     int                      `gorm:"not null" json:"created_by"`
	CreatedByName string                   `gorm:"size:100" json:"created_by_name"`
	CreatedByRole string                   `gorm:"size:50" json:"created_by_role"`
	Details       []ProductionTicketDetail `gorm:"foreignKey:TicketId" json:"details"`
	CreatedAt     time.Time                `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
}

type ProductionTicketDetail struct {
	ID            int                    `gorm:"primary_key" json:"id"`
	BusinessId    string                 `gorm:"index;not null" json:"business_id"`
	TicketId      int                    `gorm:"index;not null" json:"ticket_id"`
	VariantId     int                    `gorm:"index;not null" json:"variant_id"`
	VariantSku    string                 `gorm:"size:100;not null" json:"variant_sku"`
	Quantity      decimal.Decimal        `gorm:"type:decimal(20,4)" json:"quantity"`
	Status        ProductionDetailStatus `gorm:"type:enum('NEW','APPROVAL','COMPLETE','READY','CLOSED','CANCELLED');not null" json:"status"`
	ExpectedDate  *time.Time             `json:"expected_date"`
	CompletedDate *time.Time             `json:"completed_date"`
	Note          string                 `gorm:"size:255" json:"note"`
	CreatedAt     time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t ProductionTicket) GetId() int {
	return t.ID
}

type ProductionBulkCreateResult struct {
	CreatedTickets []ProductionTicket `json:"created_tickets"`
	Errors         []string           `json:"errors"`
	TotalRequested int                `json:"total_requested"`
	TotalCreated   int                `json:"total_created"`
	TotalFailed    int                `json:"total_failed"`
}

// BulkCreateProductionTickets creates one ticket holding every line that
// passes validation. Failing lines are reported as messages and dropped;
// the call only fails outright when the request itself is malformed.
func BulkCreateProductionTickets(ctx context.Context, input *BulkCreateTicketInput) (*ProductionBulkCreateResult, error) {
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

	result := &ProductionBulkCreateResult{
		CreatedTickets: []ProductionTicket{},
		Errors:         []string{},
		TotalRequested: len(input.LineItems),
	}

	var details []ProductionTicketDetail
	for _, line := range input.LineItems {
		variantId, err := validateTicketLine(ctx, LedgerKindProduct, line)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		details = append(details, ProductionTicketDetail{
			BusinessId:   businessId,
			VariantId:    variantId,
			VariantSku:   line.VariantSku,
			Quantity:     line.Quantity,
			Status:       ProductionDetailMachine.Initial,
			ExpectedDate: line.ExpectedDate,
			Note:         line.Note,
		})
	}
	result.TotalFailed = len(result.Errors)

	if len(details) == 0 {
		return result, nil
	}

	ticket := ProductionTicket{
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
	if err := appendStatusLog(ctx, tx, TicketFamilyProduction, ticket.ID, nil, "", string(TicketStatusNew), "ticket created"); err != nil {
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

// UpdateProductionDetailStatus advances one detail through the production
// transition table and cascades the change into the parent ticket status.
func UpdateProductionDetailStatus(ctx context.Context, ticketId, detailId int, input *UpdateDetailStatusInput) (*ProductionTicket, error) {
	newStatus, ok := productionDetailStatusValues[input.NewStatus]
	if !ok {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, fmt.Sprintf("unknown production detail status %q", input.NewStatus))
	}

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()

	var ticket ProductionTicket
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND id = ?", businessId, ticketId).
		First(&ticket).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "production ticket not found")
		}
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("ticket_id = ?", ticket.ID).Order("id asc").Find(&ticket.Details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var detail *ProductionTicketDetail
	for i := range ticket.Details {
		if ticket.Details[i].ID == detailId {
			detail = &ticket.Details[i]
			break
		}
	}
	if detail == nil {
		tx.Rollback()
		return nil, utils.NewCodedError(utils.ErrCodeNotFound, "production ticket detail not found")
	}

	oldStatus := detail.Status
	if err := ProductionDetailMachine.Validate(oldStatus, newStatus); err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{"status": newStatus}
	if ProductionDetailMachine.IsTerminal(newStatus) {
		now := time.Now().UTC()
		detail.CompletedDate = &now
		updates["completed_date"] = detail.CompletedDate
	}
	detail.Status = newStatus
	if err := tx.WithContext(ctx).Model(&ProductionTicketDetail{}).Where("id = ?", detail.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := appendStatusLog(ctx, tx, TicketFamilyProduction, ticket.ID, &detail.ID, string(oldStatus), string(newStatus), input.Note); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := recomputeProductionTicketStatus(ctx, tx, &ticket); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// recomputeProductionTicketStatus re-derives the parent status from the
// in-memory details and persists it when it changed, with an audit row.
func recomputeProductionTicketStatus(ctx context.Context, tx *gorm.DB, ticket *ProductionTicket) error {
	statuses := make([]ProductionDetailStatus, len(ticket.Details))
	for i, d := range ticket.Details {
		statuses[i] = d.Status
	}
	derived := ProductionDetailMachine.DeriveParentStatus(statuses)
	if derived == ticket.CurrentStatus {
		return nil
	}
	oldStatus := ticket.CurrentStatus
	ticket.CurrentStatus = derived
	if err := tx.WithContext(ctx).Model(&ProductionTicket{}).Where("id = ?", ticket.ID).
		Update("current_status", derived).Error; err != nil {
		return err
	}
	return appendStatusLog(ctx, tx, TicketFamilyProduction, ticket.ID, nil, string(oldStatus), string(derived), "cascaded from detail change")
}

// CancelProductionTicket cancels every detail whose current status still
// allows it, then re-derives the parent. Details already in a terminal state
// keep it; the cascade never forces an illegal transition.
func CancelProductionTicket(ctx context.Context, ticketId int, input *CancelTicketInput) (*ProductionTicket, error) {
	if input.Reason == "" {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "cancel reason is required")
	}
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()

	var ticket ProductionTicket
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND id = ?", businessId, ticketId).
		First(&ticket).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "production ticket not found")
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
		if !ProductionDetailMachine.CanTransition(detail.Status, ProductionDetailStatusCancelled) {
			continue
		}
		oldStatus := detail.Status
		detail.Status = ProductionDetailStatusCancelled
		detail.CompletedDate = &now
		if err := tx.WithContext(ctx).Model(&ProductionTicketDetail{}).Where("id = ?", detail.ID).
			Updates(map[string]interface{}{"status": detail.Status, "completed_date": detail.CompletedDate}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := appendStatusLog(ctx, tx, TicketFamilyProduction, ticket.ID, &detail.ID, string(oldStatus), string(detail.Status), input.Reason); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Model(&ProductionTicket{}).Where("id = ?", ticket.ID).
		Update("cancel_reason", input.Reason).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	ticket.CancelReason = input.Reason

	if err := recomputeProductionTicketStatus(ctx, tx, &ticket); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CancelProductionDetail is the single-detail form of the cancel cascade.
func CancelProductionDetail(ctx context.Context, ticketId, detailId int, input *CancelTicketInput) (*ProductionTicket, error) {
	if input.Reason == "" {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "cancel reason is required")
	}
	return UpdateProductionDetailStatus(ctx, ticketId, detailId, &UpdateDetailStatusInput{
		NewStatus: string(ProductionDetailStatusCancelled),
		Note:      input.Reason,
	})
}

// GetProductionTicket loads one ticket with its details. The stored parent
// status is replaced by a fresh derivation before returning.
func GetProductionTicket(ctx context.Context, ticketId int) (*ProductionTicket, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var ticket ProductionTicket
	err := db.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND id = ?", businessId, ticketId).
		First(&ticket).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "production ticket not found")
		}
		return nil, err
	}
	statuses := make([]ProductionDetailStatus, len(ticket.Details))
	for i, d := range ticket.Details {
		statuses[i] = d.Status
	}
	if len(statuses) > 0 {
		ticket.CurrentStatus = ProductionDetailMachine.DeriveParentStatus(statuses)
	}
	return &ticket, nil
}

func GetProductionTickets(ctx context.Context) ([]ProductionTicket, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var tickets []ProductionTicket
	err := db.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND is_active = ?", businessId, true).
		Order("id desc").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// DeleteProductionTicket retires a ticket without touching history. Rows are
// kept; only the active flag flips.
func DeleteProductionTicket(ctx context.Context, ticketId int) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}

	db := config.GetDB()
	result := db.WithContext(ctx).Model(&ProductionTicket{}).
		Where("business_id = ? AND id = ?", businessId, ticketId).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NewCodedError(utils.ErrCodeNotFound, "production ticket not found")
	}
	return nil
}
