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

// SaleOrder tracks outbound product fulfilment. Same derived-status rules as
// the other two ticket families, with the sale transition table.
type SaleOrder struct {
	ID            int               `gorm:"primary_key" json:"id"`
	BusinessId    string            `gorm:"index;not null" json:"business_id"`
	Name          string            `gorm:"size:255;not null" json:"name"`
	CurrentStatus TicketStatus      `gorm:"type:enum('NEW','IN_PROGRESS','PARTIAL_COMPLETE','PARTIAL_CANCELLED','COMPLETE','CANCELLED');not null" json:"current_status"`
	CancelReason  string            `gorm:"size:255" json:"cancel_reason"`
	IsActive      *bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedBy     int               `gorm:"not null" json:"created_by"`
	CreatedByName string            `gorm:"size:100" json:"created_by_name"`
	CreatedByRole string            `gorm:"size:50" json:"created_by_role"`
	Details       []SaleOrderDetail `gorm:"foreignKey:TicketId" json:"details"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type SaleOrderDetail struct {
	ID            int                   `gorm:"primary_key" json:"id"`
	BusinessId    string                `gorm:"index;not null" json:"business_id"`
	TicketId      int                   `gorm:"index;not null" json:"ticket_id"`
	VariantId     int                   `gorm:"index;not null" json:"variant_id"`
	VariantSku    string                `gorm:"size:100;not null" json:"variant_sku"`
	Quantity      decimal.Decimal       `gorm:"type:decimal(20,4)" json:"quantity"`
	Status        SaleOrderDetailStatus `gorm:"type:enum('NEW','ALLOCATED','PACKED','SHIPPED','DONE','CANCELLED');not null" json:"status"`
	ExpectedDate  *time.Time            `json:"expected_date"`
	CompletedDate *time.Time            `json:"completed_date"`
	Note          string                `gorm:"size:255" json:"note"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t SaleOrder) GetId() int {
	return t.ID
}

type SaleOrderBulkCreateResult struct {
	CreatedTickets []SaleOrder `json:"created_tickets"`
	Errors         []string    `json:"errors"`
	TotalRequested int         `json:"total_requested"`
	TotalCreated   int         `json:"total_created"`
	TotalFailed    int         `json:"total_failed"`
}

func BulkCreateSaleOrders(ctx context.Context, input *BulkCreateTicketInput) (*SaleOrderBulkCreateResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if input.Name == "" {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "order name is required")
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

	result := &SaleOrderBulkCreateResult{
		CreatedTickets: []SaleOrder{},
		Errors:         []string{},
		TotalRequested: len(input.LineItems),
	}

	var details []SaleOrderDetail
	for _, line := range input.LineItems {
		variantId, err := validateTicketLine(ctx, LedgerKindProduct, line)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		details = append(details, SaleOrderDetail{
			BusinessId:   businessId,
			VariantId:    variantId,
			VariantSku:   line.VariantSku,
			Quantity:     line.Quantity,
			Status:       SaleOrderDetailMachine.Initial,
			ExpectedDate: line.ExpectedDate,
			Note:         line.Note,
		})
	}
	result.TotalFailed = len(result.Errors)

	if len(details) == 0 {
		return result, nil
	}

	order := SaleOrder{
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
	if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := appendStatusLog(ctx, tx, TicketFamilySale, order.ID, nil, "", string(TicketStatusNew), "order created"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	result.CreatedTickets = append(result.CreatedTickets, order)
	result.TotalCreated = len(order.Details)
	return result, nil
}

func UpdateSaleOrderDetailStatus(ctx context.Context, orderId, detailId int, input *UpdateDetailStatusInput) (*SaleOrder, error) {
	newStatus, ok := saleOrderDetailStatusValues[input.NewStatus]
	if !ok {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, fmt.Sprintf("unknown sale order detail status %q", input.NewStatus))
	}

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()

	var order SaleOrder
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND id = ?", businessId, orderId).
		First(&order).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "sale order not found")
		}
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("ticket_id = ?", order.ID).Order("id asc").Find(&order.Details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var detail *SaleOrderDetail
	for i := range order.Details {
		if order.Details[i].ID == detailId {
			detail = &order.Details[i]
			break
		}
	}
	if detail == nil {
		tx.Rollback()
		return nil, utils.NewCodedError(utils.ErrCodeNotFound, "sale order detail not found")
	}

	oldStatus := detail.Status
	if err := SaleOrderDetailMachine.Validate(oldStatus, newStatus); err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{"status": newStatus}
	if SaleOrderDetailMachine.IsTerminal(newStatus) {
		now := time.Now().UTC()
		detail.CompletedDate = &now
		updates["completed_date"] = detail.CompletedDate
	}
	detail.Status = newStatus
	if err := tx.WithContext(ctx).Model(&SaleOrderDetail{}).Where("id = ?", detail.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := appendStatusLog(ctx, tx, TicketFamilySale, order.ID, &detail.ID, string(oldStatus), string(newStatus), input.Note); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := recomputeSaleOrderStatus(ctx, tx, &order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func recomputeSaleOrderStatus(ctx context.Context, tx *gorm.DB, order *SaleOrder) error {
	statuses := make([]SaleOrderDetailStatus, len(order.Details))
	for i, d := range order.Details {
		statuses[i] = d.Status
	}
	derived := SaleOrderDetailMachine.DeriveParentStatus(statuses)
	if derived == order.CurrentStatus {
		return nil
	}
	oldStatus := order.CurrentStatus
	order.CurrentStatus = derived
	if err := tx.WithContext(ctx).Model(&SaleOrder{}).Where("id = ?", order.ID).
		Update("current_status", derived).Error; err != nil {
		return err
	}
	return appendStatusLog(ctx, tx, TicketFamilySale, order.ID, nil, string(oldStatus), string(derived), "cascaded from detail change")
}

func CancelSaleOrder(ctx context.Context, orderId int, input *CancelTicketInput) (*SaleOrder, error) {
	if input.Reason == "" {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "cancel reason is required")
	}
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()

	var order SaleOrder
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND id = ?", businessId, orderId).
		First(&order).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "sale order not found")
		}
		return nil, err
	}
	if order.CurrentStatus == TicketStatusCancelled || order.CurrentStatus == TicketStatusComplete {
		tx.Rollback()
		return nil, utils.NewCodedError(utils.ErrCodeIllegalTransition, fmt.Sprintf("order is already %s", order.CurrentStatus))
	}
	if err := tx.WithContext(ctx).Where("ticket_id = ?", order.ID).Order("id asc").Find(&order.Details).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now().UTC()
	for i := range order.Details {
		detail := &order.Details[i]
		if !SaleOrderDetailMachine.CanTransition(detail.Status, SaleOrderDetailStatusCancelled) {
			continue
		}
		oldStatus := detail.Status
		detail.Status = SaleOrderDetailStatusCancelled
		detail.CompletedDate = &now
		if err := tx.WithContext(ctx).Model(&SaleOrderDetail{}).Where("id = ?", detail.ID).
			Updates(map[string]interface{}{"status": detail.Status, "completed_date": detail.CompletedDate}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := appendStatusLog(ctx, tx, TicketFamilySale, order.ID, &detail.ID, string(oldStatus), string(detail.Status), input.Reason); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Model(&SaleOrder{}).Where("id = ?", order.ID).
		Update("cancel_reason", input.Reason).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	order.CancelReason = input.Reason

	if err := recomputeSaleOrderStatus(ctx, tx, &order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func CancelSaleOrderDetail(ctx context.Context, orderId, detailId int, input *CancelTicketInput) (*SaleOrder, error) {
	if input.Reason == "" {
		return nil, utils.NewCodedError(utils.ErrCodeInvalidRequest, "cancel reason is required")
	}
	return UpdateSaleOrderDetailStatus(ctx, orderId, detailId, &UpdateDetailStatusInput{
		NewStatus: string(SaleOrderDetailStatusCancelled),
		Note:      input.Reason,
	})
}

func GetSaleOrder(ctx context.Context, orderId int) (*SaleOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var order SaleOrder
	err := db.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND id = ?", businessId, orderId).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewCodedError(utils.ErrCodeNotFound, "sale order not found")
		}
		return nil, err
	}
	statuses := make([]SaleOrderDetailStatus, len(order.Details))
	for i, d := range order.Details {
		statuses[i] = d.Status
	}
	if len(statuses) > 0 {
		order.CurrentStatus = SaleOrderDetailMachine.DeriveParentStatus(statuses)
	}
	return &order, nil
}

func GetSaleOrders(ctx context.Context) ([]SaleOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var orders []SaleOrder
	err := db.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND is_active = ?", businessId, true).
		Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func DeleteSaleOrder(ctx context.Context, orderId int) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}

	db := config.GetDB()
	result := db.WithContext(ctx).Model(&SaleOrder{}).
		Where("business_id = ? AND id = ?", businessId, orderId).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NewCodedError(utils.ErrCodeNotFound, "sale order not found")
	}
	return nil
}
