package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"gorm.io/gorm"
)

// Variant is one sellable/consumable item variant. Product and material
// variants share the table; LedgerKind keeps their record spaces separate.
type Variant struct {
	ID         int        `gorm:"primary_key" json:"id"`
	BusinessId string     `gorm:"not null;index:idx_variant_sku,unique,priority:1" json:"business_id"`
	LedgerKind LedgerKind `gorm:"type:enum('product','material');not null;index:idx_variant_sku,unique,priority:2" json:"ledger_kind"`
	Sku        string     `gorm:"size:100;not null;index:idx_variant_sku,unique,priority:3" json:"sku" binding:"required"`
	Name       string     `gorm:"size:255;not null" json:"name" binding:"required"`
	UnitName   string     `gorm:"size:50" json:"unit_name"`
	IsActive   *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewVariant struct {
	LedgerKind LedgerKind `json:"ledger_kind" binding:"required"`
	Sku        string     `json:"sku" binding:"required"`
	Name       string     `json:"name" binding:"required"`
	UnitName   string     `json:"unit_name"`
}

func (v Variant) GetId() int {
	return v.ID
}

func CreateVariant(ctx context.Context, input *NewVariant) (*Variant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Variant{}).
		Where("business_id = ? AND ledger_kind = ? AND sku = ?", businessId, input.LedgerKind, input.Sku).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewCodedError(utils.ErrCodeAlreadyExists, "variant sku already exists")
	}

	variant := Variant{
		BusinessId: businessId,
		LedgerKind: input.LedgerKind,
		Sku:        input.Sku,
		Name:       input.Name,
		UnitName:   input.UnitName,
	}
	if err := db.WithContext(ctx).Create(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

type UpdateVariantInput struct {
	Name     string `json:"name" binding:"required"`
	UnitName string `json:"unit_name"`
	IsActive *bool  `json:"is_active"`
}

// UpdateVariant edits the mutable fields of a variant. The SKU and the
// ledger kind are fixed once created since ledger rows reference them.
func UpdateVariant(ctx context.Context, id int, input *UpdateVariantInput) (*Variant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	variant, err := utils.FetchModel[Variant](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":      input.Name,
		"unit_name": input.UnitName,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(variant).Updates(updates).Error; err != nil {
		return nil, err
	}
	// The cached copy is stale now; drop it so the next read refills.
	if err := utils.RemoveRedis[Variant](id); err != nil {
		return nil, err
	}
	return variant, nil
}

func GetVariant(ctx context.Context, id int) (*Variant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	// redis first, db second, cache result
	cached, err := utils.RetrieveRedis[Variant](id)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		if cached.BusinessId != businessId {
			return nil, errors.New("cannot access resource owned by other business")
		}
		return cached, nil
	}

	result, err := utils.FetchModel[Variant](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[Variant](result, id); err != nil {
		return nil, err
	}
	return result, nil
}

// GetVariantBySku resolves a SKU within one ledger kind.
// (may return RecordNotFound)
func GetVariantBySku(ctx context.Context, kind LedgerKind, sku string) (*Variant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var result Variant
	err := db.WithContext(ctx).
		Where("business_id = ? AND ledger_kind = ? AND sku = ?", businessId, kind, sku).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func GetVariants(ctx context.Context, kind *LedgerKind) ([]*Variant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if kind != nil {
		dbCtx = dbCtx.Where("ledger_kind = ?", *kind)
	}
	var results []*Variant
	if err := dbCtx.Order("sku").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
