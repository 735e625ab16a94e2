package coupons

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/models"
)

// Validate checks whether userID may redeem the coupon identified by
// code. It is a pure check with no side effects; consumption happens in
// Consume, inside the order transaction, so an abandoned cart never
// reserves a redemption slot.
func Validate(db *gorm.DB, code string, userID uint) (*models.Coupon, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	var coupon models.Coupon
	err := db.Where("code = ? AND active = ?", normalized, true).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()) {
		return nil, ErrExpired
	}

	if coupon.MaxUses != nil && coupon.CurrentUses >= *coupon.MaxUses {
		return nil, ErrExhausted
	}

	var usage models.CouponUsage
	err = db.Where("coupon_id = ? AND user_id = ?", coupon.ID, userID).First(&usage).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && usage.UsageCount >= coupon.MaxUsesPerUser {
		return nil, ErrUserLimit
	}

	return &coupon, nil
}

// Consume records one redemption for (coupon, user). Both counters are
// advanced with conditional single-statement updates so two concurrent
// checkouts cannot both pass a read-then-write cap check. Call inside
// the order placement transaction.
func Consume(tx *gorm.DB, coupon *models.Coupon, userID uint) error {
	res := tx.Model(&models.Coupon{}).
		Where("id = ? AND active = ? AND (max_uses IS NULL OR current_uses < max_uses)", coupon.ID, true).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrExhausted
	}

	res = tx.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ? AND usage_count < ?", coupon.ID, userID, coupon.MaxUsesPerUser).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// No row advanced: either first use or the per-user cap is hit.
	var existing models.CouponUsage
	err := tx.Where("coupon_id = ? AND user_id = ?", coupon.ID, userID).First(&existing).Error
	if err == nil {
		return ErrUserLimit
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	usage := models.CouponUsage{CouponID: coupon.ID, UserID: userID, UsageCount: 1}
	return tx.Create(&usage).Error
}
