package models

import (
	"time"
)

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string  `gorm:"not null"                  json:"name"`
	Description string  `gorm:"not null"                  json:"description"`
	Price       float64 `gorm:"not null"                  json:"price"`
	Stock       uint    `json:"stock"`
	Category    string  `gorm:"index"                     json:"category"`
	Active      bool    `gorm:"default:true"              json:"active"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type Profile struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint   `gorm:"uniqueIndex;not null"     json:"user_id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	JTI       string `gorm:"index"               json:"jti"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// One row per (user, product): adding an existing product merges into the
// row, quantity zero deletes it.
type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement"                   json:"id"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"                 json:"quantity"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string     `gorm:"unique;not null"          json:"code"`
	DiscountType   string     `gorm:"not null"                 json:"discount_type"`
	DiscountValue  float64    `gorm:"not null"                 json:"discount_value"`
	MaxUses        *uint      `json:"max_uses"`
	MaxUsesPerUser uint       `gorm:"default:1"                json:"max_uses_per_user"`
	CurrentUses    uint       `gorm:"default:0"                json:"current_uses"`
	Active         bool       `gorm:"default:true"             json:"active"`
	ExpiresAt      *time.Time `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Per-(coupon,user) redemption ledger backing the per-user cap.
type CouponUsage struct {
	ID         uint `gorm:"primaryKey;autoIncrement"                   json:"id"`
	CouponID   uint `gorm:"not null;uniqueIndex:idx_coupon_usage_pair" json:"coupon_id"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_coupon_usage_pair" json:"user_id"`
	UsageCount uint `gorm:"default:0"                                  json:"usage_count"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"index;not null"           json:"user_id"`
	Total      float64   `gorm:"not null"                 json:"total"`
	Discount   float64   `gorm:"default:0"                json:"discount"`
	FinalTotal float64   `gorm:"not null"                 json:"final_total"`
	CouponCode *string   `json:"coupon_code"`
	Status     string    `gorm:"not null;default:pending" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Price is the product price at purchase time and never tracks later
// catalog edits.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"index;not null"           json:"order_id"`
	ProductID uint    `gorm:"not null"                 json:"product_id"`
	Quantity  uint    `gorm:"not null"                 json:"quantity"`
	Price     float64 `gorm:"not null"                 json:"price"`
}

const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint      `gorm:"index;not null"           json:"user_id"`
	TutorName       string    `gorm:"not null"                 json:"tutor_name"`
	PetName         string    `gorm:"not null"                 json:"pet_name"`
	Phone           string    `gorm:"not null"                 json:"phone"`
	Service         string    `gorm:"not null"                 json:"service"`
	AppointmentDate time.Time `gorm:"not null"                 json:"appointment_date"`
	Status          string    `gorm:"not null;default:pending" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type Pet struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"index;not null"           json:"user_id"`
	Name      string     `gorm:"not null"                 json:"name"`
	Species   string     `gorm:"not null"                 json:"species"`
	Breed     string     `json:"breed"`
	BirthDate *time.Time `json:"birth_date"`
}

type WebhookConfig struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	URL       string    `gorm:"not null"                 json:"url"`
	Active    bool      `gorm:"default:true"             json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped"

	DeliveryKindBooking = "booking"
	DeliveryKindStatus  = "status"
)

// Outbox row: written in the same transaction as the booking or status
// change, picked up by the webhook dispatcher.
type WebhookDelivery struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	AppointmentID uint      `gorm:"index;not null"                 json:"appointment_id"`
	Kind          string    `gorm:"not null"                       json:"kind"`
	StatusLabel   string    `json:"status_label"`
	Attempts      uint      `gorm:"default:0"                      json:"attempts"`
	State         string    `gorm:"not null;default:pending;index" json:"state"`
	CreatedAt     time.Time `json:"created_at"`
}

// Append-only audit trail of outbound notification attempts.
type WebhookLog struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AppointmentID *uint     `gorm:"index"                    json:"appointment_id"`
	Status        string    `gorm:"not null"                 json:"status"`
	Response      string    `json:"response"`
	CreatedAt     time.Time `json:"created_at"`
}
