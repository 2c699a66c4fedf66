package models

import (
	"time"
)

type Product struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"      json:"id"`
	SKU         string     `gorm:"uniqueIndex;size:64"           json:"sku"`
	Name        string     `gorm:"not null"                      json:"name"`
	Description string     `gorm:"not null"                      json:"description"`
	Price       float64    `gorm:"not null"                      json:"price"`
	Stock       uint       `json:"stock"`
	Categories  []Category `gorm:"many2many:product_categories"  json:"categories,omitempty"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

// Inventory holds optional per-SKU stock rows. Older deployments never
// ran this migration, so checkout probes for the table before touching it.
type Inventory struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"index;not null"           json:"product_id"`
	SKU       string `gorm:"uniqueIndex;size:64"      json:"sku"`
	Stock     int    `gorm:"not null"                 json:"stock"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                 json:"id"`
	UserID    uint `gorm:"index;not null"             json:"user_id"`
	ProductID uint `gorm:"not null"                   json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0" json:"quantity"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID              uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint    `gorm:"index;not null"           json:"user_id"`
	Total           float64 `gorm:"not null"                 json:"total"`
	Status          string  `gorm:"not null"                 json:"status"`
	ShippingAddress string  `json:"shipping_address"`
	CreatedAt       int64   `json:"created_at"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"index;not null"           json:"order_id"`
	UserID    uint    `gorm:"index;not null"           json:"user_id"`
	ProductID uint    `gorm:"not null"                 json:"product_id"`
	Quantity  uint    `gorm:"not null"                 json:"quantity"`
	UnitPrice float64 `gorm:"not null"                 json:"unit_price"`
}

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

type Payment struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     uint    `gorm:"index;not null"           json:"order_id"`
	Method      string  `gorm:"not null"                 json:"method"`
	ProviderRef string  `gorm:"index"                    json:"provider_ref"`
	Amount      float64 `gorm:"not null"                 json:"amount"`
	Status      string  `gorm:"not null"                 json:"status"`
	CreatedAt   int64   `json:"created_at"`
}

type Review struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"                     json:"id"`
	ProductID uint   `gorm:"not null;uniqueIndex:idx_review_user_product" json:"product_id"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_review_user_product" json:"user_id"`
	Rating    int    `gorm:"not null;check:rating >= 1 AND rating <= 5"   json:"rating"`
	Comment   string `gorm:"size:2048"                                    json:"comment"`
	CreatedAt int64  `json:"created_at"`
}

const (
	TicketStatusOpen    = "open"
	TicketStatusPending = "pending"
	TicketStatusClosed  = "closed"
)

type SupportTicket struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference string `gorm:"uniqueIndex;size:36"      json:"reference"`
	UserID    uint   `gorm:"index;not null"           json:"user_id"`
	Subject   string `gorm:"not null"                 json:"subject"`
	Status    string `gorm:"not null"                 json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type SupportMessage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketID  uint   `gorm:"index;not null"           json:"ticket_id"`
	UserID    uint   `gorm:"not null"                 json:"user_id"`
	Body      string `gorm:"size:4096;not null"       json:"body"`
	CreatedAt int64  `json:"created_at"`
}

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Role      string    `gorm:"size:16;not null"         json:"role"`
	Content   string    `gorm:"size:4096;not null"       json:"content"`
	CreatedAt time.Time `gorm:"index"                    json:"created_at"`
}

type AuditLog struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   uint   `gorm:"index"                    json:"actor_id"`
	Action    string `gorm:"index;not null"           json:"action"`
	Entity    string `gorm:"size:64"                  json:"entity"`
	EntityID  uint   `json:"entity_id"`
	Detail    string `gorm:"size:2048"                json:"detail"`
	CreatedAt int64  `json:"created_at"`
}
