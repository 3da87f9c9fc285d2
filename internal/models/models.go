package models

type Book struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Title       string  `gorm:"not null"                  json:"title"`
	Author      string  `gorm:"not null"                  json:"author"`
	ISBN        string  `gorm:"not null;index"            json:"isbn"`
	Description string  `json:"description"`
	ListPrice   float64 `json:"list_price"`
	Price       float64 `gorm:"not null"                  json:"price"`
	ImageURL    string  `json:"image_url"`
	CategoryID  uint    `gorm:"index"                     json:"category_id"`
	CoverTypeID uint    `gorm:"index"                     json:"cover_type_id"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

type CoverType struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

type User struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string `gorm:"unique;not null"          json:"username"`
	PasswordHash  string `gorm:"not null"                 json:"-"`
	Role          string `gorm:"not null"                 json:"role"`
	Name          string `json:"name"`
	PhoneNumber   string `json:"phone_number"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

// CartItem holds at most one row per (user, book) pair; adding the same
// book again increments Count instead of inserting a second row.
type CartItem struct {
	ID     uint `gorm:"primaryKey"                        json:"id"`
	UserID uint `gorm:"index:idx_cart_user_book;not null" json:"user_id"`
	BookID uint `gorm:"index:idx_cart_user_book;not null" json:"book_id"`
	Count  uint `gorm:"default:1;check:count>0"           json:"count"`
}

// OrderHeader carries the order's status, payment and shipping metadata.
// Orders are never deleted, cancellation and refund are status changes.
type OrderHeader struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint `gorm:"index;not null"           json:"user_id"`

	OrderStatus   OrderStatus   `gorm:"not null" json:"order_status"`
	PaymentStatus PaymentStatus `gorm:"not null" json:"payment_status"`

	Name          string `json:"name"`
	PhoneNumber   string `json:"phone_number"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`

	OrderTotal float64 `gorm:"not null" json:"order_total"`

	OrderDate      int64 `gorm:"not null" json:"order_date"`
	ShippingDate   int64 `json:"shipping_date,omitempty"`
	PaymentDueDate int64 `json:"payment_due_date,omitempty"`

	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`

	// opaque handles issued by the payment gateway
	SessionID       string `json:"session_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

// OrderDetail is one purchased line item. Price is the unit price snapshot
// taken at checkout, it does not follow later book price changes.
type OrderDetail struct {
	ID      uint    `gorm:"primaryKey"     json:"id"`
	OrderID uint    `gorm:"index;not null" json:"order_id"`
	BookID  uint    `gorm:"not null"       json:"book_id"`
	Count   uint    `gorm:"not null"       json:"count"`
	Price   float64 `gorm:"not null"       json:"price"`

	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}
