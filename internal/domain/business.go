package domain

import (
	"time"
)

// ApprovalStatus is the moderation state of a business listing.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// SaleStatus records whether a listing has been sold.
type SaleStatus string

const (
	Unsold SaleStatus = "unsold"
	Sold   SaleStatus = "sold"
)

// Business is a listing offered on the marketplace. ID is the internal key;
// ListingID is the public identifier used in URLs.
type Business struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ListingID       string          `gorm:"column:listing_id;type:varchar(64);not null;uniqueIndex" json:"listing_id"`
	BusinessName    string          `gorm:"column:business_name;not null;uniqueIndex" json:"business_name"`
	BusinessYear    string          `gorm:"column:business_year;type:char(4);not null" json:"business_year"`
	BusinessType    string          `gorm:"column:business_type;not null" json:"business_type"`
	BusinessNumber  string          `gorm:"column:business_number;not null;uniqueIndex" json:"business_number"`
	CategoryID      uint            `gorm:"column:category_id;not null;index" json:"category_id"`
	PropertyID      uint            `gorm:"column:property_id;not null" json:"property_id"`
	Age             string          `gorm:"column:age;not null" json:"age"`
	Description     string          `gorm:"column:description;type:text;not null" json:"description"`
	Staffs          int             `gorm:"column:staffs;not null" json:"staffs"`
	Address         *string         `gorm:"column:address" json:"address"`
	Lga             *string         `gorm:"column:lga" json:"lga"`
	City            *string         `gorm:"column:city" json:"city"`
	State           *string         `gorm:"column:state" json:"state"`
	Country         *string         `gorm:"column:country" json:"country"`
	Landmark        *string         `gorm:"column:landmark" json:"landmark"`
	TransactionType TransactionType `gorm:"column:transaction_type;type:varchar(20);not null;index" json:"transaction_type"`
	Price           float64         `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	ProfitMargin    float64         `gorm:"column:profit_margin;type:decimal(18,2);not null" json:"profit_margin"`
	Ends            *time.Time      `gorm:"column:ends" json:"ends"`
	Status          ApprovalStatus  `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	BusinessStatus  SaleStatus      `gorm:"column:business_status;type:varchar(20);not null;default:'unsold'" json:"business_status"`
	BusinessState   bool            `gorm:"column:business_state;not null" json:"business_state"`
	UserID          uint            `gorm:"column:user_id;not null;index" json:"user_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Owner    *User     `gorm:"foreignKey:UserID" json:"owner,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Images   []Image   `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Watchers []User    `gorm:"many2many:business_watchers" json:"watchers,omitempty"`
}

func (Business) TableName() string {
	return "businesses"
}

// Visible reports whether the listing may appear on public browse and search pages.
func (b *Business) Visible() bool {
	return b.Status == StatusApproved && b.BusinessStatus == Unsold && b.BusinessState
}

// Image is a photo owned by exactly one business.
type Image struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusinessID uint      `gorm:"column:business_id;not null;index" json:"business_id"`
	URL        string    `gorm:"column:url;type:text;not null" json:"url"`
	Path       string    `gorm:"column:path;type:text;not null" json:"path"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Image) TableName() string {
	return "images"
}
