package models

import "time"

// SaleStatusSold is the only sale status in the current flow; there is no
// cancellation or refund path.
const SaleStatusSold = "sold"

// Sale records the completed purchase of a listing. The unique index on
// ListingID enforces at most one sale per listing at the database level, so
// concurrent completions cannot both commit.
type Sale struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListingID uint      `gorm:"not null;uniqueIndex" json:"listing_id"`
	BuyerID   uint      `gorm:"not null;index" json:"buyer_id"`
	Buyer     User      `gorm:"foreignKey:BuyerID" json:"buyer"`
	Status    string    `gorm:"not null;default:sold" json:"status"`
	SoldAt    time.Time `gorm:"not null" json:"sold_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
