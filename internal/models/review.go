package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is a buyer's review of a listing.
type Review struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ListingID uint           `gorm:"not null;index" json:"listing_id"`
	AuthorID  uint           `gorm:"not null;index" json:"author_id"`
	Author    User           `gorm:"foreignKey:AuthorID" json:"author"`
	Rating    int            `gorm:"not null" json:"rating"`
	Comment   string         `gorm:"type:text" json:"comment"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
