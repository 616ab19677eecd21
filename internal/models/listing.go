package models

import (
	"time"

	"gorm.io/gorm"
)

// ListingStatus is the closed set of listing lifecycle states. The tombstone
// (soft delete) is orthogonal and carried by DeletedAt.
type ListingStatus string

const (
	ListingStatusActive ListingStatus = "active"
	ListingStatusSold   ListingStatus = "sold"
)

// Transmission values accepted for a listing.
const (
	TransmissionManual    = "manual"
	TransmissionAutomatic = "automatic"
	TransmissionCVT       = "cvt"
	TransmissionSemiAuto  = "semi-automatic"
)

// Fuel type values accepted for a listing.
const (
	FuelPetrol   = "petrol"
	FuelDiesel   = "diesel"
	FuelHybrid   = "hybrid"
	FuelElectric = "electric"
	FuelLPG      = "lpg"
)

// Condition values accepted for a listing.
const (
	ConditionNew     = "new"
	ConditionUsed    = "used"
	ConditionDamaged = "damaged"
)

// BodyTypes is the accepted set of body type values.
var BodyTypes = []string{
	"sedan", "hatchback", "suv", "coupe", "wagon", "pickup",
	"van", "convertible", "minivan", "motorcycle", "other",
}

// Transmissions is the accepted set of transmission values.
var Transmissions = []string{
	TransmissionManual, TransmissionAutomatic, TransmissionCVT, TransmissionSemiAuto,
}

// FuelTypes is the accepted set of fuel type values.
var FuelTypes = []string{FuelPetrol, FuelDiesel, FuelHybrid, FuelElectric, FuelLPG}

// Conditions is the accepted set of condition values.
var Conditions = []string{ConditionNew, ConditionUsed, ConditionDamaged}

// Listing represents a vehicle-for-sale record.
type Listing struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	OwnerID      uint          `gorm:"not null;index" json:"owner_id"`
	Owner        User          `gorm:"foreignKey:OwnerID" json:"owner"`
	CategoryID   uint          `gorm:"not null;index" json:"category_id"`
	MakeID       uint          `gorm:"not null;index" json:"make_id"`
	ModelID      uint          `gorm:"not null;index" json:"model_id"`
	Title        string        `gorm:"not null" json:"title"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	Price        float64       `gorm:"not null" json:"price"`
	Year         int           `gorm:"not null" json:"year"`
	Mileage      int           `json:"mileage"`
	Color        string        `json:"color"`
	Transmission string        `json:"transmission"`
	FuelType     string        `json:"fuel_type"`
	BodyType     string        `json:"body_type"`
	Condition    string        `json:"condition"`
	City         string        `gorm:"index" json:"city"`
	Features     []string      `gorm:"serializer:json" json:"features"`
	Images       []string      `gorm:"serializer:json" json:"images"`
	Thumbnail    string        `json:"thumbnail"`
	Featured     bool          `gorm:"default:false;index" json:"featured"`
	Status       ListingStatus `gorm:"not null;default:active;index" json:"status"`
	Sale         *Sale         `gorm:"foreignKey:ListingID" json:"sale,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkSold transitions the listing from active to sold. The transition is
// one-way; any other transition is rejected.
func (l *Listing) MarkSold() error {
	if l.Status != ListingStatusActive {
		return NewAlreadySoldError(l.ID)
	}
	l.Status = ListingStatusSold
	return nil
}
