package models

import "time"

// Category is a top-level vehicle category (cars, motorcycles, trucks, ...).
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Slug      string    `gorm:"unique;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Make is a vehicle manufacturer.
type Make struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"unique;not null" json:"name"`
	Models    []VehicleModel `gorm:"foreignKey:MakeID" json:"models,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// VehicleModel is a model belonging to a make.
type VehicleModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MakeID    uint      `gorm:"not null;index" json:"make_id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name aligned with the rest of the schema; GORM
// would otherwise pluralize to "vehicle_models" anyway, but the explicit name
// documents the mapping for the SQL migrations.
func (VehicleModel) TableName() string {
	return "vehicle_models"
}
