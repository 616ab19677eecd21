package database

import "driveline/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Make{},
		&models.VehicleModel{},
		&models.Listing{},
		&models.Sale{},
		&models.Review{},
	}
}
