package seed

import (
	"fmt"

	"driveline/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInCategory is a permanent vehicle category.
type BuiltInCategory struct {
	Name string
	Slug string
}

// BuiltInCategories defines the permanent vehicle categories.
var BuiltInCategories = []BuiltInCategory{
	{Name: "Cars", Slug: "cars"},
	{Name: "Motorcycles", Slug: "motorcycles"},
	{Name: "Trucks", Slug: "trucks"},
	{Name: "Vans", Slug: "vans"},
}

// BuiltInMake is a vehicle manufacturer with its known model lineup.
type BuiltInMake struct {
	Name   string
	Models []string
}

// BuiltInMakes defines the manufacturers and models available at launch.
// Admins can extend the catalog through the admin API afterwards.
var BuiltInMakes = []BuiltInMake{
	{Name: "Toyota", Models: []string{"Corolla", "Camry", "RAV4", "Hilux", "Land Cruiser", "Yaris"}},
	{Name: "Honda", Models: []string{"Civic", "Accord", "CR-V", "Fit", "CB500F"}},
	{Name: "Ford", Models: []string{"Focus", "Fiesta", "Mustang", "F-150", "Ranger", "Transit"}},
	{Name: "Volkswagen", Models: []string{"Golf", "Passat", "Polo", "Tiguan", "Transporter"}},
	{Name: "BMW", Models: []string{"3 Series", "5 Series", "X3", "X5", "R 1250 GS"}},
	{Name: "Mercedes-Benz", Models: []string{"C-Class", "E-Class", "GLC", "Sprinter", "Vito"}},
	{Name: "Audi", Models: []string{"A3", "A4", "A6", "Q5", "Q7"}},
	{Name: "Hyundai", Models: []string{"i30", "Elantra", "Tucson", "Santa Fe"}},
	{Name: "Kia", Models: []string{"Ceed", "Sportage", "Sorento", "Rio"}},
	{Name: "Mazda", Models: []string{"3", "6", "CX-5", "MX-5"}},
	{Name: "Nissan", Models: []string{"Qashqai", "X-Trail", "Leaf", "Navara"}},
	{Name: "Tesla", Models: []string{"Model 3", "Model Y", "Model S"}},
	{Name: "Skoda", Models: []string{"Octavia", "Fabia", "Superb", "Kodiaq"}},
	{Name: "Yamaha", Models: []string{"MT-07", "MT-09", "Tracer 9", "R1"}},
	{Name: "Harley-Davidson", Models: []string{"Sportster S", "Street Glide", "Fat Boy"}},
}

// Catalog seeds the built-in categories, makes, and models. Safe to run on
// every boot: existing rows are matched by their unique columns and updated
// in place, never duplicated.
func Catalog(db *gorm.DB) error {
	for _, item := range BuiltInCategories {
		category := models.Category{Name: item.Name, Slug: item.Slug}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&category).Error
		if err != nil {
			return fmt.Errorf("seed category %s: %w", item.Slug, err)
		}
	}

	for _, item := range BuiltInMakes {
		err := db.Transaction(func(tx *gorm.DB) error {
			mk := models.Make{Name: item.Name}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&mk).Error; err != nil {
				return err
			}
			if mk.ID == 0 {
				if err := tx.Where("name = ?", item.Name).First(&mk).Error; err != nil {
					return err
				}
			}

			for _, name := range item.Models {
				var count int64
				if err := tx.Model(&models.VehicleModel{}).
					Where("make_id = ? AND name = ?", mk.ID, name).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					continue
				}
				model := models.VehicleModel{MakeID: mk.ID, Name: name}
				if err := tx.Create(&model).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("seed make %s: %w", item.Name, err)
		}
	}

	return nil
}
