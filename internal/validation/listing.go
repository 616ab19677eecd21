// Package validation holds field-level validators shared by services and
// handlers.
package validation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"driveline/internal/models"
)

const (
	titleMinLength       = 3
	titleMaxLength       = 120
	descriptionMaxLength = 10000
	listingMinYear       = 1900
	listingMaxPrice      = 100_000_000
	listingMaxMileage    = 5_000_000
	maxFeatures          = 30
)

// ListingInput carries the writable listing fields for validation.
type ListingInput struct {
	Title        string
	Description  string
	Price        float64
	Year         int
	Mileage      int
	Transmission string
	FuelType     string
	BodyType     string
	Condition    string
	Features     []string
}

// ValidateListing checks a listing's writable fields against the accepted
// ranges and enum sets. Optional enum fields may be empty.
func ValidateListing(in ListingInput) error {
	if l := len(strings.TrimSpace(in.Title)); l < titleMinLength || l > titleMaxLength {
		return fmt.Errorf("title must be %d-%d characters", titleMinLength, titleMaxLength)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("description cannot be blank")
	}
	if len(in.Description) > descriptionMaxLength {
		return fmt.Errorf("description must be at most %d characters", descriptionMaxLength)
	}
	if in.Price < 0 || in.Price > listingMaxPrice {
		return fmt.Errorf("price must be non-negative and at most %d", listingMaxPrice)
	}
	if maxYear := time.Now().Year() + 1; in.Year < listingMinYear || in.Year > maxYear {
		return fmt.Errorf("year must be between %d and %d", listingMinYear, maxYear)
	}
	if in.Mileage < 0 || in.Mileage > listingMaxMileage {
		return fmt.Errorf("mileage must be between 0 and %d", listingMaxMileage)
	}
	if err := validateEnum("transmission", in.Transmission, models.Transmissions); err != nil {
		return err
	}
	if err := validateEnum("fuel_type", in.FuelType, models.FuelTypes); err != nil {
		return err
	}
	if err := validateEnum("body_type", in.BodyType, models.BodyTypes); err != nil {
		return err
	}
	if err := validateEnum("condition", in.Condition, models.Conditions); err != nil {
		return err
	}
	if len(in.Features) > maxFeatures {
		return fmt.Errorf("at most %d features allowed", maxFeatures)
	}
	for _, f := range in.Features {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("features cannot be blank")
		}
	}
	return nil
}

func validateEnum(field, value string, accepted []string) error {
	if value == "" {
		return nil
	}
	if !slices.Contains(accepted, value) {
		return fmt.Errorf("%s must be one of: %s", field, strings.Join(accepted, ", "))
	}
	return nil
}
