// Package inputval validates request fields before they reach a store.
// Failures are field-level and recoverable: the caller corrects the
// input and retries.
package inputval

import (
	"math"
	"net/mail"

	"github.com/civicworks/civicconnect/internal/app/system/apierr"
)

// Email checks basic address syntax.
func Email(s string) error {
	if s == "" {
		return apierr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return apierr.Validation("invalid email address")
	}
	return nil
}

// Password enforces the minimum credential length.
func Password(s string) error {
	if len(s) < 8 {
		return apierr.Validation("password must be at least 8 characters")
	}
	return nil
}

// Required rejects an empty field.
func Required(field, value string) error {
	if value == "" {
		return apierr.Validation(field + " is required")
	}
	return nil
}

// MaxLen rejects a field above its limit.
func MaxLen(field, value string, max int) error {
	if len(value) > max {
		return apierr.Validation(field + " is too long")
	}
	return nil
}

// Coordinates validates a GeoJSON [longitude, latitude] pair: exactly two
// finite components, longitude in [-180,180], latitude in [-90,90].
func Coordinates(coords []float64) error {
	if len(coords) != 2 {
		return apierr.Validation("location coordinates must be [longitude, latitude]")
	}
	lng, lat := coords[0], coords[1]
	if math.IsNaN(lng) || math.IsInf(lng, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return apierr.Validation("location coordinates must be finite numbers")
	}
	if lng < -180 || lng > 180 {
		return apierr.Validation("longitude must be between -180 and 180")
	}
	if lat < -90 || lat > 90 {
		return apierr.Validation("latitude must be between -90 and 90")
	}
	return nil
}

// OneOf rejects a value outside a closed enum. Empty values pass so
// callers can apply defaults first.
func OneOf(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return apierr.Validation("invalid " + field)
}
