package inputval

import (
	"math"
	"testing"
)

func TestCoordinates_Valid(t *testing.T) {
	if err := Coordinates([]float64{-74.0059, 40.7128}); err != nil {
		t.Errorf("expected valid coordinates, got %v", err)
	}
	if err := Coordinates([]float64{180, -90}); err != nil {
		t.Errorf("expected boundary coordinates to pass, got %v", err)
	}
}

func TestCoordinates_Invalid(t *testing.T) {
	cases := [][]float64{
		nil,
		{},
		{-74.0059},
		{-74.0059, 40.7128, 1},
		{-181, 40},
		{181, 40},
		{0, 91},
		{0, -91},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	}
	for _, coords := range cases {
		if err := Coordinates(coords); err == nil {
			t.Errorf("Coordinates(%v): expected error", coords)
		}
	}
}

func TestEmail(t *testing.T) {
	if err := Email("user@example.com"); err != nil {
		t.Errorf("expected valid email, got %v", err)
	}
	for _, bad := range []string{"", "not-an-email", "@example.com"} {
		if err := Email(bad); err == nil {
			t.Errorf("Email(%q): expected error", bad)
		}
	}
}

func TestOneOf(t *testing.T) {
	allowed := []string{"pending", "resolved"}
	if err := OneOf("status", "pending", allowed); err != nil {
		t.Errorf("expected pending to pass, got %v", err)
	}
	if err := OneOf("status", "", allowed); err != nil {
		t.Errorf("expected empty value to pass, got %v", err)
	}
	if err := OneOf("status", "bogus", allowed); err == nil {
		t.Error("expected bogus to fail")
	}
}
