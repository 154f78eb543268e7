package service

import (
	"testing"

	"github.com/b2b-portale/internal/config"
	"github.com/b2b-portale/internal/models"
)

func TestShippingCalculator(t *testing.T) {
	calc := NewShippingCalculator(config.ShippingConfig{
		FreeThreshold: "200.00",
		FlatFee:       "9.90",
	})

	cases := []struct {
		subtotal string
		want     string
	}{
		{"0.00", "0.00"},
		{"-10.00", "0.00"},
		{"199.99", "9.90"},
		{"200.00", "0.00"},
		{"350.00", "0.00"},
		{"10.00", "9.90"},
	}

	for _, tc := range cases {
		got := calc.Calculate(models.MustMoney(tc.subtotal))
		if got.String() != tc.want {
			t.Fatalf("subtotal %s: expected %s, got %s", tc.subtotal, tc.want, got.String())
		}
	}
}

func TestShippingCalculatorFallbackDefaults(t *testing.T) {
	calc := NewShippingCalculator(config.ShippingConfig{
		FreeThreshold: "not-a-number",
		FlatFee:       "-1",
	})

	if got := calc.Calculate(models.MustMoney("50.00")); got.String() != "9.90" {
		t.Fatalf("expected default flat fee 9.90, got %s", got.String())
	}
	if got := calc.Calculate(models.MustMoney("200.00")); got.String() != "0.00" {
		t.Fatalf("expected free shipping at default threshold, got %s", got.String())
	}
}
