package pricing_test

import (
	"errors"
	"testing"

	"github.com/pedezap/api/internal/enum"
	"github.com/pedezap/api/internal/pricing"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestOriginalPrice(t *testing.T) {
	products := []pricing.ComboProduct{
		{UnitPrice: d("25.50"), Quantity: 2},
		{UnitPrice: d("9.90"), Quantity: 1},
	}

	got := pricing.OriginalPrice(products)
	want := d("60.90")
	if !got.Equal(want) {
		t.Errorf("original price: got %s, want %s", got, want)
	}
}

func TestOriginalPrice_Empty(t *testing.T) {
	if got := pricing.OriginalPrice(nil); !got.IsZero() {
		t.Errorf("original price of empty combo: got %s, want 0", got)
	}
}

func TestComboPrice_Percentual(t *testing.T) {
	got, err := pricing.ComboPrice(d("100"), enum.DiscountTypePercentual, d("20"))
	if err != nil {
		t.Fatalf("combo price: %v", err)
	}
	if !got.Equal(d("80")) {
		t.Errorf("combo price: got %s, want 80", got)
	}
}

func TestComboPrice_Valor(t *testing.T) {
	got, err := pricing.ComboPrice(d("100"), enum.DiscountTypeValor, d("75.90"))
	if err != nil {
		t.Fatalf("combo price: %v", err)
	}
	if !got.Equal(d("75.90")) {
		t.Errorf("combo price: got %s, want 75.90", got)
	}
}

func TestComboPrice_InvalidType(t *testing.T) {
	_, err := pricing.ComboPrice(d("100"), "progressivo", d("10"))
	if !errors.Is(err, pricing.ErrInvalidDiscountType) {
		t.Errorf("expected ErrInvalidDiscountType, got %v", err)
	}
}

func TestComboPrice_PercentageOutOfRange(t *testing.T) {
	for _, pct := range []string{"-1", "100.01", "150"} {
		if _, err := pricing.ComboPrice(d("100"), enum.DiscountTypePercentual, d(pct)); !errors.Is(err, pricing.ErrInvalidPercentage) {
			t.Errorf("pct %s: expected ErrInvalidPercentage, got %v", pct, err)
		}
	}
}

func TestValidateComboPrice(t *testing.T) {
	tests := []struct {
		name     string
		combo    string
		original string
		wantErr  error
	}{
		{"valid discount", "80", "100", nil},
		{"equal to original", "100", "100", nil},
		{"zero price", "0", "100", pricing.ErrNonPositivePrice},
		{"negative price", "-5", "100", pricing.ErrNonPositivePrice},
		{"above original", "100.01", "100", pricing.ErrAbusivePractice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pricing.ValidateComboPrice(d(tt.combo), d(tt.original))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChange_ExactToTheCent(t *testing.T) {
	got, err := pricing.Change(d("100.00"), d("87.35"))
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if !got.Equal(d("12.65")) {
		t.Errorf("change: got %s, want 12.65", got)
	}
}

func TestChange_ExactPayment(t *testing.T) {
	got, err := pricing.Change(d("50"), d("50"))
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("change: got %s, want 0", got)
	}
}

func TestChange_Insufficient(t *testing.T) {
	_, err := pricing.Change(d("49.99"), d("50"))
	if !errors.Is(err, pricing.ErrInsufficientChangeFor) {
		t.Errorf("expected ErrInsufficientChangeFor, got %v", err)
	}
}
