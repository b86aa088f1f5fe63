package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyKobo(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1500.00", 150000},
		{"18500", 1850000},
		{"0.01", 1},
		{"0", 0},
		{"99.999", 10000},
		{"12.345", 1235},
	}
	for _, tc := range cases {
		m, err := NewMoneyFromString(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if got := m.Kobo(); got != tc.want {
			t.Fatalf("Kobo(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyFromKoboRoundTrip(t *testing.T) {
	for _, kobo := range []int64{0, 1, 99, 150000, 4127500} {
		if got := MoneyFromKobo(kobo).Kobo(); got != kobo {
			t.Fatalf("round trip %d gave %d", kobo, got)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	price := NewMoneyFromFloat(18500)
	subtotal := price.MulInt(2)
	if subtotal.Kobo() != 3700000 {
		t.Fatalf("unexpected subtotal: %s", subtotal)
	}
	total := subtotal.Add(NewMoneyFromFloat(1500)).Sub(NewMoneyFromFloat(500))
	if total.Kobo() != 3800000 {
		t.Fatalf("unexpected total: %s", total)
	}
	if !Zero().Add(price).Equal(price) {
		t.Fatalf("zero identity broken")
	}
}

func TestMoneyJSON(t *testing.T) {
	m := NewMoneyFromFloat(18500)
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `"18500.00"` {
		t.Fatalf("unexpected JSON: %s", out)
	}

	var fromString Money
	if err := json.Unmarshal([]byte(`"1234.56"`), &fromString); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if fromString.Kobo() != 123456 {
		t.Fatalf("unexpected value: %s", fromString)
	}

	var fromNumber Money
	if err := json.Unmarshal([]byte(`99.5`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromNumber.Kobo() != 9950 {
		t.Fatalf("unexpected value: %s", fromNumber)
	}

	var fromNull Money
	if err := json.Unmarshal([]byte(`null`), &fromNull); err != nil {
		t.Fatalf("unmarshal null failed: %v", err)
	}
	if !fromNull.Equal(Zero()) {
		t.Fatalf("expected zero for null, got %s", fromNull)
	}
}

func TestMoneyScan(t *testing.T) {
	var m Money
	if err := m.Scan("18500.00"); err != nil {
		t.Fatalf("scan string failed: %v", err)
	}
	if m.Kobo() != 1850000 {
		t.Fatalf("unexpected value: %s", m)
	}
	if err := m.Scan([]byte("7.25")); err != nil {
		t.Fatalf("scan bytes failed: %v", err)
	}
	if m.Kobo() != 725 {
		t.Fatalf("unexpected value: %s", m)
	}
	if err := m.Scan(nil); err != nil {
		t.Fatalf("scan nil failed: %v", err)
	}
	if !m.Equal(Zero()) {
		t.Fatalf("expected zero for nil column")
	}
	if err := m.Scan(true); err == nil {
		t.Fatalf("expected error for unsupported column type")
	}
}
