package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("shipped")
	if err != nil || status != OrderStatusShipped {
		t.Fatalf("unexpected parse result %q %v", status, err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if !OrderStatusCancelled.IsTerminal() || !OrderStatusDelivered.IsTerminal() {
		t.Fatal("cancelled and delivered are terminal")
	}
	if OrderStatusShipped.IsTerminal() {
		t.Fatal("shipped is not terminal")
	}
}

func TestParseDiscountType(t *testing.T) {
	cases := map[string]DiscountType{
		"percent":       DiscountTypePercentage,
		" Percentage ":  DiscountTypePercentage,
		"FIXED":         DiscountTypeFixed,
		"free_shipping": DiscountTypeFreeShipping,
	}
	for in, want := range cases {
		if got := ParseDiscountType(in); got != want {
			t.Fatalf("ParseDiscountType(%q) = %q, want %q", in, got, want)
		}
	}
	if ParseDiscountType("bogo").IsValid() {
		t.Fatal("bogo should not be a valid discount type")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	if m, err := ParsePaymentMethod(" COD "); err != nil || m != PaymentMethodCOD {
		t.Fatalf("unexpected parse result %q %v", m, err)
	}
	if _, err := ParsePaymentMethod("cheque"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
