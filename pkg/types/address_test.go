package types

import "testing"

func TestAddressValueScanRoundTrip(t *testing.T) {
	in := Address{Name: "Asha", Phone: "999", Street: "1 MG Road", City: "Kochi", State: "Kerala", Zip: "682001", Country: "India"}
	value, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var out Address
	if err := out.Scan(value); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}

	var fromBytes Address
	if err := fromBytes.Scan([]byte(value.(string))); err != nil || fromBytes != in {
		t.Fatalf("scan bytes: %+v %v", fromBytes, err)
	}
	if err := fromBytes.Scan(42); err == nil {
		t.Fatal("expected unsupported type error")
	}
}

func TestAddressTrimmed(t *testing.T) {
	a := Address{Name: "  Asha ", City: "\tKochi\n"}.Trimmed()
	if a.Name != "Asha" || a.City != "Kochi" {
		t.Fatalf("unexpected trimmed address %+v", a)
	}
}
