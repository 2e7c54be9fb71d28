package shipping

import "testing"

func sampleTable() RateTable {
	table := make(RateTable)
	table.Add("India", "Kerala", "Kochi", 80)
	table.Add("India", "Kerala", "Thiruvananthapuram", 100)
	table.Add("India", "Kerala", "Kozhikode", 91)
	table.Add("India", "Tamil Nadu", "Chennai", 120)
	table.Add("India", "Tamil Nadu", "Coimbatore", 150)
	return table
}

func TestCostExactMatchIsCaseInsensitive(t *testing.T) {
	table := sampleTable()
	if got := Cost("kochi", "KERALA", "india", table); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
	if got := Cost(" Chennai ", "tamil nadu", "India", table); got != 120 {
		t.Fatalf("expected 120, got %d", got)
	}
}

func TestCostSubstringMatch(t *testing.T) {
	table := sampleTable()
	// query contains the stored name
	if got := Cost("Kochi City", "Kerala", "India", table); got != 80 {
		t.Fatalf("expected substring match 80, got %d", got)
	}
	// stored name contains the query
	if got := Cost("Coimba", "Tamil Nadu", "India", table); got != 150 {
		t.Fatalf("expected substring match 150, got %d", got)
	}
}

func TestCostFallsBackToRoundedStateMean(t *testing.T) {
	table := sampleTable()
	// (80 + 100 + 91) / 3 = 90.33
	if got := Cost("Alappuzha", "Kerala", "India", table); got != 90 {
		t.Fatalf("expected mean 90, got %d", got)
	}
	// (120 + 150) / 2 = 135
	if got := Cost("Madurai", "Tamil Nadu", "India", table); got != 135 {
		t.Fatalf("expected mean 135, got %d", got)
	}

	halves := make(RateTable)
	halves.Add("India", "Goa", "Panaji", 60)
	halves.Add("India", "Goa", "Margao", 61)
	if got := Cost("Vasco", "Goa", "India", halves); got != 61 {
		t.Fatalf("expected 60.5 to round to 61, got %d", got)
	}
}

func TestCostDefaults(t *testing.T) {
	table := sampleTable()
	if got := Cost("Mumbai", "Maharashtra", "India", table); got != DefaultCost {
		t.Fatalf("unknown state should use default, got %d", got)
	}
	if got := Cost("Kochi", "Kerala", "India", nil); got != DefaultCost {
		t.Fatalf("empty table should use default, got %d", got)
	}
	if got := Cost("Kochi", "", "India", table); got != DefaultCost {
		t.Fatalf("blank state should use default, got %d", got)
	}
	if got := CostWithDefault("Mumbai", "Maharashtra", "India", table, 75); got != 75 {
		t.Fatalf("custom fallback ignored, got %d", got)
	}
}

func TestCostUnknownCountrySearchesAllCountries(t *testing.T) {
	table := sampleTable()
	if got := Cost("Kochi", "Kerala", "", table); got != 80 {
		t.Fatalf("expected 80 without country, got %d", got)
	}
	if got := Cost("Kochi", "Kerala", "IN", table); got != 80 {
		t.Fatalf("expected 80 for unmatched country code, got %d", got)
	}
}

func TestCostCountryScopesStates(t *testing.T) {
	table := sampleTable()
	table.Add("Nepal", "Kerala", "Kochi", 999)
	if got := Cost("Kochi", "Kerala", "Nepal", table); got != 999 {
		t.Fatalf("expected country-scoped 999, got %d", got)
	}
	if got := Cost("Kochi", "Kerala", "India", table); got != 80 {
		t.Fatalf("expected country-scoped 80, got %d", got)
	}
}

func TestCostEmptyCityUsesMean(t *testing.T) {
	table := sampleTable()
	if got := Cost("", "Tamil Nadu", "India", table); got != 135 {
		t.Fatalf("expected mean for blank city, got %d", got)
	}
}
