// Package shipping resolves the flat per-line shipping charge for a destination.
package shipping

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCost applies when the rate table has nothing for the destination.
const DefaultCost int64 = 50

// RateTable maps country -> state -> city -> price, with the names as stored.
type RateTable map[string]map[string]map[string]int64

// Add inserts a price, creating the intermediate levels.
func (t RateTable) Add(country, state, city string, price int64) {
	states, ok := t[country]
	if !ok {
		states = make(map[string]map[string]int64)
		t[country] = states
	}
	cities, ok := states[state]
	if !ok {
		cities = make(map[string]int64)
		states[state] = cities
	}
	cities[city] = price
}

// Cost returns the per-line shipping price for the destination using DefaultCost
// as the fallback.
func Cost(city, state, country string, rates RateTable) int64 {
	return CostWithDefault(city, state, country, rates, DefaultCost)
}

// CostWithDefault resolves in order: exact city, similar city, mean of the state,
// then fallback. Names compare case-insensitively.
func CostWithDefault(city, state, country string, rates RateTable, fallback int64) int64 {
	if len(rates) == 0 {
		return fallback
	}
	cities, ok := findState(rates, country, state)
	if !ok || len(cities) == 0 {
		return fallback
	}

	query := normalize(city)
	names := sortedKeys(cities)

	for _, name := range names {
		if normalize(name) == query {
			return cities[name]
		}
	}

	if query != "" {
		for _, name := range names {
			candidate := normalize(name)
			if candidate == "" {
				continue
			}
			if strings.Contains(query, candidate) || strings.Contains(candidate, query) {
				return cities[name]
			}
		}
	}

	return meanPrice(cities)
}

func findState(rates RateTable, country, state string) (map[string]int64, bool) {
	wantState := normalize(state)
	if wantState == "" {
		return nil, false
	}

	wantCountry := normalize(country)
	countries := sortedKeys(rates)
	if wantCountry != "" {
		for _, name := range countries {
			if normalize(name) == wantCountry {
				return stateIn(rates[name], wantState)
			}
		}
	}
	// Rate tables usually carry one country; an unknown or empty country searches them all.
	for _, name := range countries {
		if cities, ok := stateIn(rates[name], wantState); ok {
			return cities, true
		}
	}
	return nil, false
}

func stateIn(states map[string]map[string]int64, wantState string) (map[string]int64, bool) {
	for _, name := range sortedKeys(states) {
		if normalize(name) == wantState {
			return states[name], true
		}
	}
	return nil, false
}

// meanPrice rounds half away from zero.
func meanPrice(cities map[string]int64) int64 {
	sum := decimal.Zero
	for _, price := range cities {
		sum = sum.Add(decimal.NewFromInt(price))
	}
	return sum.Div(decimal.NewFromInt(int64(len(cities)))).Round(0).IntPart()
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
