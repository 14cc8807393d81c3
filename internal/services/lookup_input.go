package services

import (
	"strconv"
	"strings"
)

const (
	MinDecile = 1
	MaxDecile = 10
)

// NormalizePostcodes trims and upper-cases each entry, drops blanks and
// collapses repeats while keeping first-seen order.
func NormalizePostcodes(postcodes []string) []string {
	if len(postcodes) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(postcodes))
	normalized := make([]string, 0, len(postcodes))
	for _, postcode := range postcodes {
		postcode = strings.ToUpper(strings.TrimSpace(postcode))
		if postcode == "" {
			continue
		}
		if _, ok := seen[postcode]; ok {
			continue
		}
		seen[postcode] = struct{}{}
		normalized = append(normalized, postcode)
	}

	return normalized
}

// SplitPostcodes splits a free-text block into one entry per line.
func SplitPostcodes(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// ParseDecile reads an optional decile from user input. Anything that is not
// an integer in range is treated as absent.
func ParseDecile(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	decile, err := strconv.Atoi(value)
	if err != nil || decile < MinDecile || decile > MaxDecile {
		return nil
	}

	return &decile
}

// ClampDecile returns the effective ceiling. Missing or out-of-range values
// widen to MaxDecile, which matches every area.
func ClampDecile(decile *int) int {
	if decile == nil || *decile < MinDecile || *decile > MaxDecile {
		return MaxDecile
	}
	return *decile
}
