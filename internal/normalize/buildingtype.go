package normalize

import "strings"

// typeCategory pairs a canonical category with the keywords that map to
// it. Categories are checked in order; the first category with a keyword
// substring match wins.
type typeCategory struct {
	name     string
	keywords []string
}

var typeCategories = []typeCategory{
	{"Commercial", []string{"commercial", "office", "retail", "store", "shop"}},
	{"Residential", []string{"residential", "apartment", "apartments", "condo", "house", "housing"}},
	{"Industrial", []string{"industrial", "warehouse", "manufacturing", "factory"}},
	{"Mixed Use", []string{"mixed", "multi"}},
	{"Commercial", []string{"hotel", "motel"}},
	{"Institutional", []string{"school", "hospital", "church", "university"}},
}

// NormalizeBuildingType maps a free-text building type onto the fixed
// category set. Unmatched values are title-cased rather than discarded so
// unusual but valid types survive.
func NormalizeBuildingType(raw string) string {
	if raw == "" {
		return "Unknown"
	}

	lower := strings.ToLower(raw)
	for _, cat := range typeCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.name
			}
		}
	}

	return titleCase(raw)
}

func normalizedType(raw *string) *string {
	if raw == nil {
		return nil
	}
	t := NormalizeBuildingType(*raw)
	return &t
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// yearFrom pulls a four-digit year from the front of a date-like string
// (e.g. "2015-06-01T00:00:00"). Implausible years are rejected.
func yearFrom(date *string) *int {
	if date == nil || len(*date) < 4 {
		return nil
	}
	y := Int((*date)[:4])
	if y == nil || *y < 1800 || *y > 2100 {
		return nil
	}
	return y
}
