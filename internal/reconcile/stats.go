package reconcile

import (
	"math"

	"building-atlas/internal/models"
)

// Statistics summarizes a building set for the dashboard side panel:
// counts, averages over present values, and per-category tallies.
func Statistics(buildings []models.Building) models.Stats {
	stats := models.Stats{
		BuildingTypes: make(map[string]int),
		ZoningTypes:   make(map[string]int),
	}
	if len(buildings) == 0 {
		return stats
	}

	stats.TotalCount = len(buildings)

	var heightSum, valueSum float64
	var heightN, valueN int
	for _, b := range buildings {
		if b.Height != nil {
			heightSum += *b.Height
			heightN++
		}
		if b.AssessedValue != nil {
			valueSum += *b.AssessedValue
			valueN++
		}
		if b.BuildingType != nil {
			stats.BuildingTypes[*b.BuildingType]++
		}
		if b.Zoning != nil {
			stats.ZoningTypes[*b.Zoning]++
		}
	}

	if heightN > 0 {
		stats.AvgHeight = round2(heightSum / float64(heightN))
	}
	if valueN > 0 {
		stats.AvgAssessedValue = round2(valueSum / float64(valueN))
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
