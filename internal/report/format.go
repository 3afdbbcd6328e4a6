package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/plotutil"
)

func formatNumber(num float64) string {
	switch {
	case math.IsNaN(num):
		return "-"
	case math.Abs(num) >= 1000000:
		return fmt.Sprintf("%.2fM", num/1000000)
	case math.Abs(num) >= 1000:
		return fmt.Sprintf("%.1fK", num/1000)
	case math.Abs(num) >= 100:
		return fmt.Sprintf("%.0f", num)
	}
	return fmt.Sprintf("%.2f", num)
}

func formatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func getShortDepartmentName(fullName string) string {
	shortNames := map[string]string{
		"Archipiélago de San Andrés, Providencia y Santa Catalina": "San Andrés",
		"San Andrés, Providencia y Santa Catalina":                 "San Andrés",
		"San Andrés y Providencia":                                 "San Andrés",
		"Bogotá D.C.":                                              "Bogotá",
		"Bogotá, D.C.":                                             "Bogotá",
		"Norte de Santander":                                       "N. Santander",
		"Valle del Cauca":                                          "Valle",
		"La Guajira":                                               "Guajira",
	}

	if short, exists := shortNames[fullName]; exists {
		return short
	}
	return fullName
}

// clusterColor is the palette colour of a cluster.
func clusterColor(cluster int) color.Color {
	return plotutil.Color(cluster)
}

func clusterName(cluster int) string {
	return fmt.Sprintf("Cluster %d", cluster)
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
