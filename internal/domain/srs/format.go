package srs

import (
	"math"
	"strconv"
)

// FormatInterval renders an interval in days with the coarsest fitting
// unit. A value that reaches a unit's threshold is shown in that unit, so
// 7 days is "1w" rather than "7d".
func FormatInterval(days float64) string {
	switch {
	case days < 1.0/1440:
		return "< 1m"
	case days < 1.0/24:
		return strconv.Itoa(roundInt(days*1440)) + "m"
	case days < 1:
		return strconv.Itoa(roundInt(days*24)) + "h"
	case days < 7:
		return strconv.Itoa(roundInt(days)) + "d"
	case days < 30:
		return strconv.Itoa(roundInt(days/7)) + "w"
	case days < 365:
		return strconv.Itoa(roundInt(days/30)) + "mo"
	default:
		years := math.Round(days/365*10) / 10
		return strconv.FormatFloat(years, 'f', -1, 64) + "y"
	}
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
