package utils

import (
	"fmt"
	"strings"
	"time"
)

// BlankPeriod is printed when either end of the period is missing.
const BlankPeriod = "_______________________________"

// FormatPeriodDates renders a trip period the way the ticket prints it:
//
//	2024-03-05 .. 2024-03-05 -> "March 5, 2024"
//	2024-03-05 .. 2024-03-09 -> "March 5-9, 2024"
//	2024-03-28 .. 2024-04-02 -> "March 28, 2024 - April 2, 2024"
//
// Unparseable input degrades to "<from> - <to>".
func FormatPeriodDates(from, to string) string {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return BlankPeriod
	}

	start, err1 := parsePeriodDate(from)
	end, err2 := parsePeriodDate(to)
	if err1 != nil || err2 != nil {
		return from + " - " + to
	}

	if start.Month() == end.Month() && start.Year() == end.Year() {
		if start.Day() == end.Day() {
			return fmt.Sprintf("%s %d, %d", start.Month(), start.Day(), start.Year())
		}
		return fmt.Sprintf("%s %d-%d, %d", start.Month(), start.Day(), end.Day(), start.Year())
	}
	return fmt.Sprintf("%s %d, %d - %s %d, %d",
		start.Month(), start.Day(), start.Year(),
		end.Month(), end.Day(), end.Year())
}

// parsePeriodDate accepts a plain date or a timestamp whose first ten
// characters are the date. The clock part never shifts the calendar day.
func parsePeriodDate(s string) (time.Time, error) {
	if len(s) > len(layoutDate) {
		switch s[len(layoutDate)] {
		case 'T', ' ':
			s = s[:len(layoutDate)]
		}
	}
	return time.Parse(layoutDate, s)
}

// VehicleDescription renders "Brand Model (PLATE)". Without both brand and
// model only the plate is shown.
func VehicleDescription(brand, model, plate string) string {
	brand, model, plate = NormalizeSpace(brand), NormalizeSpace(model), strings.TrimSpace(plate)
	if brand == "" || model == "" {
		return plate
	}
	return fmt.Sprintf("%s %s (%s)", brand, model, Fallback(plate, "N/A"))
}

// PassengerLine joins passenger names for the authorized passengers line.
func PassengerLine(names []string) string {
	return strings.ToUpper(strings.Join(CleanNameList(names), ", "))
}

// PurposeLine prefers the free-text purpose and falls back to the purpose list.
func PurposeLine(purpose string, purposes []string) string {
	if p := NormalizeSpace(purpose); p != "" {
		return p
	}
	clean := make([]string, 0, len(purposes))
	for _, p := range purposes {
		if p = NormalizeSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, ", ")
}
