package airquality

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"air_quality_api/models"
)

// RequiredColumns is the exact header set an uploaded CSV must carry.
// Order is irrelevant; extra columns are ignored.
var RequiredColumns = []string{
	"Date",
	"Time",
	"CO(GT)",
	"PT08.S1(CO)",
	"NMHC(GT)",
	"C6H6(GT)",
	"PT08.S2(NMHC)",
	"NOx(GT)",
	"PT08.S3(NOx)",
	"NO2(GT)",
	"PT08.S4(NO2)",
	"PT08.S5(O3)",
	"T",
	"RH",
	"AH",
}

// NormalizeRow converts one raw CSV row, keyed by header name, into a
// measurement record. A non-nil error means the row must be discarded; it
// never aborts the surrounding batch.
func NormalizeRow(row map[string]string) (*models.AirQualityData, error) {
	// Values that are empty after trimming count as absent.
	clean := make(map[string]string, len(row))
	for key, value := range row {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			clean[key] = trimmed
		}
	}

	if clean["Date"] == "" || clean["Time"] == "" {
		return nil, fmt.Errorf("missing Date or Time field in row: %v", row)
	}

	// Time uses dots as separators (21.00.00), storage uses colons.
	timeStr := strings.ReplaceAll(clean["Time"], ".", ":")

	timestamp, err := parseTimestamp(clean["Date"], timeStr)
	if err != nil {
		return nil, err
	}

	return &models.AirQualityData{
		Date:       timestamp,
		Time:       timeStr,
		CoGt:       parseNumber(clean["CO(GT)"]),
		Pt08S1Co:   parseNumber(clean["PT08.S1(CO)"]),
		NmhcGt:     parseNumber(clean["NMHC(GT)"]),
		C6h6Gt:     parseNumber(clean["C6H6(GT)"]),
		Pt08S2Nmhc: parseNumber(clean["PT08.S2(NMHC)"]),
		NoxGt:      parseNumber(clean["NOx(GT)"]),
		Pt08S3Nox:  parseNumber(clean["PT08.S3(NOx)"]),
		No2Gt:      parseNumber(clean["NO2(GT)"]),
		Pt08S4No2:  parseNumber(clean["PT08.S4(NO2)"]),
		Pt08S5O3:   parseNumber(clean["PT08.S5(O3)"]),
		T:          parseNumber(clean["T"]),
		Rh:         parseNumber(clean["RH"]),
		Ah:         parseNumber(clean["AH"]),
	}, nil
}

// parseTimestamp combines a DD/MM/YYYY date and an HH:MM:SS time into a
// UTC timestamp with zero sub-second precision.
func parseTimestamp(dateStr, timeStr string) (time.Time, error) {
	dateParts := strings.Split(dateStr, "/")
	if len(dateParts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date format: %s", dateStr)
	}

	day, err := strconv.Atoi(dateParts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s", dateStr)
	}
	month, err := strconv.Atoi(dateParts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s", dateStr)
	}
	year, err := strconv.Atoi(dateParts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s", dateStr)
	}

	clock := strings.Split(timeStr, ":")
	if len(clock) != 3 {
		return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
	}

	hour, err := strconv.Atoi(clock[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
	}
	minute, err := strconv.Atoi(clock[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
	}
	second, err := strconv.Atoi(clock[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

// parseNumber converts a comma-decimal string into a float. Anything that
// fails to parse, is not finite, or parses to zero is stored as absent;
// a bad sensor value never fails the row.
func parseNumber(raw string) *float64 {
	if raw == "" {
		return nil
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value == 0 {
		return nil
	}

	return &value
}
