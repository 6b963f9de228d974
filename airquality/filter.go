package airquality

import (
	"math"
	"strconv"
	"strings"

	"air_quality_api/models"
)

// Comparison operators accepted by the filter grammar.
const (
	OpGte = "gte"
	OpLte = "lte"
	OpGt  = "gt"
	OpLt  = "lt"
)

// Filter is one parsed field constraint.
type Filter struct {
	Operator string
	Value    float64
}

// ParseFilters parses a comma-separated list of field:operator:value
// clauses into a predicate map. Parsing is fail-fast: the first invalid
// clause rejects the whole string. When a field repeats, the last
// occurrence wins.
func ParseFilters(raw string) (map[string]Filter, error) {
	parsed := make(map[string]Filter)

	for _, clause := range strings.Split(raw, ",") {
		parts := strings.Split(clause, ":")
		if len(parts) != 3 {
			return nil, validationf("invalid filter %s, expected field:operator:value", clause)
		}

		field, operator, value := parts[0], parts[1], parts[2]

		if !models.IsSensorColumn(field) {
			return nil, validationf("invalid parameter %s for filter. Allowed parameters: %s",
				field, strings.Join(models.SensorColumns, ", "))
		}

		switch operator {
		case OpGte, OpLte, OpGt, OpLt:
		default:
			return nil, validationf("invalid operator %s for filter %s", operator, clause)
		}

		number, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
			return nil, validationf("invalid value %s for filter %s", value, clause)
		}

		parsed[field] = Filter{Operator: operator, Value: number}
	}

	return parsed, nil
}
