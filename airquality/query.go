package airquality

import (
	"fmt"
	"time"

	"air_quality_api/models"

	"gorm.io/gorm"
)

// dateLayout is the calendar-date format query parameters use.
const dateLayout = "2006-01-02"

// Service reads measurements back out of the datastore.
type Service struct {
	db *gorm.DB
}

// NewService creates a query Service backed by db.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Data returns all records between startDate and endDate inclusive,
// further narrowed by the parsed filter predicates. The range covers the
// whole end calendar day: the upper bound is an exclusive comparison
// against endDate 23:59:59.999. Result order is whatever the datastore
// yields.
func (s *Service) Data(startDate, endDate string, filters map[string]Filter) ([]models.AirQualityData, error) {
	start, err := time.ParseInLocation(dateLayout, startDate, time.UTC)
	if err != nil {
		return nil, validationf("invalid startDate %s, expected YYYY-MM-DD", startDate)
	}
	end, err := time.ParseInLocation(dateLayout, endDate, time.UTC)
	if err != nil {
		return nil, validationf("invalid endDate %s, expected YYYY-MM-DD", endDate)
	}
	upper := end.Add(23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond)

	query := s.db.Where("date >= ? AND date < ?", start, upper)

	for field, filter := range filters {
		// Fields reaching this point were validated by ParseFilters; the
		// membership check keeps unvetted names out of the SQL text.
		if !models.IsSensorColumn(field) {
			continue
		}

		switch filter.Operator {
		case OpGte:
			query = query.Where(fmt.Sprintf("%s >= ?", field), filter.Value)
		case OpLte:
			query = query.Where(fmt.Sprintf("%s <= ?", field), filter.Value)
		case OpGt:
			query = query.Where(fmt.Sprintf("%s > ?", field), filter.Value)
		case OpLt:
			query = query.Where(fmt.Sprintf("%s < ?", field), filter.Value)
		default:
			// Unreachable after filter validation, kept as a defensive
			// equality fallback.
			query = query.Where(fmt.Sprintf("%s = ?", field), filter.Value)
		}
	}

	var results []models.AirQualityData
	if err := query.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to query air quality data: %w", err)
	}

	return results, nil
}
