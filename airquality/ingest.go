package airquality

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"air_quality_api/logger"
	"air_quality_api/models"

	"gorm.io/gorm"
)

// Summary reports the outcome of one CSV import.
type Summary struct {
	Message string                  `json:"message"`
	Records []models.AirQualityData `json:"data"`
}

// Importer streams semicolon-delimited air quality CSV files into the
// datastore, upserting by measurement timestamp.
type Importer struct {
	db *gorm.DB
}

// NewImporter creates an Importer backed by db.
func NewImporter(db *gorm.DB) *Importer {
	return &Importer{db: db}
}

// Import reads one CSV source to the end. The header is validated before
// any row is processed; a missing required column rejects the whole upload
// with nothing written. Rows that fail normalization are logged and
// skipped. Accumulated records are then upserted one by one, in file
// order; a storage failure partway through leaves prior upserts committed.
func (im *Importer) Import(r io.Reader) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		// No rows at all is a successful import of zero records.
		return &Summary{Message: summaryMessage(0)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("CSV parsing error: %w", err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, validationf("Missing required columns: %s", strings.Join(missing, ", "))
	}

	var records []models.AirQualityData
	for {
		raw, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV parsing error: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(raw) {
				row[name] = raw[i]
			}
		}

		record, err := NormalizeRow(row)
		if err != nil {
			logger.Warnf("Skipping row %v: %v\n", raw, err)
			continue
		}
		records = append(records, *record)
	}

	for i := range records {
		if err := im.upsert(&records[i]); err != nil {
			return nil, fmt.Errorf("database insertion error: %w", err)
		}
	}

	message := summaryMessage(len(records))
	logger.Printf("%s\n", message)

	return &Summary{Message: message, Records: records}, nil
}

// upsert writes one record, overwriting an existing record with the same
// timestamp instead of inserting a duplicate.
func (im *Importer) upsert(record *models.AirQualityData) error {
	var existing models.AirQualityData
	err := im.db.Where("date = ?", record.Date).First(&existing).Error
	switch {
	case err == nil:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		// Save writes every column, so fields that became absent in the
		// new upload overwrite previously stored values.
		return im.db.Save(record).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return im.db.Create(record).Error
	default:
		return err
	}
}

func summaryMessage(count int) string {
	return fmt.Sprintf("CSV file processed successfully, %d records added.", count)
}

// missingColumns returns the required columns absent from header.
func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}

	var missing []string
	for _, name := range RequiredColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
