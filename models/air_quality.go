package models

import (
	"time"
)

// AirQualityData represents one air quality measurement at a timestamp.
// Sensor fields are pointers so that unparsable source values are stored
// as NULL instead of zero.
type AirQualityData struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Date       time.Time `gorm:"uniqueIndex:idx_air_quality_date;not null" json:"date"`
	Time       string    `gorm:"not null;size:8" json:"time"`
	CoGt       *float64  `gorm:"column:co_gt" json:"co_gt"`
	Pt08S1Co   *float64  `gorm:"column:pt08_s1_co" json:"pt08_s1_co"`
	NmhcGt     *float64  `gorm:"column:nmhc_gt" json:"nmhc_gt"`
	C6h6Gt     *float64  `gorm:"column:c6h6_gt" json:"c6h6_gt"`
	Pt08S2Nmhc *float64  `gorm:"column:pt08_s2_nmhc" json:"pt08_s2_nmhc"`
	NoxGt      *float64  `gorm:"column:nox_gt" json:"nox_gt"`
	Pt08S3Nox  *float64  `gorm:"column:pt08_s3_nox" json:"pt08_s3_nox"`
	No2Gt      *float64  `gorm:"column:no2_gt" json:"no2_gt"`
	Pt08S4No2  *float64  `gorm:"column:pt08_s4_no2" json:"pt08_s4_no2"`
	Pt08S5O3   *float64  `gorm:"column:pt08_s5_o3" json:"pt08_s5_o3"`
	T          *float64  `gorm:"column:t" json:"t"`
	Rh         *float64  `gorm:"column:rh" json:"rh"`
	Ah         *float64  `gorm:"column:ah" json:"ah"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName customizes the table name
func (AirQualityData) TableName() string {
	return "air_quality_data"
}

// SensorColumns lists the numeric measurement columns, in CSV header order.
// It is the set of field names the filter grammar may reference.
var SensorColumns = []string{
	"co_gt",
	"pt08_s1_co",
	"nmhc_gt",
	"c6h6_gt",
	"pt08_s2_nmhc",
	"nox_gt",
	"pt08_s3_nox",
	"no2_gt",
	"pt08_s4_no2",
	"pt08_s5_o3",
	"t",
	"rh",
	"ah",
}

// IsSensorColumn reports whether name is a known measurement column.
func IsSensorColumn(name string) bool {
	for _, col := range SensorColumns {
		if col == name {
			return true
		}
	}
	return false
}

// GetAllModels returns all models for migration
func GetAllModels() []interface{} {
	return []interface{}{
		&AirQualityData{},
		&User{},
	}
}
