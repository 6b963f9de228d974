package main

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"air_quality_api/airquality"
)

const sampleDays = 7

// generateSampleCommand writes a sample air quality CSV in the upload
// format: semicolon-separated, comma decimals, one row per hour.
func generateSampleCommand(outputPath string) {
	file, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("Failed to create file: %v\n", err)
		return
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	defer w.Flush()

	fmt.Fprintln(w, strings.Join(airquality.RequiredColumns, ";"))

	start := time.Date(2004, time.March, 10, 0, 0, 0, 0, time.UTC)
	for day := 0; day < sampleDays; day++ {
		for hour := 0; hour < 24; hour++ {
			ts := start.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
			fmt.Fprintln(w, sampleRow(ts, hour))
		}
	}

	fmt.Printf("✓ Sample data written to %s (%d rows)\n", outputPath, sampleDays*24)
}

// sampleRow fabricates one plausible measurement row. Daily cycles are
// approximated with a sine over the hour of day.
func sampleRow(ts time.Time, hour int) string {
	cycle := math.Sin(float64(hour) / 24.0 * 2 * math.Pi)

	fields := []string{
		ts.Format("02/01/2006"),
		ts.Format("15.04.05"),
		commaDecimal(2.0+cycle+rand.Float64(), 1),        // CO(GT)
		commaDecimal(1100+200*cycle+50*rand.Float64(), 0), // PT08.S1(CO)
		commaDecimal(150+50*rand.Float64(), 0),            // NMHC(GT)
		commaDecimal(9.0+3*cycle+rand.Float64(), 1),       // C6H6(GT)
		commaDecimal(950+150*cycle+40*rand.Float64(), 0),  // PT08.S2(NMHC)
		commaDecimal(160+60*rand.Float64(), 0),            // NOx(GT)
		commaDecimal(1000+120*rand.Float64(), 0),          // PT08.S3(NOx)
		commaDecimal(100+30*rand.Float64(), 0),            // NO2(GT)
		commaDecimal(1500+200*cycle+80*rand.Float64(), 0), // PT08.S4(NO2)
		commaDecimal(1100+250*cycle+90*rand.Float64(), 0), // PT08.S5(O3)
		commaDecimal(14+8*cycle+2*rand.Float64(), 1),      // T
		commaDecimal(50-10*cycle+5*rand.Float64(), 1),     // RH
		commaDecimal(0.7+0.1*rand.Float64(), 4),           // AH
	}

	return strings.Join(fields, ";")
}

// commaDecimal formats a float with a comma decimal separator.
func commaDecimal(value float64, precision int) string {
	return strings.ReplaceAll(strconv.FormatFloat(value, 'f', precision, 64), ".", ",")
}
