// Package reports renders aggregated vitals as downloadable spreadsheets.
package reports

import (
	"io"

	"github.com/tealeg/xlsx/v3"

	"github.com/pulseox-org/pulseox/stats"
)

const (
	weeklySheetName = "Weekly Heart Rate"
)

// PatientWeeklyStats pairs a patient with the weekly summaries of their
// device set.
type PatientWeeklyStats struct {
	PatientName  string
	PatientEmail string
	Stats        []stats.WeeklySummary
}

type WeeklyReport struct {
	results []PatientWeeklyStats
}

func NewWeeklyReport(results []PatientWeeklyStats) WeeklyReport {
	return WeeklyReport{results: results}
}

func (r WeeklyReport) Generate() (*xlsx.File, error) {
	report := xlsx.NewFile()
	sh, err := report.AddSheet(weeklySheetName)
	if err != nil {
		return nil, err
	}

	header := sh.AddRow()
	for _, title := range []string{"Patient", "Email", "Week Start", "Week End", "Average HR", "Max HR", "Min HR"} {
		header.AddCell().SetValue(title)
	}

	for _, result := range r.results {
		for _, week := range result.Stats {
			row := sh.AddRow()
			row.AddCell().SetValue(result.PatientName)
			row.AddCell().SetValue(result.PatientEmail)
			row.AddCell().SetValue(week.StartDate)
			row.AddCell().SetValue(week.EndDate)
			addStatCell(row, week.AverageHeartRate)
			addStatCell(row, week.MaxHeartRate)
			addStatCell(row, week.MinHeartRate)
		}
	}

	return report, nil
}

func (r WeeklyReport) Write(w io.Writer) error {
	report, err := r.Generate()
	if err != nil {
		return err
	}
	return report.Write(w)
}

func addStatCell(row *xlsx.Row, value *float64) {
	cell := row.AddCell()
	if value == nil {
		cell.SetValue("n/a")
		return
	}
	cell.SetValue(*value)
}
