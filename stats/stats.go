// Package stats turns raw, irregularly spaced device readings into
// calendar-day and calendar-week summaries of heart rate and SpO2.
package stats

import (
	"context"
	"time"
)

const DateLayout = "2006-01-02"

// Period is a pair of calendar dates, both inclusive. Time-of-day and
// location of the underlying time values are ignored.
type Period struct {
	Start time.Time
	End   time.Time
}

// DailySummary aggregates all readings of a device set that fall within a
// single calendar day. A channel is nil when no reading in the day carried
// it. Averages are rounded to two decimals, extrema are raw.
type DailySummary struct {
	Date             string   `json:"date"`
	AverageHeartRate *float64 `json:"heartRate"`
	MaxHeartRate     *float64 `json:"maxHeartRate"`
	MinHeartRate     *float64 `json:"minHeartRate"`
	AverageSpo2      *float64 `json:"spo2"`
}

// WeeklySummary aggregates heart rate over a Monday-anchored week.
// StartDate and EndDate label the first and last day of the week.
type WeeklySummary struct {
	StartDate        string   `json:"fromDate"`
	EndDate          string   `json:"toDate"`
	AverageHeartRate *float64 `json:"averageHeartRate"`
	MaxHeartRate     *float64 `json:"maxHeartRate"`
	MinHeartRate     *float64 `json:"minHeartRate"`
}

type Service interface {
	// Daily computes one summary per calendar day. When period is nil the
	// range spans the earliest through the latest reading of the device
	// set, and errors.NoData is returned if the set has no readings at
	// all. An explicit period is used verbatim: days without readings
	// yield nil-filled summaries, and an inverted period yields an empty
	// result.
	Daily(ctx context.Context, deviceSerialNumbers []string, period *Period) ([]DailySummary, error)

	// Weekly computes one heart-rate summary per Monday-anchored week,
	// spanning the earliest through the latest reading of the device set.
	Weekly(ctx context.Context, deviceSerialNumbers []string) ([]WeeklySummary, error)
}
