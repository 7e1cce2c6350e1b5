package stats

import (
	"context"
	"math"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/pulseox-org/pulseox/errors"
	"github.com/pulseox-org/pulseox/readings"
	"github.com/pulseox-org/pulseox/store"
)

func NewService(repo readings.Repository, logger *zap.SugaredLogger) (Service, error) {
	return &service{
		readings: repo,
		logger:   logger,
	}, nil
}

type service struct {
	readings readings.Repository
	logger   *zap.SugaredLogger
}

var _ Service = &service{}

func (s *service) Daily(ctx context.Context, deviceSerialNumbers []string, period *Period) ([]DailySummary, error) {
	devices, err := normalizeDeviceSet(deviceSerialNumbers)
	if err != nil {
		return nil, err
	}

	var start, end time.Time
	if period == nil {
		start, end, err = s.availableRange(ctx, devices)
		if err != nil {
			return nil, err
		}
	} else {
		start = TruncateToDay(period.Start)
		end = TruncateToDay(period.End)
		if start.After(end) {
			return []DailySummary{}, nil
		}
	}

	buckets := DayBuckets(start, end)
	matched, err := s.listRange(ctx, devices, buckets)
	if err != nil {
		return nil, err
	}
	groups := groupByBucket(buckets, matched, TruncateToDay)

	summaries := make([]DailySummary, len(buckets))
	for i, bucket := range buckets {
		var heartRate, spo2 accumulator
		for _, reading := range groups[i] {
			heartRate.Add(reading.HeartRate)
			spo2.Add(reading.Spo2)
		}
		summaries[i] = DailySummary{
			Date:             bucket.Start.Format(DateLayout),
			AverageHeartRate: heartRate.Average(),
			MaxHeartRate:     heartRate.Max(),
			MinHeartRate:     heartRate.Min(),
			AverageSpo2:      spo2.Average(),
		}
	}

	s.logger.Debugw("computed daily summaries", "devices", len(devices), "buckets", len(buckets), "readings", len(matched))
	return summaries, nil
}

func (s *service) Weekly(ctx context.Context, deviceSerialNumbers []string) ([]WeeklySummary, error) {
	devices, err := normalizeDeviceSet(deviceSerialNumbers)
	if err != nil {
		return nil, err
	}

	start, end, err := s.availableRange(ctx, devices)
	if err != nil {
		return nil, err
	}

	buckets := WeekBuckets(start, end)
	matched, err := s.listRange(ctx, devices, buckets)
	if err != nil {
		return nil, err
	}
	groups := groupByBucket(buckets, matched, WeekStart)

	summaries := make([]WeeklySummary, len(buckets))
	for i, bucket := range buckets {
		var heartRate accumulator
		for _, reading := range groups[i] {
			heartRate.Add(reading.HeartRate)
		}
		summaries[i] = WeeklySummary{
			StartDate:        bucket.Start.Format(DateLayout),
			EndDate:          bucket.End.AddDate(0, 0, -1).Format(DateLayout),
			AverageHeartRate: heartRate.Average(),
			MaxHeartRate:     heartRate.Max(),
			MinHeartRate:     heartRate.Min(),
		}
	}

	s.logger.Debugw("computed weekly summaries", "devices", len(devices), "buckets", len(buckets), "readings", len(matched))
	return summaries, nil
}

// availableRange derives the calendar-date range spanned by the device
// set's readings. A device set without any readings is a terminal NoData
// condition, unlike an explicit range that happens to contain none.
func (s *service) availableRange(ctx context.Context, devices []string) (time.Time, time.Time, error) {
	earliest, err := s.readings.EarliestTimestamp(ctx, devices)
	if err == readings.ErrNotFound {
		return time.Time{}, time.Time{}, errors.NoData
	} else if err != nil {
		return time.Time{}, time.Time{}, err
	}

	latest, err := s.readings.LatestTimestamp(ctx, devices)
	if err == readings.ErrNotFound {
		return time.Time{}, time.Time{}, errors.NoData
	} else if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return TruncateToDay(earliest), TruncateToDay(latest), nil
}

// listRange fetches all matching readings of the full bucket sequence in
// a single query. Bucketing happens in memory, which keeps the number of
// round trips independent of the range length.
func (s *service) listRange(ctx context.Context, devices []string, buckets []Bucket) ([]*readings.Reading, error) {
	if len(buckets) == 0 {
		return nil, nil
	}
	filter := &readings.Filter{
		DeviceSerialNumbers: devices,
		Range: &readings.TimeRange{
			Start: buckets[0].Start,
			End:   buckets[len(buckets)-1].End,
		},
	}
	sort := &store.Sort{Attribute: "timestamp", Ascending: true}
	return s.readings.List(ctx, filter, sort)
}

func groupByBucket(buckets []Bucket, list []*readings.Reading, anchor func(time.Time) time.Time) [][]*readings.Reading {
	index := make(map[time.Time]int, len(buckets))
	for i, bucket := range buckets {
		index[bucket.Start] = i
	}

	groups := make([][]*readings.Reading, len(buckets))
	for _, reading := range list {
		if i, ok := index[anchor(reading.Timestamp)]; ok {
			groups[i] = append(groups[i], reading)
		}
	}
	return groups
}

// normalizeDeviceSet trims incidental whitespace from stored serial
// numbers and deduplicates them. An empty result is invalid input.
func normalizeDeviceSet(deviceSerialNumbers []string) ([]string, error) {
	set := mapset.NewSet[string]()
	for _, serialNumber := range deviceSerialNumbers {
		if trimmed := strings.TrimSpace(serialNumber); trimmed != "" {
			set.Add(trimmed)
		}
	}
	if set.Cardinality() == 0 {
		return nil, errors.BadRequest
	}
	return set.ToSlice(), nil
}

type accumulator struct {
	sum   float64
	count int
	min   float64
	max   float64
}

func (a *accumulator) Add(value *float64) {
	if value == nil {
		return
	}
	v := *value
	if a.count == 0 || v < a.min {
		a.min = v
	}
	if a.count == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.count++
}

func (a *accumulator) Average() *float64 {
	if a.count == 0 {
		return nil
	}
	avg := roundToTwoDecimals(a.sum / float64(a.count))
	return &avg
}

func (a *accumulator) Min() *float64 {
	if a.count == 0 {
		return nil
	}
	v := a.min
	return &v
}

func (a *accumulator) Max() *float64 {
	if a.count == 0 {
		return nil
	}
	v := a.max
	return &v
}

func roundToTwoDecimals(v float64) float64 {
	return math.Round(v*100) / 100
}
