package stats

import "time"

// Bucket is a half-open interval [Start, End). Both bounds are UTC
// midnights; End-Start is one day for daily buckets and seven days for
// weekly ones.
type Bucket struct {
	Start time.Time
	End   time.Time
}

func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// TruncateToDay maps an instant to the UTC midnight of its calendar date.
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday on or before the date of t. Sundays are
// anchored to the Monday six days earlier, so a week always runs Monday
// through Sunday.
func WeekStart(t time.Time) time.Time {
	day := TruncateToDay(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if day.Weekday() == time.Sunday {
		offset = 6
	}
	return day.AddDate(0, 0, -offset)
}

// DayBuckets returns one bucket per calendar day from start through end
// inclusive, in ascending order. Inverted ranges produce no buckets.
func DayBuckets(start, end time.Time) []Bucket {
	return bucketsBetween(TruncateToDay(start), TruncateToDay(end), 1)
}

// WeekBuckets returns one bucket per week, striding seven days from
// WeekStart(start) through WeekStart(end) inclusive.
func WeekBuckets(start, end time.Time) []Bucket {
	return bucketsBetween(WeekStart(start), WeekStart(end), 7)
}

func bucketsBetween(start, end time.Time, stepDays int) []Bucket {
	var buckets []Bucket
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, stepDays) {
		buckets = append(buckets, Bucket{
			Start: cursor,
			End:   cursor.AddDate(0, 0, stepDays),
		})
	}
	return buckets
}
