package cache

import (
	"time"
)

// UntilNext は now から次の hour 時（loc のローカル時刻）までの期間を返します。
// ちょうど hour 時の場合は 24 時間後を次とみなします。
func UntilNext(now time.Time, hour int, loc *time.Location) time.Duration {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// DailyTTL returns a TTL func that expires entries at the next hour:00 in loc,
// so cached series roll over together with the daily ingest.
func DailyTTL(hour int, loc *time.Location) func() time.Duration {
	return func() time.Duration {
		return UntilNext(time.Now(), hour, loc)
	}
}

// FixedTTL returns a TTL func that always yields d.
func FixedTTL(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}
