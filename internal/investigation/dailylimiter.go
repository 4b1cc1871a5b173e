package investigation

import "time"

// Timezone is the single fixed offset used by every daily-limit check so that
// "today" means the same thing regardless of where the server runs.
var Timezone = time.FixedZone("UTC+5:30", (5*60+30)*60)

// DailyLimiter enforces the one-action-per-calendar-day rule. It is
// parameterized by a clock so that tests can advance the date.
type DailyLimiter struct {
	location *time.Location
	now      func() time.Time
}

type LimiterOption func(*DailyLimiter)

func WithClock(now func() time.Time) LimiterOption {
	return func(l *DailyLimiter) {
		l.now = now
	}
}

func NewDailyLimiter(opts ...LimiterOption) *DailyLimiter {
	l := &DailyLimiter{
		location: Timezone,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today returns the current calendar date in the fixed timezone. It is
// computed fresh on every call, never cached, so a check that straddles
// midnight sees the new date.
func (l *DailyLimiter) Today() string {
	return l.now().In(l.location).Format(time.DateOnly)
}

// CanAct reports whether a key with the given last action date may act again:
// true for a never-acted key (empty date) and whenever the calendar date has
// advanced past the recorded one.
func (l *DailyLimiter) CanAct(lastActionDate string) bool {
	return lastActionDate != l.Today()
}

// Now returns the limiter's current time for stamping action records.
func (l *DailyLimiter) Now() time.Time {
	return l.now()
}
