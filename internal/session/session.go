// Package session classifies wall-clock time into US equity trading-day
// phases. The refresh scheduler keys its polling cadence off this
// classification.
package session

import "time"

// Session is a trading-day phase.
type Session int

const (
	Closed Session = iota
	PreMarket
	Regular
	AfterHours
)

// Eastern is the US market time zone. LoadLocation can fail only when the
// tz database is missing; fall back to a fixed EST offset in that case.
var Eastern = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*3600)
	}
	return loc
}

// Session walls in minutes from midnight Eastern.
const (
	preOpenMinute  = 4 * 60          // 4:00 AM
	openMinute     = 9*60 + 30       // 9:30 AM
	closeMinute    = 16 * 60         // 4:00 PM
	extendedMinute = 20 * 60         // 8:00 PM
)

// Classify returns the trading session for t.
func Classify(t time.Time) Session {
	et := t.In(Eastern)
	wd := et.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return Closed
	}

	hm := et.Hour()*60 + et.Minute()
	switch {
	case hm >= preOpenMinute && hm < openMinute:
		return PreMarket
	case hm >= openMinute && hm < closeMinute:
		return Regular
	case hm >= closeMinute && hm < extendedMinute:
		return AfterHours
	default:
		return Closed
	}
}

// IsOpen reports whether t falls within the continuous trading session.
func IsOpen(t time.Time) bool {
	return Classify(t) == Regular
}

// NextOpen returns the next 9:30 AM Eastern on a weekday. If t is before
// today's open on a weekday, today's open is returned.
func NextOpen(t time.Time) time.Time {
	et := t.In(Eastern)

	todayOpen := time.Date(et.Year(), et.Month(), et.Day(), 9, 30, 0, 0, Eastern)
	if et.Before(todayOpen) && isWeekday(et) {
		return todayOpen
	}

	d := et.AddDate(0, 0, 1)
	for i := 0; i < 7; i++ {
		if isWeekday(d) {
			return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, Eastern)
		}
		d = d.AddDate(0, 0, 1)
	}
	return todayOpen.AddDate(0, 0, 1)
}

func isWeekday(t time.Time) bool {
	wd := t.In(Eastern).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// String returns the wire name used in generation requests.
func (s Session) String() string {
	switch s {
	case PreMarket:
		return "pre_market"
	case Regular:
		return "regular"
	case AfterHours:
		return "after_hours"
	default:
		return "closed"
	}
}
