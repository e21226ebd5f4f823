package schedule

import "time"

// Working-week calendar helpers. The project runs on a fixed Monday-Friday
// week; holidays are carried in the project definition but do not shift
// dates here.

// IsWorkingDay reports whether d falls on a weekday.
func IsWorkingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextWorkingDay returns d pushed forward to the next weekday. A date that
// already is a weekday is returned unchanged.
func NextWorkingDay(d time.Time) time.Time {
	for !IsWorkingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// AddWorkingDays walks forward from d, counting only weekdays, until n
// working days have been consumed. Weekends are skipped, not counted.
func AddWorkingDays(d time.Time, n int) time.Time {
	added := 0
	for added < n {
		d = d.AddDate(0, 0, 1)
		if IsWorkingDay(d) {
			added++
		}
	}
	return d
}

// CountWorkingDays returns the number of weekdays in (from, to], walking
// day by day. Returns 0 when to does not follow from.
func CountWorkingDays(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	days := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(d) {
			days++
		}
	}
	return days
}

// WeekOf returns the 1-based project week that d falls in, counted from the
// project start date.
func WeekOf(start, d time.Time) int {
	days := int(d.Sub(start).Hours() / 24)
	return days/7 + 1
}
