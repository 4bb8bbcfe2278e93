// Package calendar provides the Gregorian date arithmetic used when turning
// pairing day codes into calendar positions. Everything here is closed-form;
// no time.Time calendar calls are involved.
package calendar

// Weekday codes as they appear in pairing leg lines, Sunday first.
var weekdayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// monthOffsets is the per-month congruence table for DayOfWeek
// (Sakamoto's method).
var monthOffsets = [12]int{0, 3, 2, 5, 0, 3, 5, 1, 4, 6, 2, 4}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	if year%400 == 0 {
		return true
	}
	if year%100 == 0 {
		return false
	}
	return year%4 == 0
}

// DayOfWeek returns the weekday of the given date, Sunday=0. The congruence
// is exact for the proleptic Gregorian calendar; the documents this repo
// handles only carry years >= 2000.
func DayOfWeek(year, month, day int) int {
	y := year
	if month < 3 {
		y--
	}
	return (y + y/4 - y/100 + y/400 + monthOffsets[month-1] + day) % 7
}

// DaysInMonth returns the number of days in the given month (1-12).
func DaysInMonth(year, month int) int {
	if month == 2 {
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	// Through July odd months have 31 days; from August even months do.
	if month < 8 {
		if month%2 == 1 {
			return 31
		}
		return 30
	}
	if month%2 == 0 {
		return 31
	}
	return 30
}

// WeekdayCode returns the two-letter code for a weekday index (Sunday=0).
func WeekdayCode(dow int) string {
	return weekdayCodes[dow%7]
}

// WeekdayIndex returns the 0-6 index of a two-letter weekday code, or -1 if
// the code is not one of the seven.
func WeekdayIndex(code string) int {
	for i, c := range weekdayCodes {
		if c == code {
			return i
		}
	}
	return -1
}

// PairingLength returns the number of calendar days a pairing spans, from
// the day codes of its first and last legs. Both codes must be of the same
// kind: two-letter weekday codes, or single digits 1-7 (relative duty-day
// references). Mixed kinds are an unchecked precondition; the arithmetic
// still runs on whatever indices the codes map to.
func PairingLength(firstDayCode, lastDayCode string) int {
	first := dayCodeIndex(firstDayCode)
	last := dayCodeIndex(lastDayCode)
	diff := last - first
	if diff <= 0 {
		diff += 7
	}
	return diff%7 + 1
}

// dayCodeIndex maps a leg day code to a 0-based position: weekday codes to
// their Sunday=0 index, digits "1".."7" to 0-6.
func dayCodeIndex(code string) int {
	if idx := WeekdayIndex(code); idx >= 0 {
		return idx
	}
	if len(code) == 1 && code[0] >= '1' && code[0] <= '7' {
		return int(code[0] - '1')
	}
	return 0
}
