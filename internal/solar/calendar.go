package solar

// daysPerMonth holds days per month for a non-leap year, 1-indexed.
var daysPerMonth = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear reports whether year is a leap year under the Gregorian rule,
// including the century exception (1900 is not a leap year, 2000 is).
func IsLeapYear(year int) bool {
	return year%4 == 0 && year%100 != 0 || year%400 == 0
}

// DaysInYear returns 366 for leap years, 365 otherwise.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DaysInMonth returns the number of days in the given month (1-12) of year.
func DaysInMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return daysPerMonth[month]
}

// Date is one calendar day of a sweep year. DayOfYear is 1-based and
// increases monotonically in calendar order.
type Date struct {
	Year      int
	Month     int
	Day       int
	DayOfYear int
}

// YearDates returns every day of the year in calendar order, January 1
// first. len(YearDates(y)) == DaysInYear(y).
func YearDates(year int) []Date {
	dates := make([]Date, 0, DaysInYear(year))
	dayOfYear := 0
	for month := 1; month <= 12; month++ {
		for day := 1; day <= DaysInMonth(year, month); day++ {
			dayOfYear++
			dates = append(dates, Date{
				Year:      year,
				Month:     month,
				Day:       day,
				DayOfYear: dayOfYear,
			})
		}
	}
	return dates
}
