package market

import "time"

// Exchange describes one venue's fixed weekday trading window in its
// local timezone. Lunch breaks are not modelled; the window runs
// open to close.
type Exchange struct {
	Code      string
	Name      string
	TZ        string // IANA zone name
	OpenHour  int
	OpenMin   int
	CloseHour int
	CloseMin  int
	Hours     string // display form of the window
}

// exchanges is the built-in venue registry, keyed by exchange code.
var exchanges = map[string]Exchange{
	"US": {
		Code: "US", Name: "US Markets", TZ: "America/New_York",
		OpenHour: 9, OpenMin: 30, CloseHour: 16, CloseMin: 0,
		Hours: "09:30-16:00 ET",
	},
	"TSX": {
		Code: "TSX", Name: "Toronto Stock Exchange", TZ: "America/Toronto",
		OpenHour: 9, OpenMin: 30, CloseHour: 16, CloseMin: 0,
		Hours: "09:30-16:00 ET",
	},
	"LSE": {
		Code: "LSE", Name: "London Stock Exchange", TZ: "Europe/London",
		OpenHour: 8, OpenMin: 0, CloseHour: 16, CloseMin: 30,
		Hours: "08:00-16:30 UK",
	},
	"JPX": {
		Code: "JPX", Name: "Tokyo Stock Exchange", TZ: "Asia/Tokyo",
		OpenHour: 9, OpenMin: 0, CloseHour: 15, CloseMin: 30,
		Hours: "09:00-15:30 JST",
	},
	"HKEX": {
		Code: "HKEX", Name: "Hong Kong Stock Exchange", TZ: "Asia/Hong_Kong",
		OpenHour: 9, OpenMin: 30, CloseHour: 16, CloseMin: 0,
		Hours: "09:30-16:00 HKT",
	},
	"NSE": {
		Code: "NSE", Name: "National Stock Exchange of India", TZ: "Asia/Kolkata",
		OpenHour: 9, OpenMin: 15, CloseHour: 15, CloseMin: 30,
		Hours: "09:15-15:30 IST",
	},
	"ASX": {
		Code: "ASX", Name: "Australian Securities Exchange", TZ: "Australia/Sydney",
		OpenHour: 10, OpenMin: 0, CloseHour: 16, CloseMin: 0,
		Hours: "10:00-16:00 AET",
	},
}

// Lookup returns the registry entry for code. Unknown codes borrow the
// US window so status still renders instead of failing.
func Lookup(code string) Exchange {
	if ex, ok := exchanges[code]; ok {
		return ex
	}
	ex := exchanges["US"]
	ex.Code = code
	ex.Name = code
	return ex
}

// OpenAt reports whether the venue is inside its weekday trading window
// at instant t, with a reason when it is not.
func (ex Exchange) OpenAt(t time.Time) (bool, string) {
	loc, err := time.LoadLocation(ex.TZ)
	if err != nil {
		loc = time.UTC
	}
	lt := t.In(loc)

	switch lt.Weekday() {
	case time.Saturday, time.Sunday:
		return false, "Closed for the weekend"
	}

	mins := lt.Hour()*60 + lt.Minute()
	openM := ex.OpenHour*60 + ex.OpenMin
	closeM := ex.CloseHour*60 + ex.CloseMin

	if mins < openM || mins >= closeM {
		return false, "Outside trading hours"
	}
	return true, ""
}
