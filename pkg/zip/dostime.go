package zip

import (
	"time"
)

// DosDateTime packs t into the 16-bit MS-DOS date and time fields used
// by the zip mod-time headers. Date: bits 0-4 day, 5-8 month, 9-15
// year-1980. Time: bits 0-4 second/2, 5-10 minute, 11-15 hour.
// Years outside the representable 1980-2107 range are clamped.
func DosDateTime(t time.Time) (dosDate, dosTime uint16) {
	year := t.Year()
	if year < 1980 {
		year = 1980
	} else if year > 2107 {
		year = 2107
	}
	dosDate = uint16(t.Day()) | uint16(t.Month())<<5 | uint16(year-1980)<<9
	dosTime = uint16(t.Second()/2) | uint16(t.Minute())<<5 | uint16(t.Hour())<<11
	return dosDate, dosTime
}

// DosTime unpacks the MS-DOS date/time fields back into a time.Time in UTC.
// Seconds come back in two-second resolution.
func DosTime(dosDate, dosTime uint16) time.Time {
	sec := int(dosTime&0x1F) * 2
	min := int((dosTime >> 5) & 0x3F)
	hour := int(dosTime >> 11)
	day := int(dosDate & 0x1F)
	month := time.Month((dosDate >> 5) & 0x0F)
	year := int(dosDate>>9) + 1980
	return time.Date(year, month, day, hour, min, sec, 0, time.UTC)
}
