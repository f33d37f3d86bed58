// utils/timezone.go
package utils

import "time"

// DisplayLocation is the fixed UTC+5:30 offset used whenever a timestamp is
// rendered for a human (exports, deadlines). All storage and comparison
// stays in UTC; this is purely a presentation concern.
var DisplayLocation = time.FixedZone("IST", 5*3600+30*60)

// ToDisplayTime converts a stored instant to the display timezone.
func ToDisplayTime(t time.Time) time.Time {
	return t.In(DisplayLocation)
}

// FormatDisplayTime renders a stored instant in the display timezone.
func FormatDisplayTime(t time.Time) string {
	return ToDisplayTime(t).Format("02/01/2006, 15:04:05")
}
