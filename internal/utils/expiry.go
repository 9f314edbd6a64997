package utils

import "time"

// StillValid reports whether a record with the given deadline is live at now.
// The deadline itself is still live.
func StillValid(deadline, now time.Time) bool {
	return !now.After(deadline)
}
