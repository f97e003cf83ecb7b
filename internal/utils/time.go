package utils

import "time"

// ISOTimestamp renders t as UTC ISO-8601 with millisecond precision and a
// trailing Z, the timestamp format shared by operation results and error
// envelopes.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
}

// NowISOTimestamp renders the current time with ISOTimestamp
func NowISOTimestamp() string {
	return ISOTimestamp(time.Now())
}
