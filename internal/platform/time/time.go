// Package time contains time related helpers
package time

import "time"

// UTCMillisLayout is ISO-8601 with millisecond precision and a literal Z
const UTCMillisLayout = "2006-01-02T15:04:05.000Z"

// FormatUTCMillis renders t in UTC using UTCMillisLayout, e.g. 2023-03-12T07:01:00.000Z
func FormatUTCMillis(t time.Time) string { return t.UTC().Format(UTCMillisLayout) }
