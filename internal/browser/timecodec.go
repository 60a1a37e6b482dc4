package browser

import (
	"errors"
	"time"
)

// ErrUnsupportedFamily is returned when a native timestamp is decoded
// or encoded for a family this package does not know.
var ErrUnsupportedFamily = errors.New("unsupported browser family")

// Seconds between the Chromium epoch (1601-01-01T00:00:00Z) and the
// Unix epoch.
const chromiumEpochOffsetSec = 11644473600

// ToTime decodes a family-native timestamp into an absolute instant.
// Precision is microseconds for both families; the result is UTC.
func (f Family) ToTime(native int64) (time.Time, error) {
	switch f {
	case Chromium:
		sec := native/1e6 - chromiumEpochOffsetSec
		usec := native % 1e6
		return time.Unix(sec, usec*1000).UTC(), nil
	case Mozilla:
		return time.Unix(native/1e6, (native%1e6)*1000).UTC(), nil
	default:
		return time.Time{}, ErrUnsupportedFamily
	}
}

// FromTime encodes an absolute instant into the family-native
// representation. Round-trips with ToTime exactly at microsecond
// precision.
func (f Family) FromTime(t time.Time) (int64, error) {
	switch f {
	case Chromium:
		return (t.Unix()+chromiumEpochOffsetSec)*1e6 + int64(t.Nanosecond())/1000, nil
	case Mozilla:
		return t.UnixMicro(), nil
	default:
		return 0, ErrUnsupportedFamily
	}
}
