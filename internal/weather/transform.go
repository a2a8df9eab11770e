package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Transform normalizes one raw record into a Sample.
type Transform func(Row) (Sample, error)

const (
	TransformBigEndian = "big-endian"
	TransformISO8601   = "iso8601"
	TransformAuto      = "auto"
)

// TransformByName returns the transform registered under name.
// The empty name selects the auto-typing transform.
func TransformByName(name string) (Transform, bool) {
	switch name {
	case TransformBigEndian, "bigEndian":
		return BigEndian, true
	case TransformISO8601:
		return ISO8601, true
	case TransformAuto, "":
		return AutoType, true
	default:
		return nil, false
	}
}

// BigEndian parses a fixed-width YYYYMMDD date. The value is left as is.
func BigEndian(r Row) (Sample, error) {
	return parseDate(r, "20060102")
}

// ISO8601 parses a YYYY-MM-DD date. The value is left as is.
func ISO8601(r Row) (Sample, error) {
	return parseDate(r, "2006-01-02")
}

func parseDate(r Row, layout string) (Sample, error) {
	raw := strings.TrimSpace(r["date"])
	d, err := time.ParseInLocation(layout, raw, time.UTC)
	if err != nil {
		return Sample{}, fmt.Errorf("date %q: %w", raw, err)
	}
	return Sample{Date: d, Value: Value(r["value"])}, nil
}

// autoLayouts lists the date encodings recognized by AutoType, most precise first.
var autoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
}

// AutoType infers the date encoding among the ISO-8601 forms and normalizes
// numeric values ("4.50 " becomes "4.5"). Non-numeric values are kept trimmed.
func AutoType(r Row) (Sample, error) {
	raw := strings.TrimSpace(r["date"])

	var (
		d   time.Time
		err error
	)
	for _, layout := range autoLayouts {
		d, err = time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			break
		}
	}
	if err != nil {
		return Sample{}, fmt.Errorf("date %q: no known encoding", raw)
	}

	v := strings.TrimSpace(r["value"])
	if f, perr := strconv.ParseFloat(v, 64); perr == nil {
		v = strconv.FormatFloat(f, 'f', -1, 64)
	}

	return Sample{Date: d.UTC(), Value: Value(v)}, nil
}
