package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"campaigndash/internal/domain"
)

const (
	// serial day counts live strictly between 0 and this bound; everything else is epoch millis
	serialDateLimit = 100000
	// dates in or before this year are treated as garbage
	minSendYear = 1900
	msPerDay    = 24 * 60 * 60 * 1000
	// largest epoch offset a calendar date may carry
	maxEpochMillis = 8.64e15
)

var (
	canonicalSendTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)
	leadingNumber     = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	numberNoise       = strings.NewReplacer(",", "", "%", "")
)

// ToNumber coerces a raw cell to a finite number, falling back to 0.
func ToNumber(c domain.Cell) float64 {
	switch c.Kind {
	case domain.CellNumber:
		return finiteOrZero(c.Number)
	case domain.CellText:
		return parseNumberText(c.Text)
	default:
		return 0
	}
}

func parseNumberText(s string) float64 {
	if s == "n/a" || strings.TrimSpace(s) == "" {
		return 0
	}

	cleaned := strings.TrimSpace(numberNoise.Replace(s))
	match := leadingNumber.FindString(cleaned)
	if match == "" {
		return 0
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(value)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SerialDateEpoch is day zero of the spreadsheet date system in loc.
// It keeps the 1900 leap-year offset that spreadsheets carry.
func SerialDateEpoch(loc *time.Location) time.Time {
	return time.Date(1899, time.December, 30, 0, 0, 0, 0, orLocal(loc))
}

// ToSendTime coerces a raw cell to "YYYY-MM-DD HH:MM:SS" in loc.
// Unparseable text is returned unchanged; anything else that cannot be dated yields "".
func ToSendTime(c domain.Cell, loc *time.Location) string {
	loc = orLocal(loc)

	switch c.Kind {
	case domain.CellText:
		if c.IsEmpty() {
			return ""
		}
		if canonicalSendTime.MatchString(c.Text) {
			return c.Text
		}
		if t, ok := parseDateText(c.Text, loc); ok && t.In(loc).Year() > minSendYear {
			return formatSendTime(t, loc)
		}
		return c.Text
	case domain.CellDate:
		if c.Time.IsZero() {
			return ""
		}
		return formatSendTime(c.Time, loc)
	case domain.CellNumber:
		return numberToSendTime(c.Number, loc)
	default:
		return ""
	}
}

func numberToSendTime(v float64, loc *time.Location) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}

	var t time.Time
	if v > 0 && v < serialDateLimit {
		offset := time.Duration(math.Round(v*msPerDay)) * time.Millisecond
		t = SerialDateEpoch(loc).Add(offset)
	} else {
		if math.Abs(v) > maxEpochMillis {
			return ""
		}
		t = time.UnixMilli(int64(v))
	}

	if t.In(loc).Year() <= minSendYear {
		return ""
	}
	return formatSendTime(t, loc)
}

// ParseSendTime reads a sendTime value back into an instant.
func ParseSendTime(s string, loc *time.Location) (time.Time, bool) {
	loc = orLocal(loc)
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(domain.SendTimeLayout, s, loc); err == nil {
		return t, true
	}
	return parseDateText(s, loc)
}

func parseDateText(s string, loc *time.Location) (t time.Time, ok bool) {
	// dateparse can panic on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(strings.TrimSpace(s), loc)
	if err != nil || parsed.IsZero() {
		return time.Time{}, false
	}
	return parsed, true
}

func formatSendTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(domain.SendTimeLayout)
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
