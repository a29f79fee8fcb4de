package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DatePlaceholder is replaced by the logical date (YYYYMMDD) in input path templates
const DatePlaceholder = "{date}"

// ExpandInputPath fills the date placeholder of a path template
func ExpandInputPath(template string, date time.Time) string {
	return strings.ReplaceAll(template, DatePlaceholder, date.Format("20060102"))
}

// thousandsGrouped matches numbers whose integer part uses comma thousand separators
var thousandsGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseInt parses an integer cell. Surrounding whitespace and well-formed
// thousand separators ("1,234") are ignored and integral floats ("12.0") are
// accepted. Misplaced commas ("1,2") are rejected.
func ParseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return 0, false
	}

	// try int
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	// try float
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// logicalTimeLayouts are accepted by ParseLogicalTime, most precise first
var logicalTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"20060102",
}

// ParseLogicalTime parses a run's logical timestamp. Empty input means now.
func ParseLogicalTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	for _, layout := range logicalTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid logical time %q: want RFC3339 or YYYY-MM-DD", s)
}
