package table

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NumberFormat pins the separators used when reading numbers from text.
// Zero values auto-detect per value.
type NumberFormat struct {
	Decimal   rune
	Thousands rune
}

// numericRe validates a cleaned number: integers, decimals, scientific notation.
var numericRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber reads a number out of messy spreadsheet text: percent signs,
// currency symbols, locale separators ("1.234,5" and "1,234.5") and accounting
// negatives "(12.50)". NaN and Inf spellings are rejected.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if raw == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}
	for _, sym := range []string{"%", "$", "€", "£"} {
		raw = strings.ReplaceAll(raw, sym, "")
	}
	raw = strings.TrimSpace(raw)

	dec, thou := nf.Decimal, nf.Thousands
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
			// "0,5" is a decimal comma; "1,000" is a thousands group.
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 || thou == ' ' {
		var ok bool
		if raw, ok = stripSpaceGroups(raw); !ok {
			return 0, false
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.'} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec && thou != ' ' {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if !numericRe.MatchString(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

var (
	spaceGroupHead = regexp.MustCompile(`^[+-]?\d{1,3}$`)
	spaceGroupTail = regexp.MustCompile(`^\d{3}(\D.*)?$`)
)

// stripSpaceGroups removes spaces that separate thousands groups ("1 234 567").
// Any other space means raw is not a single number.
func stripSpaceGroups(raw string) (string, bool) {
	if !strings.Contains(raw, " ") {
		return raw, true
	}
	parts := strings.Split(raw, " ")
	if !spaceGroupHead.MatchString(parts[0]) {
		return "", false
	}
	for _, p := range parts[1:] {
		if !spaceGroupTail.MatchString(p) {
			return "", false
		}
	}
	return strings.Join(parts, ""), true
}

// IsInteger reports whether f has no fractional part.
func IsInteger(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0)
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006", "1/2/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"1/2/2006 15:04", "1/2/2006 15:04:05", "02.01.2006",
	"Jan 2, 2006", "2 Jan 2006", "January 2, 2006", "02-Jan-2006",
}

// ParseTime tries a fixed list of layouts. Bare integers are never dates, so
// compact forms like 20240131 stay numeric.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
