package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const priceNumber = `(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`

var (
	nonDigit      = regexp.MustCompile(`[^0-9]`)
	suffixedCount = regexp.MustCompile(`(?i)^\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*([km])\b`)

	// ordered: the first pattern with a match wins
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(` + priceNumber + `)\s*원`),
		regexp.MustCompile(`\((` + priceNumber + `)[/\s]`),
		regexp.MustCompile(`[￦₩]\s*(` + priceNumber + `)`),
		regexp.MustCompile(`(` + priceNumber + `)\s*/`),
		regexp.MustCompile(`(\d{4,})`),
	}

	freeShipping = regexp.MustCompile(`(?i)무료|free|무배`)
)

// ParseCount converts a count string such as "9,887", "1.5k" or "(13)" to
// an int. A k or m right after the leading number multiplies it, so
// "2.3k views" and "12k+" work too. Anything unparseable yields 0.
func ParseCount(text string) int {
	if m := suffixedCount.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			return 0
		}
		mult := 1000.0
		if strings.EqualFold(m[2], "m") {
			mult = 1_000_000
		}
		return int(math.Round(n * mult))
	}

	digits := nonDigit.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// ParsePrice finds the first price-looking number in free text such as a
// deal title: "13,900원", "(27,600/무료)", "￦13,900", "27,600/" or any run
// of four or more digits. It returns 0 and false when nothing matches.
func ParsePrice(text string) (int, bool) {
	for _, p := range pricePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		if dot := strings.IndexByte(raw, '.'); dot >= 0 {
			raw = raw[:dot]
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// IsFreeShipping reports whether any of the texts announces free delivery.
func IsFreeShipping(texts ...string) bool {
	for _, t := range texts {
		if freeShipping.MatchString(t) {
			return true
		}
	}
	return false
}

// ShippingIsZero reports whether a dedicated shipping field states a
// zero amount, e.g. "0원".
func ShippingIsZero(text string) bool {
	if nonDigit.ReplaceAllString(text, "") == "" {
		return false
	}
	return ParseCount(text) == 0
}

// CollapseSpace trims s and folds internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
