package outline

import (
	"cmp"
	"slices"
	"strings"
)

// Compare orders outline IDs naturally: digit runs compare numerically, so
// "2" < "10" and "3" < "3a" < "3b" < "4".
func Compare(a, b string) int {
	for a != "" && b != "" {
		ca, restA := chunk(a)
		cb, restB := chunk(b)
		numA, numB := isDigit(ca[0]), isDigit(cb[0])
		switch {
		case numA && numB:
			if c := compareDigits(ca, cb); c != 0 {
				return c
			}
		case numA:
			return -1
		case numB:
			return 1
		default:
			if c := strings.Compare(ca, cb); c != 0 {
				return c
			}
		}
		a, b = restA, restB
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	}
	return 1
}

// compareDigits compares two digit runs by value without parsing them, so
// runs of any length order correctly.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return cmp.Compare(len(a), len(b))
	}
	return strings.Compare(a, b)
}

// SortIDs sorts ids in place in natural outline order.
func SortIDs(ids []string) {
	slices.SortFunc(ids, Compare)
}

func chunk(s string) (string, string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
