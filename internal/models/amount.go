package models

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrNotNumeric is returned by ParseAmount for input that is not a plain won amount
var ErrNotNumeric = errors.New("amount is not numeric")

var wonPrinter = message.NewPrinter(language.Korean)

// ParseAmount parses a won amount, accepting "," and spaces as digit grouping
func ParseAmount(s string) (int64, error) {
	s = strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrNotNumeric
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrNotNumeric
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return n, nil
}

// FormatWon renders an amount with Korean digit grouping, e.g. 1,250,000
func FormatWon(n int64) string {
	return wonPrinter.Sprintf("%d", n)
}
