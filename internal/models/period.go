package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Period is a trailing reporting window measured in days
type Period int

const (
	PeriodWeek    Period = 7
	PeriodMonth   Period = 30
	PeriodQuarter Period = 90
	PeriodYear    Period = 365
)

// DefaultPeriod is the window shown before the user picks one
const DefaultPeriod = PeriodMonth

// Periods lists the selectable windows in display order
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear}

// Valid reports whether p is one of the selectable windows
func (p Period) Valid() bool {
	for _, candidate := range Periods {
		if p == candidate {
			return true
		}
	}
	return false
}

// Days returns the window length
func (p Period) Days() int {
	return int(p)
}

// String returns the query-string form, e.g. "30"
func (p Period) String() string {
	return strconv.Itoa(int(p))
}

// Label returns the selector caption
func (p Period) Label() string {
	switch p {
	case PeriodWeek:
		return "7 Days"
	case PeriodMonth:
		return "30 Days"
	case PeriodQuarter:
		return "90 Days"
	case PeriodYear:
		return "1 Year"
	}
	return fmt.Sprintf("%d Days", int(p))
}

// ParsePeriod parses a day count such as "90"
func ParsePeriod(s string) (Period, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid period %q", s)
	}
	p := Period(n)
	if !p.Valid() {
		return 0, fmt.Errorf("unsupported period %d: choose one of 7, 30, 90 or 365", n)
	}
	return p, nil
}
