// Package feed loads daily market snapshots from date-keyed CSV files stored
// locally or in S3-compatible object storage, and normalizes the screen
// export format into domain.Snapshot.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// earningsYear is the fixed reference year for the screen's "Earnings" column,
// which carries no year of its own.
const earningsYear = 2021

// DateKey formats a calendar date the way snapshot objects are keyed.
func DateKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// ObjectKey returns the storage key for a date's snapshot CSV.
func ObjectKey(day time.Time) string {
	return DateKey(day) + ".csv"
}

// ParseSnapshot reads a screen-export CSV and returns the snapshot keyed by
// ticker. The row-number ("No.") column is dropped, numeric columns tolerate
// thousands separators and "-" placeholders (which become NaN), "IPO Date"
// is parsed as a calendar date, and the irregular "Earnings" column is
// normalized per parseEarnings.
func ParseSnapshot(r io.Reader) (domain.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("feed: read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["Ticker"]; !ok {
		return nil, fmt.Errorf("feed: csv missing Ticker column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	snap := make(domain.Snapshot)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed: read csv row: %w", err)
		}

		ticker := field(row, "Ticker")
		if ticker == "" {
			continue
		}

		q := domain.Quote{
			Ticker:    ticker,
			Price:     parseNumber(field(row, "Price")),
			FromOpen:  parseNumber(field(row, "from Open")),
			Change:    parseNumber(field(row, "Change")),
			Volume:    parseNumber(field(row, "Volume")),
			MarketCap: parseNumber(field(row, "Market Cap")),
			PerfYear:  parseNumber(field(row, "Perf Year")),
			PerfWeek:  parseNumber(field(row, "Perf Week")),
			PE:        parseNumber(field(row, "P/E")),
			IPODate:   parseIPODate(field(row, "IPO Date")),
			Earnings:  parseEarnings(field(row, "Earnings")),
		}
		snap[ticker] = q
	}
	return snap, nil
}

// parseNumber parses a screen numeric cell. Thousands separators and percent
// signs are stripped; empty cells and "-" placeholders become NaN so that
// threshold comparisons against them are always false.
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == "-" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ipoDateLayouts lists the formats seen in the screen's "IPO Date" column.
var ipoDateLayouts = []string{"1/2/2006", "2006-01-02", "Jan 2, 2006"}

func parseIPODate(s string) *time.Time {
	if s == "" || s == "-" {
		return nil
	}
	for _, layout := range ipoDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// parseEarnings normalizes the irregular "Earnings" cell. A trailing "b"
// (before open) means 08:30 that day, a trailing "a" (after close) means
// 16:00; otherwise the cell is a bare day-month or month-day date reported
// at 16:00. The screen never includes a year, so earningsYear is assumed.
func parseEarnings(s string) *time.Time {
	if s == "" || s == "-" {
		return nil
	}

	hour, min := 16, 0
	if strings.HasSuffix(s, "b") || strings.HasSuffix(s, "a") {
		if strings.HasSuffix(s, "b") {
			hour, min = 8, 30
		}
		// Strip the "/b" or "/a" marker.
		s = strings.TrimRight(s[:len(s)-1], "/ ")
	}

	for _, layout := range []string{"2-Jan", "Jan 2"} {
		if t, err := time.Parse(layout, s); err == nil {
			out := time.Date(earningsYear, t.Month(), t.Day(), hour, min, 0, 0, time.UTC)
			return &out
		}
	}
	return nil
}
