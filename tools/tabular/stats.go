// Package tabular provides tools that summarize tabular files, Excel
// workbooks and CSV files, for the model to reason over.
package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/gaia-agent", "tabular")

// columnStats holds descriptive statistics of one numeric column.
type columnStats struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

// summarize renders the row/column counts, the column names and
// descriptive statistics of every numeric column.
func summarize(kind string, header []string, rows [][]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s file loaded with %d rows and %d columns.\n", kind, len(rows), len(header))
	fmt.Fprintf(&sb, "Columns: %s\n\n", strings.Join(header, ", "))
	sb.WriteString("Summary statistics:\n")

	stats := describe(header, rows)
	if len(stats) == 0 {
		sb.WriteString("No numeric columns found.")
		return sb.String()
	}
	for _, cs := range stats {
		fmt.Fprintf(&sb, "%s: count=%d mean=%.6g std=%.6g min=%.6g max=%.6g\n",
			cs.Name, cs.Count, cs.Mean, cs.Std, cs.Min, cs.Max)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// describe computes statistics for each column where every non-empty
// cell parses as a number. Empty cells are skipped, matching how a
// data frame treats missing values.
func describe(header []string, rows [][]string) []columnStats {
	var stats []columnStats
	for col, name := range header {
		var values []float64
		numeric := true
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				numeric = false
				break
			}
			values = append(values, v)
		}
		if !numeric || len(values) == 0 {
			continue
		}
		stats = append(stats, columnStats{
			Name:  name,
			Count: len(values),
			Mean:  mean(values),
			Std:   std(values),
			Min:   minOf(values),
			Max:   maxOf(values),
		})
	}
	return stats
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// std is the sample standard deviation, ddof=1.
func std(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return m
}
