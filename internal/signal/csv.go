package signal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"liquidityPilot/internal/model"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LoadCSV reads a date,signal CSV file. Each date is shifted by offset.
func LoadCSV(path string, offset time.Duration) (*Feed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open signals: %w", err)
	}
	defer file.Close()

	points, err := ParseCSV(file, offset)
	if err != nil {
		return nil, err
	}
	return NewFeed(points), nil
}

// ParseCSV parses signal rows from r. The header must contain "date" and "signal" columns.
func ParseCSV(r io.Reader, offset time.Duration) ([]model.SignalPoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("signals: empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateCol, signalCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateCol = i
		case "signal":
			signalCol = i
		}
	}
	if dateCol < 0 || signalCol < 0 {
		return nil, fmt.Errorf("signals: header must contain date and signal columns")
	}

	points := make([]model.SignalPoint, 0, 256)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		ts, err := parseTime(row[dateCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		value, err := ParseValue(row[signalCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		points = append(points, model.SignalPoint{Time: ts.Add(offset), Value: value})
	}

	return points, nil
}

// ParseValue accepts -1, 0, 1 written as integers or floats.
func ParseValue(input string) (model.Signal, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid signal %q", input)
	}
	v := math.Round(f)
	if v != f || v < -1 || v > 1 {
		return 0, fmt.Errorf("signal out of range: %q", input)
	}
	return model.Signal(int(v)), nil
}

func parseTime(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, input); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", input)
}
