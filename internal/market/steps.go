// Package market turns recorded pool activity into backtest steps.
package market

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"liquidityPilot/internal/model"
)

// SwapConfig controls how swap events are windowed into steps.
type SwapConfig struct {
	WindowSeconds uint64
	Pool          string
	Decimals0     uint8
	Decimals1     uint8
}

// ReadStepsFile reads steps from a JSONL file.
func ReadStepsFile(path string) ([]model.Step, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open steps: %w", err)
	}
	defer file.Close()
	return ReadSteps(file)
}

// ReadSteps decodes one model.Step per line and returns them in time order.
func ReadSteps(r io.Reader) ([]model.Step, error) {
	scanner := newScanner(r)
	steps := make([]model.Step, 0, 1024)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var step model.Step
		if err := json.Unmarshal(data, &step); err != nil {
			return nil, fmt.Errorf("decode step line %d: %w", line, err)
		}
		steps = append(steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan steps: %w", err)
	}
	sortSteps(steps)
	return steps, nil
}

// ReadSwapStepsFile windows a typed-event JSONL file into steps.
func ReadSwapStepsFile(path string, cfg SwapConfig, logger *zap.Logger) ([]model.Step, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open swaps: %w", err)
	}
	defer file.Close()
	return ReadSwapSteps(file, cfg, logger)
}

// ReadSwapSteps windows decoded Swap events into one step per non-empty window.
func ReadSwapSteps(r io.Reader, cfg SwapConfig, logger *zap.Logger) ([]model.Step, error) {
	if cfg.WindowSeconds == 0 {
		return nil, fmt.Errorf("window seconds must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	scanner := newScanner(r)
	steps := make([]model.Step, 0, 1024)
	var acc *Accumulator
	var total, skipped, failed int

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			logger.Warn("decode typed event", zap.Error(err))
			continue
		}
		if cfg.Pool != "" && !strings.EqualFold(record.Address, cfg.Pool) {
			skipped++
			continue
		}

		start := windowStart(record.Timestamp, cfg.WindowSeconds)
		if acc == nil || acc.WindowStart != start {
			if acc != nil && acc.SwapCount > 0 {
				steps = append(steps, acc.Step(cfg.Decimals0, cfg.Decimals1))
			}
			acc = NewAccumulator(start, start+cfg.WindowSeconds)
		}

		if err := acc.AddEvent(record); err != nil {
			failed++
			logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Address), zap.String("event", record.EventName))
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan swaps: %w", err)
	}
	if acc != nil && acc.SwapCount > 0 {
		steps = append(steps, acc.Step(cfg.Decimals0, cfg.Decimals1))
	}

	logger.Info("swap windows built",
		zap.Int("total", total),
		zap.Int("steps", len(steps)),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	sortSteps(steps)
	return steps, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)
	return scanner
}

func sortSteps(steps []model.Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Time.Before(steps[j].Time)
	})
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}
