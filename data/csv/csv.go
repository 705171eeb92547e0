// Package csv loads OHLCV candle files into backtest bars. Column order
// is free as long as the header names the fields; unknown columns are
// kept as auxiliary data series
package csv

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

	"github.com/rs/zerolog/log"

	"github.com/quantave/gobacktester/data"
)

var (
	errNoHeader     = errors.New("csv file has no header row")
	errNoTimeColumn = errors.New("csv header has no time column")
	errNoPriceField = errors.New("csv header is missing an ohlc column")
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LoadFromFile reads candles from a file on disk
func LoadFromFile(path string) ([]data.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	bars, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// Load reads candles from r. Rows whose OHLC fields cannot be parsed are
// skipped with a warning rather than failing the whole file
func Load(r io.Reader) ([]data.Bar, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errNoHeader
	}
	if err != nil {
		return nil, err
	}

	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var bars []data.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		bar, ok := parseRow(cols, record, line)
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

type columnMap struct {
	time, open, high, low, close, volume int
	aux                                  map[string]int
}

func mapHeader(header []string) (*columnMap, error) {
	cols := &columnMap{time: -1, open: -1, high: -1, low: -1, close: -1, volume: -1, aux: make(map[string]int)}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time", "date", "timestamp":
			cols.time = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.close = i
		case "volume", "vol":
			cols.volume = i
		default:
			cols.aux[strings.ToLower(strings.TrimSpace(name))] = i
		}
	}
	if cols.time == -1 {
		return nil, errNoTimeColumn
	}
	if cols.open == -1 || cols.high == -1 || cols.low == -1 || cols.close == -1 {
		return nil, errNoPriceField
	}
	return cols, nil
}

func parseRow(cols *columnMap, record []string, line int) (data.Bar, bool) {
	ts, err := parseTime(record[cols.time])
	if err != nil {
		log.Warn().Int("line", line).Str("value", record[cols.time]).Msg("skipping row with unparsable timestamp")
		return data.Bar{}, false
	}

	open, err1 := strconv.ParseFloat(record[cols.open], 64)
	high, err2 := strconv.ParseFloat(record[cols.high], 64)
	low, err3 := strconv.ParseFloat(record[cols.low], 64)
	closePrice, err4 := strconv.ParseFloat(record[cols.close], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil ||
		math.IsNaN(open) || math.IsNaN(high) || math.IsNaN(low) || math.IsNaN(closePrice) {
		log.Warn().Int("line", line).Msg("skipping row with unparsable ohlc")
		return data.Bar{}, false
	}

	var volume float64
	if cols.volume != -1 {
		if volume, err = strconv.ParseFloat(record[cols.volume], 64); err != nil {
			volume = 0
		}
	}

	bar := data.Bar{
		Time:   ts,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}
	if len(cols.aux) > 0 {
		bar.Aux = make(map[string]float64, len(cols.aux))
		for name, idx := range cols.aux {
			v, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				v = math.NaN()
			}
			bar.Aux[name] = v
		}
	}
	return bar, true
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", raw)
}
