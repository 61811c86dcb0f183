package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column names the dataset must provide.
const (
	URLColumn   = "url"
	LabelColumn = "label"
)

var (
	// ErrNotFound is returned when the dataset file does not exist.
	ErrNotFound = errors.New("dataset not found")
	// ErrMissingColumns is returned when the header lacks url or label.
	ErrMissingColumns = errors.New("CSV must contain columns: url,label")
	// ErrInvalidLabel is returned for label values other than 0 and 1.
	ErrInvalidLabel = errors.New("label must be 0 or 1")
)

// naValues - значения, которые считаются пропуском (как в pandas.read_csv)
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Sample is one labeled URL.
type Sample struct {
	URL   string `json:"url"`
	Label int    `json:"label"`
}

// Dataset - загруженные примеры и статистика по отброшенным строкам
type Dataset struct {
	Samples []Sample
	Dropped int
}

// ClassCounts returns the number of samples per label.
func (d *Dataset) ClassCounts() map[int]int {
	counts := make(map[int]int)
	for _, s := range d.Samples {
		counts[s.Label]++
	}
	return counts
}

// Load читает CSV датасет с колонками url,label.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s: create it with columns: url,label (1=phish, 0=safe)", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer file.Close()

	ds, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ds, nil
}

// Read parses a dataset from r. A leading UTF-8 BOM is ignored.
func Read(r io.Reader) (*Dataset, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingColumns
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	urlIdx, labelIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case URLColumn:
			if urlIdx < 0 {
				urlIdx = i
			}
		case LabelColumn:
			if labelIdx < 0 {
				labelIdx = i
			}
		}
	}
	if urlIdx < 0 || labelIdx < 0 {
		return nil, ErrMissingColumns
	}

	ds := &Dataset{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rawURL, okURL := field(record, urlIdx)
		rawLabel, okLabel := field(record, labelIdx)
		if !okURL || !okLabel {
			ds.Dropped++
			continue
		}

		label, err := parseLabel(rawLabel)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ds.Samples = append(ds.Samples, Sample{URL: rawURL, Label: label})
	}

	return ds, nil
}

// field returns the value at idx and false when it is missing.
func field(record []string, idx int) (string, bool) {
	if idx >= len(record) {
		return "", false
	}
	v := record[idx]
	if _, na := naValues[strings.TrimSpace(v)]; na {
		return "", false
	}
	return v, true
}

func parseLabel(raw string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidLabel, raw)
	}
	switch f {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	}
	return 0, fmt.Errorf("%w: got %q", ErrInvalidLabel, raw)
}
