package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Source CSV headers, exactly as the producer writes them
const (
	HeaderCategory    = "Category"
	HeaderSubCategory = "Sub-Category"
	HeaderMonth       = "Month"
	HeaderMillions    = "Millions of Dollars"
)

// RequiredHeaders must all be present in the input file
var RequiredHeaders = []string{HeaderCategory, HeaderSubCategory, HeaderMonth, HeaderMillions}

// GenericRecord is one raw CSV row keyed by column name
type GenericRecord map[string]string

// ReadConsumptionCSV reads the input file. A missing or empty file, a broken
// CSV stream or a missing required column is an ErrDataFormat error.
func ReadConsumptionCSV(fsys afero.Fs, path string) ([]GenericRecord, error) {
	file, err := fsys.Open(path)
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("%w: input file %s does not exist", ErrDataFormat, path)
		}
		return nil, fmt.Errorf("%w: failed to open CSV file %s: %w", ErrDataFormat, path, err)
	}
	defer file.Close()

	records, err := ParseConsumptionCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ParseConsumptionCSV parses CSV content with a header row. Extra columns are
// ignored; rows shorter than the header get empty cells.
func ParseConsumptionCSV(r io.Reader) ([]GenericRecord, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", ErrDataFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %w", ErrDataFormat, err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[cleanHeader(h, i == 0)] = i
	}

	var missing []string
	for _, h := range RequiredHeaders {
		if _, ok := index[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required column(s): %s", ErrDataFormat, strings.Join(missing, ", "))
	}

	var records []GenericRecord
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: CSV read error: %w", ErrDataFormat, err)
		}

		rec := make(GenericRecord, len(RequiredHeaders))
		for _, h := range RequiredHeaders {
			if i := index[h]; i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// cleanHeader trims whitespace and quotes, and a UTF-8 BOM on the first header
func cleanHeader(h string, first bool) string {
	if first {
		h = strings.TrimPrefix(h, "\ufeff")
	}
	h = strings.TrimSpace(h)
	return strings.ReplaceAll(h, `"`, "")
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
