package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadIngredientsFile parses a reference ingredient file. The format is picked by
// extension:
//
//	.json  [{"name": "абрикосовое варенье", "measurement_unit": "г"}, ...]
//	.csv   абрикосовое варенье,г   (no header row)
func ReadIngredientsFile(path string) ([]Ingredient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseIngredientsJSON(f)
	case ".csv":
		return ParseIngredientsCSV(f)
	default:
		return nil, fmt.Errorf("unsupported ingredient file %q: expected .json or .csv", path)
	}
}

// ParseIngredientsJSON reads a JSON array of {name, measurement_unit} objects.
func ParseIngredientsJSON(r io.Reader) ([]Ingredient, error) {
	var items []Ingredient
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode ingredients JSON: %w", err)
	}
	return items, nil
}

// ParseIngredientsCSV reads two-column name,unit records.
func ParseIngredientsCSV(r io.Reader) ([]Ingredient, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var items []Ingredient
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ingredients CSV: %w", err)
		}
		items = append(items, Ingredient{Name: record[0], MeasurementUnit: record[1]})
	}
	return items, nil
}
