package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIngredientsJSON(t *testing.T) {
	items, err := ParseIngredientsJSON(strings.NewReader(
		`[{"name": "абрикосовое варенье", "measurement_unit": "г"}, {"name": "соль", "measurement_unit": "щепотка"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Ingredient{
		{Name: "абрикосовое варенье", MeasurementUnit: "г"},
		{Name: "соль", MeasurementUnit: "щепотка"},
	}, items)

	_, err = ParseIngredientsJSON(strings.NewReader(`{"name": "not a list"}`))
	assert.Error(t, err)
}

func TestParseIngredientsCSV(t *testing.T) {
	items, err := ParseIngredientsCSV(strings.NewReader("абрикосовое варенье,г\n\"мука, пшеничная\", г\n"))
	require.NoError(t, err)
	assert.Equal(t, []Ingredient{
		{Name: "абрикосовое варенье", MeasurementUnit: "г"},
		{Name: "мука, пшеничная", MeasurementUnit: "г"},
	}, items)

	_, err = ParseIngredientsCSV(strings.NewReader("only-one-column\n"))
	assert.Error(t, err)
}

func TestReadIngredientsFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "ingredients.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"name":"мёд","measurement_unit":"г"}]`), 0o644))

	items, err := ReadIngredientsFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	txtPath := filepath.Join(dir, "ingredients.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("мёд,г"), 0o644))
	_, err = ReadIngredientsFile(txtPath)
	assert.Error(t, err)

	_, err = ReadIngredientsFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
