// Package gridio reads amplitude grids from capture exports and writes
// defect reports. Ragged input rows are accepted; missing cells read as 0.0.
package gridio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"cscan/internal/models"
)

// ReadCSV parses one grid row per line. Empty fields read as 0.0.
func ReadCSV(r io.Reader) (*models.Grid, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV grid: %w", err)
	}

	rows := make([][]float64, len(records))
	for y, record := range records {
		rows[y] = make([]float64, len(record))
		for x, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", y+1, x+1, err)
			}
			rows[y][x] = v
		}
	}

	return models.FromRows(rows), nil
}

// ReadJSON parses a grid encoded as an array of row arrays. null rows and
// short rows are accepted.
func ReadJSON(r io.Reader) (*models.Grid, error) {
	var rows [][]float64
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("error decoding JSON grid: %w", err)
	}
	return models.FromRows(rows), nil
}

// Load reads a grid file, choosing the parser from its extension
func Load(path string) (*models.Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening grid file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadCSV(file)
	case ".json":
		return ReadJSON(file)
	default:
		return nil, &models.ConfigurationError{
			Field:  "input format",
			Value:  filepath.Ext(path),
			Reason: "unsupported extension (expected .csv, .txt or .json)",
		}
	}
}

// Report is the serializable outcome of a detection run
type Report struct {
	Source    string           `json:"source" yaml:"source"`
	Rows      int              `json:"rows" yaml:"rows"`
	Cols      int              `json:"cols" yaml:"cols"`
	Threshold float64          `json:"threshold" yaml:"threshold"`
	Stats     models.GridStats `json:"stats" yaml:"stats"`
	Defects   []models.Defect  `json:"defects" yaml:"defects"`
}

// WriteReport encodes report as "json" or "yaml"
func WriteReport(w io.Writer, report *Report, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return &models.ConfigurationError{Field: "report format", Value: format, Reason: "expected json or yaml"}
	}
}

// SaveReport writes report to path, choosing the encoding from its extension
func SaveReport(report *Report, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	defer file.Close()

	if err := WriteReport(file, report, format); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return file.Close()
}

// LoadReport reads a report previously written by SaveReport
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading report: %w", err)
	}

	report := &Report{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, report)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, report)
	default:
		return nil, &models.ConfigurationError{Field: "report format", Value: filepath.Ext(path), Reason: "expected .json or .yaml"}
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing report: %w", err)
	}
	return report, nil
}
