package classify

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// DefaultLabels is the built-in noise vocabulary used when no class-map file
// is configured.
var DefaultLabels = []string{
	"Silence",
	"Speech",
	"Music",
	"Traffic",
	"Sirens",
	"Animals",
	"Water",
	"Wind",
}

// LoadLabels reads a model class map in the YAMNet CSV layout
// (index,mid,display_name with a header row) and returns the display names in
// index order. An empty path selects DefaultLabels.
func LoadLabels(path string) ([]string, error) {
	if path == "" {
		return DefaultLabels, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class map %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse class map %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("class map %s has no label rows", path)
	}

	labels := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] { // skip header
		if len(row) < 3 {
			return nil, fmt.Errorf("class map %s has a malformed row: %v", path, row)
		}
		labels = append(labels, strings.TrimSpace(row[2]))
	}
	return labels, nil
}
