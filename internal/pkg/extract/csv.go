package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// readCSV parses the file and writes it back in canonical CSV form, so
// quoting and line endings are uniform before row batching.
func readCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse CSV: %w", err)
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return b.String(), nil
}
