package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// ExportCSV writes one header row ("frame" plus the requested columns) and
// one row per frame index up to the longest registered series, values in
// 6-decimal fixed-point. Requested columns that were never registered are
// silently omitted from the header. Unlike the rest of the pipeline, I/O
// failures are surfaced as errors so callers can tell a missing file from a
// short run.
func (c *Collector) ExportCSV(path string, columns []string) error {
	cols := make([]string, 0, len(columns))
	for _, name := range columns {
		if c.Registered(name) {
			cols = append(cols, name)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("metrics: create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{"frame"}, cols...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("metrics: write csv header: %w", err)
	}

	rows := c.MaxLen()
	row := make([]string, len(header))
	for frame := 0; frame < rows; frame++ {
		row[0] = strconv.Itoa(frame)
		for i, name := range cols {
			s, _ := c.Series(name)
			row[i+1] = strconv.FormatFloat(s.At(frame), 'f', 6, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("metrics: write csv row %d: %w", frame, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("metrics: flush csv: %w", err)
	}
	return nil
}
