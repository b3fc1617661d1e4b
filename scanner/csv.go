package scanner

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// InlineReportLimit is the row count above which a sweep report is attached
// as a CSV file instead of listed inline.
const InlineReportLimit = 300

// CSVRetention is how long an attached report file stays on disk. The caller
// schedules the removal after posting the attachment.
const CSVRetention = 60 * time.Second

// WriteCSV writes the sweep rows to a report file under dir and returns its
// path.
func WriteCSV(dir string, rows []MemberRow, now time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("scan-%s.csv", now.Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"userId", "tag", "displayName", "platforms", "joinedAt"}); err != nil {
		f.Close()
		return "", err
	}
	for _, r := range rows {
		joined := ""
		if !r.JoinedAt.IsZero() {
			joined = r.JoinedAt.UTC().Format(time.RFC3339)
		}
		record := []string{r.UserID, r.Tag, r.DisplayName, strings.Join(r.Platforms, "|"), joined}
		if err := w.Write(record); err != nil {
			f.Close()
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
