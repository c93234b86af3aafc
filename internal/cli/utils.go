// Package cli provides CLI output helpers for Tessera.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/hyperjump/tessera/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteStatus writes a status report to w in the given format.
func WriteStatus(w io.Writer, status *models.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	writeStatusText(w, status)
	return nil
}

func writeStatusText(w io.Writer, status *models.StatusResponse) {
	fmt.Fprintf(w, "Corpus tiles: %d\n", status.CorpusTiles)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "Disk usage:   %s\n", FormatBytes(*status.DiskUsageBytes))
	}
	if status.Index != nil {
		fmt.Fprintf(w, "Index:        %s, %d tiles of %dpx", status.Index.Type, status.Index.Size, status.Index.TileSide)
		if status.Index.Path != "" {
			fmt.Fprintf(w, " (%s)", status.Index.Path)
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, "Index:        not built")
	}
	if len(status.RecentBuilds) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRecent builds:")
	for _, b := range status.RecentBuilds {
		fmt.Fprintf(w, "  %s  %-9s  %6d tiles  %s  %s\n",
			b.CreatedAt.Format("2006-01-02 15:04:05"), b.IndexType, b.CorpusSize, Truncate(b.ID, 8), b.Path)
	}
}

// WriteBuild writes the summary of a finished index build.
func WriteBuild(w io.Writer, build *models.BuildRecord, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, build)
	}
	fmt.Fprintf(w, "Built %s index over %d tiles of %dpx\n", build.IndexType, build.CorpusSize, build.TileSide)
	fmt.Fprintf(w, "  id:   %s\n", build.ID)
	fmt.Fprintf(w, "  path: %s\n", build.Path)
	if len(build.Params) > 0 {
		keys := make([]string, 0, len(build.Params))
		for k := range build.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, build.Params[k]))
		}
		fmt.Fprintf(w, "  params: %s\n", strings.Join(parts, " "))
	}
	return nil
}

// PrintStatus prints a status report to stdout in text format.
func PrintStatus(status *models.StatusResponse) {
	_ = WriteStatus(os.Stdout, status, OutputText)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatBytes renders n with a binary unit suffix, e.g. 1536 -> "1.5 KiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
