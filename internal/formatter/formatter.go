// package formatter renders the removal audit history as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a flag value to a [Format]. "md" is accepted for Markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (text, json, csv, markdown)", shared.ErrInvalidFlag, name)
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

var csvHeaders = []string{
	"ID", "Run", "Created", "Playlist", "Track ID", "Track", "Artists", "Added By", "Reason", "Detail", "Danger Run", "Status", "Error",
}

// HistoryToCSV renders records with one row per removal intent.
func HistoryToCSV(records []*models.RemovalRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.RunID,
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.PlaylistID,
			rec.TrackID,
			rec.TrackName,
			rec.Artists,
			rec.AddedBy,
			string(rec.Reason),
			rec.Detail,
			strconv.FormatBool(rec.DangerRun),
			string(rec.Status),
			rec.Error,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// HistoryToMarkdown renders records as a Markdown table under a heading.
func HistoryToMarkdown(records []*models.RemovalRecord, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Removal history"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Records**: %d\n\n", len(records))

	if len(records) == 0 {
		buf.WriteString("_No removals recorded._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Created | Playlist | Track | Added By | Reason | Mode | Status |\n")
	buf.WriteString("|---|---|---|---|---|---|---|\n")
	for _, rec := range records {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s | %s | %s |\n",
			rec.CreatedAt.UTC().Format("2006-01-02 15:04"),
			escapeCell(rec.PlaylistID),
			escapeCell(trackLabel(rec)),
			escapeCell(rec.AddedBy),
			rec.Reason,
			mode(rec.DangerRun),
			rec.Status,
		)
	}

	return buf.Bytes(), nil
}

// HistoryToText renders one numbered line per record.
func HistoryToText(records []*models.RemovalRecord) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Removals: %d\n\n", len(records))
	for i, rec := range records {
		fmt.Fprintf(&buf, "%d. [%s] %s (%s, %s)\n", i+1, rec.Status, trackLabel(rec), rec.Reason, mode(rec.DangerRun))
		fmt.Fprintf(&buf, "   Playlist: %s  Added by: %s  At: %s\n",
			rec.PlaylistID, rec.AddedBy, rec.CreatedAt.UTC().Format(time.RFC3339))
		if rec.Detail != "" {
			fmt.Fprintf(&buf, "   Detail: %s\n", rec.Detail)
		}
		if rec.Error != "" {
			fmt.Fprintf(&buf, "   Error: %s\n", rec.Error)
		}
	}

	return buf.Bytes(), nil
}

// Render encodes records in the given format.
func Render(records []*models.RemovalRecord, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if records == nil {
			records = []*models.RemovalRecord{}
		}
		return shared.MarshalJSON(records, true)
	case FormatCSV:
		return HistoryToCSV(records)
	case FormatMarkdown:
		return HistoryToMarkdown(records, "")
	case FormatText, "":
		return HistoryToText(records)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

// WriteHistory renders records to w.
func WriteHistory(w io.Writer, records []*models.RemovalRecord, format Format) error {
	data, err := Render(records, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteHistoryExport renders records to a file and returns its path.
//
// Defaults to removals_{timestamp}{ext} when path is empty.
func WriteHistoryExport(records []*models.RemovalRecord, format Format, path string, now time.Time) (string, error) {
	if path == "" {
		path = "removals_" + now.UTC().Format("20060102T150405") + format.Ext()
	}

	data, err := Render(records, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func trackLabel(rec *models.RemovalRecord) string {
	if rec.Artists == "" {
		return rec.TrackName
	}
	return rec.TrackName + " by " + rec.Artists
}

func mode(danger bool) string {
	if danger {
		return "danger"
	}
	return "dry"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
