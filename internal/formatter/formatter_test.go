package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	th "github.com/desertthunder/curator/internal/testing"
)

var created = time.Date(2024, time.June, 1, 12, 30, 0, 0, time.UTC)

func sampleRecords() []*models.RemovalRecord {
	return []*models.RemovalRecord{
		{
			ID:         "r1",
			RunID:      "run-1",
			PlaylistID: "todo",
			TrackID:    "t1",
			TrackName:  "Song One",
			Artists:    "Artist One, Guest",
			AddedBy:    "alice",
			Reason:     models.ReasonDuplicate,
			Detail:     "present 1 time(s) in personal playlists",
			DangerRun:  true,
			Status:     models.StatusApplied,
			CreatedAt:  created,
		},
		{
			ID:         "r2",
			RunID:      "run-1",
			PlaylistID: "prog",
			TrackID:    "t2",
			TrackName:  "Pipe | Song",
			AddedBy:    "stranger",
			Reason:     models.ReasonUntoleratedUser,
			Status:     models.StatusFailed,
			Error:      "boom",
			CreatedAt:  created.Add(time.Minute),
		},
	}
}

func TestParseFormat(t *testing.T) {
	tt := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("HistoryToCSV", func(t *testing.T) {
		data, err := HistoryToCSV(sampleRecords())
		if err != nil {
			t.Fatalf("HistoryToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "ID,Run,Created,Playlist") {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if !strings.Contains(lines[1], `"Artist One, Guest"`) {
			t.Errorf("expected quoted artists, got: %s", lines[1])
		}
		if !strings.Contains(lines[1], "2024-06-01T12:30:00Z") || !strings.Contains(lines[1], ",true,applied,") {
			t.Errorf("unexpected first row: %s", lines[1])
		}
	})

	t.Run("HistoryToCSV Empty", func(t *testing.T) {
		data, err := HistoryToCSV(nil)
		if err != nil {
			t.Fatalf("HistoryToCSV failed: %v", err)
		}
		if strings.Count(string(data), "\n") != 1 {
			t.Errorf("expected only headers, got %q", data)
		}
	})

	t.Run("HistoryToMarkdown", func(t *testing.T) {
		data, err := HistoryToMarkdown(sampleRecords(), "Last run")
		if err != nil {
			t.Fatalf("HistoryToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Last run\n") {
			t.Errorf("Markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "**Records**: 2") {
			t.Error("Markdown missing record count")
		}
		if !strings.Contains(output, "| 2024-06-01 12:30 | todo | Song One by Artist One, Guest | alice | duplicate | danger | applied |") {
			t.Errorf("Markdown missing first row, got: %s", output)
		}
		if !strings.Contains(output, `Pipe \| Song`) {
			t.Error("Markdown should escape pipes in cells")
		}
	})

	t.Run("HistoryToMarkdown Empty", func(t *testing.T) {
		data, _ := HistoryToMarkdown(nil, "")
		if !strings.Contains(string(data), "# Removal history") || !strings.Contains(string(data), "No removals recorded") {
			t.Errorf("unexpected empty output %q", data)
		}
	})

	t.Run("HistoryToText", func(t *testing.T) {
		data, err := HistoryToText(sampleRecords())
		if err != nil {
			t.Fatalf("HistoryToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Removals: 2") {
			t.Error("text missing count")
		}
		if !strings.Contains(output, "1. [applied] Song One by Artist One, Guest (duplicate, danger)") {
			t.Errorf("text missing first line, got: %s", output)
		}
		if !strings.Contains(output, "Error: boom") {
			t.Error("text missing error line")
		}
	})

	t.Run("Render JSON", func(t *testing.T) {
		data, err := Render(sampleRecords(), FormatJSON)
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		var decoded []models.RemovalRecord
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[1].Reason != models.ReasonUntoleratedUser {
			t.Errorf("unexpected decoded records %+v", decoded)
		}

		empty, _ := Render(nil, FormatJSON)
		if strings.TrimSpace(string(empty)) != "[]" {
			t.Errorf("expected empty array, got %s", empty)
		}
	})

	t.Run("Render Unknown", func(t *testing.T) {
		if _, err := Render(nil, Format("xml")); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteHistory", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteHistory(&buf, sampleRecords(), FormatCSV); err != nil {
			t.Fatalf("WriteHistory failed: %v", err)
		}
		if !strings.Contains(buf.String(), "Song One") {
			t.Error("expected CSV output")
		}
	})

	t.Run("WriteHistory Write Error", func(t *testing.T) {
		if err := WriteHistory(&th.FWriter{}, sampleRecords(), FormatText); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("WriteHistoryExport", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "history.md")

		got, err := WriteHistoryExport(sampleRecords(), FormatMarkdown, path, created)
		if err != nil {
			t.Fatalf("WriteHistoryExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}

		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "# Removal history") {
			t.Error("expected Markdown content in file")
		}
	})

	t.Run("WriteHistoryExport Default Name", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		got, err := WriteHistoryExport(nil, FormatCSV, "", created)
		if err != nil {
			t.Fatalf("WriteHistoryExport failed: %v", err)
		}
		if got != "removals_20240601T123000.csv" {
			t.Errorf("unexpected default name %s", got)
		}
		th.AssertFileExists(t, filepath.Join(dir, got))
	})

	t.Run("WriteHistoryExport Bad Path", func(t *testing.T) {
		if _, err := WriteHistoryExport(nil, FormatText, filepath.Join(t.TempDir(), "missing", "x.txt"), created); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
