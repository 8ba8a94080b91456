package rows

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestCSVSource_ReadsRowsInOrder(t *testing.T) {
	path := writeTempFile(t, "posts.csv",
		"title,body\nATM fees,Fees went up\nMobile app,Login fails\n")

	src, err := NewCSVSource(path)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	defer src.Close()

	first, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(first.Columns) != 2 || first.Columns[0] != "title" {
		t.Errorf("unexpected columns: %v", first.Columns)
	}
	if first.Get("title") != "ATM fees" || first.Get("body") != "Fees went up" {
		t.Errorf("unexpected values: %v", first.Values)
	}

	second, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second.Get("title") != "Mobile app" {
		t.Errorf("unexpected second row: %v", second.Values)
	}

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestCSVSource_QuotedFields(t *testing.T) {
	path := writeTempFile(t, "quoted.csv",
		"title,body\n\"fees, again\",\"line one\nline two\"\n")

	src, err := NewCSVSource(path)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	defer src.Close()

	row, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row.Get("title") != "fees, again" {
		t.Errorf("unexpected title: %q", row.Get("title"))
	}
	if row.Get("body") != "line one\nline two" {
		t.Errorf("unexpected body: %q", row.Get("body"))
	}
}

func TestCSVSource_EmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.csv", "")

	src, err := NewCSVSource(path)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	defer src.Close()

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestCSVSource_HeaderOnly(t *testing.T) {
	path := writeTempFile(t, "header.csv", "title,body\n")

	src, err := NewCSVSource(path)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	defer src.Close()

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestCSVSource_MissingFile(t *testing.T) {
	if _, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
