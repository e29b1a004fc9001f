package localfs

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
)

func TestStorageRoundTripAndDelete(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := storage.Save(ctx, "abc_resume.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reader, err := storage.Open(ctx, "abc_resume.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	raw, _ := io.ReadAll(reader)
	reader.Close()
	if string(raw) != "hello" {
		t.Fatalf("unexpected content %q", raw)
	}

	if err := storage.Delete(ctx, "abc_resume.txt"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := storage.Delete(ctx, "abc_resume.txt"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if _, err := storage.Open(ctx, "abc_resume.txt"); err == nil {
		t.Fatalf("expected open error after delete")
	}

	entries, err := os.ReadDir(storage.basePath)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestStorageRejectsPathKeys(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "..", "../escape.txt", `a\b.txt`} {
		if err := storage.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("Save(%q) should fail", key)
		}
	}
}
