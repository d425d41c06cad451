package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		tempDir := filepath.Join(t.TempDir(), "work", "temp_files")

		storage, err := NewLocalStorage(tempDir)
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		if storage.TempDir() != tempDir {
			t.Errorf("TempDir() = %v, want %v", storage.TempDir(), tempDir)
		}

		info, err := os.Stat(tempDir)
		if err != nil {
			t.Fatalf("directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		storage, err := NewLocalStorage("")
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		expected := filepath.Join(os.TempDir(), "liveportrait")
		if storage.TempDir() != expected {
			t.Errorf("TempDir() = %v, want %v", storage.TempDir(), expected)
		}
	})
}

func TestLocalStorage_SaveTemp(t *testing.T) {
	ctx := context.Background()

	t.Run("saves data under a unique name", func(t *testing.T) {
		storage, err := NewLocalStorage(t.TempDir())
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		path, err := storage.SaveTemp(ctx, "cat.png", bytes.NewReader([]byte("png-bytes")))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}

		if filepath.Dir(path) != storage.TempDir() {
			t.Errorf("path %v not under temp dir %v", path, storage.TempDir())
		}
		if !strings.HasSuffix(path, "_cat.png") {
			t.Errorf("path %v should end with the sanitized filename", path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read saved file: %v", err)
		}
		if string(data) != "png-bytes" {
			t.Errorf("saved content = %q, want %q", data, "png-bytes")
		}
	})

	t.Run("same name twice yields distinct paths", func(t *testing.T) {
		storage, err := NewLocalStorage(t.TempDir())
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		first, err := storage.SaveTemp(ctx, "cat.png", strings.NewReader("a"))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}
		second, err := storage.SaveTemp(ctx, "cat.png", strings.NewReader("b"))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}
		if first == second {
			t.Errorf("expected distinct paths, got %v twice", first)
		}
	})

	t.Run("strips directory components from the name", func(t *testing.T) {
		storage, err := NewLocalStorage(t.TempDir())
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		path, err := storage.SaveTemp(ctx, "../../etc/passwd", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}
		if filepath.Dir(path) != storage.TempDir() {
			t.Errorf("traversal escaped temp dir: %v", path)
		}
	})

	t.Run("cancelled context returns error", func(t *testing.T) {
		storage, err := NewLocalStorage(t.TempDir())
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := storage.SaveTemp(cancelled, "cat.png", strings.NewReader("x")); err == nil {
			t.Error("SaveTemp() with cancelled context should fail")
		}
	})
}

func TestLocalStorage_LoadTemp(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	path, err := storage.SaveTemp(ctx, "cat.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("SaveTemp() error = %v", err)
	}

	r, err := storage.LoadTemp(ctx, path)
	if err != nil {
		t.Fatalf("LoadTemp() error = %v", err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("loaded content = %q, want %q", data, "png-bytes")
	}
}

func TestLocalStorage_CleanupTemp(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	t.Run("removes existing files", func(t *testing.T) {
		path, err := storage.SaveTemp(ctx, "cat.png", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("SaveTemp() error = %v", err)
		}

		if err := storage.CleanupTemp(ctx, []string{path}); err != nil {
			t.Fatalf("CleanupTemp() error = %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("file still exists after cleanup: %v", path)
		}
	})

	t.Run("missing files are not an error", func(t *testing.T) {
		missing := filepath.Join(storage.TempDir(), "gone.png")
		if err := storage.CleanupTemp(ctx, []string{missing}); err != nil {
			t.Errorf("CleanupTemp() on missing file error = %v", err)
		}
	})
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "cat.png", "cat.png"},
		{"keeps dashes and underscores", "my-photo_1.jpg", "my-photo_1.jpg"},
		{"strips directories", "../../etc/passwd", "passwd"},
		{"replaces shell metacharacters", "a;rm -rf$(x).png", "a_rm_-rf__x_.png"},
		{"replaces spaces", "my photo.png", "my_photo.png"},
		{"empty becomes placeholder", "", "upload"},
		{"dot only becomes placeholder", ".", "upload"},
		{"windows separators", `C:\pics\cat.png`, "cat.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
