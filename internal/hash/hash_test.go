package hash

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSHA256Hasher_HashFile(t *testing.T) {
	dir := t.TempDir()
	hasher := NewSHA256Hasher()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty package",
			content: "",
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "known content",
			content: "hello world",
			want:    "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "foo-1.0.pkg")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write package: %v", err)
			}

			got, err := hasher.HashFile(path)
			if err != nil {
				t.Fatalf("HashFile failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("HashFile() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSHA256Hasher_MissingFile(t *testing.T) {
	_, err := NewSHA256Hasher().HashFile(filepath.Join(t.TempDir(), "missing.pkg"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("HashFile() error = %v, want os.ErrNotExist", err)
	}
}
