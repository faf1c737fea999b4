package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDBUsesEnvDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	t.Setenv(EnvDir, dir)

	got, err := DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	if want := filepath.Join(dir, dbName); got != want {
		t.Errorf("DB() = %q, want %q", got, want)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory %q not created: %v", dir, err)
	}
}
