package walker

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestWalkFindsRegularFilesOnly(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a.txt"), "a")
	mustWriteFile(t, filepath.Join(root, "sub", "b.txt"), "b")
	if err := os.Mkdir(filepath.Join(root, "empty-dir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported on this platform: %v", err)
	}

	paths, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	var rel []string
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("Rel: %v", err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	sort.Strings(rel)

	want := []string{"a.txt", "sub/b.txt"}
	if len(rel) != len(want) {
		t.Fatalf("got %v, want %v", rel, want)
	}
	for i := range want {
		if rel[i] != want[i] {
			t.Errorf("rel[%d] = %q, want %q", i, rel[i], want[i])
		}
	}
}

func TestWalkIsStableAndSorted(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "z.txt"), "z")
	mustWriteFile(t, filepath.Join(root, "a.txt"), "a")

	first, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	second, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("non-stable results: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("order changed between calls at index %d", i)
		}
	}
	if !sort.StringsAreSorted(first) {
		t.Errorf("Walk result not sorted: %v", first)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
