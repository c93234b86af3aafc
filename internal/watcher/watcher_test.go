package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestWatcher_FileRewrittenByRename(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ward_tree.idx")
	if err := writeFile(target, "v1"); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := NewWatcher([]string{dir}, rec.record, WithFile(target), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Atomic replace, the way the index is saved.
	tmp := filepath.Join(dir, ".ward_tree.idx.tmp")
	if err := writeFile(tmp, "v2"); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, target); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "other.idx"), "x"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(400 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != target {
		t.Errorf("expected one change for %s, got %v", target, got)
	}
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := NewWatcher([]string{dir}, rec.record, WithExtensions(".png"), WithRecursive(true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(sub, "f.png")
	for i := 0; i < 3; i++ {
		if err := writeFile(fPath, strings.Repeat("x", i+1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(sub, "notes.txt"), "skip"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(800 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != fPath {
		t.Errorf("expected a single debounced change for f.png, got %v", got)
	}
}

func TestWatcher_RemoveHandler(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.png")
	if err := writeFile(target, "x"); err != nil {
		t.Fatal(err)
	}
	removed := &recorder{}
	w := NewWatcher([]string{dir}, nil, WithExtensions(".png"), WithRemoveHandler(removed.record))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := removed.snapshot(); len(got) != 1 || got[0] != target {
		t.Errorf("expected removal of %s, got %v", target, got)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.png", []string{".png"}, true},
		{"/a/b.PNG", []string{".png"}, true},
		{"/a/b.jpg", []string{"png"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.png", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")

	w := NewWatcher([]string{root}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()

	rec := &recorder{}
	w := NewWatcher([]string{dir}, rec.record, WithExtensions(".png", ".jpg"), WithRecursive(true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	nested := filepath.Join(dir, "level1", "level2")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "deep.png"), "deep content"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "ignore.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(800 * time.Millisecond)

	found := false
	for _, p := range rec.snapshot() {
		if strings.HasSuffix(p, "deep.png") {
			found = true
		}
		if strings.HasSuffix(p, "ignore.xyz") {
			t.Errorf("ignore.xyz should not be reported")
		}
	}
	if !found {
		t.Errorf("expected deep.png to be reported, got %v", rec.snapshot())
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
