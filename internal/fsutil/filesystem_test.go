package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_CreateOpenList(t *testing.T) {
	fs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "paths")

	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := fs.MkdirAll(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	for _, name := range []string{"b.log", "a.log"} {
		w, err := fs.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := io.WriteString(w, name); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		w.Close()
	}

	names, err := fs.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.log" || names[1] != "b.log" {
		t.Errorf("ListFiles = %v, want [a.log b.log]", names)
	}

	r, err := fs.Open(filepath.Join(dir, "a.log"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "a.log" {
		t.Errorf("read %q", data)
	}

	data, err = fs.ReadFile(filepath.Join(dir, "b.log"))
	if err != nil || string(data) != "b.log" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}

	if _, err := fs.ListFiles(filepath.Join(dir, "missing")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/features.log")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("row\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := mfs.ReadFile("/out/features.log")
	if len(data) != 0 {
		t.Errorf("partial write visible before Close: %q", data)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, err = mfs.ReadFile("/out/features.log")
	if err != nil || string(data) != "row\n" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}

func TestMemoryFileSystem_OpenAndList(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/in/path2", []byte("two"))
	mfs.WriteFile("/in/path1", []byte("one"))
	mfs.WriteFile("/in/nested/path3", []byte("three"))

	names, err := mfs.ListFiles("/in")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(names) != 2 || names[0] != "path1" || names[1] != "path2" {
		t.Errorf("ListFiles = %v", names)
	}

	r, err := mfs.Open("/in/path1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(r)
	r.Close()
	if string(data) != "one" {
		t.Errorf("Open read %q", data)
	}

	if _, err := mfs.Open("/in/missing"); err == nil {
		t.Error("expected error opening missing file")
	}
	if _, err := mfs.ListFiles("/nowhere"); err == nil {
		t.Error("expected error listing missing dir")
	}
	if !mfs.Exists("/in/nested") || !mfs.Exists("/in/path2") {
		t.Error("expected directory and file to exist")
	}
	if mfs.Exists("/in/path3") {
		t.Error("nested file reported at the wrong level")
	}
}
