package fileid

import (
	"strings"
	"testing"
)

func TestFileSourceID(t *testing.T) {
	id1 := FileSourceID("/photos/cat.jpg")
	id2 := FileSourceID("/photos/cat.jpg")
	if id1 != id2 {
		t.Errorf("same path should give same ID: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, imagePrefix) {
		t.Errorf("ID should have prefix %q: got %q", imagePrefix, id1)
	}
	if FileSourceID("/photos/dog.jpg") == id1 {
		t.Error("different paths should give different IDs")
	}
}

func TestSourceID_normalized(t *testing.T) {
	id1 := FileSourceID("/foo/bar")
	id2 := FileSourceID("/foo/./bar")
	id3 := FileSourceID("/foo/bar/")
	if id1 != id2 || id1 != id3 {
		t.Errorf("cleaned paths should match: %q %q %q", id1, id2, id3)
	}
}

func TestBatchSourceID_distinctFromFile(t *testing.T) {
	path := "/data/cifar-10-batches-bin/data_batch_1.bin"
	if BatchSourceID(path) == FileSourceID(path) {
		t.Error("batch and file IDs for the same path should differ")
	}
	if !strings.HasPrefix(BatchSourceID(path), batchPrefix) {
		t.Errorf("batch ID prefix: %q", BatchSourceID(path))
	}
}
