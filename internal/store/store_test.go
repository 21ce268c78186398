package store

import (
	"os"
	"testing"
	"time"
)

func newStoreForTest(t *testing.T) *TempStore {
	t.Helper()
	s, err := NewTempStore(time.Minute)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestMaterializeRoundTrip(t *testing.T) {
	t.Parallel()

	s := newStoreForTest(t)

	path, err := s.Materialize("a1", []byte("converted-bytes"), ".wav")
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "converted-bytes" {
		t.Fatalf("unexpected file contents: %q", string(data))
	}

	gotPath, ok := s.Path("a1")
	if !ok || gotPath != path {
		t.Fatalf("unexpected path lookup: %q %v", gotPath, ok)
	}
	gotBytes, ok := s.Bytes("a1")
	if !ok || string(gotBytes) != "converted-bytes" {
		t.Fatalf("unexpected bytes lookup: %q %v", string(gotBytes), ok)
	}
}

func TestMaterializeReplacesPreviousCopy(t *testing.T) {
	t.Parallel()

	s := newStoreForTest(t)

	first, err := s.Materialize("a1", []byte("one"), ".wav")
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}
	second, err := s.Materialize("a1", []byte("two"), ".wav")
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh file per materialize")
	}

	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatalf("the superseded copy must be removed")
	}
	data, ok := s.Bytes("a1")
	if !ok || string(data) != "two" {
		t.Fatalf("unexpected bytes after replace: %q", string(data))
	}
}

func TestReleaseRemovesFileAndBytes(t *testing.T) {
	t.Parallel()

	s := newStoreForTest(t)

	path, err := s.Materialize("a1", []byte("converted-bytes"), ".mp3")
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}

	s.Release("a1")

	if _, ok := s.Path("a1"); ok {
		t.Fatalf("release must forget the path")
	}
	if _, ok := s.Bytes("a1"); ok {
		t.Fatalf("release must drop the bytes")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("release must remove the file")
	}

	// Releasing an unknown key is a no-op.
	s.Release("missing")
}

func TestCloseRemovesEverything(t *testing.T) {
	t.Parallel()

	s, err := NewTempStore(0)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}

	pathA, _ := s.Materialize("a", []byte("a"), ".wav")
	pathB, _ := s.Materialize("b", []byte("b"), ".ogg")

	s.Close()

	for _, path := range []string{pathA, pathB} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("close must remove %q", path)
		}
	}
}

func TestMaterializeDefaultsExtension(t *testing.T) {
	t.Parallel()

	s := newStoreForTest(t)
	path, err := s.Materialize("a1", []byte("x"), "")
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}
	if got := path[len(path)-4:]; got != ".wav" {
		t.Fatalf("expected .wav default, got %q", got)
	}
}
