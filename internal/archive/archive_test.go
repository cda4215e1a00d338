package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func readEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = content
	}
	return entries
}

func TestZipRoundTrip(t *testing.T) {
	z := NewZip()
	if err := z.AddEntry("collection.anki2", []byte("database bytes")); err != nil {
		t.Fatalf("AddEntry returned an unexpected error: %v", err)
	}
	if err := z.AddEntry("0", []byte{0xDE, 0xAD}); err != nil {
		t.Fatalf("AddEntry returned an unexpected error: %v", err)
	}
	data, err := z.Serialize()
	if err != nil {
		t.Fatalf("Serialize returned an unexpected error: %v", err)
	}

	entries := readEntries(t, data)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if got := string(entries["collection.anki2"]); got != "database bytes" {
		t.Errorf("Expected entry content %q, got %q", "database bytes", got)
	}
	if !bytes.Equal(entries["0"], []byte{0xDE, 0xAD}) {
		t.Errorf("Expected raw media bytes to round-trip, got %v", entries["0"])
	}
}

func TestZipUsesDeflate(t *testing.T) {
	z := NewZip()
	if err := z.AddEntry("media", []byte(`{"0":"anki.png"}`)); err != nil {
		t.Fatal(err)
	}
	data, err := z.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if zr.File[0].Method != zip.Deflate {
		t.Errorf("Expected deflate method, got %d", zr.File[0].Method)
	}
}

func TestZipDeterministic(t *testing.T) {
	build := func() []byte {
		z := NewZip()
		z.AddEntry("a", []byte("one"))
		z.AddEntry("b", []byte("two"))
		data, err := z.Serialize()
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	if !bytes.Equal(build(), build()) {
		t.Error("Expected identical inputs to produce byte-identical archives")
	}
}

func TestZipRejectsUseAfterSerialize(t *testing.T) {
	z := NewZip()
	if _, err := z.Serialize(); err != nil {
		t.Fatalf("Serialize returned an unexpected error: %v", err)
	}
	if err := z.AddEntry("late", nil); err != ErrSerialized {
		t.Errorf("Expected ErrSerialized, got %v", err)
	}
	if _, err := z.Serialize(); err != ErrSerialized {
		t.Errorf("Expected ErrSerialized, got %v", err)
	}
}
