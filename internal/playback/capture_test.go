package playback

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorderRoundTrip(t *testing.T) {
	rec, err := NewRecorder(t.TempDir())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if !strings.HasSuffix(rec.Path(), CaptureExt) {
		t.Fatalf("Path() = %q, want %s suffix", rec.Path(), CaptureExt)
	}

	base := time.Date(2025, 10, 17, 8, 0, 0, 123, time.UTC)
	frames := [][]byte{{1, 2, 3}, {}, []byte("frame-three")}
	for i, f := range frames {
		if err := rec.Write(base.Add(time.Duration(i)*time.Second), f); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if rec.Entries() != 3 {
		t.Fatalf("Entries() = %d, want 3", rec.Entries())
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rec.Write(base, []byte{1}); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("Write after Close error = %v, want os.ErrClosed", err)
	}

	r, err := OpenCapture(rec.Path())
	if err != nil {
		t.Fatalf("OpenCapture: %v", err)
	}
	defer r.Close()

	for i, want := range frames {
		e, err := r.Next()
		if err != nil {
			t.Fatalf("Next() entry %d: %v", i, err)
		}
		if string(e.Frame) != string(want) {
			t.Fatalf("entry %d frame = %v, want %v", i, e.Frame, want)
		}
		if !e.Time.Equal(base.Add(time.Duration(i) * time.Second)) {
			t.Fatalf("entry %d time = %v", i, e.Time)
		}
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next() at end error = %v, want io.EOF", err)
	}
}

func TestOpenCaptureRefusesActiveRecording(t *testing.T) {
	rec, err := NewRecorder(t.TempDir())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	defer rec.Close()

	if _, err := OpenCapture(rec.Path()); !errors.Is(err, ErrCaptureLocked) {
		t.Fatalf("OpenCapture error = %v, want ErrCaptureLocked", err)
	}
}

func TestOpenCaptureRejectsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.trk")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := OpenCapture(path); !errors.Is(err, ErrBadCapture) {
		t.Fatalf("OpenCapture error = %v, want ErrBadCapture", err)
	}

	missing := filepath.Join(dir, "missing.trk")
	if _, err := OpenCapture(missing); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("OpenCapture(missing) error = %v, want not exist", err)
	}
	if _, err := os.Stat(missing); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("OpenCapture created %s", missing)
	}
}

func TestReaderDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.trk")
	rec, err := CreateCapture(path)
	if err != nil {
		t.Fatalf("CreateCapture: %v", err)
	}
	if err := rec.Write(time.Unix(1, 0), []byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("rewrite capture: %v", err)
	}

	r, err := OpenCapture(path)
	if err != nil {
		t.Fatalf("OpenCapture: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); !errors.Is(err, ErrCRCMismatch) {
		t.Fatalf("Next() error = %v, want ErrCRCMismatch", err)
	}
}

func TestReaderReportsTruncatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.trk")
	rec, err := CreateCapture(path)
	if err != nil {
		t.Fatalf("CreateCapture: %v", err)
	}
	_ = rec.Write(time.Unix(1, 0), []byte("payload"))
	_ = rec.Close()

	raw, _ := os.ReadFile(path)
	if err := os.WriteFile(path, raw[:len(raw)-3], 0o644); err != nil {
		t.Fatalf("truncate capture: %v", err)
	}

	r, err := OpenCapture(path)
	if err != nil {
		t.Fatalf("OpenCapture: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Next() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestCreateCaptureRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.trk")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := CreateCapture(path); !errors.Is(err, os.ErrExist) {
		t.Fatalf("CreateCapture error = %v, want os.ErrExist", err)
	}
}
