package playback

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// CaptureExt is the file extension of capture files.
const CaptureExt = ".trk"

const (
	captureMagic = "TRKCAP01"
	// entryHeaderSize covers unix nanos, frame length and CRC.
	entryHeaderSize = 8 + 4 + 4
	maxEntrySize    = 1 << 20
)

var (
	// ErrCaptureLocked indicates another process holds the capture file.
	ErrCaptureLocked = errors.New("capture: file locked")
	// ErrBadCapture indicates the file is not a capture file.
	ErrBadCapture = errors.New("capture: bad magic")
	// ErrCRCMismatch indicates a corrupted entry.
	ErrCRCMismatch = errors.New("capture: crc mismatch")
	// ErrEntryTooLarge indicates an entry length above the supported bound.
	ErrEntryTooLarge = errors.New("capture: entry too large")

	crcTable = crc32.MakeTable(crc32.Castagnoli)
)

// Entry is one recorded frame.
type Entry struct {
	Time  time.Time
	Frame []byte
}

// Recorder appends received frames to a capture file. The file is held
// under an exclusive lock until Close.
type Recorder struct {
	mu      sync.Mutex
	path    string
	lock    *flock.Flock
	f       *os.File
	w       *bufio.Writer
	entries int
}

// NewRecorder creates <dir>/<session-uuid>.trk and locks it.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	return CreateCapture(filepath.Join(dir, uuid.NewString()+CaptureExt))
}

// CreateCapture creates a new capture file at path. It fails if the file
// already exists.
func CreateCapture(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create capture: %w", err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock capture: %w", err)
	}
	if !ok {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrCaptureLocked, path)
	}

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(captureMagic); err != nil {
		_ = lock.Unlock()
		_ = f.Close()
		return nil, fmt.Errorf("write capture header: %w", err)
	}
	return &Recorder{path: path, lock: lock, f: f, w: w}, nil
}

// Path returns the capture file path.
func (r *Recorder) Path() string {
	return r.path
}

// Entries returns how many frames have been written.
func (r *Recorder) Entries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries
}

// Write appends one frame received at t.
func (r *Recorder) Write(t time.Time, frame []byte) error {
	if len(frame) > maxEntrySize {
		return fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, len(frame))
	}
	var hdr [entryHeaderSize]byte
	binary.LittleEndian.PutUint64(hdr[0:], uint64(t.UnixNano()))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(len(frame)))
	binary.LittleEndian.PutUint32(hdr[12:], crc32.Checksum(frame, crcTable))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return os.ErrClosed
	}
	if _, err := r.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write capture entry: %w", err)
	}
	if _, err := r.w.Write(frame); err != nil {
		return fmt.Errorf("write capture entry: %w", err)
	}
	r.entries++
	return nil
}

// Flush pushes buffered entries to the file.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	return r.w.Flush()
}

// Close flushes, closes and unlocks the capture file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	err := r.w.Flush()
	r.w = nil
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	if uerr := r.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

// Reader iterates over the entries of a capture file.
type Reader struct {
	f    *os.File
	r    *bufio.Reader
	lock *flock.Flock
}

// OpenCapture opens a finished capture. A capture still held by a
// Recorder is refused with ErrCaptureLocked.
func OpenCapture(path string) (*Reader, error) {
	// flock creates missing files; refuse them first.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryRLock()
	if err != nil {
		return nil, fmt.Errorf("lock capture: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCaptureLocked, path)
	}

	f, err := os.Open(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open capture: %w", err)
	}
	br := bufio.NewReader(f)
	magic := make([]byte, len(captureMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != captureMagic {
		_ = f.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBadCapture, path)
	}
	return &Reader{f: f, r: br, lock: lock}, nil
}

// Next returns the next entry, io.EOF at a clean end of file and
// io.ErrUnexpectedEOF when the last entry is cut short.
func (r *Reader) Next() (Entry, error) {
	var hdr [entryHeaderSize]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		return Entry{}, err
	}
	n := binary.LittleEndian.Uint32(hdr[8:])
	if n > maxEntrySize {
		return Entry{}, fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, n)
	}
	frame := make([]byte, n)
	if _, err := io.ReadFull(r.r, frame); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Entry{}, err
	}
	if crc32.Checksum(frame, crcTable) != binary.LittleEndian.Uint32(hdr[12:]) {
		return Entry{}, ErrCRCMismatch
	}
	return Entry{
		Time:  time.Unix(0, int64(binary.LittleEndian.Uint64(hdr[0:]))),
		Frame: frame,
	}, nil
}

// Close releases the file and its lock.
func (r *Reader) Close() error {
	err := r.f.Close()
	if uerr := r.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}
