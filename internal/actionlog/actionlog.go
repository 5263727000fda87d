// Package actionlog provides the file-backed action log the device appends
// triggered-action records to.
package actionlog

import (
	crand "crypto/rand"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// File is an append-only action log. The file is truncated when the log is
// opened, matching the device clearing its action log at startup. Each
// record is prefixed with a ULID so records sort by insertion time.
type File struct {
	mu      sync.Mutex
	f       *os.File
	entropy io.Reader
}

// New opens (and truncates) the action log at path.
func New(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening action log %s: %w", path, err)
	}
	return &File{
		f:       f,
		entropy: ulid.Monotonic(crand.Reader, 0),
	}, nil
}

// Append writes one record, flushed to the OS before returning.
func (l *File) Append(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), l.entropy)
	if _, err := fmt.Fprintf(l.f, "%s %s\n", id, text); err != nil {
		return err
	}
	return l.f.Sync()
}

// Close closes the underlying file.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
