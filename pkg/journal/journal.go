package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Record captures one aggregation outcome for audit and offline analysis.
// Records are encoded with msgpack to keep high-frequency journals compact.
type Record struct {
	Timestamp  time.Time      `msgpack:"ts"`
	Operation  string         `msgpack:"op"`
	Request    map[string]any `msgpack:"request,omitempty"`
	Sources    []string       `msgpack:"sources,omitempty"`
	ResultSize int            `msgpack:"result_size"`
	DurationMS int64          `msgpack:"duration_ms"`
	Success    bool           `msgpack:"success"`
	ErrMessage string         `msgpack:"error,omitempty"`
}

// Writer appends records to one msgpack stream file per day. Safe for
// concurrent use.
type Writer struct {
	mu    sync.Mutex
	dir   string
	nowFn func() time.Time
}

// NewWriter constructs a journal writer rooted at dir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// Write appends one record and returns the file it landed in.
func (w *Writer) Write(rec *Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}

	path := filepath.Join(w.dir, fmt.Sprintf("aggregate_%s.mpk", rec.Timestamp.UTC().Format("20060102")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	if err := msgpack.NewEncoder(f).Encode(rec); err != nil {
		return "", fmt.Errorf("journal: encode record: %w", err)
	}
	return path, nil
}

// Read decodes every record from a journal file, oldest first.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	dec := msgpack.NewDecoder(f)
	var out []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}
