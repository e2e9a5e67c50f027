package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Writer dumps snapshots to disk for operators.
type Writer struct {
	Dir string
}

func (w *Writer) Write(s Snapshot) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return errors.Wrap(err, "snapshot: create dir")
	}

	path := filepath.Join(w.Dir, "book.snapshot")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "snapshot: create file")
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(&s)
}
