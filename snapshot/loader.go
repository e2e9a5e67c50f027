package snapshot

import (
	"encoding/gob"
	"os"
)

// Load reads a snapshot dump back. Missing file is not an error: dumps
// are optional.
func Load(path string) (Snapshot, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, false, nil
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}
