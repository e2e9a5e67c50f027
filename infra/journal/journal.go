package journal

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

const defaultSegmentSize = 2 * 1024 * 1024

type Config struct {
	Dir         string
	SegmentSize int64
}

// Journal is the append-only command journal: every accepted place,
// cancel and modify lands here before anything else observes it. Segments
// rotate by size; records are CRC-framed.
type Journal struct {
	dir      string
	segSize  int64
	current  *segment
	segIndex int
	seq      uint64
}

func Open(cfg Config) (*Journal, error) {
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = defaultSegmentSize
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "journal: create dir")
	}

	index, lastSeq, err := lastSegmentState(cfg.Dir)
	if err != nil {
		return nil, err
	}

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, errors.Wrap(err, "journal: open segment")
	}

	return &Journal{
		dir:      cfg.Dir,
		segSize:  cfg.SegmentSize,
		current:  seg,
		segIndex: index,
		seq:      lastSeq,
	}, nil
}

// Append frames and writes one record, assigning it the next journal seq.
//
// Frame: [type:1][seq:8][time:8][len:4][payload][crc:4]
func (j *Journal) Append(r *Record) error {
	j.seq++
	r.Seq = j.seq

	payloadLen := uint32(len(r.Data))
	buf := make([]byte, 1+8+8+4+payloadLen+4)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[21:], r.Data)

	crc := CRC32(buf[:21+payloadLen])
	binary.BigEndian.PutUint32(buf[21+payloadLen:], crc)

	if err := j.current.append(buf); err != nil {
		return errors.Wrap(err, "journal: append")
	}

	if j.current.offset >= j.segSize {
		return j.rotate()
	}
	return nil
}

func (j *Journal) Sync() error {
	return j.current.sync()
}

func (j *Journal) Close() error {
	return j.current.close()
}

func (j *Journal) rotate() error {
	_ = j.current.close()
	j.segIndex++

	seg, err := openSegment(j.dir, j.segIndex)
	if err != nil {
		return errors.Wrap(err, "journal: rotate")
	}
	j.current = seg
	return nil
}

// lastSegmentState finds the newest existing segment and the highest seq
// written so far, so reopening continues both streams.
func lastSegmentState(dir string) (index int, lastSeq uint64, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.journal"))
	if err != nil {
		return 0, 0, err
	}
	if len(files) == 0 {
		return 0, 0, nil
	}
	sort.Strings(files)

	last := files[len(files)-1]
	if _, err := fmt.Sscanf(filepath.Base(last), "segment-%06d.journal", &index); err != nil {
		return 0, 0, errors.Wrapf(err, "journal: bad segment name %s", last)
	}

	for _, path := range files {
		max, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if max > lastSeq {
			lastSeq = max
		}
	}
	return index, lastSeq, nil
}
