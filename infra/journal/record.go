package journal

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"

	"matchd/domain/orderbook"
)

type RecordType uint8

const (
	RecordPlace RecordType = iota
	RecordCancel
	RecordModify
)

// Record is one framed command in the journal. Seq is the journal's own
// monotonic counter, not the engine's arrival seq.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

// ---- command payloads ----

// Place payload: [type:1][side:1][peg:1][price:8][qty:8]
func EncodePlace(req orderbook.OrderRequest) []byte {
	buf := make([]byte, 19)
	buf[0] = byte(req.Type)
	buf[1] = byte(req.Side)
	buf[2] = byte(req.Peg)
	binary.BigEndian.PutUint64(buf[3:11], uint64(req.Price))
	binary.BigEndian.PutUint64(buf[11:19], uint64(req.Qty))
	return buf
}

func DecodePlace(b []byte) (orderbook.OrderRequest, error) {
	if len(b) != 19 {
		return orderbook.OrderRequest{}, errors.Errorf("place payload: bad length %d", len(b))
	}
	return orderbook.OrderRequest{
		Type:  orderbook.OrderType(b[0]),
		Side:  orderbook.Side(b[1]),
		Peg:   orderbook.PegType(b[2]),
		Price: int64(binary.BigEndian.Uint64(b[3:11])),
		Qty:   int64(binary.BigEndian.Uint64(b[11:19])),
	}, nil
}

// Cancel payload: [id:8]
func EncodeCancel(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func DecodeCancel(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errors.Errorf("cancel payload: bad length %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Modify payload: [id:8][price:8][qty:8]
func EncodeModify(id uint64, price, qty int64) []byte {
	buf := make([]byte, 24)
	binary.BigEndian.PutUint64(buf[0:8], id)
	binary.BigEndian.PutUint64(buf[8:16], uint64(price))
	binary.BigEndian.PutUint64(buf[16:24], uint64(qty))
	return buf
}

func DecodeModify(b []byte) (id uint64, price, qty int64, err error) {
	if len(b) != 24 {
		return 0, 0, 0, errors.Errorf("modify payload: bad length %d", len(b))
	}
	id = binary.BigEndian.Uint64(b[0:8])
	price = int64(binary.BigEndian.Uint64(b[8:16]))
	qty = int64(binary.BigEndian.Uint64(b[16:24]))
	return id, price, qty, nil
}
