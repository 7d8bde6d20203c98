package value

import (
	"encoding/binary"

	"github.com/bambangdb/bambangdb/internal/dberr"
)

// RowID identifies a row independent of its storage location. A zero
// RowID paired with HasRowID=false means the row carries no surrogate
// identity (its key is drawn entirely from its values).
type RowID uint64

// Row is the unit of data stored in a leaf cell: an optional row id plus
// an ordered list of column values.
type Row struct {
	HasRowID bool
	RowID    RowID
	Values   []Value
}

// Encode serializes r as: has_row_id(1) [row_id(8)] value_count(4)
// values...
func (r Row) Encode() []byte {
	buf := make([]byte, 0, 13+len(r.Values)*9)
	if r.HasRowID {
		buf = append(buf, 1)
		buf = appendU64(buf, uint64(r.RowID))
	} else {
		buf = append(buf, 0)
	}
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(r.Values)))
	buf = append(buf, countBuf[:]...)
	for _, v := range r.Values {
		buf = Encode(buf, v)
	}
	return buf
}

// DecodeRow parses a Row from its encoded form.
func DecodeRow(buf []byte) (Row, error) {
	if len(buf) < 1 {
		return Row{}, dberr.SerializationError("empty buffer decoding row")
	}
	hasRowID := buf[0] != 0
	offset := 1
	var rowID RowID
	if hasRowID {
		if len(buf) < offset+8 {
			return Row{}, dberr.SerializationError("truncated row id")
		}
		rowID = RowID(binary.LittleEndian.Uint64(buf[offset : offset+8]))
		offset += 8
	}
	if len(buf) < offset+4 {
		return Row{}, dberr.SerializationError("truncated value count")
	}
	count := int(binary.LittleEndian.Uint32(buf[offset : offset+4]))
	offset += 4
	values := make([]Value, 0, count)
	for i := 0; i < count; i++ {
		v, n, err := Decode(buf[offset:])
		if err != nil {
			return Row{}, err
		}
		values = append(values, v)
		offset += n
	}
	return Row{HasRowID: hasRowID, RowID: rowID, Values: values}, nil
}
