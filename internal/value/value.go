// Package value implements the tagged Value type every row cell is built
// from, its binary codec, and the ordering rules the B+-tree and scanner
// rely on for key comparison.
package value

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/bambangdb/bambangdb/internal/dberr"
)

// Kind tags a Value's binary representation.
type Kind byte

const (
	KindNull      Kind = 0
	KindInteger   Kind = 1
	KindReal      Kind = 2
	KindText      Kind = 3
	KindBlob      Kind = 4
	KindBoolean   Kind = 5
	KindTimestamp Kind = 6
)

// Value is the sum type stored in every row cell.
type Value struct {
	Kind      Kind
	Integer   int64
	Real      float64
	Text      string
	Blob      []byte
	Boolean   bool
	Timestamp int64
}

func Null() Value                  { return Value{Kind: KindNull} }
func Integer(v int64) Value        { return Value{Kind: KindInteger, Integer: v} }
func Real(v float64) Value         { return Value{Kind: KindReal, Real: v} }
func Text(v string) Value          { return Value{Kind: KindText, Text: v} }
func Blob(v []byte) Value          { return Value{Kind: KindBlob, Blob: v} }
func Boolean(v bool) Value         { return Value{Kind: KindBoolean, Boolean: v} }
func Timestamp(v int64) Value      { return Value{Kind: KindTimestamp, Timestamp: v} }
func (v Value) IsNull() bool       { return v.Kind == KindNull }

// Encode appends the tagged binary representation of v to buf and
// returns the extended slice.
func Encode(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case KindNull:
		// tag only
	case KindInteger:
		buf = appendU64(buf, uint64(v.Integer))
	case KindReal:
		buf = appendU64(buf, math.Float64bits(v.Real))
	case KindText:
		buf = appendLenPrefixed(buf, []byte(v.Text))
	case KindBlob:
		buf = appendLenPrefixed(buf, v.Blob)
	case KindBoolean:
		if v.Boolean {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindTimestamp:
		buf = appendU64(buf, uint64(v.Timestamp))
	}
	return buf
}

func appendU64(buf []byte, u uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], u)
	return append(buf, tmp[:]...)
}

func appendLenPrefixed(buf []byte, data []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(data)))
	buf = append(buf, tmp[:]...)
	return append(buf, data...)
}

// Decode reads one tagged Value from the front of buf, returning the
// value and the number of bytes consumed.
func Decode(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, dberr.SerializationError("empty buffer decoding value")
	}
	kind := Kind(buf[0])
	rest := buf[1:]
	switch kind {
	case KindNull:
		return Null(), 1, nil
	case KindInteger:
		if len(rest) < 8 {
			return Value{}, 0, dberr.SerializationError("truncated integer value")
		}
		return Integer(int64(binary.LittleEndian.Uint64(rest[:8]))), 9, nil
	case KindReal:
		if len(rest) < 8 {
			return Value{}, 0, dberr.SerializationError("truncated real value")
		}
		return Real(math.Float64frombits(binary.LittleEndian.Uint64(rest[:8]))), 9, nil
	case KindText:
		data, n, err := decodeLenPrefixed(rest)
		if err != nil {
			return Value{}, 0, err
		}
		return Text(string(data)), 1 + n, nil
	case KindBlob:
		data, n, err := decodeLenPrefixed(rest)
		if err != nil {
			return Value{}, 0, err
		}
		return Blob(data), 1 + n, nil
	case KindBoolean:
		if len(rest) < 1 {
			return Value{}, 0, dberr.SerializationError("truncated boolean value")
		}
		return Boolean(rest[0] != 0), 2, nil
	case KindTimestamp:
		if len(rest) < 8 {
			return Value{}, 0, dberr.SerializationError("truncated timestamp value")
		}
		return Timestamp(int64(binary.LittleEndian.Uint64(rest[:8]))), 9, nil
	default:
		return Value{}, 0, dberr.SerializationError("unknown value tag")
	}
}

func decodeLenPrefixed(buf []byte) ([]byte, int, error) {
	if len(buf) < 4 {
		return nil, 0, dberr.SerializationError("truncated length prefix")
	}
	n := int(binary.LittleEndian.Uint32(buf[:4]))
	if len(buf) < 4+n {
		return nil, 0, dberr.SerializationError("truncated length-prefixed payload")
	}
	data := make([]byte, n)
	copy(data, buf[4:4+n])
	return data, 4 + n, nil
}

// Ordering is the result of comparing two Values.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
	Unordered
)

// Compare implements the cross-type ordering rules: Null sorts below
// everything, Integer and Real compare numerically against each other,
// Text and Blob compare byte/lexically within their own kind, Boolean
// and Timestamp compare within their own kind, and any other mixed-kind
// pair is Unordered.
func Compare(a, b Value) Ordering {
	if a.Kind == KindNull && b.Kind == KindNull {
		return Equal
	}
	if a.Kind == KindNull {
		return Less
	}
	if b.Kind == KindNull {
		return Greater
	}
	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		return compareFloat(numericOf(a), numericOf(b))
	}
	if a.Kind == KindText && b.Kind == KindText {
		return compareBytes([]byte(a.Text), []byte(b.Text))
	}
	if a.Kind == KindBlob && b.Kind == KindBlob {
		return compareBytes(a.Blob, b.Blob)
	}
	if a.Kind == KindBoolean && b.Kind == KindBoolean {
		return compareBool(a.Boolean, b.Boolean)
	}
	if a.Kind == KindTimestamp && b.Kind == KindTimestamp {
		return compareFloat(float64(a.Timestamp), float64(b.Timestamp))
	}
	return Unordered
}

func isNumeric(k Kind) bool { return k == KindInteger || k == KindReal }

func numericOf(v Value) float64 {
	if v.Kind == KindInteger {
		return float64(v.Integer)
	}
	return v.Real
}

func compareFloat(a, b float64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func compareBytes(a, b []byte) Ordering {
	switch bytes.Compare(a, b) {
	case -1:
		return Less
	case 1:
		return Greater
	default:
		return Equal
	}
}

func compareBool(a, b bool) Ordering {
	if a == b {
		return Equal
	}
	if !a && b {
		return Less
	}
	return Greater
}

// LessThan reports whether a sorts strictly before b, treating Unordered
// as not-less (unordered pairs are treated as equal for sort stability).
func LessThan(a, b Value) bool { return Compare(a, b) == Less }
