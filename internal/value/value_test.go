package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := require.New(t)
	cases := []Value{
		Null(),
		Integer(-42),
		Real(3.5),
		Text("hello"),
		Blob([]byte{1, 2, 3}),
		Boolean(true),
		Boolean(false),
		Timestamp(1690000000),
	}
	for _, v := range cases {
		buf := Encode(nil, v)
		got, n, err := Decode(buf)
		r.NoError(err)
		r.Equal(len(buf), n)
		r.Equal(v.Kind, got.Kind)
		switch v.Kind {
		case KindInteger:
			r.Equal(v.Integer, got.Integer)
		case KindReal:
			r.Equal(v.Real, got.Real)
		case KindText:
			r.Equal(v.Text, got.Text)
		case KindBlob:
			r.Equal(v.Blob, got.Blob)
		case KindBoolean:
			r.Equal(v.Boolean, got.Boolean)
		case KindTimestamp:
			r.Equal(v.Timestamp, got.Timestamp)
		}
	}
}

func TestCompareOrdering(t *testing.T) {
	r := require.New(t)
	r.Equal(Less, Compare(Null(), Integer(0)))
	r.Equal(Less, Compare(Integer(1), Real(1.5)))
	r.Equal(Equal, Compare(Integer(2), Real(2.0)))
	r.Equal(Less, Compare(Text("a"), Text("b")))
	r.Equal(Unordered, Compare(Text("a"), Integer(1)))
	r.Equal(Unordered, Compare(Boolean(true), Integer(1)))
	r.Equal(Less, Compare(Boolean(false), Boolean(true)))
}

func TestRowRoundTrip(t *testing.T) {
	r := require.New(t)
	row := Row{
		HasRowID: true,
		RowID:    7,
		Values:   []Value{Integer(1), Text("x"), Null()},
	}
	buf := row.Encode()
	got, err := DecodeRow(buf)
	r.NoError(err)
	r.Equal(row.HasRowID, got.HasRowID)
	r.Equal(row.RowID, got.RowID)
	r.Len(got.Values, 3)
	r.Equal(int64(1), got.Values[0].Integer)
	r.Equal("x", got.Values[1].Text)
	r.True(got.Values[2].IsNull())
}

func TestRowNoRowID(t *testing.T) {
	r := require.New(t)
	row := Row{Values: []Value{Real(1.25)}}
	buf := row.Encode()
	got, err := DecodeRow(buf)
	r.NoError(err)
	r.False(got.HasRowID)
	r.Equal(1.25, got.Values[0].Real)
}
