package fileheader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	r := require.New(t)
	h := New()
	h.DatabaseSizePages = 5
	buf := h.ToBytes()
	r.Len(buf, Size)

	got, err := Parse(buf)
	r.NoError(err)
	r.Equal(h.Magic, got.Magic)
	r.Equal(uint32(5), got.DatabaseSizePages)
	r.Equal(h.SchemaFormatNumber, got.SchemaFormatNumber)
}

func TestParseRejectsBadMagic(t *testing.T) {
	r := require.New(t)
	h := New()
	buf := h.ToBytes()
	buf[0] ^= 0xFF
	_, err := Parse(buf)
	r.Error(err)
}

func TestParseRejectsFutureWriteVersion(t *testing.T) {
	r := require.New(t)
	h := New()
	h.FileFormatWriteVersion = 3
	buf := h.ToBytes()
	_, err := Parse(buf)
	r.Error(err)
}

func TestPageOffset(t *testing.T) {
	r := require.New(t)
	r.Equal(int64(100), PageOffset(1))
	r.Equal(int64(100+4096), PageOffset(2))
}
