package page

import "encoding/binary"

// OverflowPointer is the 12-byte cell stored in place of a payload that
// exceeds a quarter of the page size: the id of the page holding the
// full payload, and the payload's total size.
type OverflowPointer struct {
	OverflowPageID uint64
	TotalSize      uint32
}

func (o OverflowPointer) Encode() []byte {
	buf := make([]byte, OverflowPointerSize)
	binary.LittleEndian.PutUint64(buf[0:8], o.OverflowPageID)
	binary.LittleEndian.PutUint32(buf[8:12], o.TotalSize)
	return buf
}

func DecodeOverflowPointer(buf []byte) OverflowPointer {
	return OverflowPointer{
		OverflowPageID: binary.LittleEndian.Uint64(buf[0:8]),
		TotalSize:      binary.LittleEndian.Uint32(buf[8:12]),
	}
}
