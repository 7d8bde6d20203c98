// Package fileheader implements the 100-byte big-endian preamble that
// precedes the page array in every database file.
package fileheader

import (
	"encoding/binary"

	"github.com/bambangdb/bambangdb/internal/dberr"
)

const (
	Size     = 100
	PageSize = 4096

	maxWriteVersion = 2
)

var Magic = [16]byte{'B', 'A', 'M', 'B', 'A', 'N', 'G', 0, 0, 0, 0, 0, 0, 0, 0, 0}

// Header is the fixed-format file preamble. All multi-byte integers are
// big-endian, matching the teacher's own file_header.go convention.
type Header struct {
	Magic                       [16]byte
	PageSize                    uint16
	FileFormatWriteVersion      uint8
	FileFormatReadVersion       uint8
	ReservedSpace               uint8
	MaxEmbeddedPayloadFraction  uint8
	MinEmbeddedPayloadFraction  uint8
	LeafPayloadFraction         uint8
	FileChangeCounter           uint32
	DatabaseSizePages           uint32
	FreelistTrunkPage           uint32
	FreelistPagesCount          uint32
	SchemaCookie                uint32
	SchemaFormatNumber          uint32
	DefaultPageCacheSize        uint32
	LargestRootBTreePage        uint32
	TextEncoding                uint32
	UserVersion                 uint32
	IncrementalVacuumMode       uint32
	ApplicationID               uint32
	Reserved                    [20]byte
	VersionValidFor             uint32
	BambangVersionNumber        uint32
}

// New returns a Header populated with the defaults a freshly created
// database file carries.
func New() Header {
	return Header{
		Magic:                      Magic,
		PageSize:                   PageSize,
		FileFormatWriteVersion:     1,
		FileFormatReadVersion:      1,
		MaxEmbeddedPayloadFraction: 64,
		MinEmbeddedPayloadFraction: 32,
		LeafPayloadFraction:        32,
		FileChangeCounter:          1,
		DatabaseSizePages:          1,
		SchemaCookie:               1,
		SchemaFormatNumber:         4,
		LargestRootBTreePage:       1,
		TextEncoding:               1,
		VersionValidFor:            1,
	}
}

func (h Header) ToBytes() []byte {
	buf := make([]byte, Size)
	copy(buf[0:16], h.Magic[:])
	binary.BigEndian.PutUint16(buf[16:18], h.PageSize)
	buf[18] = h.FileFormatWriteVersion
	buf[19] = h.FileFormatReadVersion
	buf[20] = h.ReservedSpace
	buf[21] = h.MaxEmbeddedPayloadFraction
	buf[22] = h.MinEmbeddedPayloadFraction
	buf[23] = h.LeafPayloadFraction
	binary.BigEndian.PutUint32(buf[24:28], h.FileChangeCounter)
	binary.BigEndian.PutUint32(buf[28:32], h.DatabaseSizePages)
	binary.BigEndian.PutUint32(buf[32:36], h.FreelistTrunkPage)
	binary.BigEndian.PutUint32(buf[36:40], h.FreelistPagesCount)
	binary.BigEndian.PutUint32(buf[40:44], h.SchemaCookie)
	binary.BigEndian.PutUint32(buf[44:48], h.SchemaFormatNumber)
	binary.BigEndian.PutUint32(buf[48:52], h.DefaultPageCacheSize)
	binary.BigEndian.PutUint32(buf[52:56], h.LargestRootBTreePage)
	binary.BigEndian.PutUint32(buf[56:60], h.TextEncoding)
	binary.BigEndian.PutUint32(buf[60:64], h.UserVersion)
	binary.BigEndian.PutUint32(buf[64:68], h.IncrementalVacuumMode)
	binary.BigEndian.PutUint32(buf[68:72], h.ApplicationID)
	copy(buf[72:92], h.Reserved[:])
	binary.BigEndian.PutUint32(buf[92:96], h.VersionValidFor)
	binary.BigEndian.PutUint32(buf[96:100], h.BambangVersionNumber)
	return buf
}

// Parse reads and validates a Header from its 100-byte on-disk form,
// checking the magic, page size, and write-format version in that order
// (the same order the original storage manager validates in).
func Parse(buf []byte) (Header, error) {
	if len(buf) < Size {
		return Header{}, dberr.New(dberr.KindInvalidHeader, "header too short")
	}
	var h Header
	copy(h.Magic[:], buf[0:16])
	if h.Magic != Magic {
		return Header{}, dberr.New(dberr.KindInvalidHeader, "invalid magic number")
	}
	h.PageSize = binary.BigEndian.Uint16(buf[16:18])
	if h.PageSize != PageSize {
		return Header{}, dberr.New(dberr.KindInvalidHeader, "unsupported page size")
	}
	h.FileFormatWriteVersion = buf[18]
	if h.FileFormatWriteVersion > maxWriteVersion {
		return Header{}, dberr.UnsupportedFileFormat(h.FileFormatWriteVersion)
	}
	h.FileFormatReadVersion = buf[19]
	h.ReservedSpace = buf[20]
	h.MaxEmbeddedPayloadFraction = buf[21]
	h.MinEmbeddedPayloadFraction = buf[22]
	h.LeafPayloadFraction = buf[23]
	h.FileChangeCounter = binary.BigEndian.Uint32(buf[24:28])
	h.DatabaseSizePages = binary.BigEndian.Uint32(buf[28:32])
	h.FreelistTrunkPage = binary.BigEndian.Uint32(buf[32:36])
	h.FreelistPagesCount = binary.BigEndian.Uint32(buf[36:40])
	h.SchemaCookie = binary.BigEndian.Uint32(buf[40:44])
	h.SchemaFormatNumber = binary.BigEndian.Uint32(buf[44:48])
	h.DefaultPageCacheSize = binary.BigEndian.Uint32(buf[48:52])
	h.LargestRootBTreePage = binary.BigEndian.Uint32(buf[52:56])
	h.TextEncoding = binary.BigEndian.Uint32(buf[56:60])
	h.UserVersion = binary.BigEndian.Uint32(buf[60:64])
	h.IncrementalVacuumMode = binary.BigEndian.Uint32(buf[64:68])
	h.ApplicationID = binary.BigEndian.Uint32(buf[68:72])
	copy(h.Reserved[:], buf[72:92])
	h.VersionValidFor = binary.BigEndian.Uint32(buf[92:96])
	h.BambangVersionNumber = binary.BigEndian.Uint32(buf[96:100])
	return h, nil
}

// PageOffset returns the byte offset of page p (1-indexed) within the
// database file.
func PageOffset(p uint64) int64 {
	return int64(Size) + int64(p-1)*int64(PageSize)
}
