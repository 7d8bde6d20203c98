// Package page implements the slotted page format: a fixed 36-byte
// header, a slot directory that grows up from the end of the header, and
// a cell data region that grows down from the end of the page.
package page

import (
	"encoding/binary"
	"hash/crc32"
	"sort"

	"github.com/bambangdb/bambangdb/internal/dberr"
)

const (
	Size         = 4096
	HeaderSize   = 36
	SlotSize     = 4
	NoPage       = ^uint64(0)
	overflowSize = Size / 4
)

// Type identifies the structural role of a page.
type Type byte

const (
	TypeInteriorIndex Type = 2
	TypeInteriorTable Type = 5
	TypeLeafIndex     Type = 10
	TypeLeafTable     Type = 13
	TypeOverflow      Type = 15
)

// Slot is a single entry in the slot directory: the offset and length of
// a cell within the page's data region.
type Slot struct {
	Offset uint16
	Length uint16
}

// IsOverflowPointer reports whether this slot's cell is a 12-byte
// overflow pointer rather than inline cell data, per the size-based
// detection rule (length == OverflowPointerSize).
func (s Slot) IsOverflowPointer() bool { return s.Length == OverflowPointerSize }

// IsSlotDeleted reports whether a slot has been zeroed out by
// DeleteCell and not yet reclaimed by Compact.
func (s Slot) IsSlotDeleted() bool { return s.Length == 0 && s.Offset == 0 }

const OverflowPointerSize = 12

// Page is an in-memory representation of one 4096-byte page. When loaded
// in metadata-only mode, Data is nil and only the header/slots are valid.
type Page struct {
	PageID            uint64
	Type              Type
	ParentPageID      uint64 // NoPage if none
	NextLeafPageID    uint64 // NoPage if none
	Slots             []Slot
	FreeSpaceOffset   uint16
	Data              []byte // nil in metadata-only mode
	metadataOnly      bool
}

// New creates an empty page of the given type with a full, empty cell
// region.
func New(pageID uint64, typ Type) *Page {
	return &Page{
		PageID:          pageID,
		Type:            typ,
		ParentPageID:    NoPage,
		NextLeafPageID:  NoPage,
		FreeSpaceOffset: Size,
		Data:            make([]byte, Size),
	}
}

func (p *Page) IsMetadataOnly() bool { return p.metadataOnly }

// slotDirEnd returns the byte offset immediately after the slot
// directory.
func (p *Page) slotDirEnd() int { return HeaderSize + len(p.Slots)*SlotSize }

// AvailableSpace returns the number of free bytes between the slot
// directory and the start of the cell data region.
func (p *Page) AvailableSpace() int {
	return int(p.FreeSpaceOffset) - p.slotDirEnd()
}

// CanFit reports whether a cell of dataSize bytes (plus its slot entry)
// fits without compaction.
func (p *Page) CanFit(dataSize int) bool {
	return p.AvailableSpace() >= dataSize+SlotSize
}

// NeedsOverflow reports whether a payload of this size must be split
// into an overflow page rather than stored inline.
func NeedsOverflow(dataSize int) bool { return dataSize > overflowSize }

// InsertCell appends data as a new cell, compacting first if needed. It
// returns the new slot index.
func (p *Page) InsertCell(data []byte) (int, error) {
	if p.metadataOnly {
		return 0, dberr.CorruptedPage(p.PageID, "cannot mutate a metadata-only page")
	}
	if !p.CanFit(len(data)) {
		p.Compact()
		if !p.CanFit(len(data)) {
			return 0, dberr.PageFull(p.PageID)
		}
	}
	newOffset := int(p.FreeSpaceOffset) - len(data)
	copy(p.Data[newOffset:], data)
	p.FreeSpaceOffset = uint16(newOffset)
	p.Slots = append(p.Slots, Slot{Offset: uint16(newOffset), Length: uint16(len(data))})
	return len(p.Slots) - 1, nil
}

// GetCell returns the raw bytes for the cell at slot index i, or
// (nil, nil) if that slot has been deleted and not yet reclaimed.
func (p *Page) GetCell(i int) ([]byte, error) {
	if p.metadataOnly {
		return nil, dberr.CorruptedPage(p.PageID, "cannot read cell data from a metadata-only page")
	}
	if i < 0 || i >= len(p.Slots) {
		return nil, dberr.New(dberr.KindInvalidSlotIndex, "slot index out of bounds")
	}
	s := p.Slots[i]
	if s.IsSlotDeleted() {
		return nil, nil
	}
	if int(s.Offset)+int(s.Length) > len(p.Data) {
		return nil, dberr.CorruptedPage(p.PageID, "slot extends past page bounds")
	}
	out := make([]byte, s.Length)
	copy(out, p.Data[s.Offset:int(s.Offset)+int(s.Length)])
	return out, nil
}

// DeleteCell marks the slot as deleted (zero length, empty offset). The
// underlying bytes are reclaimed on the next Compact.
func (p *Page) DeleteCell(i int) error {
	if i < 0 || i >= len(p.Slots) {
		return dberr.New(dberr.KindInvalidSlotIndex, "slot index out of bounds")
	}
	p.Slots[i] = Slot{}
	return nil
}

// UpdateCell replaces the contents of slot i. If the new data is no
// larger than the old, it is written in place; otherwise the old slot is
// deleted and a new cell is appended, and the (possibly new) slot index
// is returned.
func (p *Page) UpdateCell(i int, data []byte) (int, error) {
	if i < 0 || i >= len(p.Slots) {
		return 0, dberr.New(dberr.KindInvalidSlotIndex, "slot index out of bounds")
	}
	old := p.Slots[i]
	if len(data) <= int(old.Length) {
		copy(p.Data[old.Offset:], data)
		p.Slots[i] = Slot{Offset: old.Offset, Length: uint16(len(data))}
		return i, nil
	}
	if err := p.DeleteCell(i); err != nil {
		return 0, err
	}
	return p.InsertCell(data)
}

// Compact rewrites the cell data region with no gaps between live cells,
// reclaiming space held by deleted cells.
func (p *Page) Compact() {
	type liveSlot struct {
		idx  int
		data []byte
	}
	live := make([]liveSlot, 0, len(p.Slots))
	for i, s := range p.Slots {
		if s.IsSlotDeleted() {
			continue
		}
		data := make([]byte, s.Length)
		copy(data, p.Data[s.Offset:int(s.Offset)+int(s.Length)])
		live = append(live, liveSlot{idx: i, data: data})
	}
	// Lay cells out in slot-index order so cell adjacency stays
	// predictable between compactions.
	sort.SliceStable(live, func(a, b int) bool { return live[a].idx < live[b].idx })

	offset := Size
	newData := make([]byte, Size)
	for _, l := range live {
		offset -= len(l.data)
		copy(newData[offset:], l.data)
		p.Slots[l.idx] = Slot{Offset: uint16(offset), Length: uint16(len(l.data))}
	}
	p.Data = newData
	p.FreeSpaceOffset = uint16(offset)
}

// CellCount returns the number of slot entries, including deleted ones
// not yet reclaimed by Compact.
func (p *Page) CellCount() int { return len(p.Slots) }

// ToBytes serializes the page to its on-disk 4096-byte representation,
// computing the CRC-32 checksum over everything but the checksum field
// itself.
func (p *Page) ToBytes() []byte {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint64(buf[0:8], p.PageID)
	buf[8] = byte(p.Type)
	binary.LittleEndian.PutUint64(buf[9:17], p.ParentPageID)
	binary.LittleEndian.PutUint64(buf[17:25], p.NextLeafPageID)
	binary.LittleEndian.PutUint16(buf[25:27], uint16(len(p.Slots)))
	binary.LittleEndian.PutUint16(buf[27:29], p.FreeSpaceOffset)
	// checksum placeholder at 29:33, reserved at 33:36

	off := HeaderSize
	for _, s := range p.Slots {
		binary.LittleEndian.PutUint16(buf[off:off+2], s.Offset)
		binary.LittleEndian.PutUint16(buf[off+2:off+4], s.Length)
		off += SlotSize
	}
	if p.Data != nil {
		copy(buf[HeaderSize+len(p.Slots)*SlotSize:], p.Data[HeaderSize+len(p.Slots)*SlotSize:])
	}

	sum := checksum(buf)
	binary.LittleEndian.PutUint32(buf[29:33], sum)
	return buf
}

func checksum(buf []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write(buf[:29])
	h.Write(buf[33:])
	return h.Sum32()
}

// FromBytes parses a full page from its 4096-byte on-disk form,
// verifying the checksum.
func FromBytes(buf []byte) (*Page, error) {
	if len(buf) != Size {
		return nil, dberr.New(dberr.KindInvalidPageSize, "page buffer must be exactly 4096 bytes")
	}
	p, cellCount, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	want := binary.LittleEndian.Uint32(buf[29:33])
	got := checksum(buf)
	if got != want {
		return nil, dberr.CorruptedPage(p.PageID, "checksum mismatch")
	}
	off := HeaderSize
	for i := 0; i < cellCount; i++ {
		o := binary.LittleEndian.Uint16(buf[off : off+2])
		l := binary.LittleEndian.Uint16(buf[off+2 : off+4])
		p.Slots = append(p.Slots, Slot{Offset: o, Length: l})
		off += SlotSize
	}
	p.Data = make([]byte, Size)
	copy(p.Data, buf)
	return p, nil
}

// FromHeaderBytes parses only the fixed header and slot directory,
// leaving Data nil. Used by the scanner to walk leaf chains without
// paying for full cell-data reads.
func FromHeaderBytes(buf []byte) (*Page, error) {
	if len(buf) < HeaderSize {
		return nil, dberr.New(dberr.KindInvalidPageSize, "header buffer too short")
	}
	p, cellCount, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	need := HeaderSize + cellCount*SlotSize
	if len(buf) < need {
		return nil, dberr.New(dberr.KindInvalidPageSize, "header buffer too short for slot directory")
	}
	off := HeaderSize
	for i := 0; i < cellCount; i++ {
		o := binary.LittleEndian.Uint16(buf[off : off+2])
		l := binary.LittleEndian.Uint16(buf[off+2 : off+4])
		p.Slots = append(p.Slots, Slot{Offset: o, Length: l})
		off += SlotSize
	}
	p.metadataOnly = true
	return p, nil
}

func parseHeader(buf []byte) (*Page, int, error) {
	typ := Type(buf[8])
	switch typ {
	case TypeInteriorIndex, TypeInteriorTable, TypeLeafIndex, TypeLeafTable, TypeOverflow:
	default:
		return nil, 0, dberr.New(dberr.KindInvalidPageType, "unrecognized page type byte")
	}
	p := &Page{
		PageID:          binary.LittleEndian.Uint64(buf[0:8]),
		Type:            typ,
		ParentPageID:    binary.LittleEndian.Uint64(buf[9:17]),
		NextLeafPageID:  binary.LittleEndian.Uint64(buf[17:25]),
		FreeSpaceOffset: binary.LittleEndian.Uint16(buf[27:29]),
	}
	cellCount := int(binary.LittleEndian.Uint16(buf[25:27]))
	return p, cellCount, nil
}

// HeaderOnlyMetadataSize returns the number of bytes FromHeaderBytes
// needs: the fixed header plus the slot directory.
func HeaderOnlyMetadataSize(cellCount int) int { return HeaderSize + cellCount*SlotSize }
