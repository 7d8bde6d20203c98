// Package pager provides the page cache and file I/O layer the B+-tree
// and catalog are built on: a page is read once, cached by id, and
// written through on every mutation.
package pager

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/bambangdb/bambangdb/internal/dberr"
	"github.com/bambangdb/bambangdb/internal/fileheader"
	"github.com/bambangdb/bambangdb/internal/page"
)

// Pager owns the underlying file handle, a page cache, and the
// allocation counter for new pages. It assumes a single mutator, per the
// engine's cooperative single-writer model.
type Pager struct {
	file     *os.File
	cache    map[uint64]*page.Page
	nextPage uint64
	log      *logrus.Entry
}

// Open wraps an already-positioned file handle. fileSizePages is the
// current page count (from the file header), used to seed allocation.
func Open(f *os.File, fileSizePages uint64, log *logrus.Entry) *Pager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pager{
		file:     f,
		cache:    make(map[uint64]*page.Page),
		nextPage: fileSizePages + 1,
		log:      log,
	}
}

// Read loads a page, consulting the cache first.
func (p *Pager) Read(pageID uint64) (*page.Page, error) {
	if cached, ok := p.cache[pageID]; ok && !cached.IsMetadataOnly() {
		return cached, nil
	}
	buf := make([]byte, page.Size)
	if _, err := p.file.ReadAt(buf, fileheader.PageOffset(pageID)); err != nil {
		return nil, dberr.IO("reading page", err)
	}
	pg, err := page.FromBytes(buf)
	if err != nil {
		return nil, err
	}
	p.cache[pageID] = pg
	return pg, nil
}

// ReadMetadata loads only a page's header and slot directory, without
// paying for the full 4096-byte cell-data read. Used by the scanner to
// walk the leaf chain cheaply.
func (p *Pager) ReadMetadata(pageID uint64) (*page.Page, error) {
	header := make([]byte, page.HeaderSize)
	if _, err := p.file.ReadAt(header, fileheader.PageOffset(pageID)); err != nil {
		return nil, dberr.IO("reading page header", err)
	}
	cellCount := int(headerCellCount(header))
	need := page.HeaderOnlyMetadataSize(cellCount)
	buf := make([]byte, need)
	if _, err := p.file.ReadAt(buf, fileheader.PageOffset(pageID)); err != nil {
		return nil, dberr.IO("reading page metadata", err)
	}
	return page.FromHeaderBytes(buf)
}

func headerCellCount(header []byte) uint16 {
	return uint16(header[25]) | uint16(header[26])<<8
}

// ReadCellBytes reads exactly slot.Length bytes at pageID's cell-data
// offset (page_offset + slot.Offset), without loading the rest of the
// page. Pairs with ReadMetadata so a full leaf-chain walk never pays for
// a page's unused cell bytes.
func (p *Pager) ReadCellBytes(pageID uint64, slot page.Slot) ([]byte, error) {
	buf := make([]byte, slot.Length)
	off := fileheader.PageOffset(pageID) + int64(slot.Offset)
	if _, err := p.file.ReadAt(buf, off); err != nil {
		return nil, dberr.IO("reading cell bytes", err)
	}
	return buf, nil
}

// Write persists a page and fsyncs the file, matching the teacher's
// per-write fsync (no group commit, no WAL).
func (p *Pager) Write(pg *page.Page) error {
	buf := pg.ToBytes()
	if _, err := p.file.WriteAt(buf, fileheader.PageOffset(pg.PageID)); err != nil {
		return dberr.IO("writing page", err)
	}
	if err := p.file.Sync(); err != nil {
		return dberr.IO("fsync after page write", err)
	}
	p.cache[pg.PageID] = pg
	p.log.WithField("page_id", pg.PageID).Debug("wrote page")
	return nil
}

// Allocate reserves the next free page id and returns a fresh, empty
// page of the given type.
func (p *Pager) Allocate(typ page.Type) *page.Page {
	id := p.nextPage
	p.nextPage++
	pg := page.New(id, typ)
	p.log.WithField("page_id", id).WithField("type", typ).Debug("allocated page")
	return pg
}

// PageCount returns the number of pages allocated so far (including
// page 1).
func (p *Pager) PageCount() uint64 { return p.nextPage - 1 }

// Flush drops the in-memory cache, forcing the next Read to go to disk.
// Useful for tests that want to verify on-disk state directly.
func (p *Pager) Flush() { p.cache = make(map[uint64]*page.Page) }
