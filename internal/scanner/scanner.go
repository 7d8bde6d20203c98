// Package scanner implements the sequential full-table scan: descend to
// the leftmost leaf, then walk the next_leaf_page_id chain, batching
// rows and prefetching pages one ahead of the caller.
package scanner

import (
	"github.com/sirupsen/logrus"

	"github.com/bambangdb/bambangdb/internal/bptree"
	"github.com/bambangdb/bambangdb/internal/page"
	"github.com/bambangdb/bambangdb/internal/value"
)

// DefaultBatchSize is the number of rows returned per Next call.
const DefaultBatchSize = 32

// DefaultPrefetchDepth bounds the read-ahead queue.
const DefaultPrefetchDepth = 2

const noPage = ^uint64(0)

// Scanner walks every row of a table's B+-tree in ascending key order.
type Scanner struct {
	tree          *bptree.Tree
	batchSize     int
	prefetchDepth int
	log           *logrus.Entry

	rootPageID  uint64
	currentLeaf uint64
	slotIndex   int
	prefetch    []*page.Page
	done        bool
}

// Option configures a Scanner at construction time.
type Option func(*Scanner)

func WithBatchSize(n int) Option { return func(s *Scanner) { s.batchSize = n } }
func WithPrefetchDepth(n int) Option {
	return func(s *Scanner) { s.prefetchDepth = n }
}

// New starts a scanner over tree, rooted at tree.RootPageID as it stands
// right now. Callers that mutate the tree after the scanner starts
// should not reuse the Scanner, matching the engine's single-mutator
// model.
func New(tree *bptree.Tree, log *logrus.Entry, opts ...Option) (*Scanner, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Scanner{
		tree:          tree,
		batchSize:     DefaultBatchSize,
		prefetchDepth: DefaultPrefetchDepth,
		log:           log,
		rootPageID:    tree.RootPageID,
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset rewinds the scanner to the leftmost leaf of its tree.
func (s *Scanner) Reset() error {
	leaf, err := s.tree.LeftmostLeaf(s.rootPageID)
	if err != nil {
		return err
	}
	s.currentLeaf = leaf
	s.slotIndex = 0
	s.prefetch = nil
	s.done = false
	return nil
}

// Next returns up to batchSize rows in ascending key order. It returns a
// shorter (possibly empty) slice once the scan is exhausted; subsequent
// calls return an empty slice with no error.
func (s *Scanner) Next() ([]value.Row, error) {
	if s.done {
		return nil, nil
	}
	out := make([]value.Row, 0, s.batchSize)
	for len(out) < s.batchSize {
		pg, err := s.currentPage()
		if err != nil {
			return nil, err
		}
		if pg == nil {
			s.done = true
			break
		}
		advanced := false
		for s.slotIndex < len(pg.Slots) {
			slot := pg.Slots[s.slotIndex]
			if slot.Length == 0 && slot.Offset == 0 {
				s.slotIndex++
				continue
			}
			payload, err := s.tree.ReadLeafCellAt(s.currentLeaf, slot)
			if err != nil {
				return nil, err
			}
			row, err := value.DecodeRow(payload)
			if err != nil {
				return nil, err
			}
			out = append(out, row)
			s.slotIndex++
			advanced = true
			if len(out) == s.batchSize {
				return out, nil
			}
		}
		if !advanced && s.slotIndex >= len(pg.Slots) {
			if err := s.advancePage(pg); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// currentPage returns the metadata (header + slot directory) of the
// leaf the scanner is positioned on, always re-reading it fresh from
// the file: the prefetch queue is never consulted, for this page or any
// later one. Row bytes themselves are never part of this read — they're
// fetched one cell at a time via ReadLeafCellAt.
func (s *Scanner) currentPage() (*page.Page, error) {
	if s.currentLeaf == noPage || s.currentLeaf == 0 {
		return nil, nil
	}
	return s.tree.Pager.ReadMetadata(s.currentLeaf)
}

func (s *Scanner) advancePage(pg *page.Page) error {
	s.fillPrefetch(pg.NextLeafPageID)
	s.currentLeaf = pg.NextLeafPageID
	s.slotIndex = 0
	if s.currentLeaf == noPage {
		s.done = true
	}
	return nil
}

// fillPrefetch refills the read-ahead queue starting from next, loading
// up to prefetchDepth pages' metadata. The queued pages are held only in
// s.prefetch: ReadMetadata does not add them to the pager's cache, and
// Next reads every page afresh via currentPage. It does not change the
// traversal order, and (like currentPage) never reads a page's cell-data
// bytes.
func (s *Scanner) fillPrefetch(next uint64) {
	if s.prefetchDepth <= 0 {
		return
	}
	s.prefetch = s.prefetch[:0]
	pageID := next
	for i := 0; i < s.prefetchDepth && pageID != noPage && pageID != 0; i++ {
		pg, err := s.tree.Pager.ReadMetadata(pageID)
		if err != nil {
			s.log.WithError(err).Debug("prefetch read failed")
			return
		}
		s.prefetch = append(s.prefetch, pg)
		pageID = pg.NextLeafPageID
	}
}
