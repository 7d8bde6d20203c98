// Package dberr defines the error taxonomy shared by every storage
// package. Errors are small structs carrying the context a caller needs
// (a page id, an offending reason) and compare with errors.Is/As against
// the sentinel Kind values below.
package dberr

import "fmt"

// Kind identifies the category of a storage error.
type Kind int

const (
	KindIO Kind = iota
	KindInvalidHeader
	KindInvalidPageSize
	KindInvalidPageType
	KindCorruptedPage
	KindCorruptedDatabase
	KindPageFull
	KindInvalidSlotIndex
	KindColumnIndexOutOfBounds
	KindSerializationError
	KindTableNotFound
	KindColumnNotFound
	KindInvalidData
	KindUnsupportedFileFormat
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindInvalidHeader:
		return "invalid_header"
	case KindInvalidPageSize:
		return "invalid_page_size"
	case KindInvalidPageType:
		return "invalid_page_type"
	case KindCorruptedPage:
		return "corrupted_page"
	case KindCorruptedDatabase:
		return "corrupted_database"
	case KindPageFull:
		return "page_full"
	case KindInvalidSlotIndex:
		return "invalid_slot_index"
	case KindColumnIndexOutOfBounds:
		return "column_index_out_of_bounds"
	case KindSerializationError:
		return "serialization_error"
	case KindTableNotFound:
		return "table_not_found"
	case KindColumnNotFound:
		return "column_not_found"
	case KindInvalidData:
		return "invalid_data"
	case KindUnsupportedFileFormat:
		return "unsupported_file_format"
	default:
		return "unknown"
	}
}

// Error is the concrete error type produced by every package in this
// module. Callers distinguish cases with errors.As and inspect Kind.
type Error struct {
	Kind    Kind
	PageID  uint64
	HasPage bool
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.HasPage && e.Reason != "":
		return fmt.Sprintf("%s: page %d: %s", e.Kind, e.PageID, e.Reason)
	case e.HasPage:
		return fmt.Sprintf("%s: page %d", e.Kind, e.PageID)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, letting
// callers write errors.Is(err, dberr.New(dberr.KindTableNotFound, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

func OnPage(kind Kind, pageID uint64, reason string) *Error {
	return &Error{Kind: kind, PageID: pageID, HasPage: true, Reason: reason}
}

// IO wraps a lower-level I/O failure.
func IO(reason string, err error) *Error { return Wrap(KindIO, reason, err) }

// CorruptedPage reports a page whose contents fail a structural check.
func CorruptedPage(pageID uint64, reason string) *Error {
	return OnPage(KindCorruptedPage, pageID, reason)
}

// CorruptedDatabase reports a database-wide structural inconsistency.
func CorruptedDatabase(reason string) *Error {
	return New(KindCorruptedDatabase, reason)
}

// PageFull reports that a page cannot accommodate a cell even after
// compaction.
func PageFull(pageID uint64) *Error {
	return OnPage(KindPageFull, pageID, "")
}

// TableNotFound reports a catalog lookup miss.
func TableNotFound(name string) *Error {
	return New(KindTableNotFound, fmt.Sprintf("table %q not found", name))
}

// ColumnNotFound reports a schema lookup miss.
func ColumnNotFound(table, column string) *Error {
	return New(KindColumnNotFound, fmt.Sprintf("column %q not found on table %q", column, table))
}

// InvalidData reports a value that fails validation against a column's
// declared type or nullability.
func InvalidData(reason string) *Error { return New(KindInvalidData, reason) }

// SerializationError reports a codec failure, e.g. a truncated buffer.
func SerializationError(reason string) *Error { return New(KindSerializationError, reason) }

// UnsupportedFileFormat reports a file-format write version beyond what
// this implementation can read.
func UnsupportedFileFormat(version uint8) *Error {
	return &Error{Kind: KindUnsupportedFileFormat, Reason: fmt.Sprintf("write format version %d unsupported", version)}
}
