// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"context"

	"code.hybscloud.com/pageflow/internal/pageaddr"
)

// PageFrame is one page-aligned row range on a single partition, as
// produced by a PageFrameCursor. It carries exactly the information the
// dispatcher needs to populate the page-address cache; it is never
// retained past the dispatch walk that produced it.
type PageFrame struct {
	PartitionIndex int32
	PartitionLo    int64
	PartitionHi    int64
	RowCount       int64
	Columns        []pageaddr.ColumnAddress
}

// PageFrameCursor is a lazy sequence of page frames over one reader
// snapshot. Next returns ok=false (with a nil error) once the sequence is
// exhausted; ToTop restarts it from the beginning without reopening the
// snapshot; Close releases the snapshot and must be idempotent.
type PageFrameCursor interface {
	Next() (frame PageFrame, ok bool, err error)
	ToTop() error
	Close() error
}

// Metadata describes the shape of the rows a RecordCursorFactory produces.
type Metadata interface {
	ColumnCount() int
	ColumnName(columnIndex int) string
}

// SymbolTable resolves a dictionary-encoded column's integer keys back to
// their string values.
type SymbolTable interface {
	Value(key int32) (string, bool)
}

// SymbolTableSource exposes a SymbolTable per column, for columns backed by
// dictionary encoding.
type SymbolTableSource interface {
	SymbolTable(columnIndex int) SymbolTable
}

// RecordCursorFactory opens a page-frame cursor over a snapshot of a table
// and allocates the per-worker scratch Record type the reducer binds rows
// through. It is the sole external collaborator Dispatch depends on.
type RecordCursorFactory interface {
	Open(ctx context.Context) (PageFrameCursor, error)
	NewRecord() Record
	Metadata() Metadata
	SymbolTableSource() SymbolTableSource
}
