// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import "code.hybscloud.com/pageflow/internal/pageaddr"

// SizeUnknown is the value Collector.Size returns: row counts below LIMIT
// are not known ahead of a full scan.
const SizeUnknown int64 = -1

// Record is a per-worker scratch handle a Reducer uses to address one
// row's column data. Its concrete representation belongs to the external
// reader implementation; this package only (re)binds it to a frame address
// and a row offset within that frame.
type Record interface {
	Bind(addr pageaddr.FrameAddress, rowIndexInFrame int64)
}

// RecordCursor is the collector's public surface: a row-by-row iterator
// over the surviving rows of one query.
type RecordCursor interface {
	HasNext() bool
	Record() Record
	RecordB() Record
	RecordAt(rec Record, id RowID)
	ToTop() error
	Size() int64
	SymbolTable(columnIndex int) SymbolTable
	Close() error
}
