// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"context"

	"code.hybscloud.com/pageflow/internal/pageaddr"
)

// fakeRecord is a minimal Record for tests: it remembers the last address
// and row offset it was bound to.
type fakeRecord struct {
	addr            pageaddr.FrameAddress
	rowIndexInFrame int64
}

func (r *fakeRecord) Bind(addr pageaddr.FrameAddress, rowIndexInFrame int64) {
	r.addr = addr
	r.rowIndexInFrame = rowIndexInFrame
}

// fakeCursor replays a fixed slice of frame row counts.
type fakeCursor struct {
	rowCounts []int64
	index     int
	closed    bool
}

func (c *fakeCursor) Next() (PageFrame, bool, error) {
	if c.index >= len(c.rowCounts) {
		return PageFrame{}, false, nil
	}
	f := PageFrame{PartitionIndex: int32(c.index), RowCount: c.rowCounts[c.index]}
	c.index++
	return f, true, nil
}

func (c *fakeCursor) ToTop() error {
	c.index = 0
	return nil
}

func (c *fakeCursor) Close() error {
	c.closed = true
	return nil
}

// fakeFactory builds fakeCursor/fakeRecord pairs over a fixed frame layout.
type fakeFactory struct {
	rowCounts []int64
}

func (f *fakeFactory) Open(ctx context.Context) (PageFrameCursor, error) {
	return &fakeCursor{rowCounts: f.rowCounts}, nil
}

func (f *fakeFactory) NewRecord() Record { return &fakeRecord{} }

func (f *fakeFactory) Metadata() Metadata { return nil }

func (f *fakeFactory) SymbolTableSource() SymbolTableSource { return nil }

// evenRowReducer keeps every even-numbered row in each frame, the simplest
// deterministic survivorship rule for assertions.
type evenRowReducer struct{}

func (evenRowReducer) Reduce(rec Record, atom any, addr pageaddr.FrameAddress, task *ReduceTask) error {
	for i := int64(0); i < addr.RowCount; i++ {
		if i%2 == 0 {
			task.Rows = append(task.Rows, i)
		}
	}
	return nil
}

// failingReducer always returns an error, for invalidation tests.
type failingReducer struct{}

func (failingReducer) Reduce(rec Record, atom any, addr pageaddr.FrameAddress, task *ReduceTask) error {
	return errReduceFailed
}

var errReduceFailed = errReduceFailedErr{}

type errReduceFailedErr struct{}

func (errReduceFailedErr) Error() string { return "pageflow: test reduce failure" }
