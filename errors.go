// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock signals that a work-stealing attempt found nothing to do:
// the dispatch queue, a shard's reduce queue, and its cleanup queue were all
// empty from the stealing thread's point of view. It is a control flow
// signal, not a failure, and callers should fall back to a bounded park
// rather than propagate it.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency with
// the ring-buffer packages this one is built on.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrFactoryClosed wraps a failure to open a page-frame cursor on the
// supplied record-cursor factory. It is the only error Dispatch can return;
// everything after a successful Dispatch is best-effort, observable only
// through valid.
var ErrFactoryClosed = errors.New("pageflow: record-cursor factory failed to open")

// IsWouldBlock reports whether err indicates a stealing attempt found no
// work. Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

func wrapFactoryErr(err error) error {
	return fmt.Errorf("%w: %w", ErrFactoryClosed, err)
}
