// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package pageflow

// RaceEnabled is true when the race detector is active.
// Used by stress tests to shrink goroutine/iteration counts so they still
// complete in reasonable time under the race detector's instrumentation.
const RaceEnabled = true
