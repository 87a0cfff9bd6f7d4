// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"sync"
	"testing"
)

func TestFanOutCurrentIsMinimumOfMembers(t *testing.T) {
	f := NewFanOut()
	if c := f.Current(); c != Empty {
		t.Fatalf("Current() on empty fan-out=%d want Empty", c)
	}

	a := staticBarrier{at: 5}
	b := staticBarrier{at: 2}
	f.And(a)
	f.And(b)
	if c := f.Current(); c != 2 {
		t.Fatalf("Current()=%d want 2 (minimum)", c)
	}
}

func TestFanOutRemoveDetachesMember(t *testing.T) {
	f := NewFanOut()
	a := staticBarrier{at: 1}
	b := staticBarrier{at: 9}
	f.And(a)
	f.And(b)
	f.Remove(a)
	if c := f.Current(); c != 9 {
		t.Fatalf("Current()=%d want 9 after removing the slower member", c)
	}
	f.Remove(b)
	if c := f.Current(); c != Empty {
		t.Fatalf("Current()=%d want Empty once all members detached", c)
	}
}

func TestFanOutAndRemoveUnderConcurrency(t *testing.T) {
	f := NewFanOut()
	permanent := staticBarrier{at: 1 << 30}
	f.And(permanent)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := NewSCSequence(staticGate{})
			f.And(sub)
			f.Current()
			f.Remove(sub)
		}()
	}
	wg.Wait()
	if c := f.Current(); c != permanent.Current() {
		t.Fatalf("Current()=%d want %d once all transient members detached", c, permanent.Current())
	}
}

type staticGate struct{}

func (staticGate) Published(Cursor) bool { return false }
