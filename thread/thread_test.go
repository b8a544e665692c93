// Copyright (C) 2026 pyvm contributors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package thread

import (
	"testing"

	"github.com/tekknolagi/skybison-sub001/exc"
	"github.com/tekknolagi/skybison-sub001/frame"
)

func TestNewHasDefaultRecursionLimitAndNoFrame(t *testing.T) {
	th := New()
	if th.RecursionLimit != DefaultRecursionLimit {
		t.Errorf("RecursionLimit = %d, want %d", th.RecursionLimit, DefaultRecursionLimit)
	}
	if th.CurrentFrame != nil {
		t.Error("CurrentFrame should start nil")
	}
	if th.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", th.Depth())
	}
}

func TestEnterFrameAndExitFrameTrackDepthAndCaller(t *testing.T) {
	th := New()
	outer := frame.New(nil, 0, nil, nil, frame.Normal)
	if e := th.EnterFrame(outer); e != nil {
		t.Fatalf("unexpected exception entering outer: %v", e)
	}
	if th.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", th.Depth())
	}

	inner := frame.New(nil, 0, nil, nil, frame.Normal)
	if e := th.EnterFrame(inner); e != nil {
		t.Fatalf("unexpected exception entering inner: %v", e)
	}
	if th.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", th.Depth())
	}
	if th.CurrentFrame != inner {
		t.Error("CurrentFrame should be inner")
	}
	if inner.Caller != outer {
		t.Error("EnterFrame should link inner.Caller to the previous current frame")
	}

	th.ExitFrame()
	if th.Depth() != 1 {
		t.Errorf("Depth() after ExitFrame = %d, want 1", th.Depth())
	}
	if th.CurrentFrame != outer {
		t.Error("CurrentFrame should be restored to outer")
	}
}

func TestEnterFrameRaisesRecursionErrorAtLimit(t *testing.T) {
	th := New()
	th.RecursionLimit = 2
	for i := 0; i < 2; i++ {
		if e := th.EnterFrame(frame.New(nil, 0, nil, nil, frame.Normal)); e != nil {
			t.Fatalf("unexpected exception on frame %d: %v", i, e)
		}
	}
	e := th.EnterFrame(frame.New(nil, 0, nil, nil, frame.Normal))
	if e == nil {
		t.Fatal("expected RecursionError at the limit")
	}
	if !e.Is(exc.RecursionError) {
		t.Errorf("exception kind = %v, want RecursionError", e.Kind)
	}
	if th.Depth() != 2 {
		t.Errorf("Depth() should not have advanced past the limit, got %d", th.Depth())
	}
}

func TestSetAndClearException(t *testing.T) {
	th := New()
	e := exc.New(exc.ValueError, "bad value")
	th.SetException(e)
	if th.PendingException != e {
		t.Fatal("PendingException should be the set exception")
	}
	th.ClearException()
	if th.PendingException != nil {
		t.Fatal("PendingException should be cleared")
	}
}

func TestCheckInterruptFiresOnceThenClears(t *testing.T) {
	th := New()
	if e := th.CheckInterrupt(); e != nil {
		t.Fatalf("unexpected interrupt with none pending: %v", e)
	}

	th.InterruptPending = true
	e := th.CheckInterrupt()
	if e == nil {
		t.Fatal("expected KeyboardInterrupt")
	}
	if !e.Is(exc.KeyboardInterrupt) {
		t.Errorf("exception kind = %v, want KeyboardInterrupt", e.Kind)
	}
	if th.InterruptPending {
		t.Error("InterruptPending should be cleared after observation")
	}

	if e := th.CheckInterrupt(); e != nil {
		t.Fatal("interrupt should not fire twice")
	}
}

func TestPushAndPopHandleScopeNest(t *testing.T) {
	th := New()
	root := th.topScope
	nested := th.PushHandleScope()
	if nested.Depth() != root.Depth()+1 {
		t.Errorf("nested.Depth() = %d, want %d", nested.Depth(), root.Depth()+1)
	}
	th.PopHandleScope(nested)
}
