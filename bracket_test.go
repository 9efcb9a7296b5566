// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo_test

import (
	"testing"

	"github.com/prokhor-andrew/jerelo-go"
)

func TestBracketHappyPath(t *testing.T) {
	var acquired, released bool
	acquire := jerelo.FromDeferred(func() jerelo.Cont[struct{}, jerelo.Never, int] {
		acquired = true
		return jerelo.Of[struct{}, jerelo.Never, int](42)
	})
	release := func(r int) jerelo.Cont[struct{}, jerelo.Never, struct{}] {
		released = true
		return jerelo.Of[struct{}, jerelo.Never, struct{}](struct{}{})
	}
	use := func(r int) jerelo.Cont[struct{}, string, int] {
		return jerelo.Of[struct{}, string, int](r * 2)
	}

	c := jerelo.Bracket(acquire, use, release)
	a, _, _, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "then" || a != 84 {
		t.Fatalf("got which=%q a=%d, want then/84", which, a)
	}
	if !acquired || !released {
		t.Fatalf("acquired=%v released=%v, want both true", acquired, released)
	}
}

func TestBracketReleasesOnUseElse(t *testing.T) {
	var released bool
	acquire := jerelo.Of[struct{}, jerelo.Never, int](1)
	release := func(int) jerelo.Cont[struct{}, jerelo.Never, struct{}] {
		released = true
		return jerelo.Of[struct{}, jerelo.Never, struct{}](struct{}{})
	}
	use := func(int) jerelo.Cont[struct{}, string, int] {
		return jerelo.ErrorC[struct{}, string, int]("use failed")
	}

	c := jerelo.Bracket(acquire, use, release)
	_, f, _, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "else" || f != "use failed" {
		t.Fatalf("got which=%q f=%q", which, f)
	}
	if !released {
		t.Fatal("expected release to run even though use failed")
	}
}

func TestBracketReleasesOnUseCrash(t *testing.T) {
	var released bool
	acquire := jerelo.Of[struct{}, jerelo.Never, int](1)
	release := func(int) jerelo.Cont[struct{}, jerelo.Never, struct{}] {
		released = true
		return jerelo.Of[struct{}, jerelo.Never, struct{}](struct{}{})
	}
	use := func(int) jerelo.Cont[struct{}, string, int] {
		return jerelo.CrashC[struct{}, string, int](jerelo.NormalCrash(errTest))
	}

	c := jerelo.Bracket(acquire, use, release)
	_, _, crash, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "crash" {
		t.Fatalf("got which=%q, want crash", which)
	}
	if !released {
		t.Fatal("expected release to run even though use crashed")
	}
	if crash.Error() == "" {
		t.Fatal("expected a crash message")
	}
}

func TestBracketReleaseCrashDominatesUseSuccess(t *testing.T) {
	acquire := jerelo.Of[struct{}, jerelo.Never, int](1)
	release := func(int) jerelo.Cont[struct{}, jerelo.Never, struct{}] {
		return jerelo.CrashC[struct{}, jerelo.Never, struct{}](jerelo.NormalCrash(errTest))
	}
	use := func(int) jerelo.Cont[struct{}, string, int] {
		return jerelo.Of[struct{}, string, int](999)
	}

	c := jerelo.Bracket(acquire, use, release)
	_, _, crash, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "crash" {
		t.Fatalf("got which=%q, want crash (release failure dominates)", which)
	}
	if crash.Error() == "" {
		t.Fatal("expected a crash message")
	}
}

func TestBracketMergesBothCrashes(t *testing.T) {
	acquire := jerelo.Of[struct{}, jerelo.Never, int](1)
	release := func(int) jerelo.Cont[struct{}, jerelo.Never, struct{}] {
		return jerelo.CrashC[struct{}, jerelo.Never, struct{}](jerelo.NormalCrash(errTest))
	}
	use := func(int) jerelo.Cont[struct{}, string, int] {
		return jerelo.CrashC[struct{}, string, int](jerelo.NormalCrash(errTest))
	}

	c := jerelo.Bracket(acquire, use, release)
	_, _, crash, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "crash" {
		t.Fatalf("got which=%q, want crash", which)
	}
	if !crash.IsMerged() {
		t.Fatal("expected a merged crash when both use and release crash")
	}
}

func TestBracketSkipsUseWhenCancelledBeforeAcquireDelivers(t *testing.T) {
	var fireAcquired func()
	var usedCalled bool

	// acquire defers delivering its outcome until the test fires it
	// explicitly, so cancellation can be requested before the delivery is
	// ever attempted. Once cancelled, the run is silent end to end: use is
	// never invoked and no outcome reaches the observer.
	acquire := jerelo.FromRun(func(_ *jerelo.Runtime[struct{}], obs jerelo.Observer[jerelo.Never, int]) {
		fireAcquired = func() { obs.OnThen(7) }
	})
	release := func(int) jerelo.Cont[struct{}, jerelo.Never, struct{}] {
		return jerelo.Of[struct{}, jerelo.Never, struct{}](struct{}{})
	}
	use := func(int) jerelo.Cont[struct{}, string, int] {
		usedCalled = true
		return jerelo.Of[struct{}, string, int](999)
	}

	c := jerelo.Bracket(acquire, use, release)
	var which string
	tok := jerelo.Run(c, struct{}{}, jerelo.Observer[string, int]{
		OnThen:  func(int) { which = "then" },
		OnElse:  func(string) { which = "else" },
		OnCrash: func(jerelo.ContCrash) { which = "crash" },
	})

	tok.Cancel()
	fireAcquired()

	if usedCalled {
		t.Fatal("expected use to be skipped once cancellation is observed")
	}
	if which != "" {
		t.Fatalf("expected no outcome delivered on the cancelled run, got %q", which)
	}
}

func TestBracketOptionsObserveRelease(t *testing.T) {
	var sawReleaseThen bool
	acquire := jerelo.Of[struct{}, jerelo.Never, int](5)
	release := func(int) jerelo.Cont[struct{}, jerelo.Never, struct{}] {
		return jerelo.Of[struct{}, jerelo.Never, struct{}](struct{}{})
	}
	use := func(r int) jerelo.Cont[struct{}, string, int] {
		return jerelo.Of[struct{}, string, int](r)
	}

	c := jerelo.Bracket(acquire, use, release, jerelo.OnReleaseThen[int](func(int) { sawReleaseThen = true }))
	runCollect[struct{}, string, int](c, struct{}{})
	if !sawReleaseThen {
		t.Fatal("expected OnReleaseThen callback to fire")
	}
}
