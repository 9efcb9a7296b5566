// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo_test

import (
	"testing"

	"github.com/prokhor-andrew/jerelo-go"
)

func TestThenTapDoesNotChangeOutcome(t *testing.T) {
	var seen int
	c := jerelo.ThenTap(jerelo.Of[struct{}, string, int](7), func(a int) { seen = a })
	a, _, _, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "then" || a != 7 || seen != 7 {
		t.Fatalf("got which=%q a=%d seen=%d", which, a, seen)
	}
}

func TestThenZipPairsSuccesses(t *testing.T) {
	c := jerelo.ThenZip(jerelo.Of[struct{}, string, int](1), jerelo.Of[struct{}, string, string]("x"))
	pair, _, _, which := runCollect[struct{}, string, struct {
		First  int
		Second string
	}](c, struct{}{})
	if which != "then" || pair.First != 1 || pair.Second != "x" {
		t.Fatalf("got which=%q pair=%+v", which, pair)
	}
}

func TestThenIfBranches(t *testing.T) {
	c := jerelo.ThenIf(jerelo.Of[struct{}, string, int](4),
		func(a int) bool { return a%2 == 0 },
		func(a int) jerelo.Cont[struct{}, string, string] { return jerelo.Of[struct{}, string, string]("even") },
		func(a int) jerelo.Cont[struct{}, string, string] { return jerelo.Of[struct{}, string, string]("odd") },
	)
	a, _, _, which := runCollect[struct{}, string, string](c, struct{}{})
	if which != "then" || a != "even" {
		t.Fatalf("got which=%q a=%q, want then/even", which, a)
	}
}

func TestDemoteFoldsThenIntoElse(t *testing.T) {
	c := jerelo.Demote(jerelo.Of[struct{}, string, int](3), func(a int) string { return "was a success" })
	_, f, _, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "else" || f != "was a success" {
		t.Fatalf("got which=%q f=%q", which, f)
	}
}

func TestPromoteFoldsElseIntoThen(t *testing.T) {
	c := jerelo.Promote(jerelo.ErrorC[struct{}, string, int]("e"), func(e string) int { return len(e) })
	a, _, _, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "then" || a != 1 {
		t.Fatalf("got which=%q a=%d, want then/1", which, a)
	}
}

func TestElseUnlessRecoversOnlyWhenPredicateAccepts(t *testing.T) {
	recoverable := jerelo.ElseUnless(jerelo.ErrorC[struct{}, int, string](404),
		func(e int) bool { return e == 404 },
		func(int) jerelo.Cont[struct{}, int, string] { return jerelo.Of[struct{}, int, string]("fallback") },
	)
	a, _, _, which := runCollect[struct{}, int, string](recoverable, struct{}{})
	if which != "then" || a != "fallback" {
		t.Fatalf("got which=%q a=%q", which, a)
	}

	unrecoverable := jerelo.ElseUnless(jerelo.ErrorC[struct{}, int, string](500),
		func(e int) bool { return e == 404 },
		func(int) jerelo.Cont[struct{}, int, string] { return jerelo.Of[struct{}, int, string]("fallback") },
	)
	_, f, _, which := runCollect[struct{}, int, string](unrecoverable, struct{}{})
	if which != "else" || f != 500 {
		t.Fatalf("got which=%q f=%d, want else/500", which, f)
	}
}

func TestCrashRecoverThenAlwaysRecovers(t *testing.T) {
	c := jerelo.CrashRecoverThen(
		jerelo.CrashC[struct{}, string, int](jerelo.NormalCrash(errTest)),
		func(jerelo.ContCrash) int { return -1 },
	)
	a, _, _, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "then" || a != -1 {
		t.Fatalf("got which=%q a=%d, want then/-1", which, a)
	}
}

func TestCrashRecoverElseAlwaysRecovers(t *testing.T) {
	c := jerelo.CrashRecoverElse(
		jerelo.CrashC[struct{}, string, int](jerelo.NormalCrash(errTest)),
		func(jerelo.ContCrash) string { return "recovered-as-else" },
	)
	_, f, _, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "else" || f != "recovered-as-else" {
		t.Fatalf("got which=%q f=%q", which, f)
	}
}

func TestThenForkDoesNotAffectPrimaryOutcome(t *testing.T) {
	var forkRan bool
	c := jerelo.ThenFork(jerelo.Of[struct{}, string, int](8), func(a int) jerelo.Cont[struct{}, string, struct{}] {
		forkRan = true
		return jerelo.Of[struct{}, string, struct{}](struct{}{})
	})
	a, _, _, which := runCollect[struct{}, string, int](c, struct{}{})
	if which != "then" || a != 8 || !forkRan {
		t.Fatalf("got which=%q a=%d forkRan=%v", which, a, forkRan)
	}
}
