// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo_test

import (
	"testing"

	"github.com/prokhor-andrew/jerelo-go"
)

func TestObserverWithReplacements(t *testing.T) {
	base := jerelo.Observer[string, int]{
		OnThen:  func(int) {},
		OnElse:  func(string) {},
		OnCrash: func(jerelo.ContCrash) {},
	}

	var gotThen int
	replaced := base.WithOnThen(func(a int) { gotThen = a })
	replaced.OnThen(42)
	if gotThen != 42 {
		t.Fatalf("got %d, want 42", gotThen)
	}

	var gotElse string
	replaced2 := base.WithOnElse(func(e string) { gotElse = e })
	replaced2.OnElse("nope")
	if gotElse != "nope" {
		t.Fatalf("got %q, want %q", gotElse, "nope")
	}

	var gotCrash bool
	replaced3 := base.WithOnCrash(func(jerelo.ContCrash) { gotCrash = true })
	replaced3.OnCrash(jerelo.ContCrash{})
	if !gotCrash {
		t.Fatal("expected OnCrash replacement to fire")
	}
}

func TestObserverSingleEmissionViaOf(t *testing.T) {
	var thenCount, elseCount, crashCount int
	jerelo.Run(jerelo.Of[struct{}, string, int](1), struct{}{}, jerelo.Observer[string, int]{
		OnThen:  func(int) { thenCount++ },
		OnElse:  func(string) { elseCount++ },
		OnCrash: func(jerelo.ContCrash) { crashCount++ },
	})
	if thenCount != 1 || elseCount != 0 || crashCount != 0 {
		t.Fatalf("got then=%d else=%d crash=%d, want 1/0/0", thenCount, elseCount, crashCount)
	}
}
