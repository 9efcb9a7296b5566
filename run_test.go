// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo_test

import (
	"errors"
	"testing"

	"github.com/prokhor-andrew/jerelo-go"
)

func TestRunReturnsATokenThatCanBeCancelled(t *testing.T) {
	tok := jerelo.Run(jerelo.Of[struct{}, string, int](1), struct{}{}, jerelo.Observer[string, int]{
		OnThen:  func(int) {},
		OnElse:  func(string) {},
		OnCrash: func(jerelo.ContCrash) {},
	})
	if tok.IsCancelled() {
		t.Fatal("expected a fresh run's token to start uncancelled")
	}
	tok.Cancel()
	if !tok.IsCancelled() {
		t.Fatal("expected Cancel to take effect")
	}
}

func TestFfDiscardsThen(t *testing.T) {
	// Ff must not panic and must return a usable token even though no
	// observer callbacks were supplied by the caller.
	tok := jerelo.Ff[struct{}, string, int](jerelo.Of[struct{}, string, int](1), struct{}{})
	if tok == nil {
		t.Fatal("expected a non-nil token")
	}
}

func TestRunDefaultPanicSinkIsSilent(t *testing.T) {
	// With no WithPanicSink installed, a crash reaching the panic sink must
	// not propagate out of Run and must not be observable anywhere other
	// than the (Nop) logger it's written to.
	jerelo.Run(jerelo.Of[struct{}, string, int](1), struct{}{}, jerelo.Observer[string, int]{
		OnThen:  func(int) { panic("observer misbehaves") },
		OnElse:  func(string) {},
		OnCrash: func(jerelo.ContCrash) {},
	})
}

func TestFfDropsCrashToo(t *testing.T) {
	// Per the distilled spec's Open Questions resolution, Ff is Run with all
	// three callbacks defaulted to no-ops, including OnCrash.
	tok := jerelo.Ff[struct{}, string, int](jerelo.CrashC[struct{}, string, int](jerelo.NormalCrash(errors.New("boom"))), struct{}{})
	if tok == nil {
		t.Fatal("expected a non-nil token")
	}
}

func TestRunWithPanicSinkReceivesCrashFromObserverCallback(t *testing.T) {
	var sawCrash bool
	sink := func(jerelo.ContCrash) { sawCrash = true }

	// A panic inside the observer's own OnThen callback must be routed to
	// the panic sink rather than propagating to the caller of Run.
	jerelo.RunWith(jerelo.Of[struct{}, string, int](1), struct{}{}, jerelo.Observer[string, int]{
		OnThen: func(int) { panic("observer misbehaves") },
		OnElse: func(string) {},
		OnCrash: func(jerelo.ContCrash) {},
	}, jerelo.WithPanicSink[struct{}](sink))

	if !sawCrash {
		t.Fatal("expected the installed panic sink to observe the crash")
	}
}
