// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo_test

import (
	"errors"
	"testing"

	"github.com/prokhor-andrew/jerelo-go"
)

func TestCancelTokenStartsUncancelled(t *testing.T) {
	tok := jerelo.NewCancelToken()
	if tok.IsCancelled() {
		t.Fatal("expected a fresh token to be uncancelled")
	}
}

func TestCancelTokenIdempotent(t *testing.T) {
	tok := jerelo.NewCancelToken()
	tok.Cancel()
	tok.Cancel()
	if !tok.IsCancelled() {
		t.Fatal("expected token to be cancelled")
	}
}

func TestRuntimeEnv(t *testing.T) {
	rt := jerelo.NewRuntime(7, jerelo.NewCancelToken(), func(jerelo.ContCrash) {})
	if rt.Env() != 7 {
		t.Fatalf("got %d, want 7", rt.Env())
	}
}

func TestRuntimeIsCancelledReflectsToken(t *testing.T) {
	tok := jerelo.NewCancelToken()
	rt := jerelo.NewRuntime(struct{}{}, tok, func(jerelo.ContCrash) {})
	if rt.IsCancelled() {
		t.Fatal("expected uncancelled runtime")
	}
	tok.Cancel()
	if !rt.IsCancelled() {
		t.Fatal("expected runtime to observe token cancellation")
	}
}

func TestRuntimePanicRoutesToSink(t *testing.T) {
	var got jerelo.ContCrash
	var called bool
	rt := jerelo.NewRuntime(struct{}{}, jerelo.NewCancelToken(), func(c jerelo.ContCrash) {
		called = true
		got = c
	})

	want := jerelo.NormalCrash(errors.New("boom"))
	rt.Panic(want)

	if !called {
		t.Fatal("expected sink to be invoked")
	}
	if got.Error() != want.Error() {
		t.Fatalf("got %q, want %q", got.Error(), want.Error())
	}
}
