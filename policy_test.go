// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jerelo_test

import (
	"testing"

	"github.com/prokhor-andrew/jerelo-go"
)

// Policy construction is exercised end to end through the combinators in
// parallel_test.go; here we only check the constructors don't panic and
// produce usable values across the three kinds.
func TestOkPolicyConstructors(t *testing.T) {
	_ = jerelo.Sequence[int]()
	_ = jerelo.QuitFast[int]()
	_ = jerelo.RunAll[int](func(a, b int) int { return a + b }, false)
}

func TestCrashPolicyConstructors(t *testing.T) {
	_ = jerelo.SequenceCrash[string, int]()
	_ = jerelo.QuitFastCrash[string, int]()
	_ = jerelo.RunAllCrash[string, int](true,
		func(a, b string) string { return a + ";" + b },
		func(a, b int) int { return a + b },
	)
}
