// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package jerelo builds cold, lazy, composable effectful computations in
// continuation-passing style. A Cont[E, F, A] describes how a result of type
// A may eventually be produced under environment E, possibly terminating
// instead with a typed business error F, or crashing with an unexpected
// exception. Nothing executes until the computation is run via Run or Ff,
// and any Cont value may be run any number of times independently.
//
// The three outcome channels are disjoint: exactly one of an Observer's
// OnThen, OnElse, OnCrash fires per run, or none at all if the run is
// cancelled before an outcome is produced. Cancellation is cooperative and
// monotonic, polled at operator boundaries rather than preempted.
package jerelo
