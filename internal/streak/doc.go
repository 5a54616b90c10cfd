// Package streak computes per-habit streak metrics from a completion log.
//
// Everything here is a pure function of its inputs: there is no I/O and no
// hidden state, so results can always be reproduced from persisted data.
package streak
