// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

// State is a stage of one invocation.
type State int

const (
	Idle State = iota
	Filtering
	Connecting
	Authenticating
	Executing
	Finalized
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Filtering:
		return "filtering"
	case Connecting:
		return "connecting"
	case Authenticating:
		return "authenticating"
	case Executing:
		return "executing"
	case Finalized:
		return "finalized"
	}
	return "unknown"
}
