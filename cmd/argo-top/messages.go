package main

import (
	"github.com/rxtech-lab/argo-runtime/internal/api"
)

// SnapshotMsg carries a fresh read of the control plane.
type SnapshotMsg struct {
	Snapshot Snapshot
}

// FetchErrorMsg indicates a failed refresh or command.
type FetchErrorMsg struct {
	Err error
}

// KillSwitchMsg carries the kill switch state after a toggle.
type KillSwitchMsg struct {
	State api.KillSwitchState
}

// refreshMsg schedules the next poll.
type refreshMsg struct {
	seq int
}
