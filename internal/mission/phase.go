package mission

import "time"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseStabilizing
	PhaseFollowing
	PhaseManualHandoff
	PhaseFinalPositioning
	PhaseDone
	PhaseAborted
)

var phaseNames = map[Phase]string{
	PhaseIdle:             "idle",
	PhaseConnecting:       "connecting",
	PhaseStabilizing:      "stabilizing",
	PhaseFollowing:        "following",
	PhaseManualHandoff:    "manual_handoff",
	PhaseFinalPositioning: "final_positioning",
	PhaseDone:             "done",
	PhaseAborted:          "aborted",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseAborted
}

// Phases lists every phase in state machine order.
func Phases() []Phase {
	return []Phase{
		PhaseIdle, PhaseConnecting, PhaseStabilizing, PhaseFollowing,
		PhaseManualHandoff, PhaseFinalPositioning, PhaseDone, PhaseAborted,
	}
}

// Transition describes one phase change of a run.
type Transition struct {
	Leader   string
	Follower string
	From     Phase
	To       Phase
	Reason   string
	At       time.Time
	// Target is set once a target fix has been accepted.
	Target *TargetPoint
}

type TargetPoint struct {
	Latitude  float64
	Longitude float64
}
