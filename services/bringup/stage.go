package bringup

// Stage is a bring-up state. Stages only move forward.
type Stage uint8

const (
	StageIdle Stage = iota
	StageMapIO
	StageModeSelect
	StageMachineInit
	StageComplete
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageMapIO:
		return "map_io"
	case StageModeSelect:
		return "mode_select"
	case StageMachineInit:
		return "machine_init"
	case StageComplete:
		return "complete"
	case StageFailed:
		return "failed"
	default:
		return "idle"
	}
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports Complete or Failed.
func (s Stage) Terminal() bool { return s == StageComplete || s == StageFailed }

const (
	statusRunning = "running"
	statusDone    = "done"
	statusFailed  = "failed"
)
