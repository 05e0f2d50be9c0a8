package types

import (
	"fmt"
	"time"
)

// RunStatus is the persisted outcome code of a run.
type RunStatus int

const (
	StatusPending         RunStatus = -2
	StatusInProgress      RunStatus = -1
	StatusSuccess         RunStatus = 0
	StatusError           RunStatus = 1
	StatusConfigError     RunStatus = 3
	StatusCommandNotFound RunStatus = 127
)

func (s RunStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusConfigError:
		return "config_error"
	case StatusCommandNotFound:
		return "command_not_found"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether s is a final status.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusError, StatusConfigError, StatusCommandNotFound:
		return true
	}
	return false
}

// LogLevel is the severity of a run log entry.
type LogLevel int

const (
	LogInfo LogLevel = iota + 1
	LogWarning
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogInfo:
		return "info"
	case LogWarning:
		return "warning"
	case LogError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Run is the persisted record of one recipe execution on one instance.
type Run struct {
	ID         int64
	RecipeID   int64
	InstanceID int64
	Created    time.Time
	Runtime    time.Duration
	Status     RunStatus
}

// LogEntry is one line of a run log.
type LogEntry struct {
	ID      int64
	RunID   int64
	Created time.Time
	Level   LogLevel
	Message string
}

// DataEntry is one value a run produced.
type DataEntry struct {
	ID       int64
	RunID    int64
	StepID   int64
	StepSort int
	Created  time.Time
	Value    string
}

// Cookie is a browser cookie as stored between runs.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expiry,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}
