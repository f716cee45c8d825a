package debug

import (
	"fmt"
	"time"
)

// LogLevel represents the severity level of a log entry.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "NONE"
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Component identifies which engine subsystem produced a log entry.
type Component string

const (
	ComponentUnpack   Component = "Unpack"
	ComponentResource Component = "Resource"
	ComponentVideo    Component = "Video"
	ComponentMixer    Component = "Mixer"
	ComponentSfx      Component = "Sfx"
	ComponentVM       Component = "VM"
	ComponentHost     Component = "Host"
	ComponentSystem   Component = "System"
)

// LogEntry is a single recorded log line.
type LogEntry struct {
	Timestamp time.Time
	Component Component
	Level     LogLevel
	Message   string
	Data      map[string]interface{}
}

// Format renders the entry the way the engine prints it to stderr.
func (e *LogEntry) Format() string {
	timestamp := e.Timestamp.Format("15:04:05.000")
	return fmt.Sprintf("[%s] [%s] %s: %s", timestamp, e.Component, e.Level, e.Message)
}
