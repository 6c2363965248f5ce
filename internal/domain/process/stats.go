package process

import (
	"fmt"
	"time"
)

const (
	// LongTaskThreshold marks a callback as a long task
	LongTaskThreshold = 50 * time.Millisecond
	// MaxLogEntries bounds the per-application activity log
	MaxLogEntries = 50
)

// Log levels
const (
	LogSys     = "SYS"
	LogInfo    = "INFO"
	LogRes     = "RES"
	LogFree    = "FREE"
	LogWarn    = "WARN"
	LogSuccess = "SUCCESS"
)

// LogEntry is one line of an application's activity log
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] [%s] %s", e.Time.Format("15:04:05"), e.Level, e.Message)
}

// Stats is the accumulated activity of one application
type Stats struct {
	CPUTime      time.Duration `json:"cpuTime"`
	LongTasks    int           `json:"longTasks"`
	LongTaskTime time.Duration `json:"longTaskTime"`
	StartTime    time.Time     `json:"startTime"`
	LastActive   time.Time     `json:"lastActive"`
	// Logs are newest first
	Logs []LogEntry `json:"logs"`
}

func newStats(now time.Time) *Stats {
	return &Stats{StartTime: now, LastActive: now}
}

func (s *Stats) log(now time.Time, level, msg string) {
	s.Logs = append(s.Logs, LogEntry{})
	copy(s.Logs[1:], s.Logs)
	s.Logs[0] = LogEntry{Time: now, Level: level, Message: msg}
	if len(s.Logs) > MaxLogEntries {
		s.Logs = s.Logs[:MaxLogEntries]
	}
}

func (s *Stats) clone() Stats {
	c := *s
	c.Logs = append([]LogEntry(nil), s.Logs...)
	return c
}
