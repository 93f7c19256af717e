// Package reporter publishes test lifecycle events (suite start and end,
// test start and end, pass, fail) as JSON messages to one or more sinks.
//
// Every message is an envelope:
//
//	{"event": "test end", "data": {"testRunId": "...", "title": "...", "status": "passed", ...}}
package reporter

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event names.
const (
	EventSuite    = "suite"
	EventTest     = "test"
	EventPass     = "pass"
	EventFail     = "fail"
	EventTestEnd  = "test end"
	EventSuiteEnd = "suite end"
)

// Status values.
const (
	StatusRunning = "running"
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// Data is the payload of every event. Start and end times are set only on
// the events that open and close a suite or a test.
type Data struct {
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	TestRunID   string     `json:"testRunId"`
	TestSuiteID string     `json:"testSuiteId,omitempty"`
	TestCaseID  string     `json:"testCaseId,omitempty"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
}

// Message is one published event.
type Message struct {
	Event string `json:"event"`
	Data  Data   `json:"data"`
}

// Decode parses a message published by any sink.
func Decode(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("reporter: decode: %w", err)
	}
	if m.Event == "" {
		return Message{}, fmt.Errorf("reporter: decode: missing event name")
	}
	return m, nil
}
