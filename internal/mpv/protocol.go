// Package mpv drives an mpv process over its JSON IPC socket. Commands and
// replies are NDJSON lines; mpv broadcasts events to every connection.
package mpv

import "encoding/json"

// Command is sent from a client to mpv.
type Command struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id,omitempty"`
}

// Response is mpv's reply to a command.
type Response struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// OK reports whether mpv accepted the command.
func (r Response) OK() bool { return r.Error == "success" }

// Event is broadcast by mpv to connected clients.
type Event struct {
	Event string          `json:"event"`
	ID    *int64          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	// Reason is set on end-file events.
	Reason string `json:"reason,omitempty"`
}

// Float decodes a numeric property payload. A null payload (e.g. time-pos
// before a file is loaded) reports false.
func Float(data json.RawMessage) (float64, bool) {
	if len(data) == 0 || string(data) == "null" {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, false
	}
	return v, true
}

// line is used to tell replies from events on a shared connection.
type line struct {
	Event     string `json:"event"`
	RequestID *int64 `json:"request_id"`
}

// Cmd builds a Command from its arguments.
func Cmd(args ...any) Command { return Command{Command: args} }
