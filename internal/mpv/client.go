package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
)

// Client is one connection to an mpv IPC socket.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
	nextID  int64
}

// Connect dials the mpv IPC socket.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to mpv: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendCommand sends a command and waits for its reply. Events that arrive
// before the reply are dropped; use a separate connection to consume events.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	cmd.RequestID = c.nextID

	data, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	for {
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				return Response{}, fmt.Errorf("read response: %w", err)
			}
			return Response{}, fmt.Errorf("connection closed")
		}

		var l line
		if err := json.Unmarshal(c.scanner.Bytes(), &l); err != nil {
			return Response{}, fmt.Errorf("unmarshal response: %w", err)
		}
		if l.Event != "" || l.RequestID == nil || *l.RequestID != cmd.RequestID {
			continue
		}

		var resp Response
		if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
			return Response{}, fmt.Errorf("unmarshal response: %w", err)
		}
		if !resp.OK() {
			return resp, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp, nil
	}
}

// ReadEvent reads the next event line, skipping command replies. Blocks until
// data arrives.
func (c *Client) ReadEvent() (Event, error) {
	for {
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				return Event{}, fmt.Errorf("read event: %w", err)
			}
			return Event{}, fmt.Errorf("connection closed")
		}

		var ev Event
		if err := json.Unmarshal(c.scanner.Bytes(), &ev); err != nil {
			return Event{}, fmt.Errorf("unmarshal event: %w", err)
		}
		if ev.Event == "" {
			continue
		}
		return ev, nil
	}
}

// Observe asks mpv to stream property-change events for name on this
// connection. The reply has no event name, so ReadEvent skips it.
func (c *Client) Observe(id int64, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(Cmd("observe_property", id, name))
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}
