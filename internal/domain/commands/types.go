// Package commands defines the commands WebSocket clients may send.
package commands

import "encoding/json"

// CommandType represents the type of command.
type CommandType string

const (
	CommandSendMessage    CommandType = "send_message"
	CommandStopGeneration CommandType = "stop_generation"
	CommandSetProject     CommandType = "set_project"
	CommandGetSession     CommandType = "get_session"
	CommandCheckInstall   CommandType = "check_install"
)

// Command represents a command received from a client.
type Command struct {
	Command   CommandType     `json:"command"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SendMessagePayload is the payload for send_message command.
type SendMessagePayload struct {
	Text string `json:"text"`
}

// SetProjectPayload is the payload for set_project command.
// An empty path clears the project context.
type SetProjectPayload struct {
	Path string `json:"path"`
}

// ParseCommand parses a JSON message into a Command.
func ParseCommand(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// ParseSendMessagePayload parses the payload for send_message command.
func (c *Command) ParseSendMessagePayload() (*SendMessagePayload, error) {
	var payload SendMessagePayload
	if len(c.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(c.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ParseSetProjectPayload parses the payload for set_project command.
func (c *Command) ParseSetProjectPayload() (*SetProjectPayload, error) {
	var payload SetProjectPayload
	if len(c.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(c.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
