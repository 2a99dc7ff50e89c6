// Package protocol defines the line-oriented wire format spoken between
// players and the server.
//
// Every message is a single line of space-separated fields. The first field
// is the command word; the remaining fields are its arguments.
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Commands sent by a client.
const (
	CommandConnect = "connect"
)

// Sentinel lines sent to a client.
const (
	Welcome        = "welcome"
	InvalidCommand = "invalidCommand"
	// InvalidName is reserved for name-collision rejection by the lobby.
	InvalidName = "invalidName"
)

// ErrInvalidCommand is matched by every InvalidCommandError.
var ErrInvalidCommand = errors.New("invalid command")

// InvalidCommandError describes a received line that could not be parsed in
// the current protocol state. It is always recoverable.
type InvalidCommandError struct {
	Line   string
	Reason string
}

// NewInvalidCommandError returns an InvalidCommandError for line.
func NewInvalidCommandError(line, reason string) *InvalidCommandError {
	return &InvalidCommandError{Line: line, Reason: reason}
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command %q: %s", e.Line, e.Reason)
}

func (e *InvalidCommandError) Unwrap() error {
	return ErrInvalidCommand
}

// Command is a parsed protocol line.
type Command struct {
	Name string
	Args []string
}

// Tokenize splits a line into its command word and the remaining fields.
// Runs of whitespace separate fields. An empty or blank line yields an empty
// command word.
func Tokenize(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// ParseCommand tokenizes line into a Command.
func ParseCommand(line string) (Command, error) {
	name, args := Tokenize(line)
	if name == "" {
		return Command{}, NewInvalidCommandError(line, "empty line")
	}
	return Command{Name: name, Args: args}, nil
}

// Encode returns the wire form of the command, without a line terminator.
func (c Command) Encode() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Connect builds the handshake command for name with optional extensions.
func Connect(name string, extensions ...string) Command {
	return Command{Name: CommandConnect, Args: append([]string{name}, extensions...)}
}
