package transport

import (
	"errors"

	"github.com/dawsh2/torq/pkg/torqerr"
)

var errNotConnected = errors.New("sink is not connected")
var errCircuitOpen = errors.New("circuit breaker is open")

func wrapNetwork(op string, err error) error {
	return torqerr.Wrap(torqerr.Network, op, err)
}

func wrapConnection(op string, err error) error {
	return torqerr.Wrap(torqerr.Connection, op, err)
}

func wrapResourceExhausted(op, msg string) error {
	return torqerr.New(torqerr.ResourceExhausted, op, msg)
}

func wrapTimeout(op, msg string) error {
	return torqerr.New(torqerr.Timeout, op, msg)
}
