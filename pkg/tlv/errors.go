package tlv

import "github.com/dawsh2/torq/pkg/torqerr"

func wrapPrecision(op, msg string) error {
	return torqerr.New(torqerr.Precision, op, msg)
}

func wrapProtocol(op, msg string) error {
	return torqerr.New(torqerr.Protocol, op, msg)
}
