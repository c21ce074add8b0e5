// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
)

// MaxMessagePayload is the maximum bytes a message can be regardless of other
// individual limits imposed by messages themselves.
const MaxMessagePayload = 1024 * 1024 * 32 // 32MB

// ProtocolVersion is the latest protocol version this package supports.
const ProtocolVersion uint32 = 1

// Commands used in ember message headers which describe the type of message.
const (
	CmdBlock        = "block"
	CmdTx           = "tx"
	CmdBlockLocator = "locator"
)

// Message is an interface that describes an ember message. A type that
// implements Message has complete control over the representation of its data
// and may therefore contain additional or fewer fields than those which
// are used directly in the protocol encoded message.
type Message interface {
	EmberDecode(r io.Reader, pver uint32) error
	EmberEncode(w io.Writer, pver uint32) error
	Command() string
	MaxPayloadLength(pver uint32) uint32
}
