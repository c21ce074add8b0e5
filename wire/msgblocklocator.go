// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/emberchain/emberd/util/chainhash"
)

// MaxBlockLocatorsPerMsg is the maximum number of block locator hashes
// allowed per message.
const MaxBlockLocatorsPerMsg = 500

// MsgBlockLocator implements the Message interface and represents an ember
// locator message. It describes a place in the chain to another node: a
// sparse list of block hashes ordered from most recent to oldest with
// exponentially increasing gaps, so that a peer on a different branch can
// find a recent common trunk. How the gaps are chosen is the chain walker's
// policy, not enforced here.
//
// The locator has two deliberately distinct encodings. The wire encoding
// carries a leading protocol version integer; the hash encoding omits it so
// that a locator's hash is identical regardless of which protocol version
// produced it. Keep the two entry points separate: folding them into one
// parameterized path is how the version field leaks into hash input.
type MsgBlockLocator struct {
	BlockLocatorHashes []*chainhash.Hash
}

// AddBlockLocatorHash adds a new block locator hash to the message.
func (msg *MsgBlockLocator) AddBlockLocatorHash(hash *chainhash.Hash) error {
	if len(msg.BlockLocatorHashes)+1 > MaxBlockLocatorsPerMsg {
		str := fmt.Sprintf("too many block locator hashes for message [max %d]",
			MaxBlockLocatorsPerMsg)
		return messageError("MsgBlockLocator.AddBlockLocatorHash", str)
	}

	msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, hash)
	return nil
}

// SetNull resets the locator to its null value: an empty hash sequence.
func (msg *MsgBlockLocator) SetNull() {
	msg.BlockLocatorHashes = nil
}

// IsNull returns whether the locator describes no place at all.
func (msg *MsgBlockLocator) IsNull() bool {
	return len(msg.BlockLocatorHashes) == 0
}

// EmberDecode decodes r using the ember protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgBlockLocator) EmberDecode(r io.Reader, pver uint32) error {
	// The wire encoding leads with the protocol version of the encoder.
	// It only frames the message; nothing downstream consumes it.
	var version int32
	err := ReadElement(r, &version)
	if err != nil {
		return err
	}

	return msg.readBlockLocatorHashes(r)
}

// EmberEncode encodes the receiver to w using the ember protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgBlockLocator) EmberEncode(w io.Writer, pver uint32) error {
	err := WriteElement(w, int32(pver))
	if err != nil {
		return err
	}

	return msg.writeBlockLocatorHashes(w)
}

// Serialize encodes the locator to w using a format that is suitable for
// long-term storage such as a database. It matches the wire encoding,
// including the leading version integer.
func (msg *MsgBlockLocator) Serialize(w io.Writer) error {
	return msg.EmberEncode(w, ProtocolVersion)
}

// Deserialize decodes a locator from r into the receiver using a format
// that is suitable for long-term storage such as a database.
func (msg *MsgBlockLocator) Deserialize(r io.Reader) error {
	return msg.EmberDecode(r, ProtocolVersion)
}

// SerializeForHash encodes the locator to w in the form used as hash input:
// the hash sequence alone, with no leading version integer. A locator's
// hash must be computable identically regardless of which protocol version
// produced the locator, so the version field must never reach the hash
// input.
func (msg *MsgBlockLocator) SerializeForHash(w io.Writer) error {
	return msg.writeBlockLocatorHashes(w)
}

// DeserializeForHash decodes a locator from r that was encoded with
// SerializeForHash.
func (msg *MsgBlockLocator) DeserializeForHash(r io.Reader) error {
	return msg.readBlockLocatorHashes(r)
}

// readBlockLocatorHashes reads the length-prefixed hash sequence shared by
// both encodings.
func (msg *MsgBlockLocator) readBlockLocatorHashes(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxBlockLocatorsPerMsg {
		str := fmt.Sprintf("too many block locator hashes for message "+
			"[count %d, max %d]", count, MaxBlockLocatorsPerMsg)
		return messageError("MsgBlockLocator.readBlockLocatorHashes", str)
	}

	// Create a contiguous slice of hashes to deserialize into in order to
	// reduce the number of allocations.
	locatorHashes := make([]chainhash.Hash, count)
	msg.BlockLocatorHashes = make([]*chainhash.Hash, 0, count)
	for i := uint64(0); i < count; i++ {
		hash := &locatorHashes[i]
		err := ReadElement(r, hash)
		if err != nil {
			return err
		}
		msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, hash)
	}
	return nil
}

// writeBlockLocatorHashes writes the length-prefixed hash sequence shared
// by both encodings.
func (msg *MsgBlockLocator) writeBlockLocatorHashes(w io.Writer) error {
	count := len(msg.BlockLocatorHashes)
	if count > MaxBlockLocatorsPerMsg {
		str := fmt.Sprintf("too many block locator hashes for message "+
			"[count %d, max %d]", count, MaxBlockLocatorsPerMsg)
		return messageError("MsgBlockLocator.writeBlockLocatorHashes", str)
	}

	err := WriteVarInt(w, uint64(count))
	if err != nil {
		return err
	}

	for _, hash := range msg.BlockLocatorHashes {
		err := WriteElement(w, hash)
		if err != nil {
			return err
		}
	}
	return nil
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgBlockLocator) Command() string {
	return CmdBlockLocator
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver. This is part of the Message interface implementation.
func (msg *MsgBlockLocator) MaxPayloadLength(pver uint32) uint32 {
	// Version 4 bytes + num hashes (varInt) + max allowed block locators.
	return 4 + MaxVarIntPayload + (MaxBlockLocatorsPerMsg * chainhash.HashSize)
}

// NewMsgBlockLocator returns a new ember locator message that conforms to
// the Message interface. See MsgBlockLocator for details.
func NewMsgBlockLocator(locatorHashes []*chainhash.Hash) *MsgBlockLocator {
	return &MsgBlockLocator{
		BlockLocatorHashes: locatorHashes,
	}
}
