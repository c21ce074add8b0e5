// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/emberchain/emberd/util/chainhash"
)

const (
	// TxVersion is the current latest supported transaction version.
	TxVersion = 1

	// MaxPrevOutIndex is the maximum index the index field of a previous
	// outpoint can be.
	MaxPrevOutIndex uint32 = 0xffffffff

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// defaultTxInOutAlloc is the default size used for the backing array
	// for transaction inputs and outputs. The array will dynamically grow
	// as needed, but this figure is intended to provide enough space for
	// the number of inputs and outputs in a typical transaction without
	// needing to grow the backing array multiple times.
	defaultTxInOutAlloc = 15

	// minTxInPayload is the minimum payload size for a transaction input.
	// PreviousOutpoint.TxID + PreviousOutpoint.Index 4 bytes + Varint for
	// SignatureScript length 1 byte + Sequence 4 bytes.
	minTxInPayload = 9 + chainhash.HashSize

	// maxTxInPerMessage is the maximum number of transaction inputs that
	// a transaction which fits into a message could possibly have.
	maxTxInPerMessage = (MaxMessagePayload / minTxInPayload) + 1

	// minTxOutPayload is the minimum payload size for a transaction
	// output. Value 8 bytes + Varint for PkScript length 1 byte.
	minTxOutPayload = 9

	// maxTxOutPerMessage is the maximum number of transaction outputs that
	// a transaction which fits into a message could possibly have.
	maxTxOutPerMessage = (MaxMessagePayload / minTxOutPayload) + 1

	// minTxPayload is the minimum payload size for a transaction. Note
	// that any realistically usable transaction must have at least one
	// input or output, but that is a rule enforced at a higher layer, so
	// it is intentionally not included here.
	// Version 4 bytes + Time 4 bytes + Varint number of transaction
	// inputs 1 byte + Varint number of transaction outputs 1 byte +
	// LockTime 4 bytes.
	minTxPayload = 14

	// maxScriptSize is the maximum size a script is allowed to be on the
	// wire. This bounds allocations during decode.
	maxScriptSize = 10000
)

// Outpoint defines an ember data type that is used to track previous
// transaction outputs.
type Outpoint struct {
	TxID  chainhash.Hash
	Index uint32
}

// NewOutpoint returns a new ember transaction outpoint with the provided
// transaction ID and index.
func NewOutpoint(txID *chainhash.Hash, index uint32) *Outpoint {
	return &Outpoint{
		TxID:  *txID,
		Index: index,
	}
}

// SetNull resets the outpoint to the null value, referencing no transaction
// output at all.
func (o *Outpoint) SetNull() {
	o.TxID = chainhash.Hash{}
	o.Index = MaxPrevOutIndex
}

// IsNull returns whether the outpoint references no transaction output.
// Coinbase inputs and the stake fields of proof-of-work block headers carry
// the null outpoint.
func (o *Outpoint) IsNull() bool {
	return o.Index == MaxPrevOutIndex && o.TxID == chainhash.Hash{}
}

// String returns the Outpoint in the human-readable form "txID:index".
func (o Outpoint) String() string {
	// Allocate enough for ID string, colon, and 10 digits, which will fit
	// any uint32.
	buf := make([]byte, 2*chainhash.HashSize+1, 2*chainhash.HashSize+1+10)
	copy(buf, o.TxID.String())
	buf[2*chainhash.HashSize] = ':'
	buf = strconv.AppendUint(buf, uint64(o.Index), 10)
	return string(buf)
}

// NullOutpoint returns the null outpoint value.
func NullOutpoint() Outpoint {
	var o Outpoint
	o.SetNull()
	return o
}

// TxIn defines an ember transaction input.
type TxIn struct {
	PreviousOutpoint Outpoint
	SignatureScript  []byte
	Sequence         uint32
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction input.
func (t *TxIn) SerializeSize() int {
	// Outpoint TxID 32 bytes + Outpoint Index 4 bytes + Sequence 4 bytes +
	// serialized varint size for the length of SignatureScript +
	// SignatureScript bytes.
	return 40 + VarIntSerializeSize(uint64(len(t.SignatureScript))) +
		len(t.SignatureScript)
}

// NewTxIn returns a new ember transaction input with the provided previous
// outpoint and signature script with a default sequence of
// MaxTxInSequenceNum.
func NewTxIn(prevOut *Outpoint, signatureScript []byte) *TxIn {
	return &TxIn{
		PreviousOutpoint: *prevOut,
		SignatureScript:  signatureScript,
		Sequence:         MaxTxInSequenceNum,
	}
}

// TxOut defines an ember transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction output.
func (t *TxOut) SerializeSize() int {
	// Value 8 bytes + serialized varint size for the length of PkScript +
	// PkScript bytes.
	return 8 + VarIntSerializeSize(uint64(len(t.PkScript))) + len(t.PkScript)
}

// IsEmpty returns whether the output carries no value and no script. The
// first output of a coinstake transaction is empty by convention, which is
// what marks the transaction as a coinstake.
func (t *TxOut) IsEmpty() bool {
	return t.Value == 0 && len(t.PkScript) == 0
}

// NewTxOut returns a new ember transaction output with the provided
// transaction value and public key script.
func NewTxOut(value int64, pkScript []byte) *TxOut {
	return &TxOut{
		Value:    value,
		PkScript: pkScript,
	}
}

// MsgTx implements the Message interface and represents an ember tx message.
// It is used to deliver transaction information in response to requests for
// a given transaction, and carried inline inside block messages.
//
// Use the AddTxIn and AddTxOut functions to build up the list of transaction
// inputs and outputs.
type MsgTx struct {
	Version  int32
	Time     uint32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// AddTxIn adds a transaction input to the message.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
}

// AddTxOut adds a transaction output to the message.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
}

// IsCoinBase determines whether or not the transaction is a coinbase. A
// coinbase is the transaction that creates new coin as a block subsidy. It
// has a single input whose previous outpoint is null.
func (msg *MsgTx) IsCoinBase() bool {
	if len(msg.TxIn) != 1 {
		return false
	}
	return msg.TxIn[0].PreviousOutpoint.IsNull()
}

// IsCoinStake determines whether or not the transaction is a coinstake. A
// coinstake spends a real previous output (the staked coin) and marks itself
// by leaving its first output empty while carrying at least one more output
// that pays the stake reward back to the staker.
func (msg *MsgTx) IsCoinStake() bool {
	if len(msg.TxIn) == 0 || len(msg.TxOut) < 2 {
		return false
	}
	return !msg.TxIn[0].PreviousOutpoint.IsNull() && msg.TxOut[0].IsEmpty()
}

// TxHash generates the hash for the transaction.
func (msg *MsgTx) TxHash() chainhash.Hash {
	// Encode the transaction and calculate double sha256 on the result.
	// Ignore the error returns since the only way the encode could fail
	// is being out of memory or due to nil pointers, both of which would
	// cause a run-time panic.
	buf := bytes.NewBuffer(make([]byte, 0, msg.SerializeSize()))
	_ = msg.Serialize(buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// Copy creates a deep copy of a transaction so that the original does not get
// modified when the copy is manipulated.
func (msg *MsgTx) Copy() *MsgTx {
	// Create new tx and start by copying primitive values and making space
	// for the transaction inputs and outputs.
	newTx := MsgTx{
		Version:  msg.Version,
		Time:     msg.Time,
		TxIn:     make([]*TxIn, 0, len(msg.TxIn)),
		TxOut:    make([]*TxOut, 0, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}

	// Deep copy the old TxIn data.
	for _, oldTxIn := range msg.TxIn {
		var newScript []byte
		oldScript := oldTxIn.SignatureScript
		if len(oldScript) > 0 {
			newScript = make([]byte, len(oldScript))
			copy(newScript, oldScript)
		}

		newTxIn := TxIn{
			PreviousOutpoint: oldTxIn.PreviousOutpoint,
			SignatureScript:  newScript,
			Sequence:         oldTxIn.Sequence,
		}
		newTx.TxIn = append(newTx.TxIn, &newTxIn)
	}

	// Deep copy the old TxOut data.
	for _, oldTxOut := range msg.TxOut {
		var newScript []byte
		oldScript := oldTxOut.PkScript
		if len(oldScript) > 0 {
			newScript = make([]byte, len(oldScript))
			copy(newScript, oldScript)
		}

		newTxOut := TxOut{
			Value:    oldTxOut.Value,
			PkScript: newScript,
		}
		newTx.TxOut = append(newTx.TxOut, &newTxOut)
	}

	return &newTx
}

// EmberDecode decodes r using the ember protocol encoding into the receiver.
// This is part of the Message interface implementation.
// See Deserialize for decoding transactions stored to disk, such as in a
// database, as opposed to decoding transactions from the wire.
func (msg *MsgTx) EmberDecode(r io.Reader, pver uint32) error {
	err := readElements(r, &msg.Version, &msg.Time)
	if err != nil {
		return err
	}

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}

	// Prevent more input transactions than could possibly fit into a
	// message. It would be possible to cause memory exhaustion and panics
	// without a sane upper bound on this count.
	if count > uint64(maxTxInPerMessage) {
		str := fmt.Sprintf("too many input transactions to fit into "+
			"max message size [count %d, max %d]", count,
			maxTxInPerMessage)
		return messageError("MsgTx.EmberDecode", str)
	}

	msg.TxIn = make([]*TxIn, count)
	for i := uint64(0); i < count; i++ {
		ti := TxIn{}
		err = readTxIn(r, pver, &ti)
		if err != nil {
			return err
		}
		msg.TxIn[i] = &ti
	}

	count, err = ReadVarInt(r)
	if err != nil {
		return err
	}

	// Prevent more output transactions than could possibly fit into a
	// message.
	if count > uint64(maxTxOutPerMessage) {
		str := fmt.Sprintf("too many output transactions to fit into "+
			"max message size [count %d, max %d]", count,
			maxTxOutPerMessage)
		return messageError("MsgTx.EmberDecode", str)
	}

	msg.TxOut = make([]*TxOut, count)
	for i := uint64(0); i < count; i++ {
		to := TxOut{}
		err = readTxOut(r, pver, &to)
		if err != nil {
			return err
		}
		msg.TxOut[i] = &to
	}

	return ReadElement(r, &msg.LockTime)
}

// Deserialize decodes a transaction from r into the receiver using a format
// that is suitable for long-term storage such as a database while respecting
// the Version field in the transaction.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	// At the current time, there is no difference between the wire
	// encoding at protocol version 0 and the stable long-term storage
	// format. As a result, make use of EmberDecode.
	return msg.EmberDecode(r, 0)
}

// EmberEncode encodes the receiver to w using the ember protocol encoding.
// This is part of the Message interface implementation.
// See Serialize for encoding transactions to be stored to disk, such as in a
// database, as opposed to encoding transactions for the wire.
func (msg *MsgTx) EmberEncode(w io.Writer, pver uint32) error {
	err := writeElements(w, msg.Version, msg.Time)
	if err != nil {
		return err
	}

	err = WriteVarInt(w, uint64(len(msg.TxIn)))
	if err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		err = writeTxIn(w, pver, ti)
		if err != nil {
			return err
		}
	}

	err = WriteVarInt(w, uint64(len(msg.TxOut)))
	if err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		err = writeTxOut(w, pver, to)
		if err != nil {
			return err
		}
	}

	return WriteElement(w, msg.LockTime)
}

// Serialize encodes the transaction to w using a format that is suitable for
// long-term storage such as a database while respecting the Version field in
// the transaction.
func (msg *MsgTx) Serialize(w io.Writer) error {
	// At the current time, there is no difference between the wire
	// encoding at protocol version 0 and the stable long-term storage
	// format. As a result, make use of EmberEncode.
	return msg.EmberEncode(w, 0)
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction.
func (msg *MsgTx) SerializeSize() int {
	// Version 4 bytes + Time 4 bytes + LockTime 4 bytes + serialized
	// varint size for the number of transaction inputs and outputs.
	n := 12 + VarIntSerializeSize(uint64(len(msg.TxIn))) +
		VarIntSerializeSize(uint64(len(msg.TxOut)))

	for _, txIn := range msg.TxIn {
		n += txIn.SerializeSize()
	}

	for _, txOut := range msg.TxOut {
		n += txOut.SerializeSize()
	}

	return n
}

// SerializeSizeStripped returns the number of bytes it would take to
// serialize the transaction excluding any witness data. The current wire
// format carries no witness data, so this is identical to SerializeSize; it
// exists so that weight calculation call sites do not change when witness
// data is introduced.
func (msg *MsgTx) SerializeSizeStripped() int {
	return msg.SerializeSize()
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgTx) Command() string {
	return CmdTx
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver. This is part of the Message interface implementation.
func (msg *MsgTx) MaxPayloadLength(pver uint32) uint32 {
	return MaxMessagePayload
}

// TotalOut returns the sum of all output values. The sum of any well-formed
// transaction's outputs fits an int64, overflow checks are a validation
// concern.
func (msg *MsgTx) TotalOut() int64 {
	var total int64
	for _, txOut := range msg.TxOut {
		total += txOut.Value
	}
	return total
}

// NewMsgTx returns a new ember tx message that conforms to the Message
// interface. The return instance has a default version of TxVersion, the
// provided timestamp, and there are no transaction inputs or outputs. Also,
// the lock time is set to zero to indicate the transaction is valid
// immediately as opposed to some time in the future.
func NewMsgTx(version int32, time uint32) *MsgTx {
	return &MsgTx{
		Version: version,
		Time:    time,
		TxIn:    make([]*TxIn, 0, defaultTxInOutAlloc),
		TxOut:   make([]*TxOut, 0, defaultTxInOutAlloc),
	}
}

// readOutpoint reads the next sequence of bytes from r as an Outpoint.
func readOutpoint(r io.Reader, pver uint32, o *Outpoint) error {
	return readElements(r, &o.TxID, &o.Index)
}

// writeOutpoint encodes o to the ember protocol encoding for an Outpoint to
// w.
func writeOutpoint(w io.Writer, pver uint32, o *Outpoint) error {
	return writeElements(w, &o.TxID, o.Index)
}

// readTxIn reads the next sequence of bytes from r as a transaction input.
func readTxIn(r io.Reader, pver uint32, ti *TxIn) error {
	err := readOutpoint(r, pver, &ti.PreviousOutpoint)
	if err != nil {
		return err
	}

	ti.SignatureScript, err = ReadVarBytes(r, pver, maxScriptSize,
		"transaction input signature script")
	if err != nil {
		return err
	}

	return ReadElement(r, &ti.Sequence)
}

// writeTxIn encodes ti to the ember protocol encoding for a transaction
// input to w.
func writeTxIn(w io.Writer, pver uint32, ti *TxIn) error {
	err := writeOutpoint(w, pver, &ti.PreviousOutpoint)
	if err != nil {
		return err
	}

	err = WriteVarBytes(w, pver, ti.SignatureScript)
	if err != nil {
		return err
	}

	return WriteElement(w, ti.Sequence)
}

// readTxOut reads the next sequence of bytes from r as a transaction output.
func readTxOut(r io.Reader, pver uint32, to *TxOut) error {
	err := ReadElement(r, &to.Value)
	if err != nil {
		return err
	}
	if to.Value < 0 {
		str := fmt.Sprintf("transaction output value is negative: %d",
			to.Value)
		return messageError("readTxOut", str)
	}

	to.PkScript, err = ReadVarBytes(r, pver, maxScriptSize,
		"transaction output public key script")
	return err
}

// writeTxOut encodes to to the ember protocol encoding for a transaction
// output to w.
func writeTxOut(w io.Writer, pver uint32, to *TxOut) error {
	err := WriteElement(w, to.Value)
	if err != nil {
		return err
	}

	return WriteVarBytes(w, pver, to.PkScript)
}
