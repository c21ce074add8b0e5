// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
)

// ErrorCode identifies a kind of rule violation.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrNoTransactions indicates the block does not have at least one
	// transaction. A valid block must have at least the coinbase
	// transaction.
	ErrNoTransactions ErrorCode = iota

	// ErrTooManyTransactions indicates the block has more transactions
	// than are allowed.
	ErrTooManyTransactions

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases

	// ErrMisplacedCoinStake indicates a coinstake transaction appears at
	// an index other than the one immediately after the coinbase.
	ErrMisplacedCoinStake

	// ErrBadStakeSignature indicates a proof-of-stake block carries no
	// block signature, or a proof-of-work block carries one.
	ErrBadStakeSignature

	// ErrBadMerkleRoot indicates the calculated merkle root does not
	// match the expected value in the block header.
	ErrBadMerkleRoot

	// ErrDuplicateTx indicates a block contains an identical transaction
	// more than once.
	ErrDuplicateTx

	// ErrBlockWeightTooHigh indicates the weight of a block exceeds the
	// maximum allowed.
	ErrBlockWeightTooHigh
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrNoTransactions:      "ErrNoTransactions",
	ErrTooManyTransactions: "ErrTooManyTransactions",
	ErrFirstTxNotCoinbase:  "ErrFirstTxNotCoinbase",
	ErrMultipleCoinbases:   "ErrMultipleCoinbases",
	ErrMisplacedCoinStake:  "ErrMisplacedCoinStake",
	ErrBadStakeSignature:   "ErrBadStakeSignature",
	ErrBadMerkleRoot:       "ErrBadMerkleRoot",
	ErrDuplicateTx:         "ErrDuplicateTx",
	ErrBlockWeightTooHigh:  "ErrBlockWeightTooHigh",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block failed due to one of the many validation rules.
// The caller can use type assertions to determine if a failure was
// specifically due to a rule violation and access the ErrorCode field to
// ascertain the specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human-readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
