package binaryserializer

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Uint8 reads a single byte from the provided reader and returns it as a
// uint8.
func Uint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return buf[0], nil
}

// Uint16 reads two bytes from the provided reader, converts them using
// little endian, and returns the resulting uint16.
func Uint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// Uint32 reads four bytes from the provided reader, converts them using
// little endian, and returns the resulting uint32.
func Uint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// Uint64 reads eight bytes from the provided reader, converts them using
// little endian, and returns the resulting uint64.
func Uint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// PutUint8 writes the provided uint8 to the given writer.
func PutUint8(w io.Writer, val uint8) error {
	buf := [1]byte{val}
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// PutUint16 serializes the provided uint16 using little endian and writes
// the resulting two bytes to the given writer.
func PutUint16(w io.Writer, val uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], val)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// PutUint32 serializes the provided uint32 using little endian and writes
// the resulting four bytes to the given writer.
func PutUint32(w io.Writer, val uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], val)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// PutUint64 serializes the provided uint64 using little endian and writes
// the resulting eight bytes to the given writer.
func PutUint64(w io.Writer, val uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}
