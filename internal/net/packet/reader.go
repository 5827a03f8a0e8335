package packet

import (
	"encoding/binary"
	"errors"
	"math"
)

// HeaderLen is the size of the [channel][kind] message header.
const HeaderLen = 2

// ErrShort is reported by Err when a read ran past the end of the message.
var ErrShort = errors.New("packet: short read")

// Reader reads message fields from one payload. Bytes 0 and 1 are always
// the channel and the message kind. Reads past the end return zero values
// and set Err.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, off: HeaderLen} // skip header
}

func (r *Reader) Channel() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

func (r *Reader) Kind() byte {
	if len(r.data) < HeaderLen {
		return 0
	}
	return r.data[1]
}

func (r *Reader) short() bool {
	r.err = ErrShort
	r.off = len(r.data)
	return false
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.off+n > len(r.data) {
		return r.short()
	}
	return true
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadBool reads 1 byte as a boolean.
func (r *Reader) ReadBool() bool {
	return r.ReadC() != 0
}

// ReadH reads 2 bytes as little-endian uint16.
func (r *Reader) ReadH() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadQ reads 8 bytes as little-endian uint64.
func (r *Reader) ReadQ() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

// ReadF reads 4 bytes as a little-endian IEEE 754 float32.
func (r *Reader) ReadF() float32 {
	if !r.need(4) {
		return 0
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadS reads a null-terminated UTF-8 string.
func (r *Reader) ReadS() string {
	if r.err != nil {
		return ""
	}
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == 0 {
			s := string(r.data[start:r.off])
			r.off++ // skip null terminator
			return s
		}
		r.off++
	}
	r.short()
	return ""
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Err returns ErrShort if any read ran past the end of the payload.
func (r *Reader) Err() error {
	return r.err
}
