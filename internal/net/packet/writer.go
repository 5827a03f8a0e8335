package packet

import (
	"encoding/binary"
	"math"
	"strings"
)

// Writer builds one message. All multi-byte writes are little-endian.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// NewMessageWriter starts a message with its [channel][kind] header.
func NewMessageWriter(channel, kind byte) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.WriteC(channel)
	w.WriteC(kind)
	return w
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

// WriteBool writes 1 byte, 1 for true.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteC(1)
		return
	}
	w.WriteC(0)
}

// WriteH writes 2 bytes little-endian.
func (w *Writer) WriteH(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteQ writes 8 bytes little-endian.
func (w *Writer) WriteQ(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteF writes a float32 as 4 bytes little-endian.
func (w *Writer) WriteF(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// WriteS writes a null-terminated UTF-8 string. Embedded NULs would end the
// string early on the reader, so they are dropped.
func (w *Writer) WriteS(s string) {
	if strings.IndexByte(s, 0) >= 0 {
		s = strings.ReplaceAll(s, "\x00", "")
	}
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0) // null terminator
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the message.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current length.
func (w *Writer) Len() int {
	return len(w.buf)
}
