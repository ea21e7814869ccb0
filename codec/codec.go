// file: gate/codec/codec.go

// Package codec frames protocol messages as self-describing binary blobs.
//
// Every frame carries exactly one message:
//
//	frame   = tag:u8 fields*
//	string  = uvarint length, UTF-8 bytes
//	bytes   = uvarint length, raw bytes
//	u64/u32 = uvarint
//
// Client and server tag spaces are independent; each direction has its own
// decode entry point.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Client frame tags.
const (
	tagAuth uint8 = iota + 1
	tagSubscribe
	tagUnsubscribe
	tagPublish
	tagRequest
	tagPing
)

// Server frame tags.
const (
	tagAuthOk uint8 = iota + 1
	tagAuthError
	tagSubscribeOk
	tagSubscribeError
	tagMessage
	tagResponse
	tagRequestError
	tagError
	tagPong
)

// maxFieldLen bounds a single length prefix so a malformed frame cannot
// force a huge allocation.
const maxFieldLen = 1 << 24

// DecodeError describes any failure to decode a frame. The connection
// handler maps it to Error{400, "Invalid message format"}.
type DecodeError struct {
	Detail string
}

func (e *DecodeError) Error() string {
	return "decode message: " + e.Detail
}

func decodeErrorf(format string, args ...any) *DecodeError {
	return &DecodeError{Detail: fmt.Sprintf(format, args...)}
}

//---------------------
// Encoding
//---------------------

// EncodeClient encodes a client frame. It never fails.
func EncodeClient(msg ClientMessage) []byte {
	var w writer
	switch m := msg.(type) {
	case Auth:
		w.tag(tagAuth)
		w.string(m.Token)
	case Subscribe:
		w.tag(tagSubscribe)
		w.string(m.Subject)
		w.uint64(m.ID)
	case Unsubscribe:
		w.tag(tagUnsubscribe)
		w.uint64(m.ID)
	case Publish:
		w.tag(tagPublish)
		w.string(m.Subject)
		w.bytes(m.Payload)
	case Request:
		w.tag(tagRequest)
		w.string(m.Subject)
		w.bytes(m.Payload)
		w.uint64(uint64(m.TimeoutMS))
		w.uint64(m.RequestID)
	case Ping:
		w.tag(tagPing)
	}
	return w.buf
}

// EncodeServer encodes a server frame. It never fails.
func EncodeServer(msg ServerMessage) []byte {
	var w writer
	switch m := msg.(type) {
	case AuthOk:
		w.tag(tagAuthOk)
		w.string(m.SessionID)
	case AuthError:
		w.tag(tagAuthError)
		w.string(m.Reason)
	case SubscribeOk:
		w.tag(tagSubscribeOk)
		w.uint64(m.ID)
	case SubscribeError:
		w.tag(tagSubscribeError)
		w.uint64(m.ID)
		w.string(m.Reason)
	case Message:
		w.tag(tagMessage)
		w.uint64(m.SubscriptionID)
		w.string(m.Subject)
		w.bytes(m.Payload)
	case Response:
		w.tag(tagResponse)
		w.uint64(m.RequestID)
		w.bytes(m.Payload)
	case RequestError:
		w.tag(tagRequestError)
		w.uint64(m.RequestID)
		w.string(m.Reason)
	case Error:
		w.tag(tagError)
		w.uint64(uint64(m.Code))
		w.string(m.Message)
	case Pong:
		w.tag(tagPong)
	}
	return w.buf
}

//---------------------
// Decoding
//---------------------

// DecodeClient decodes one client frame.
func DecodeClient(data []byte) (ClientMessage, error) {
	r, tag, err := newReader(data)
	if err != nil {
		return nil, err
	}

	var msg ClientMessage
	switch tag {
	case tagAuth:
		var m Auth
		m.Token, err = r.string()
		msg = m
	case tagSubscribe:
		var m Subscribe
		if m.Subject, err = r.string(); err == nil {
			m.ID, err = r.uint64()
		}
		msg = m
	case tagUnsubscribe:
		var m Unsubscribe
		m.ID, err = r.uint64()
		msg = m
	case tagPublish:
		var m Publish
		if m.Subject, err = r.string(); err == nil {
			m.Payload, err = r.bytes()
		}
		msg = m
	case tagRequest:
		var m Request
		if m.Subject, err = r.string(); err == nil {
			if m.Payload, err = r.bytes(); err == nil {
				if m.TimeoutMS, err = r.uint32(); err == nil {
					m.RequestID, err = r.uint64()
				}
			}
		}
		msg = m
	case tagPing:
		msg = Ping{}
	default:
		return nil, decodeErrorf("unknown client tag 0x%02x", tag)
	}
	if err != nil {
		return nil, err
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeServer decodes one server frame.
func DecodeServer(data []byte) (ServerMessage, error) {
	r, tag, err := newReader(data)
	if err != nil {
		return nil, err
	}

	var msg ServerMessage
	switch tag {
	case tagAuthOk:
		var m AuthOk
		m.SessionID, err = r.string()
		msg = m
	case tagAuthError:
		var m AuthError
		m.Reason, err = r.string()
		msg = m
	case tagSubscribeOk:
		var m SubscribeOk
		m.ID, err = r.uint64()
		msg = m
	case tagSubscribeError:
		var m SubscribeError
		if m.ID, err = r.uint64(); err == nil {
			m.Reason, err = r.string()
		}
		msg = m
	case tagMessage:
		var m Message
		if m.SubscriptionID, err = r.uint64(); err == nil {
			if m.Subject, err = r.string(); err == nil {
				m.Payload, err = r.bytes()
			}
		}
		msg = m
	case tagResponse:
		var m Response
		if m.RequestID, err = r.uint64(); err == nil {
			m.Payload, err = r.bytes()
		}
		msg = m
	case tagRequestError:
		var m RequestError
		if m.RequestID, err = r.uint64(); err == nil {
			m.Reason, err = r.string()
		}
		msg = m
	case tagError:
		var m Error
		if m.Code, err = r.uint32(); err == nil {
			m.Message, err = r.string()
		}
		msg = m
	case tagPong:
		msg = Pong{}
	default:
		return nil, decodeErrorf("unknown server tag 0x%02x", tag)
	}
	if err != nil {
		return nil, err
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return msg, nil
}

//---------------------
// Writer / reader
//---------------------

type writer struct {
	buf []byte
}

func (w *writer) tag(t uint8) {
	w.buf = append(w.buf, t)
}

func (w *writer) uint64(v uint64) {
	w.buf = binary.AppendUvarint(w.buf, v)
}

func (w *writer) string(s string) {
	w.buf = binary.AppendUvarint(w.buf, uint64(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) bytes(b []byte) {
	w.buf = binary.AppendUvarint(w.buf, uint64(len(b)))
	w.buf = append(w.buf, b...)
}

type reader struct {
	buf []byte
	off int
}

func newReader(data []byte) (*reader, uint8, error) {
	if len(data) == 0 {
		return nil, 0, decodeErrorf("empty frame")
	}
	return &reader{buf: data, off: 1}, data[0], nil
}

func (r *reader) uint64() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		return 0, decodeErrorf("truncated varint at offset %d", r.off)
	}
	r.off += n
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	v, err := r.uint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, decodeErrorf("u32 field out of range: %d", v)
	}
	return uint32(v), nil
}

func (r *reader) raw() ([]byte, error) {
	n, err := r.uint64()
	if err != nil {
		return nil, err
	}
	if n > maxFieldLen {
		return nil, decodeErrorf("field length %d exceeds limit", n)
	}
	if uint64(len(r.buf)-r.off) < n {
		return nil, decodeErrorf("truncated field: want %d bytes, have %d", n, len(r.buf)-r.off)
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

func (r *reader) string() (string, error) {
	b, err := r.raw()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", decodeErrorf("invalid UTF-8 in string field")
	}
	return string(b), nil
}

func (r *reader) bytes() ([]byte, error) {
	b, err := r.raw()
	if err != nil {
		return nil, err
	}
	// The wire cannot tell nil from zero-length; decoded byte fields
	// canonicalize to nil.
	if len(b) == 0 {
		return nil, nil
	}
	// Copy out of the frame buffer; payloads outlive the frame.
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (r *reader) done() error {
	if r.off != len(r.buf) {
		return decodeErrorf("%d trailing bytes after message", len(r.buf)-r.off)
	}
	return nil
}
