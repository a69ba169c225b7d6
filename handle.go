// SPDX-License-Identifier: GPL-3.0-or-later

package dnswire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/miekg/dns"
)

// Section indexes one of the four DNS message sections, numbered in
// the order their counts appear in the message header.
type Section int

const (
	// SectionQuestion is the question section.
	SectionQuestion Section = iota

	// SectionAnswer is the answer section.
	SectionAnswer

	// SectionAuthority is the authority section.
	SectionAuthority

	// SectionAdditional is the additional section.
	SectionAdditional

	numSections = 4
)

// String returns the RFC 1035 name of the section.
func (s Section) String() string {
	switch s {
	case SectionQuestion:
		return "question"
	case SectionAnswer:
		return "answer"
	case SectionAuthority:
		return "authority"
	case SectionAdditional:
		return "additional"
	default:
		return fmt.Sprintf("section(%d)", int(s))
	}
}

// headerSize is the fixed size of the DNS message header.
const headerSize = 12

// Errors returned by [Parse] and [ParseTCP].
var (
	// ErrShortHeader means the buffer is smaller than the fixed message header.
	ErrShortHeader = errors.New("short DNS message header")

	// ErrTruncatedMessage means the section walk ran past the end of the buffer.
	ErrTruncatedMessage = errors.New("truncated DNS message")

	// ErrBadLabel means a domain name uses a reserved label type.
	ErrBadLabel = errors.New("bad DNS label type")

	// ErrTrailingBytes means the buffer continues past the last record.
	ErrTrailingBytes = errors.New("trailing bytes after DNS message")

	// ErrShortFrame means a stream frame is shorter than its length prefix.
	ErrShortFrame = errors.New("short DNS stream frame")

	// ErrCannotUnmarshalMessage indicates that we cannot unmarshal a DNS message.
	ErrCannotUnmarshalMessage = errors.New("cannot unmarshal DNS message")
)

// Msg is a parsed DNS message handle.
//
// The handle keeps the wire buffer it was parsed from together with the
// decoded header fields and the section boundaries. All parsing and
// validation happens inside [Parse] or [ParseTCP]; once a handle
// exists, its accessors cannot fail.
//
// The zero value is not useful: construct with [Parse] or [ParseTCP].
type Msg struct {
	data    []byte
	base    int
	end     int
	id      uint16
	flags   uint16
	counts  [numSections]uint16
	offsets [numSections]int
	msg     *dns.Msg
}

// Parse parses a bare wire-format DNS message.
//
// The whole buffer must be a single message: bytes left over after the
// last record are an error, as are record counts that overrun the
// buffer and names using reserved label types.
func Parse(data []byte) (*Msg, error) {
	return parseRange(data, 0, len(data))
}

// ParseTCP parses a DNS message carried over a stream transport, where
// the message is preceded by a two-octet length field (RFC 1035
// section 4.2.2). The returned handle's [*Msg.Base] points past the
// length prefix into the frame.
func ParseTCP(data []byte) (*Msg, error) {
	if len(data) < 2 {
		return nil, ErrShortFrame
	}
	length := int(binary.BigEndian.Uint16(data))
	if len(data)-2 < length {
		return nil, ErrShortFrame
	}
	if len(data)-2 > length {
		return nil, ErrTrailingBytes
	}
	return parseRange(data, 2, 2+length)
}

func parseRange(data []byte, base, end int) (*Msg, error) {
	m := &Msg{data: data, base: base, end: end}

	buf := data[base:end]
	if len(buf) < headerSize {
		return nil, ErrShortHeader
	}

	// 1. decode the fixed header
	m.id = binary.BigEndian.Uint16(buf[0:2])
	m.flags = binary.BigEndian.Uint16(buf[2:4])
	for s := 0; s < numSections; s++ {
		m.counts[s] = binary.BigEndian.Uint16(buf[4+2*s : 6+2*s])
	}

	// 2. walk the sections to locate their boundaries
	off := headerSize
	for s := 0; s < numSections; s++ {
		m.offsets[s] = off
		var err error
		off, err = skipSection(buf, off, Section(s), int(m.counts[s]))
		if err != nil {
			return nil, err
		}
	}
	if off != len(buf) {
		return nil, ErrTrailingBytes
	}

	// 3. fully decode through miekg/dns so the record accessors can
	// expose typed questions and RRs
	msg := new(dns.Msg)
	if err := msg.Unpack(buf); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCannotUnmarshalMessage, err.Error())
	}
	m.msg = msg

	return m, nil
}

// skipSection advances past count records of the given section.
func skipSection(buf []byte, off int, s Section, count int) (int, error) {
	for i := 0; i < count; i++ {
		var err error
		off, err = skipName(buf, off)
		if err != nil {
			return 0, err
		}
		if s == SectionQuestion {
			// QTYPE and QCLASS
			off += 4
		} else {
			// TYPE, CLASS, TTL, and RDLENGTH precede the record data
			if off+10 > len(buf) {
				return 0, ErrTruncatedMessage
			}
			rdlength := int(binary.BigEndian.Uint16(buf[off+8 : off+10]))
			off += 10 + rdlength
		}
		if off > len(buf) {
			return 0, ErrTruncatedMessage
		}
	}
	return off, nil
}

// skipName advances past a possibly compressed domain name. A
// compression pointer always terminates the name in situ, so we never
// need to chase it to find where the name ends.
func skipName(buf []byte, off int) (int, error) {
	for {
		if off >= len(buf) {
			return 0, ErrTruncatedMessage
		}
		c := buf[off]
		switch {
		case c == 0:
			return off + 1, nil
		case c&0xc0 == 0xc0:
			if off+2 > len(buf) {
				return 0, ErrTruncatedMessage
			}
			return off + 2, nil
		case c&0xc0 != 0:
			// 0x40 and 0x80 are reserved label types
			return 0, ErrBadLabel
		default:
			off += 1 + int(c)
		}
	}
}

// ID returns the message identifier.
func (m *Msg) ID() uint16 { return m.id }

// Base returns the offset of the message header inside the buffer
// given to [Parse] or [ParseTCP]. It is zero for [Parse] and two for
// [ParseTCP], where the stream length prefix comes first.
func (m *Msg) Base() uint16 { return uint16(m.base) }

// End returns the offset just past the last message byte.
func (m *Msg) End() uint16 { return uint16(m.end) }

// Size returns the size of the message in bytes, which equals
// [*Msg.End] minus [*Msg.Base].
func (m *Msg) Size() uint16 { return uint16(m.end - m.base) }

// Count returns the number of records in the given section as declared
// by the message header. Count returns zero for a section index
// outside the four DNS sections.
func (m *Msg) Count(s Section) uint16 {
	if s < 0 || s >= numSections {
		return 0
	}
	return m.counts[s]
}

// Offset returns the offset of the first record of the given section,
// relative to [*Msg.Base]. An empty section still has a well defined
// boundary: it begins where the next section does. Offset returns zero
// for a section index outside the four DNS sections.
func (m *Msg) Offset(s Section) uint16 {
	if s < 0 || s >= numSections {
		return 0
	}
	return uint16(m.offsets[s])
}

// Response reports whether the message is a response.
func (m *Msg) Response() bool { return m.flags&0x8000 != 0 }

// Truncated reports whether the truncation bit is set.
func (m *Msg) Truncated() bool { return m.flags&0x0200 != 0 }

// Opcode returns the message opcode.
func (m *Msg) Opcode() int { return int(m.flags>>11) & 0xf }

// Rcode returns the response code from the fixed header. Extended
// RCODE bits carried by an OPT record are not folded in here; use
// [*Msg.Unpacked] when those matter.
func (m *Msg) Rcode() int { return int(m.flags & 0xf) }

// Data returns the wire bytes of the message, without any stream
// length prefix. The returned slice aliases the parsed buffer.
func (m *Msg) Data() []byte { return m.data[m.base:m.end] }

// Questions returns the question section.
func (m *Msg) Questions() []dns.Question { return m.msg.Question }

// Records returns the resource records of the given section. The
// question section holds no RRs; use [*Msg.Questions] for it.
func (m *Msg) Records(s Section) []dns.RR {
	switch s {
	case SectionAnswer:
		return m.msg.Answer
	case SectionAuthority:
		return m.msg.Ns
	case SectionAdditional:
		return m.msg.Extra
	default:
		return nil
	}
}

// Unpacked returns the decoded [*dns.Msg] view of the message.
func (m *Msg) Unpacked() *dns.Msg { return m.msg }
