// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/miekg/dns"

	"github.com/dnskit/dnswire"
)

// Query names selecting the behavior of the test servers.
const (
	TestNameControl     = "control.example.com."
	TestNameRandomData  = "random.example.com."
	TestNameLengthOver  = "length.over.example.com."
	TestNameLengthUnder = "length.under.example.com."
	TestNameInvalidIPv4 = "invalid.ipv4.example.com."

	// DoH only
	TestNameBadContentType = "bad.content.type.example.com."
	TestNameNoContentType  = "no.content.type.example.com."
)

var errNoQuestion = errors.New("query carries no question")

// testName extracts the query name selecting the scripted behavior.
// Anything unparseable counts as a control query.
func testName(in []byte) string {
	msg, err := dnswire.Parse(in)
	if err != nil {
		return TestNameControl
	}
	if msg.Count(dnswire.SectionQuestion) != 1 {
		return TestNameControl
	}
	switch name := msg.Questions()[0].Name; name {
	case TestNameControl, TestNameRandomData, TestNameLengthOver,
		TestNameLengthUnder, TestNameInvalidIPv4,
		TestNameBadContentType, TestNameNoContentType:
		return name
	default:
		logger.Infof("unknown test name %s", name)
	}
	return TestNameControl
}

// handleQuery builds the scripted reply for one wire-format query.
func handleQuery(in []byte) ([]byte, error) {
	msg, err := dnswire.Parse(in)
	if err != nil {
		return nil, err
	}
	if msg.Count(dnswire.SectionQuestion) < 1 {
		return nil, errNoQuestion
	}
	question := msg.Questions()[0]

	if question.Name == TestNameInvalidIPv4 && question.Qtype == dns.TypeA {
		return forgeInvalidIPv4Reply(in), nil
	}

	reply := new(dns.Msg)
	reply.SetReply(msg.Unpacked())
	reply.Compress = true

	switch question.Qtype {
	case dns.TypeA:
		reply.Answer = append(reply.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   question.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
			},
			A: net.IPv4(127, 0, 0, 1),
		})
	case dns.TypeAAAA:
		reply.Answer = append(reply.Answer, &dns.AAAA{
			Hdr: dns.RR_Header{
				Name:   question.Name,
				Rrtype: dns.TypeAAAA,
				Class:  dns.ClassINET,
			},
			AAAA: net.ParseIP("::1"),
		})
	case dns.TypeNS:
		reply.Answer = append(reply.Answer, &dns.NS{
			Hdr: dns.RR_Header{
				Name:   question.Name,
				Rrtype: dns.TypeNS,
				Class:  dns.ClassINET,
			},
			Ns: "example.com.",
		})
	default:
		reply.Rcode = dns.RcodeNameError
	}

	return reply.Pack()
}

// forgeInvalidIPv4Reply hand-assembles a reply whose A record carries
// five bytes of RDATA, which no conforming parser should accept.
func forgeInvalidIPv4Reply(in []byte) []byte {
	reply := make([]byte, 0, 59)
	// keep the query ID
	reply = append(reply, in[0:2]...)
	// a DNS A reply for 'invalid.ipv4.example.com.'
	reply = append(reply, []byte{
		0x81, 0x20, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
		0x07, 0x69, 0x6e, 0x76, 0x61, 0x6c, 0x69, 0x64,
		0x04, 0x69, 0x70, 0x76, 0x34,
		0x07, 0x65, 0x78, 0x61, 0x6d, 0x70, 0x6c, 0x65,
		0x03, 0x63, 0x6f, 0x6d, 0x00,
		0x00, 0x01, 0x00, 0x01,
		0xc0, 0x0c, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00,
	}...)
	// 5 byte data length followed by "127.0.0.0.1"
	reply = append(reply, []byte{0x05, 0x7f, 0x00, 0x00, 0x00, 0x01}...)
	return reply
}

// randomReply is the payload sent for random.example.com. instead of
// a DNS message.
func randomReply() []byte {
	data := make([]byte, 265)
	rand.Read(data)
	return data
}

// streamReply builds the length-prefixed reply for one stream query,
// honoring the length.over and length.under test names. The random
// data reply carries no length prefix at all.
func streamReply(transport string, queryLen uint16, query []byte) ([]byte, bool) {
	name := testName(query)
	logger.Infof("%s: %s", transport, name)

	if name == TestNameRandomData {
		return randomReply(), true
	}

	response, err := handleQuery(query)
	if err != nil {
		logger.Errorf("%s: handle query: %s", transport, err)
		return nil, false
	}

	replyLength := uint16(len(response))
	switch name {
	case TestNameLengthOver:
		replyLength = queryLen + 32
	case TestNameLengthUnder:
		replyLength = queryLen - 32
	}

	frame := make([]byte, 2, 2+len(response))
	binary.BigEndian.PutUint16(frame, replyLength)
	return append(frame, response...), true
}

// serveStream reads one length-prefixed query from rw and writes the
// scripted reply, then closes rw. TCP, TLS, and QUIC all share this
// framing.
func serveStream(transport string, rw io.ReadWriteCloser) {
	defer rw.Close()

	lenBuf := make([]byte, 2)
	if _, err := io.ReadFull(rw, lenBuf); err != nil {
		return
	}
	length := binary.BigEndian.Uint16(lenBuf)

	dataBuf := make([]byte, length)
	if _, err := io.ReadFull(rw, dataBuf); err != nil {
		return
	}

	reply, ok := streamReply(transport, length, dataBuf)
	if !ok {
		return
	}
	rw.Write(reply)
}
