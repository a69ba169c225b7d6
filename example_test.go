// SPDX-License-Identifier: GPL-3.0-or-later

package dnswire_test

import (
	"fmt"
	"net"

	"github.com/bassosimone/runtimex"
	"github.com/dnskit/dnswire"
	"github.com/miekg/dns"
)

// Use deterministic query ID to have deterministic output.
//
// In production you should use [dns.Id].
func randomQueryID() uint16 {
	return 37
}

func ExampleParse() {
	query := dnswire.NewQuery("www.example.com", dns.TypeA)
	query.ID = randomQueryID()
	raw := runtimex.PanicOnError1(query.Pack())

	msg := runtimex.PanicOnError1(dnswire.Parse(raw))
	fmt.Printf("id=%d base=%d end=%d size=%d\n",
		msg.ID(), msg.Base(), msg.End(), msg.Size())
	fmt.Printf("questions=%d answers=%d authority=%d additional=%d\n",
		msg.Count(dnswire.SectionQuestion),
		msg.Count(dnswire.SectionAnswer),
		msg.Count(dnswire.SectionAuthority),
		msg.Count(dnswire.SectionAdditional))

	// Output:
	// id=37 base=0 end=44 size=44
	// questions=1 answers=0 authority=0 additional=1
}

func ExampleParseTCP() {
	query := dnswire.NewQuery("www.example.com", dns.TypeA)
	query.ID = randomQueryID()
	query.MaxSize = dnswire.QueryMaxResponseSizeTCP
	frame := runtimex.PanicOnError1(query.PackTCP())

	msg := runtimex.PanicOnError1(dnswire.ParseTCP(frame))
	fmt.Printf("id=%d base=%d end=%d size=%d\n",
		msg.ID(), msg.Base(), msg.End(), msg.Size())

	// Output:
	// id=37 base=2 end=46 size=44
}

func ExampleParseReply() {
	query := new(dns.Msg)
	query.SetQuestion("www.example.com.", dns.TypeA)
	query.Id = randomQueryID()

	resp := new(dns.Msg)
	resp.SetReply(query)
	resp.Answer = []dns.RR{&dns.A{
		Hdr: dns.RR_Header{
			Name:   "www.example.com.",
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    3600,
		},
		A: net.IPv4(127, 0, 0, 1),
	}}
	raw := runtimex.PanicOnError1(resp.Pack())

	reply := runtimex.PanicOnError1(dnswire.ParseReply(query, raw))
	addrs := runtimex.PanicOnError1(reply.RecordsA())
	fmt.Printf("%v\n", addrs)

	// Output:
	// [127.0.0.1]
}
