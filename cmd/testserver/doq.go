// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/quic-go/quic-go"
)

type serverDNSOverQuic struct{}

func (s *serverDNSOverQuic) Start(port uint16, ipv4, ipv6, servername string) error {
	chain, err := generateCertificateChain("DNSOverQuic", ipv4, ipv6, servername)
	if err != nil {
		return err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{*chain},
		RootCAs:      rootCAPool,
		ServerName:   servername,
		NextProtos:   []string{"doq"},
	}

	var listeners []*quic.EarlyListener
	for _, addr := range []string{
		fmt.Sprintf("%s:%d", ipv4, port),
		fmt.Sprintf("[%s]:%d", ipv6, port),
	} {
		network := "udp4"
		if addr[0] == '[' {
			network = "udp6"
		}
		pc, err := net.ListenPacket(network, addr)
		if err != nil {
			return err
		}
		tr := &quic.Transport{Conn: pc}
		l, err := tr.ListenEarly(tlsConfig, nil)
		if err != nil {
			return err
		}
		listeners = append(listeners, l)
	}

	errch := make(chan error, len(listeners))
	for _, l := range listeners {
		go func(l *quic.EarlyListener) {
			for {
				conn, err := l.Accept(context.Background())
				if err != nil {
					errch <- err
					return
				}
				go s.handle(conn)
			}
		}(l)
	}

	logger.Infof("dns-quic ready on %s:%d and [%s]:%d", ipv4, port, ipv6, port)
	return <-errch
}

// handle serves one DoQ connection. Each query travels on its own
// stream with the same two-octet framing as DNS over TCP.
func (s *serverDNSOverQuic) handle(conn *quic.Conn) {
	stream, err := conn.AcceptStream(conn.Context())
	if err != nil {
		return
	}
	serveStream("quic", stream)
}
