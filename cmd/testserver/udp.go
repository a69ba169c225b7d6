// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"net"
)

type serverDNSUDP struct{}

func (s *serverDNSUDP) Start(port uint16, ipv4, ipv6, servername string) error {
	l4, err := net.ListenPacket("udp4", fmt.Sprintf("%s:%d", ipv4, port))
	if err != nil {
		return err
	}
	l6, err := net.ListenPacket("udp6", fmt.Sprintf("[%s]:%d", ipv6, port))
	if err != nil {
		return err
	}

	errch := make(chan error, 2)
	for _, pc := range []net.PacketConn{l4, l6} {
		go func(pc net.PacketConn) {
			for {
				buf := make([]byte, 512)
				n, addr, err := pc.ReadFrom(buf)
				if err != nil {
					errch <- err
					return
				}
				go s.handle(buf[:n], pc, addr)
			}
		}(pc)
	}

	logger.Infof("dns-udp ready on %s:%d and [%s]:%d", ipv4, port, ipv6, port)
	return <-errch
}

func (s *serverDNSUDP) handle(message []byte, conn net.PacketConn, addr net.Addr) {
	name := testName(message)
	logger.Infof("udp: %s", name)

	if name == TestNameRandomData {
		conn.WriteTo(randomReply(), addr)
		return
	}

	response, err := handleQuery(message)
	if err != nil {
		logger.Errorf("udp: handle query: %s", err)
		return
	}

	conn.WriteTo(response, addr)
}
