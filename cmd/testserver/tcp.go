// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"net"
)

type serverDNSTCP struct{}

func (s *serverDNSTCP) Start(port uint16, ipv4, ipv6, servername string) error {
	l4, err := net.Listen("tcp4", fmt.Sprintf("%s:%d", ipv4, port))
	if err != nil {
		return err
	}
	l6, err := net.Listen("tcp6", fmt.Sprintf("[%s]:%d", ipv6, port))
	if err != nil {
		return err
	}

	logger.Infof("dns-tcp ready on %s:%d and [%s]:%d", ipv4, port, ipv6, port)
	return acceptLoop("tcp", l4, l6)
}

// acceptLoop serves stream connections from both listeners until one
// of them fails. TCP and TLS share it.
func acceptLoop(transport string, listeners ...net.Listener) error {
	errch := make(chan error, len(listeners))
	for _, l := range listeners {
		go func(l net.Listener) {
			for {
				conn, err := l.Accept()
				if err != nil {
					errch <- err
					return
				}
				go serveStream(transport, conn)
			}
		}(l)
	}
	return <-errch
}
