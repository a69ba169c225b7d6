// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"crypto/tls"
	"fmt"
)

type serverDNSOverTLS struct{}

func (s *serverDNSOverTLS) Start(port uint16, ipv4, ipv6, servername string) error {
	chain, err := generateCertificateChain("DNSOverTLS", ipv4, ipv6, servername)
	if err != nil {
		return err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{*chain},
		RootCAs:      rootCAPool,
		ServerName:   servername,
	}
	l4, err := tls.Listen("tcp4", fmt.Sprintf("%s:%d", ipv4, port), tlsConfig)
	if err != nil {
		return err
	}
	l6, err := tls.Listen("tcp6", fmt.Sprintf("[%s]:%d", ipv6, port), tlsConfig)
	if err != nil {
		return err
	}

	logger.Infof("dns-tls ready on %s:%d and [%s]:%d", ipv4, port, ipv6, port)
	return acceptLoop("tls", l4, l6)
}
