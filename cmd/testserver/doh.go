// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
)

type serverDNSOverHTTPS struct{}

func (s *serverDNSOverHTTPS) Start(port uint16, ipv4, ipv6, servername string) error {
	chain, err := generateCertificateChain("DNSOverHTTPS", ipv4, ipv6, servername)
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

	errch := make(chan error, 2)
	go func() { errch <- http.Serve(l4, s) }()
	go func() { errch <- http.Serve(l6, s) }()

	logger.Infof("dns-https ready on %s:%d and [%s]:%d", ipv4, port, ipv6, port)
	return <-errch
}

func (s *serverDNSOverHTTPS) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/dns-query" {
		rw.WriteHeader(http.StatusNotFound)
		return
	}

	base64Message := r.URL.Query().Get("dns")
	if base64Message == "" {
		rw.WriteHeader(http.StatusBadRequest)
		logger.Errorf("https: missing dns query parameter")
		return
	}

	message, err := base64.RawURLEncoding.DecodeString(base64Message)
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		logger.Errorf("https: decode dns query base64: %s", err)
		return
	}

	name := testName(message)
	logger.Infof("https: %s", name)

	var response []byte
	if name == TestNameRandomData {
		response = randomReply()
	} else {
		response, err = handleQuery(message)
		if err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			logger.Errorf("https: handle query: %s", err)
			return
		}
	}

	switch name {
	case TestNameBadContentType:
		rw.Header().Set("Content-Type", "application/UWU-whats-THIS")
	case TestNameNoContentType:
		// deliberately no Content-Type at all
	default:
		rw.Header().Set("Content-Type", "application/dns-message")
	}
	rw.Header().Set("Content-Length", strconv.Itoa(len(response)))
	rw.WriteHeader(http.StatusOK)
	rw.Write(response)
}
