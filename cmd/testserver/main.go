// SPDX-License-Identifier: GPL-3.0-or-later

// Command testserver answers scripted DNS queries over UDP, TCP, TLS,
// HTTPS, and QUIC so that client implementations can be exercised
// against well known good and deliberately broken replies.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnskit/dnswire/internal/logging"
)

// logger is replaced by run; the nop default keeps unit tests quiet.
var logger = zap.NewNop().Sugar()

var opts struct {
	certPath   string
	keyPath    string
	startPort  uint16
	bindIPv4   string
	bindIPv6   string
	servername string
	generate   bool
	logFile    string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "testserver",
	Short: "Serve scripted DNS replies over five transports",
	Long: `testserver binds one DNS server per transport starting at --start-port:

  port+0  DNS over UDP
  port+1  DNS over TCP
  port+2  DNS over HTTPS (GET /dns-query)
  port+3  DNS over TLS
  port+4  DNS over QUIC ("doq" ALPN)

The reply is selected by the query name: control.example.com. answers
normally, while the other *.example.com. test names produce replies
that are broken in a specific way (random bytes, wrong stream length,
malformed A record, wrong DoH content type).`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.generate, "generate", "g", false, "generate a new root certificate and private key, then exit")
	flags.StringVarP(&opts.certPath, "cert", "c", "", "path to the root certificate PEM file")
	flags.StringVarP(&opts.keyPath, "key", "k", "", "path to the root private key PEM file")
	flags.Uint16VarP(&opts.startPort, "start-port", "p", 8400, "first port number; each transport uses the next one")
	flags.StringVar(&opts.bindIPv4, "bind-ipv4", "127.0.0.1", "IPv4 address to bind to")
	flags.StringVar(&opts.bindIPv6, "bind-ipv6", "::1", "IPv6 address to bind to")
	flags.StringVar(&opts.servername, "servername", "localhost", "servername for TLS servers and certificates")
	flags.StringVar(&opts.logFile, "log-file", "", "also write logs to this file, with rotation")
	flags.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")
}

// server is one transport of the test suite. Start blocks until the
// transport fails.
type server interface {
	Start(port uint16, ipv4, ipv6, servername string) error
}

func run(cmd *cobra.Command, args []string) error {
	lc := logging.Config{
		Stdout:     true,
		File:       opts.logFile,
		MaxAge:     2,
		MaxSize:    10,
		MaxBackups: 10,
	}
	if opts.verbose {
		lc.Level = -1
	}
	zl, err := logging.New(lc)
	if err != nil {
		return err
	}
	defer zl.Sync()
	logger = zl.Sugar()

	if opts.generate {
		return generateRoot()
	}

	if opts.certPath == "" || opts.keyPath == "" {
		return errors.New("both --cert and --key are required unless --generate is given")
	}
	if err := loadRoot(opts.certPath, opts.keyPath); err != nil {
		return fmt.Errorf("load root certificate: %w", err)
	}

	servers := []server{
		&serverDNSUDP{},
		&serverDNSTCP{},
		&serverDNSOverHTTPS{},
		&serverDNSOverTLS{},
		&serverDNSOverQuic{},
	}

	// the first transport to fail takes the whole suite down
	errch := make(chan error, len(servers))
	port := opts.startPort
	for _, srv := range servers {
		go func(p uint16, s server) {
			errch <- s.Start(p, opts.bindIPv4, opts.bindIPv6, opts.servername)
		}(port, srv)
		port++
	}
	return <-errch
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
