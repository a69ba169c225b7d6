// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCertificateChainRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, generateRoot())
	require.FileExists(t, rootCertFile)
	require.FileExists(t, rootKeyFile)

	require.NoError(t, loadRoot(rootCertFile, rootKeyFile))
	require.NotNil(t, rootCert)
	require.NotNil(t, rootKey)
	require.NotNil(t, rootCAPool)

	chain, err := generateCertificateChain("DNSOverTLS", "127.0.0.1", "::1", "localhost")
	require.NoError(t, err)
	require.Len(t, chain.Certificate, 2)

	leaf, err := x509.ParseCertificate(chain.Certificate[0])
	require.NoError(t, err)
	require.Equal(t, []string{"localhost"}, leaf.DNSNames)

	ips := make([]string, 0, len(leaf.IPAddresses))
	for _, ip := range leaf.IPAddresses {
		ips = append(ips, ip.String())
	}
	require.Contains(t, ips, "127.0.0.1")
	require.Contains(t, ips, "::1")

	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:     rootCAPool,
		DNSName:   "localhost",
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	require.NoError(t, err)

	// the servername is the only DNS name the leaf is valid for
	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:   rootCAPool,
		DNSName: "elsewhere.example.com",
	})
	require.Error(t, err)
}

func TestGenerateCertificateChainNoRoot(t *testing.T) {
	savedCert, savedKey, savedPool := rootCert, rootKey, rootCAPool
	rootCert, rootKey, rootCAPool = nil, nil, nil
	defer func() { rootCert, rootKey, rootCAPool = savedCert, savedKey, savedPool }()

	_, err := generateCertificateChain("DNSOverTLS", "127.0.0.1", "::1", "localhost")
	require.Error(t, err)
}

func TestLoadRootErrors(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.pem")
	require.Error(t, loadRoot(missing, missing))

	bogus := filepath.Join(dir, "bogus.pem")
	require.NoError(t, os.WriteFile(bogus, []byte("not a pem file"), 0o600))
	require.Error(t, loadRoot(bogus, bogus))
}
