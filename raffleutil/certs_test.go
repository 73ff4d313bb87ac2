package raffleutil

import (
	"context"
	"crypto/tls"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTLS12CipherSuites(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []uint16
	}{
		{
			name:     "one valid cipher suite",
			input:    "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
			expected: []uint16{tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384},
		},
		{
			name: "multiple valid cipher suites",
			input: "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384:" +
				"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
			expected: []uint16{
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			},
		},
		{
			name:     "invalid suite is dropped",
			input:    "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384:invalid",
			expected: []uint16{tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384},
		},
		{
			name:     "empty falls back to defaults",
			input:    "",
			expected: defaultTLS12CipherSuites,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, os.Setenv(tls12CipherSuitesKey, tc.input))
			defer os.Unsetenv(tls12CipherSuitesKey)
			assert.ElementsMatch(t, tc.expected, tls12CipherSuites(context.TODO()))
		})
	}
}

func TestTLSVersions(t *testing.T) {
	testCases := []struct {
		min, max                 string
		expectedMin, expectedMax uint16
	}{
		{"TLSv1.2", "TLSv1.3", tls.VersionTLS12, tls.VersionTLS13},
		{"TLSv1.2", "TLSv1.2", tls.VersionTLS12, tls.VersionTLS12},
		{"TLSv1.3", "TLSv1.3", tls.VersionTLS13, tls.VersionTLS13},
		{"", "", tls.VersionTLS12, tls.VersionTLS13},
		{"TLSv1.3", "TLSv1.2", tls.VersionTLS12, tls.VersionTLS13},
		{"TLSv1.1", "TLSv1.4", tls.VersionTLS12, tls.VersionTLS13},
	}

	for _, tc := range testCases {
		assert.Nil(t, os.Setenv(minTLSVersionKey, tc.min))
		assert.Nil(t, os.Setenv(maxTLSVersionKey, tc.max))
		minVersion, maxVersion := tlsVersions(context.TODO())
		assert.Equal(t, tc.expectedMin, minVersion, "min %q max %q", tc.min, tc.max)
		assert.Equal(t, tc.expectedMax, maxVersion, "min %q max %q", tc.min, tc.max)
	}
	assert.Nil(t, os.Unsetenv(minTLSVersionKey))
	assert.Nil(t, os.Unsetenv(maxTLSVersionKey))
}

func TestServerTLSConfigWithoutCerts(t *testing.T) {
	cfg, err := ServerTLSConfig(context.TODO(), "")
	assert.NoError(t, err)
	assert.Nil(t, cfg)
	assert.True(t, TLSInfo("").Empty())
	assert.False(t, TLSInfo("/certs").Empty())
}
