package raffleutil

import (
	"context"
	"crypto/tls"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/scaledata/etcd/pkg/transport"

	"github.com/rubrikinc/raffle/raffleutil/log"
)

const (
	minTLSVersionKey     = "RAFFLE_MIN_TLS_VERSION"
	maxTLSVersionKey     = "RAFFLE_MAX_TLS_VERSION"
	tls12CipherSuitesKey = "RAFFLE_TLS_1_2_CIPHER_SUITES"

	defaultMinTLSVersion = tls.VersionTLS12
	defaultMaxTLSVersion = tls.VersionTLS13
)

var defaultTLS12CipherSuites = []uint16{
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
}

// TLSInfo returns the tlsInfo with certificates in the certsDir. if certsDir
// is empty, it returns empty tlsInfo.
func TLSInfo(certsDir string) transport.TLSInfo {
	if certsDir == "" {
		return transport.TLSInfo{}
	}
	return transport.TLSInfo{
		CertFile:      filepath.Join(certsDir, NodeCert),
		KeyFile:       filepath.Join(certsDir, NodeKey),
		TrustedCAFile: filepath.Join(certsDir, CACert),
	}
}

// ServerTLSConfig returns the TLS configuration for the raffle HTTP API built
// from the certificates in certsDir. It returns nil if certsDir is empty, in
// which case the API is served in plain text.
func ServerTLSConfig(ctx context.Context, certsDir string) (*tls.Config, error) {
	info := TLSInfo(certsDir)
	if info.Empty() {
		return nil, nil
	}
	cfg, err := info.ServerConfig()
	if err != nil {
		return nil, errors.Wrapf(err, "could not load TLS keys from %s", certsDir)
	}
	cfg.MinVersion, cfg.MaxVersion = tlsVersions(ctx)
	cfg.CipherSuites = tls12CipherSuites(ctx)
	return cfg, nil
}

func parseTLS12CipherSuites(ctx context.Context, inputCiphersInIana string) ([]uint16, error) {
	if inputCiphersInIana == "" {
		return nil, errors.New("no cipher suites provided")
	}
	supported := make(map[string]uint16)
	for _, suite := range tls.CipherSuites() {
		supported[suite.Name] = suite.ID
	}
	var accepted []uint16
	var discarded []string
	for _, cipher := range strings.Split(inputCiphersInIana, ":") {
		id, ok := supported[cipher]
		if !ok {
			discarded = append(discarded, cipher)
			continue
		}
		accepted = append(accepted, id)
	}
	if len(accepted) == 0 {
		return nil, errors.Errorf(
			"provided cipher suite(s) %+v is/are not supported by current TLS package",
			inputCiphersInIana,
		)
	}
	if len(discarded) > 0 {
		log.Warningf(ctx, "Some of the provided cipher suite(s) %v are not supported", discarded)
	}
	return accepted, nil
}

func parseTLSVersion(v string) (uint16, error) {
	switch v {
	case "TLSv1.2":
		return tls.VersionTLS12, nil
	case "TLSv1.3":
		return tls.VersionTLS13, nil
	}
	return 0, errors.Errorf("invalid TLS version: %q, supported values: 'TLSv1.2', 'TLSv1.3'", v)
}

func tlsVersions(ctx context.Context) (uint16, uint16) {
	minVersion, err := parseTLSVersion(os.Getenv(minTLSVersionKey))
	if err != nil {
		log.Errorf(ctx, "Failed to parse min TLS version: %v. Using default values instead.", err)
		return defaultMinTLSVersion, defaultMaxTLSVersion
	}
	maxVersion, err := parseTLSVersion(os.Getenv(maxTLSVersionKey))
	if err != nil {
		log.Errorf(ctx, "Failed to parse max TLS version: %v. Using default values instead.", err)
		return defaultMinTLSVersion, defaultMaxTLSVersion
	}
	if minVersion > maxVersion {
		log.Errorf(ctx, "Minimum TLS version is higher than maximum TLS version. Using default values instead.")
		return defaultMinTLSVersion, defaultMaxTLSVersion
	}
	return minVersion, maxVersion
}

func tls12CipherSuites(ctx context.Context) []uint16 {
	ciphers, err := parseTLS12CipherSuites(ctx, os.Getenv(tls12CipherSuitesKey))
	if err != nil {
		log.Infof(ctx, "Using default TLS 1.2 cipher suites: %v", err)
		return defaultTLS12CipherSuites
	}
	return ciphers
}
