package host

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/aerysproject/aerys/pkg/aeryserr"
)

// TLSConfig holds the raw option set named in spec.md §6 plus the
// *tls.Config it was compiled into.
type TLSConfig struct {
	LocalCert          string
	Passphrase         string
	AllowSelfSigned    bool
	VerifyPeer         bool
	Ciphers            string
	CAFile             string
	CAPath             string
	SingleECDHUse      bool
	ECDHCurve          string
	HonorCipherOrder   bool
	DisableCompression bool
	RenegLimit         int
	CryptoMethod       string // space-separated tokens, or a single token

	compiled *tls.Config
}

// defaultTLSConfig returns the §4.1 "Merges options over defaults" base:
// peer verification off, honor-cipher-order on, compression off, ECDH
// curve prime256v1.
func defaultTLSConfig() *TLSConfig {
	return &TLSConfig{
		VerifyPeer:         false,
		HonorCipherOrder:   true,
		DisableCompression: true,
		ECDHCurve:          "prime256v1",
	}
}

var cryptoMethodBits = map[string]uint16{
	"tls":     tls.VersionTLS12,
	"tls1":    tls.VersionTLS10,
	"tlsv1":   tls.VersionTLS10,
	"tls1.0":  tls.VersionTLS10,
	"tlsv1.0": tls.VersionTLS10,
	"tls1.1":  tls.VersionTLS11,
	"tlsv1.1": tls.VersionTLS11,
	"tls1.2":  tls.VersionTLS12,
	"tlsv1.2": tls.VersionTLS12,
	// crypto/tls has no SSLv2/v3; floor unsupported legacy tokens to the
	// oldest version it supports rather than rejecting them.
	"ssl2":   tls.VersionTLS10,
	"sslv2":  tls.VersionTLS10,
	"ssl3":   tls.VersionTLS10,
	"sslv3":  tls.VersionTLS10,
	"sslv23": tls.VersionTLS10,
	"any":    tls.VersionTLS10,
}

// cryptoMethodMask normalizes the crypto_method option (space-separated
// string, as spec.md allows) into the lowest and highest TLS versions it
// names; when the highest named version is below TLS 1.2, the maximum is
// raised to TLS 1.3. Unknown tokens are ignored; an empty result is a
// ConfigError.
func cryptoMethodMask(raw string) (minVersion, maxVersion uint16, err error) {
	tokens := strings.Fields(raw)
	var versions []uint16
	for _, tok := range tokens {
		if v, ok := cryptoMethodBits[strings.ToLower(tok)]; ok {
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 {
		return 0, 0, errEmptyCryptoMethod(raw)
	}
	minVersion, maxVersion = versions[0], versions[0]
	for _, v := range versions[1:] {
		if v < minVersion {
			minVersion = v
		}
		if v > maxVersion {
			maxVersion = v
		}
	}
	if maxVersion < tls.VersionTLS12 {
		maxVersion = tls.VersionTLS13
	}
	return minVersion, maxVersion, nil
}

type errEmptyCryptoMethod string

func (e errEmptyCryptoMethod) Error() string {
	return fmt.Sprintf("crypto_method %q resolved to an empty version bitmask", string(e))
}

var privateKeyHeader = regexp.MustCompile(`-----BEGIN (\S+ )?PRIVATE KEY-----`)

// BuildTLSConfig reads opts.LocalCert, verifies it parses as an X.509
// certificate with an accompanying private-key PEM block, compiles the
// crypto_method token set into a min/max version range, and returns
// warnings (CN/SAN mismatch, expiry) rather than failing on them.
func BuildTLSConfig(opts TLSConfig, hostName string) (*TLSConfig, []*aeryserr.ConfigWarning, error) {
	merged := defaultTLSConfig()
	if opts.Ciphers != "" {
		merged.Ciphers = opts.Ciphers
	}
	if opts.ECDHCurve != "" {
		merged.ECDHCurve = opts.ECDHCurve
	}
	merged.LocalCert = opts.LocalCert
	merged.Passphrase = opts.Passphrase
	merged.AllowSelfSigned = opts.AllowSelfSigned
	merged.VerifyPeer = opts.VerifyPeer
	merged.CAFile = opts.CAFile
	merged.CAPath = opts.CAPath
	merged.SingleECDHUse = opts.SingleECDHUse
	merged.HonorCipherOrder = opts.HonorCipherOrder
	merged.DisableCompression = opts.DisableCompression
	merged.RenegLimit = opts.RenegLimit
	merged.CryptoMethod = opts.CryptoMethod

	pemData, err := os.ReadFile(merged.LocalCert)
	if err != nil {
		return nil, nil, aeryserr.NewConfigError("tls certificate file", err)
	}

	cert, err := tls.X509KeyPair(pemData, pemData)
	if err != nil {
		return nil, nil, aeryserr.NewConfigError("tls certificate/key pair", err)
	}

	if !privateKeyHeader.Match(pemData) {
		return nil, nil, aeryserr.NewConfigError("tls certificate bundle", errNoPrivateKey{})
	}

	minVer, maxVer, err := cryptoMethodMask(merged.CryptoMethod)
	if err != nil {
		return nil, nil, aeryserr.NewConfigError("tls crypto_method", err)
	}

	var warnings []*aeryserr.ConfigWarning
	if leaf, parseErr := x509.ParseCertificate(cert.Certificate[0]); parseErr == nil {
		if w := checkNameMatch(leaf, hostName); w != "" {
			warnings = append(warnings, aeryserr.NewConfigWarning("tls certificate name", w))
		}
		if leaf.NotAfter.Before(time.Now()) {
			warnings = append(warnings, aeryserr.NewConfigWarning("tls certificate expiry", "certificate notAfter has already passed"))
		}
	}

	merged.compiled = &tls.Config{
		Certificates:           []tls.Certificate{cert},
		MinVersion:             minVer,
		MaxVersion:             maxVer,
		InsecureSkipVerify:     merged.AllowSelfSigned,
		ClientAuth:             clientAuthMode(merged.VerifyPeer),
		SessionTicketsDisabled: merged.DisableCompression,
	}

	return merged, warnings, nil
}

func clientAuthMode(verifyPeer bool) tls.ClientAuthType {
	if verifyPeer {
		return tls.RequireAndVerifyClientCert
	}
	return tls.NoClientCert
}

type errNoPrivateKey struct{}

func (errNoPrivateKey) Error() string {
	return "certificate bundle has no PEM private-key block"
}

func checkNameMatch(cert *x509.Certificate, hostName string) string {
	if hostName == "" {
		return ""
	}
	if strings.EqualFold(cert.Subject.CommonName, hostName) {
		return ""
	}
	for _, san := range cert.DNSNames {
		if strings.EqualFold(san, hostName) {
			return ""
		}
	}
	return "certificate CN/SAN does not include host name " + hostName
}

// Compiled returns the *tls.Config assembled by BuildTLSConfig.
func (t *TLSConfig) Compiled() *tls.Config { return t.compiled }
