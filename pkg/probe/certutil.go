package probe

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
)

// pubkeyFingerprint computes the base64-encoded SHA-256 digest of a
// certificate's SubjectPublicKeyInfo, in the style of an HPKP pin.
func pubkeyFingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return base64.StdEncoding.EncodeToString(sum[:])
}
