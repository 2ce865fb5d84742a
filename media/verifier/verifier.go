// Package verifier defines the collaborator the validation engine
// delegates signature checks to. The core never inspects key material
// beyond byte-equality for change detection, and never selects an
// algorithm — CRYPTO_INFO on the wire carries that, and the Verifier
// interprets it.
package verifier

// Verifier checks a signature over a signed digest against a public key.
// Implementations must be deterministic and side-effect-free.
type Verifier interface {
	Verify(publicKey, signedDigest, signature []byte) (bool, error)
}

// FixedVerifier always returns a configured result, for tests and
// integration scenarios that don't need gomock's call-expectation
// machinery.
type FixedVerifier struct {
	OK  bool
	Err error
}

func (f FixedVerifier) Verify(_, _, _ []byte) (bool, error) {
	return f.OK, f.Err
}
