package security

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"regexp"
	"time"

	"github.com/safedep/covenant/core/events"
	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/utils/stablejson"
)

// Attestation reason codes.
const (
	ReasonAttestationMissing          = "attestation.missing"
	ReasonInvalidVersion              = "attestation.invalid_version"
	ReasonActorMismatch               = "attestation.actor_mismatch"
	ReasonActionMismatch              = "attestation.action_mismatch"
	ReasonPolicyHashMismatch          = "attestation.policy_hash_mismatch"
	ReasonInvalidTimestamp            = "attestation.invalid_timestamp"
	ReasonExpired                     = "attestation.expired"
	ReasonInvalidNonce                = "attestation.invalid_nonce"
	ReasonReplayedNonce               = "attestation.replayed_nonce"
	ReasonVerificationKeyMissing      = "attestation.verification_key_missing"
	ReasonUnsupportedVerificationType = "attestation.unsupported_verification_type"
	ReasonInvalidSignatureEncoding    = "attestation.invalid_signature_encoding"
	ReasonInvalidSignature            = "attestation.invalid_signature"
	ReasonSignatureVerificationError  = "attestation.signature_verification_error"
	verificationTypeEd25519           = "ed25519"
)

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)

// VerificationRequest carries everything an attestation verifier may
// inspect.
type VerificationRequest struct {
	Policy     *policy.Policy
	PolicyHash string
	Event      *events.Event
	Actor      ActorContext
	Nonces     *NonceStore
	Now        time.Time
}

// VerificationResult is the outcome of attestation verification. Failures
// are reported through ReasonCodes, never as errors.
type VerificationResult struct {
	OK          bool
	ReasonCodes []string
}

// AttestationVerifier validates the attestation envelope of an event.
type AttestationVerifier interface {
	// Name returns the verifier identifier.
	Name() string
	// Verify checks the envelope, recording the nonce on success.
	Verify(req *VerificationRequest) *VerificationResult
}

// ParseTimestamp accepts only fixed-width RFC 3339 timestamps.
func ParseTimestamp(s string) (time.Time, bool) {
	if !timestampPattern.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CheckBinding verifies that the envelope is bound to the event's actor and
// action under the current contract version.
func CheckBinding(a *events.Attestation, ev *events.Event) []string {
	var reasons []string
	if a.Version != policy.AttestationContractV1 {
		reasons = append(reasons, ReasonInvalidVersion)
	}
	if ev.Actor.ID == "" || a.ActorID != ev.Actor.ID {
		reasons = append(reasons, ReasonActorMismatch)
	}
	if a.Action != ev.Action {
		reasons = append(reasons, ReasonActionMismatch)
	}
	return reasons
}

// CheckFreshness rejects unparseable timestamps and envelopes older than the
// policy's max age.
func CheckFreshness(p *policy.Policy, a *events.Attestation, now time.Time) []string {
	issued, ok := ParseTimestamp(a.Timestamp)
	if !ok {
		return []string{ReasonInvalidTimestamp}
	}
	maxAge := time.Duration(p.MaxAgeSeconds()) * time.Second
	if now.UnixMilli()-issued.UnixMilli() > maxAge.Milliseconds() {
		return []string{ReasonExpired}
	}
	return nil
}

// CheckNonce rejects empty nonces and nonces reused within the TTL.
func CheckNonce(p *policy.Policy, a *events.Attestation, nonces *NonceStore, now time.Time) []string {
	if a.Nonce == "" {
		return []string{ReasonInvalidNonce}
	}
	ttl := time.Duration(p.NonceTTLSeconds()) * time.Second
	if nonces != nil && nonces.IsReplay(a.Nonce, ttl, now) {
		return []string{ReasonReplayedNonce}
	}
	return nil
}

// Conclude builds the result for the accumulated reasons and records the
// nonce when verification passed.
func Conclude(req *VerificationRequest, reasons []string) *VerificationResult {
	if len(reasons) > 0 {
		return &VerificationResult{OK: false, ReasonCodes: reasons}
	}
	if req.Nonces != nil {
		req.Nonces.Record(req.Event.Attestation.Nonce, req.Now)
	}
	return &VerificationResult{OK: true, ReasonCodes: []string{}}
}

// SignedPayload returns the deterministic bytes an attestation signature
// covers.
func SignedPayload(a *events.Attestation) ([]byte, error) {
	return stablejson.Marshal(a.SignedPayload())
}

// Sign produces the base64 ed25519 signature for the envelope.
func Sign(key ed25519.PrivateKey, a *events.Attestation) (string, error) {
	payload, err := SignedPayload(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode attestation payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(key, payload)), nil
}

// EncodePublicKey returns the base64 DER (SPKI) form used in policy
// verification blocks.
func EncodePublicKey(key ed25519.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to encode public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// Ed25519Verifier checks attestations against the actor profile's
// declared ed25519 key.
type Ed25519Verifier struct{}

// NewEd25519Verifier creates the cryptographic verifier.
func NewEd25519Verifier() *Ed25519Verifier {
	return &Ed25519Verifier{}
}

// Name returns the verifier identifier.
func (v *Ed25519Verifier) Name() string {
	return "native"
}

// Verify runs every check and reports all failures together.
func (v *Ed25519Verifier) Verify(req *VerificationRequest) *VerificationResult {
	a := req.Event.Attestation
	if a == nil {
		return &VerificationResult{OK: false, ReasonCodes: []string{ReasonAttestationMissing}}
	}

	reasons := CheckBinding(a, req.Event)
	if a.PolicySHA256 != req.PolicyHash {
		reasons = append(reasons, ReasonPolicyHashMismatch)
	}
	reasons = append(reasons, CheckFreshness(req.Policy, a, req.Now)...)
	reasons = append(reasons, CheckNonce(req.Policy, a, req.Nonces, req.Now)...)
	if reason := v.checkSignature(req.Actor.Profile, a); reason != "" {
		reasons = append(reasons, reason)
	}

	return Conclude(req, reasons)
}

func (v *Ed25519Verifier) checkSignature(profile *policy.ActorProfile, a *events.Attestation) string {
	if profile == nil || profile.Verification == nil {
		return ReasonVerificationKeyMissing
	}
	if profile.Verification.Type != verificationTypeEd25519 {
		return ReasonUnsupportedVerificationType
	}

	der, err := base64.StdEncoding.DecodeString(profile.Verification.PublicKey)
	if err != nil {
		return ReasonInvalidSignatureEncoding
	}
	signature, err := base64.StdEncoding.DecodeString(a.Signature)
	if err != nil {
		return ReasonInvalidSignatureEncoding
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return ReasonSignatureVerificationError
	}
	key, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return ReasonSignatureVerificationError
	}

	payload, err := SignedPayload(a)
	if err != nil {
		return ReasonSignatureVerificationError
	}
	if !ed25519.Verify(key, payload, signature) {
		return ReasonInvalidSignature
	}
	return ""
}

var _ AttestationVerifier = (*Ed25519Verifier)(nil)
