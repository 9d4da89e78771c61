package simulator

import "github.com/safedep/covenant/core/security"

const invalidSignature = "invalid"

// SimulatedVerifier checks generated attestations without cryptography.
// The sentinel policy hash matches any policy and only the literal
// "invalid" signature fails.
type SimulatedVerifier struct{}

// NewSimulatedVerifier creates the simulated attestation verifier.
func NewSimulatedVerifier() *SimulatedVerifier {
	return &SimulatedVerifier{}
}

// Name returns the verifier identifier.
func (v *SimulatedVerifier) Name() string {
	return string(AttestationSimulated)
}

// Verify runs the structural checks of the native verifier without the
// signature check.
func (v *SimulatedVerifier) Verify(req *security.VerificationRequest) *security.VerificationResult {
	a := req.Event.Attestation
	if a == nil {
		return &security.VerificationResult{OK: false, ReasonCodes: []string{security.ReasonAttestationMissing}}
	}

	reasons := security.CheckBinding(a, req.Event)
	if req.PolicyHash != "" && a.PolicySHA256 != "" &&
		a.PolicySHA256 != SimPolicyHashSentinel && a.PolicySHA256 != req.PolicyHash {
		reasons = append(reasons, security.ReasonPolicyHashMismatch)
	}
	reasons = append(reasons, security.CheckFreshness(req.Policy, a, req.Now)...)
	reasons = append(reasons, security.CheckNonce(req.Policy, a, req.Nonces, req.Now)...)
	if a.Signature == invalidSignature {
		reasons = append(reasons, security.ReasonInvalidSignature)
	}

	return security.Conclude(req, reasons)
}

var _ security.AttestationVerifier = (*SimulatedVerifier)(nil)
