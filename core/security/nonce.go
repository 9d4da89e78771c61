package security

import "time"

// NonceStore records when each attestation nonce was last accepted. It is
// scoped to one evaluation session and is not safe for concurrent use.
type NonceStore struct {
	seen map[string]int64
}

// NewNonceStore creates an empty store.
func NewNonceStore() *NonceStore {
	return &NonceStore{seen: make(map[string]int64)}
}

// SeenAt returns the epoch milliseconds the nonce was last recorded.
func (s *NonceStore) SeenAt(nonce string) (int64, bool) {
	at, ok := s.seen[nonce]
	return at, ok
}

// Record stores the nonce as seen at now.
func (s *NonceStore) Record(nonce string, now time.Time) {
	s.seen[nonce] = now.UnixMilli()
}

// IsReplay returns true if nonce was recorded less than ttl before now.
// A reuse at exactly ttl is a fresh use.
func (s *NonceStore) IsReplay(nonce string, ttl time.Duration, now time.Time) bool {
	at, ok := s.seen[nonce]
	if !ok {
		return false
	}
	return now.UnixMilli()-at < ttl.Milliseconds()
}

// Len returns the number of distinct nonces recorded.
func (s *NonceStore) Len() int {
	return len(s.seen)
}
