package kv

// SecretOption configures a SecretStore.
type SecretOption func(*SecretStore)

// WithCapacity bounds how many unconsumed solutions are kept. The oldest
// entry is evicted when a new one would exceed the bound.
func WithCapacity(capacity int) SecretOption {
	return func(s *SecretStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}
