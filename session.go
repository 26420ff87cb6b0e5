package catalyst

import (
	"strings"
	"sync"
)

// Session holds the tenant key and the currently identified customer.
type Session struct {
	mu           sync.RWMutex
	apiKey       string
	customerID   string
	customerName string
	initialized  bool
}

type sessionSnapshot struct {
	apiKey       string
	customerID   string
	customerName string
	initialized  bool
}

// NewSession creates an unidentified session for apiKey.
func NewSession(apiKey string) *Session {
	return &Session{apiKey: apiKey}
}

// Identify replaces the current identity. It does not merge with the
// previous one; an empty CustomerName clears the old name.
func (s *Session) Identify(identity Identity) error {
	customerID := strings.TrimSpace(identity.CustomerID)
	if customerID == "" {
		return &InvalidArgumentError{Argument: "customerId", Reason: "is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerID = customerID
	s.customerName = identity.CustomerName
	s.initialized = true
	return nil
}

// Initialized reports whether Identify has succeeded.
func (s *Session) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Identity returns the current identity.
func (s *Session) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Identity{CustomerID: s.customerID, CustomerName: s.customerName}
}

func (s *Session) snapshot() sessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sessionSnapshot{
		apiKey:       s.apiKey,
		customerID:   s.customerID,
		customerName: s.customerName,
		initialized:  s.initialized,
	}
}
