package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

// DefaultSessionTTL bounds how long an idle session stays open.
const DefaultSessionTTL = 30 * time.Minute

// Registry tracks open sessions so a client can drive them across requests.
type Registry struct {
	workflow *Workflow
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry. A non-positive ttl uses
// DefaultSessionTTL.
func NewRegistry(workflow *Workflow, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		workflow: workflow,
		ttl:      ttl,
		sessions: map[string]*Session{},
	}
}

// Open starts and tracks a session.
func (r *Registry) Open(ctx context.Context, buyer requestctx.User, listingID string) (*Session, error) {
	r.prune()
	s, err := r.workflow.Open(ctx, buyer, listingID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

// Get returns the buyer's open session. Sessions owned by someone else are
// reported as missing.
func (r *Registry) Get(sessionID string, buyer requestctx.User) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[strings.TrimSpace(sessionID)]
	r.mu.Unlock()
	if !ok || s.buyer.ID != buyer.ID || s.Done() {
		return nil, apperrors.WithMetadata(apperrors.CodeNotFound, "checkout not found", map[string]string{"Resource": "checkout"})
	}
	return s, nil
}

// Pay finalizes the session with method and forgets it on success.
func (r *Registry) Pay(ctx context.Context, sessionID string, buyer requestctx.User, method PaymentMethod) (listing.Listing, error) {
	s, err := r.Get(sessionID, buyer)
	if err != nil {
		return listing.Listing{}, err
	}
	sold, err := s.Pay(ctx, method)
	if err != nil {
		return listing.Listing{}, err
	}
	r.forget(s.ID)
	return sold, nil
}

// Cancel closes the session and forgets it.
func (r *Registry) Cancel(sessionID string, buyer requestctx.User) error {
	s, err := r.Get(sessionID, buyer)
	if err != nil {
		return err
	}
	if err := s.Close(); err != nil {
		return err
	}
	r.forget(s.ID)
	return nil
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) forget(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// prune closes sessions idle for longer than the ttl.
func (r *Registry) prune() {
	cutoff := r.workflow.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	for sessionID, s := range r.sessions {
		touched, processing := s.idleSince()
		if s.Done() || (!processing && !touched.After(cutoff)) {
			_ = s.Close()
			delete(r.sessions, sessionID)
		}
	}
}
