// Package session holds the per-user identity snapshot used by the rest of
// the system. It is the only component that talks to the identity layer
// directly; everything else receives an explicit *Holder (no ambient auth
// globals).
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/modelmart/backend/internal/services"
)

var (
	// ErrCredentialMint means a bearer credential could not be issued for
	// this operation. The cached snapshot stays valid: the caller treats the
	// user as unauthenticated for this one call only.
	ErrCredentialMint = errors.New("failed to mint credential")

	ErrNoSession = errors.New("no active session")
)

// Snapshot is the observable state of a signed-in user.
type Snapshot struct {
	UID         uuid.UUID
	Email       string
	DisplayName string
	PhotoURL    string
}

// Holder caches session snapshots and keeps them current by subscribing
// once to the identity provider's change stream. Close detaches the
// subscription; call it on shutdown.
type Holder struct {
	auth *services.AuthService

	mu      sync.RWMutex
	cache   map[uuid.UUID]Snapshot
	loading bool

	closeFn func()
	once    sync.Once
}

func NewHolder(auth *services.AuthService) *Holder {
	h := &Holder{
		auth:    auth,
		cache:   make(map[uuid.UUID]Snapshot),
		loading: true,
	}

	ch := auth.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.mu.Lock()
		h.loading = false
		h.mu.Unlock()
		for user := range ch {
			h.mu.Lock()
			h.cache[user.ID] = Snapshot{
				UID:         user.ID,
				Email:       user.Email,
				DisplayName: user.DisplayName,
				PhotoURL:    user.PhotoURL,
			}
			h.mu.Unlock()
		}
	}()
	h.closeFn = func() {
		auth.Unsubscribe(ch)
		wg.Wait()
	}
	return h
}

// Current returns the session snapshot for uid, loading it from the
// identity provider on a cache miss. Returns ErrNoSession when the user
// does not exist (deleted account, stale token).
func (h *Holder) Current(uid uuid.UUID) (*Snapshot, error) {
	if uid == uuid.Nil {
		return nil, ErrNoSession
	}

	h.mu.RLock()
	snap, ok := h.cache[uid]
	h.mu.RUnlock()
	if ok {
		return &snap, nil
	}

	user, err := h.auth.GetUser(uid)
	if err != nil {
		return nil, ErrNoSession
	}

	snap = Snapshot{
		UID:         user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	}
	h.mu.Lock()
	h.cache[uid] = snap
	h.mu.Unlock()
	return &snap, nil
}

// IsLoggedIn reports whether uid resolves to an active session.
func (h *Holder) IsLoggedIn(uid uuid.UUID) bool {
	snap, err := h.Current(uid)
	return err == nil && snap != nil
}

// Loading is true only before the holder has attached to the identity
// change stream.
func (h *Holder) Loading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading
}

// Mint issues a short-lived bearer credential for uid. A failure here must
// not evict the cached snapshot: the session is still considered valid.
func (h *Holder) Mint(uid uuid.UUID) (string, error) {
	user, err := h.auth.GetUser(uid)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentialMint, err)
	}
	token, err := h.auth.MintAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentialMint, err)
	}
	return token, nil
}

// Close detaches from the change stream. Safe to call more than once.
func (h *Holder) Close() {
	h.once.Do(h.closeFn)
}

// FromRequest extracts the authenticated user's id from the verified JWT
// the auth middleware stored in the request context. Returns uuid.Nil with
// no error for anonymous requests (no token present).
func FromRequest(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}
