package purchase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmart/backend/internal/models"
	"github.com/modelmart/backend/internal/session"
)

const testModelID = "01J000000000000000000MODEL"

func testListing() *models.Listing {
	return &models.Listing{
		ID:             testModelID,
		ModelName:      "Speech Recognizer",
		DeveloperEmail: "dev@x.com",
	}
}

type stubCatalog struct {
	listing *models.Listing
	getErr  error
	incErr  error

	mu       sync.Mutex
	incCalls int
}

func (s *stubCatalog) GetModel(id string) (*models.Listing, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.listing, nil
}

func (s *stubCatalog) IncrementPurchased(id string) error {
	s.mu.Lock()
	s.incCalls++
	s.mu.Unlock()
	return s.incErr
}

func (s *stubCatalog) increments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incCalls
}

type stubReceipts struct {
	hasErr    error
	recordErr error

	// recordGate, when set, blocks RecordPurchase until closed;
	// recordStarted is closed once RecordPurchase has begun.
	recordGate    chan struct{}
	recordStarted chan struct{}

	mu    sync.Mutex
	owned map[string]bool
}

func newStubReceipts() *stubReceipts {
	return &stubReceipts{owned: make(map[string]bool)}
}

func (s *stubReceipts) HasPurchased(modelID string, buyerID uuid.UUID) (bool, error) {
	if s.hasErr != nil {
		return false, s.hasErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owned[models.ReceiptID(modelID, buyerID)], nil
}

func (s *stubReceipts) RecordPurchase(receipt *models.Receipt) error {
	s.mu.Lock()
	if s.recordStarted != nil {
		close(s.recordStarted)
		s.recordStarted = nil
	}
	gate := s.recordGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if s.recordErr != nil {
		return s.recordErr
	}
	s.mu.Lock()
	receipt.ID = models.ReceiptID(receipt.ModelID, receipt.BuyerID)
	s.owned[receipt.ID] = true
	s.mu.Unlock()
	return nil
}

func buyer() *session.Snapshot {
	return &session.Snapshot{UID: uuid.New(), Email: "u1@x.com"}
}

func owner() *session.Snapshot {
	return &session.Snapshot{UID: uuid.New(), Email: "dev@x.com"}
}

func TestStatus_Anonymous(t *testing.T) {
	e := NewEngine(&stubCatalog{listing: testListing()}, newStubReceipts())

	state, err := e.Status(nil, testModelID)
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
}

func TestStatus_Owner(t *testing.T) {
	e := NewEngine(&stubCatalog{listing: testListing()}, newStubReceipts())

	state, err := e.Status(owner(), testModelID)
	require.NoError(t, err)
	assert.Equal(t, StateOwner, state)
}

func TestStatus_NotPurchasedThenPurchased(t *testing.T) {
	receipts := newStubReceipts()
	e := NewEngine(&stubCatalog{listing: testListing()}, receipts)
	viewer := buyer()

	state, err := e.Status(viewer, testModelID)
	require.NoError(t, err)
	assert.Equal(t, StateNotPurchased, state)

	_, err = e.Buy(viewer, testModelID)
	require.NoError(t, err)

	state, err = e.Status(viewer, testModelID)
	require.NoError(t, err)
	assert.Equal(t, StatePurchased, state)
}

func TestStatus_LedgerFailureIsIndeterminate(t *testing.T) {
	receipts := newStubReceipts()
	receipts.hasErr = errors.New("connection reset")
	e := NewEngine(&stubCatalog{listing: testListing()}, receipts)

	state, err := e.Status(buyer(), testModelID)
	assert.Equal(t, StateIndeterminate, state, "a failed ledger read must not look like NotPurchased")
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
}

func TestBuy_MustLogin(t *testing.T) {
	catalog := &stubCatalog{listing: testListing()}
	e := NewEngine(catalog, newStubReceipts())

	_, err := e.Buy(nil, testModelID)
	assert.ErrorIs(t, err, ErrMustLogin)
	assert.Zero(t, catalog.increments(), "no network purchase call for anonymous viewers")
}

func TestBuy_OwnerCanNeverBuy(t *testing.T) {
	receipts := newStubReceipts()
	e := NewEngine(&stubCatalog{listing: testListing()}, receipts)

	_, err := e.Buy(owner(), testModelID)
	assert.ErrorIs(t, err, ErrOwnListing)

	// Even a (corrupt) existing receipt does not change the answer: the
	// owner check comes before any ledger read.
	receipts.hasErr = errors.New("ledger must not be consulted")
	_, err = e.Buy(owner(), testModelID)
	assert.ErrorIs(t, err, ErrOwnListing)
}

func TestBuy_AlreadyOwned(t *testing.T) {
	receipts := newStubReceipts()
	catalog := &stubCatalog{listing: testListing()}
	e := NewEngine(catalog, receipts)
	viewer := buyer()

	_, err := e.Buy(viewer, testModelID)
	require.NoError(t, err)

	_, err = e.Buy(viewer, testModelID)
	assert.ErrorIs(t, err, ErrAlreadyOwned)
	assert.Equal(t, 1, catalog.increments(), "repeat intents never bump the counter again")
}

func TestBuy_Success(t *testing.T) {
	receipts := newStubReceipts()
	catalog := &stubCatalog{listing: testListing()}
	e := NewEngine(catalog, receipts)
	viewer := buyer()

	receipt, err := e.Buy(viewer, testModelID)
	require.NoError(t, err)

	assert.Equal(t, models.ReceiptID(testModelID, viewer.UID), receipt.ID)
	assert.Equal(t, "Speech Recognizer", receipt.ModelName)
	assert.Equal(t, "u1@x.com", receipt.BuyerEmail)
	assert.Equal(t, "dev@x.com", receipt.DeveloperEmail)
	assert.False(t, receipt.PurchaseDate.IsZero())
	assert.Equal(t, 1, catalog.increments())
}

func TestBuy_CounterFailureStillPurchased(t *testing.T) {
	receipts := newStubReceipts()
	catalog := &stubCatalog{listing: testListing(), incErr: errors.New("patch failed")}
	e := NewEngine(catalog, receipts)
	viewer := buyer()

	_, err := e.Buy(viewer, testModelID)
	require.NoError(t, err, "the receipt is the source of truth; the counter is advisory")

	state, err := e.Status(viewer, testModelID)
	require.NoError(t, err)
	assert.Equal(t, StatePurchased, state)
}

func TestBuy_ReceiptFailureLeavesNotPurchased(t *testing.T) {
	receipts := newStubReceipts()
	receipts.recordErr = errors.New("write refused")
	catalog := &stubCatalog{listing: testListing()}
	e := NewEngine(catalog, receipts)
	viewer := buyer()

	_, err := e.Buy(viewer, testModelID)
	require.Error(t, err)
	assert.Zero(t, catalog.increments(), "no counter bump without a receipt")

	state, err := e.Status(viewer, testModelID)
	require.NoError(t, err)
	assert.Equal(t, StateNotPurchased, state)

	// The in-flight slot was released: a retry reaches the ledger again
	// instead of bouncing off ErrPurchaseInFlight.
	receipts.recordErr = nil
	_, err = e.Buy(viewer, testModelID)
	require.NoError(t, err)
}

func TestBuy_LedgerReadFailureRefusesToProceed(t *testing.T) {
	receipts := newStubReceipts()
	receipts.hasErr = errors.New("timeout")
	e := NewEngine(&stubCatalog{listing: testListing()}, receipts)

	_, err := e.Buy(buyer(), testModelID)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
}

func TestBuy_SecondIntentRejectedWhileInFlight(t *testing.T) {
	receipts := newStubReceipts()
	receipts.recordGate = make(chan struct{})
	receipts.recordStarted = make(chan struct{})
	started := receipts.recordStarted

	e := NewEngine(&stubCatalog{listing: testListing()}, receipts)
	viewer := buyer()

	firstDone := make(chan error, 1)
	go func() {
		_, err := e.Buy(viewer, testModelID)
		firstDone <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first purchase never reached the ledger")
	}

	state, err := e.Status(viewer, testModelID)
	require.NoError(t, err)
	assert.Equal(t, StateInFlight, state)

	_, err = e.Buy(viewer, testModelID)
	assert.ErrorIs(t, err, ErrPurchaseInFlight, "concurrent intent is rejected, not queued")

	close(receipts.recordGate)
	require.NoError(t, <-firstDone)

	state, err = e.Status(viewer, testModelID)
	require.NoError(t, err)
	assert.Equal(t, StatePurchased, state)
}

func TestBuy_InFlightIsPerPair(t *testing.T) {
	receipts := newStubReceipts()
	receipts.recordGate = make(chan struct{})
	receipts.recordStarted = make(chan struct{})
	started := receipts.recordStarted

	e := NewEngine(&stubCatalog{listing: testListing()}, receipts)
	first := buyer()
	second := &session.Snapshot{UID: uuid.New(), Email: "u2@x.com"}

	firstDone := make(chan error, 1)
	go func() {
		_, err := e.Buy(first, testModelID)
		firstDone <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first purchase never reached the ledger")
	}

	// A different buyer is an independent pair and proceeds.
	done := make(chan error, 1)
	go func() {
		_, err := e.Buy(second, testModelID)
		done <- err
	}()

	close(receipts.recordGate)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-done)
}
