package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"boxscan/models"
)

// ShipmentAPI extends API with the query needed to open a session.
type ShipmentAPI interface {
	API
	Shipment(ctx context.Context, shipmentID int64) (*models.Shipment, error)
}

// ErrUnknownDetail means the requested detail is not part of the shipment's
// active line items.
var ErrUnknownDetail = errors.New("shipment detail not found")

// Session is one receiving workflow over a shipment: the fetched shipment,
// the session draft caches and one machine per box being reconciled.
type Session struct {
	ID         string
	ShipmentID int64

	api      ShipmentAPI
	drafts   *Drafts
	mu       sync.Mutex
	shipment *models.Shipment
	boxes    map[int64]*Reconciliation
}

// Shipment returns the shipment snapshot the session was opened with.
func (s *Session) Shipment() *models.Shipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shipment
}

// Reconciliation returns the machine for one active detail, creating it on
// first use. Soft-removed details are not reconcilable.
func (s *Session) Reconciliation(detailID int64) (*Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.boxes[detailID]; ok {
		return r, nil
	}
	for _, detail := range s.shipment.ActiveDetails() {
		if detail.ID == detailID {
			r := Begin(s.api, s.ShipmentID, detail, s.drafts)
			s.boxes[detailID] = r
			return r, nil
		}
	}
	return nil, ErrUnknownDetail
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts.Reset()
	s.boxes = make(map[int64]*Reconciliation)
	s.shipment = nil
}

// SessionStore tracks open receiving sessions by token.
type SessionStore struct {
	api ShipmentAPI

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore(api ShipmentAPI) *SessionStore {
	return &SessionStore{api: api, sessions: make(map[string]*Session)}
}

// Open fetches the shipment and starts a session over it.
func (st *SessionStore) Open(ctx context.Context, shipmentID int64) (*Session, error) {
	shipment, err := st.api.Shipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         uuid.NewString(),
		ShipmentID: shipmentID,
		api:        st.api,
		drafts:     NewDrafts(),
		shipment:   shipment,
		boxes:      make(map[int64]*Reconciliation),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s, nil
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Close discards the session and all of its draft state.
func (st *SessionStore) Close(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.reset()
	}
}
