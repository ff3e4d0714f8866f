package editor

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amosjerbi/facemoji/internal/services/face"
	"github.com/amosjerbi/facemoji/internal/services/overlay"
)

// Manager hosts the live editing sessions, keyed by an opaque id. Sessions
// untouched for longer than the idle TTL are evicted lazily on the next
// Create or Get.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managed

	detector face.Detector
	renderer *overlay.Renderer
	gallery  Saver
	share    Saver
	idleTTL  time.Duration
}

type managed struct {
	session  *Session
	lastUsed time.Time
}

func NewManager(detector face.Detector, renderer *overlay.Renderer, gallery, share Saver, idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Manager{
		sessions: make(map[string]*managed),
		detector: detector,
		renderer: renderer,
		gallery:  gallery,
		share:    share,
		idleTTL:  idleTTL,
	}
}

// Create starts a fresh session and returns its id.
func (m *Manager) Create() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictIdle()

	id := uuid.NewString()
	m.sessions[id] = &managed{
		session:  NewSession(m.detector, m.renderer, m.gallery, m.share),
		lastUsed: time.Now(),
	}
	return id
}

// Get returns the session for id, or an error if it does not exist (or
// was evicted).
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictIdle()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	entry.lastUsed = time.Now()
	return entry.session, nil
}

// Delete removes a session explicitly.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)
	for id, entry := range m.sessions {
		if entry.lastUsed.Before(cutoff) {
			delete(m.sessions, id)
			log.Printf("[SESSION] Evicted idle session %s", id)
		}
	}
}
