// Package session holds the per-conversation context: the current stage,
// the single working draft and the busy intervals it was generated against.
// Every engine operation reaches its state through a Session so independent
// conversations never share a draft.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitline/internal/calendar"
	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/logger"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/normalize"
	"github.com/julianstephens/habitline/internal/scheduler"
	"github.com/julianstephens/habitline/internal/stage"
)

// Store is the persistence a session needs.
type Store interface {
	AppendHabit(models.HabitSpec) (models.HabitSpec, error)
	ListHabits() ([]models.HabitSpec, error)
	SetNote(key, value string) (models.Note, error)
	GetNote(key string) (models.Note, error)
	ListNotes() ([]models.Note, error)
}

// Message is pushed to everyone watching a session.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Publisher fans messages out to a session's subscribers.
type Publisher interface {
	Publish(sessionID string, msg Message)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, Message) {}

// Deps are shared by every session of a Manager.
type Deps struct {
	Store     Store
	Calendar  calendar.Backend
	Scheduler *scheduler.Scheduler
	Stage     *stage.Controller
	Publisher Publisher
	Settings  models.Settings
	Location  *time.Location
	Now       func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().In(d.Location)
	}
	return time.Now().In(d.Location)
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     *Deps
}

func NewManager(deps Deps) *Manager {
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Stage == nil {
		deps.Stage = stage.NewController(stage.DefaultPayloads())
	}
	models.ApplyDefaultSettings(&deps.Settings)
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.New(schedulerOptions(deps.Settings))
		if t, err := normalize.ParseCanonical(deps.Settings.DefaultTime); err == nil {
			deps.Scheduler.WithDefaultTime(t)
		} else {
			logger.Warn("Ignoring invalid default_time setting", "value", deps.Settings.DefaultTime)
		}
	}
	return &Manager{sessions: make(map[string]*Session), deps: &deps}
}

// SetPublisher replaces the publisher. It must be called before sessions
// are created.
func (m *Manager) SetPublisher(p Publisher) {
	m.deps.Publisher = p
}

// Create starts a new session in the greeting stage.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.New().String(),
		deps:      m.deps,
		stage:     models.StageGreeting,
		createdAt: m.deps.now(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	logger.Info("Session started", "session", s.ID)
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	logger.Info("Session ended", "session", id)
}

// IDs returns the live session ids, oldest first.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].createdAt.Equal(all[j].createdAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].createdAt.Before(all[j].createdAt)
	})
	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.ID
	}
	return ids
}

// Session is one conversation. Its mutex keeps at most one operation in
// flight.
type Session struct {
	ID string

	mu        sync.Mutex
	deps      *Deps
	stage     models.Stage
	draft     *models.Draft
	busy      []models.BusyInterval
	createdAt time.Time
}

func (s *Session) Stage() models.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() (models.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return models.Draft{}, false
	}
	return s.draft.Clone(), true
}

// Busy returns the intervals the current draft was generated against.
func (s *Session) Busy() []models.BusyInterval {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.BusyInterval(nil), s.busy...)
}

// Greet returns the opening instructions, mentioning remembered notes.
func (s *Session) Greet() stage.Guidance {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := ""
	notes, err := s.deps.Store.ListNotes()
	if err != nil {
		logger.Warn("Failed to load notes for greeting", "session", s.ID, "error", err)
	} else {
		known = summarizeNotes(notes)
	}
	s.stage = models.StageGreeting
	return s.deps.Stage.Greeting(known)
}

func (s *Session) publish(msgType, text string, payload any) {
	s.deps.Publisher.Publish(s.ID, Message{Type: msgType, Message: text, Payload: payload})
}

// publishDraft sends the current draft followed by a status notice.
func (s *Session) publishDraft(status string) {
	if s.draft != nil {
		s.publish(constants.MessageTypeDraft, "", s.draft.Clone())
	}
	if status != "" {
		s.publish(constants.MessageTypeStatus, status, nil)
	}
}
