// Package registry holds the in-memory table of live sessions and applies
// all protocol mutations to them.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/youclicker/backend/internal/model"
)

// DefaultSessionName is used when a session is created without a name.
const DefaultSessionName = "Class Session"

// session is the mutable state of one teacher-led activity. It is owned
// exclusively by the Registry; nothing outside this package mutates it.
type session struct {
	id        string
	name      string
	createdAt time.Time

	// teachers counts channels currently bound with the teacher role, so
	// teacherConnected stays true while at least one remains.
	teachers int
	students map[string]struct{}
	question *model.Question
	answers  map[string]int
}

// Registry is the process-wide table of active sessions. Every mutation is
// applied under the registry mutex and returns the post-mutation summary,
// so each protocol message is a single atomic state update plus snapshot.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session

	// nextStudent backs participant id allocation. Ids are stable for the
	// lifetime of a channel and never reused within a process.
	nextStudent int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		sessions:    make(map[string]*session),
		nextStudent: 1,
	}
}

// Create allocates a fresh session with no question, no students and no
// answers, and returns its public info.
func (r *Registry) Create(name string) model.SessionInfo {
	if name == "" {
		name = DefaultSessionName
	}

	s := &session{
		id:        uuid.New().String(),
		name:      name,
		createdAt: time.Now(),
		students:  make(map[string]struct{}),
		answers:   make(map[string]int),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s

	return model.SessionInfo{ID: s.id, Name: s.name, CreatedAt: s.createdAt}
}

// Info returns the public info for a session.
func (r *Registry) Info(id string) (model.SessionInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.SessionInfo{}, model.ErrSessionNotFound
	}
	return model.SessionInfo{ID: s.id, Name: s.name, CreatedAt: s.createdAt}, nil
}

// Summary returns the current snapshot of a session without mutating it.
func (r *Registry) Summary(id string) (model.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Summary{}, model.ErrSessionNotFound
	}
	return s.summary(), nil
}

// JoinTeacher binds one more teacher channel to the session.
func (r *Registry) JoinTeacher(id string) (model.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Summary{}, model.ErrSessionNotFound
	}
	s.teachers++
	return s.summary(), nil
}

// JoinStudent adds a student channel to the session. When participantID is
// empty a fresh id is allocated; the assigned id is returned either way.
func (r *Registry) JoinStudent(id, participantID string) (string, model.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", model.Summary{}, model.ErrSessionNotFound
	}

	if participantID == "" {
		participantID = fmt.Sprintf("student-%04d", r.nextStudent)
		r.nextStudent++
	}
	s.students[participantID] = struct{}{}

	return participantID, s.summary(), nil
}

// LeaveTeacher unbinds one teacher channel from the session.
func (r *Registry) LeaveTeacher(id string) (model.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Summary{}, model.ErrSessionNotFound
	}
	if s.teachers > 0 {
		s.teachers--
	}
	return s.summary(), nil
}

// LeaveStudent removes a student channel from the session, along with any
// answer it contributed, so the next summary no longer counts it.
func (r *Registry) LeaveStudent(id, participantID string) (model.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Summary{}, model.ErrSessionNotFound
	}
	delete(s.students, participantID)
	delete(s.answers, participantID)
	return s.summary(), nil
}

// SetQuestion replaces the session's question and clears all stored
// answers, restarting the tally from zero. A nil question returns the
// session to the idle state.
func (r *Registry) SetQuestion(id string, q *model.Question) (model.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Summary{}, model.ErrSessionNotFound
	}
	s.question = q
	s.answers = make(map[string]int)
	return s.summary(), nil
}

// SubmitAnswer records a student's choice, overwriting any previous choice
// by the same participant. The index is stored as received; range
// filtering against the current choices happens only at tally time, so a
// stale or malformed index is counted nowhere but never errors.
func (r *Registry) SubmitAnswer(id, participantID string, choice int) (model.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Summary{}, model.ErrSessionNotFound
	}
	s.answers[participantID] = choice
	return s.summary(), nil
}

// summary builds the snapshot broadcast to a session's channels.
// Callers must hold the registry mutex.
func (s *session) summary() model.Summary {
	return model.Summary{
		TeacherConnected: s.teachers > 0,
		StudentCount:     len(s.students),
		Question:         s.question,
		AnswerCounts:     s.tally(),
	}
}

// tally counts stored answers per choice of the current question. Answers
// outside [0, len(choices)) are skipped. The result is never nil so it
// serializes as an empty JSON array when no question is set.
func (s *session) tally() []int {
	if s.question == nil {
		return []int{}
	}
	counts := make([]int, len(s.question.Choices))
	for _, choice := range s.answers {
		if choice >= 0 && choice < len(counts) {
			counts[choice]++
		}
	}
	return counts
}
