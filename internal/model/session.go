package model

import (
	"encoding/json"
	"time"
)

// Role identifies what a connected channel is allowed to do.
// It is bound exactly once, by the channel's first successful join.
type Role string

const (
	RoleUnset   Role = ""
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Question is one multiple-choice prompt shown to a session.
// Correct is reserved for future grading and is ignored by tallying.
type Question struct {
	Text    string   `json:"text"`
	Choices []string `json:"choices"`
	Correct []int    `json:"correct,omitempty"`
}

// SessionInfo is the public, immutable part of a session, returned by the
// stateless lookup endpoint so front-ends can validate a session id before
// opening a channel.
type SessionInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is a full snapshot of a session's live state. It is re-sent
// whole on every membership or question change; receivers replace, never
// merge, so delivery may be best-effort.
type Summary struct {
	TeacherConnected bool      `json:"teacherConnected"`
	StudentCount     int       `json:"studentCount"`
	Question         *Question `json:"question"`
	AnswerCounts     []int     `json:"answerCounts"`
}

// QuestionList is a named, persisted sequence of questions a teacher can
// prepare ahead of a session.
type QuestionList struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// QuestionsToJSON converts the Questions slice to a JSON string for storage.
func (l *QuestionList) QuestionsToJSON() (string, error) {
	if l.Questions == nil {
		return "", nil
	}
	data, err := json.Marshal(l.Questions)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// QuestionsFromJSON parses a JSON string into the Questions slice.
func (l *QuestionList) QuestionsFromJSON(data string) error {
	if data == "" {
		l.Questions = nil
		return nil
	}
	return json.Unmarshal([]byte(data), &l.Questions)
}
