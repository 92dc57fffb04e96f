package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-match/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
)

// MaxSessions is the number of players a match admits.
const MaxSessions = 2

// Registry maps connection IDs to the symbol they play.
type Registry struct {
	sessions map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]string, MaxSessions),
	}
}

// Admit assigns the free symbol to the connection. X is handed out first.
func (that *Registry) Admit(sessionID string) (string, error) {
	if mark, ok := that.sessions[sessionID]; ok {
		return mark, apperror.ErrAlreadyAdmitted
	}

	if len(that.sessions) >= MaxSessions {
		return "", apperror.ErrMatchFull
	}

	mark := entity.PlayerX
	if that.holds(entity.PlayerX) {
		mark = entity.PlayerO
	}

	that.sessions[sessionID] = mark

	return mark, nil
}

// Release forgets the connection and returns the session it held.
func (that *Registry) Release(sessionID string) (entity.Session, bool) {
	mark, ok := that.sessions[sessionID]
	if !ok {
		return entity.Session{}, false
	}

	delete(that.sessions, sessionID)

	return entity.Session{ID: sessionID, Mark: mark}, true
}

func (that *Registry) MarkOf(sessionID string) (string, bool) {
	mark, ok := that.sessions[sessionID]
	return mark, ok
}

func (that *Registry) Len() int {
	return len(that.sessions)
}

func (that *Registry) IsFull() bool {
	return len(that.sessions) >= MaxSessions
}

// Sessions returns the admitted sessions, X first.
func (that *Registry) Sessions() []entity.Session {
	sessions := make([]entity.Session, 0, len(that.sessions))
	for _, mark := range []string{entity.PlayerX, entity.PlayerO} {
		for id, held := range that.sessions {
			if held == mark {
				sessions = append(sessions, entity.Session{ID: id, Mark: mark})
			}
		}
	}

	return sessions
}

func (that *Registry) holds(mark string) bool {
	for _, held := range that.sessions {
		if held == mark {
			return true
		}
	}

	return false
}
