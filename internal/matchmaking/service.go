// Package matchmaking pairs queued players strictly first-in first-out and
// tracks matches that have been made but not yet externalized.
package matchmaking

import (
	"time"

	"github.com/google/uuid"

	"github.com/playreversi/backend/internal/logger"
)

// QueueEntry represents a player waiting in the matchmaking queue.
type QueueEntry struct {
	UserID   string
	Username string
	Rating   uint32
	JoinedAt time.Time
}

// PendingMatch is a pairing the matchmaker knows about but whose game has
// not been handed to the players yet. The ready flags are kept for protocol
// evolution; the current coordinator commits matches immediately.
type PendingMatch struct {
	MatchID      string
	Player1ID    string
	Player1Name  string
	Player2ID    string
	Player2Name  string
	CreatedAt    time.Time
	Player1Ready bool
	Player2Ready bool
}

// Service holds the queue and pending-match state. It does no locking of
// its own: the game coordinator is its single owner.
type Service struct {
	queue          map[string]QueueEntry
	queueOrder     []string
	pendingMatches map[string]PendingMatch
}

// NewService returns an empty matchmaking service.
func NewService() *Service {
	return &Service{
		queue:          make(map[string]QueueEntry),
		pendingMatches: make(map[string]PendingMatch),
	}
}

// AddToQueue enqueues a player. Returns false without mutating anything if
// the player is already queued.
func (s *Service) AddToQueue(userID, username string, rating uint32) bool {
	if _, exists := s.queue[userID]; exists {
		return false
	}

	s.queue[userID] = QueueEntry{
		UserID:   userID,
		Username: username,
		Rating:   rating,
		JoinedAt: time.Now(),
	}
	s.queueOrder = append(s.queueOrder, userID)

	logger.Info("Player added to matchmaking queue. Players in queue: %d", len(s.queue))
	return true
}

// RemoveFromQueue drops a player from the queue. Returns false if the
// player was not queued.
func (s *Service) RemoveFromQueue(userID string) bool {
	if _, exists := s.queue[userID]; !exists {
		return false
	}
	delete(s.queue, userID)

	for i, id := range s.queueOrder {
		if id == userID {
			s.queueOrder = append(s.queueOrder[:i], s.queueOrder[i+1:]...)
			break
		}
	}

	logger.Info("Player removed from matchmaking queue. Players in queue: %d", len(s.queue))
	return true
}

// InQueue reports whether a player is currently queued.
func (s *Service) InQueue(userID string) bool {
	_, exists := s.queue[userID]
	return exists
}

// QueueSize returns the number of queued players.
func (s *Service) QueueSize() int { return len(s.queue) }

// FindMatches pops the two oldest entries while at least two players are
// queued and records a PendingMatch for each pair. Pairing is strict FIFO;
// ratings are recorded but not consulted.
func (s *Service) FindMatches() []PendingMatch {
	var created []PendingMatch

	for len(s.queue) >= 2 {
		if len(s.queueOrder) == 0 {
			break
		}
		player1ID := s.queueOrder[0]
		s.queueOrder = s.queueOrder[1:]

		if len(s.queueOrder) == 0 {
			// Lost the second entry mid-iteration; push player1 back.
			s.queueOrder = append([]string{player1ID}, s.queueOrder...)
			break
		}
		player2ID := s.queueOrder[0]
		s.queueOrder = s.queueOrder[1:]

		player1 := s.queue[player1ID]
		player2 := s.queue[player2ID]
		delete(s.queue, player1ID)
		delete(s.queue, player2ID)

		m := PendingMatch{
			MatchID:     uuid.NewString(),
			Player1ID:   player1.UserID,
			Player1Name: player1.Username,
			Player2ID:   player2.UserID,
			Player2Name: player2.Username,
			CreatedAt:   time.Now(),
		}
		s.pendingMatches[m.MatchID] = m
		created = append(created, m)

		logger.Info("New match created: %s", m.MatchID)
	}

	return created
}

// SetPlayerReady marks userID ready in the given match and reports whether
// both sides are now ready. Returns ok=false if the match does not exist or
// userID is not a participant.
func (s *Service) SetPlayerReady(matchID, userID string) (bothReady, ok bool) {
	m, exists := s.pendingMatches[matchID]
	if !exists {
		return false, false
	}

	switch userID {
	case m.Player1ID:
		m.Player1Ready = true
	case m.Player2ID:
		m.Player2Ready = true
	default:
		return false, false
	}
	s.pendingMatches[matchID] = m

	bothReady = m.Player1Ready && m.Player2Ready
	if bothReady {
		logger.Info("Both players are ready. Starting match: %s", matchID)
	}
	return bothReady, true
}

// CancelMatch removes a pending match and returns it, or ok=false if the
// match is unknown.
func (s *Service) CancelMatch(matchID string) (PendingMatch, bool) {
	m, exists := s.pendingMatches[matchID]
	if exists {
		delete(s.pendingMatches, matchID)
	}
	return m, exists
}

// FindPendingMatchForUser returns the first pending match mentioning userID.
func (s *Service) FindPendingMatchForUser(userID string) (PendingMatch, bool) {
	for _, m := range s.pendingMatches {
		if m.Player1ID == userID || m.Player2ID == userID {
			return m, true
		}
	}
	return PendingMatch{}, false
}

// CleanupPendingMatches removes and returns every pending match older than
// timeout.
func (s *Service) CleanupPendingMatches(timeout time.Duration) []PendingMatch {
	now := time.Now()
	var expired []PendingMatch

	for id, m := range s.pendingMatches {
		if now.Sub(m.CreatedAt) > timeout {
			logger.Warning("Match timed out: %s", id)
			expired = append(expired, m)
			delete(s.pendingMatches, id)
		}
	}

	return expired
}

// QueueStats returns the queue size and the average wait of queued players.
func (s *Service) QueueStats() (size int, avgWait time.Duration) {
	size = len(s.queue)
	if size == 0 {
		return 0, 0
	}

	var total time.Duration
	for _, entry := range s.queue {
		total += time.Since(entry.JoinedAt)
	}
	return size, total / time.Duration(size)
}
