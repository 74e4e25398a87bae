package matchmaking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToQueueRejectsDuplicates(t *testing.T) {
	s := NewService()

	assert.True(t, s.AddToQueue("u1", "alice", 1000))
	assert.False(t, s.AddToQueue("u1", "alice", 1000))
	assert.Equal(t, 1, s.QueueSize())
	assert.True(t, s.InQueue("u1"))
}

func TestRemoveFromQueue(t *testing.T) {
	s := NewService()
	s.AddToQueue("u1", "alice", 1000)

	assert.True(t, s.RemoveFromQueue("u1"))
	assert.False(t, s.InQueue("u1"))
	assert.Equal(t, 0, s.QueueSize())

	// Removing again must fail and leave state untouched.
	assert.False(t, s.RemoveFromQueue("u1"))
	assert.Equal(t, 0, s.QueueSize())
}

func TestFindMatchesPairsFIFO(t *testing.T) {
	s := NewService()
	s.AddToQueue("u1", "alice", 1200)
	s.AddToQueue("u2", "bob", 900)
	s.AddToQueue("u3", "carol", 1500)

	matches := s.FindMatches()
	require.Len(t, matches, 1)

	m := matches[0]
	assert.NotEmpty(t, m.MatchID)
	assert.Equal(t, "u1", m.Player1ID)
	assert.Equal(t, "alice", m.Player1Name)
	assert.Equal(t, "u2", m.Player2ID)
	assert.Equal(t, "bob", m.Player2Name)
	assert.False(t, m.Player1Ready)
	assert.False(t, m.Player2Ready)

	// The odd player out stays queued.
	assert.True(t, s.InQueue("u3"))
	assert.Equal(t, 1, s.QueueSize())
}

func TestFindMatchesDrainsPairs(t *testing.T) {
	s := NewService()
	for _, id := range []string{"u1", "u2", "u3", "u4", "u5"} {
		s.AddToQueue(id, "name-"+id, 1000)
	}

	matches := s.FindMatches()
	require.Len(t, matches, 2)
	assert.Equal(t, "u1", matches[0].Player1ID)
	assert.Equal(t, "u2", matches[0].Player2ID)
	assert.Equal(t, "u3", matches[1].Player1ID)
	assert.Equal(t, "u4", matches[1].Player2ID)
	assert.Equal(t, 1, s.QueueSize())

	// No pair left: nothing new is created.
	assert.Empty(t, s.FindMatches())
}

func TestRemoveMiddleKeepsOrder(t *testing.T) {
	s := NewService()
	s.AddToQueue("u1", "alice", 1000)
	s.AddToQueue("u2", "bob", 1000)
	s.AddToQueue("u3", "carol", 1000)

	s.RemoveFromQueue("u2")

	matches := s.FindMatches()
	require.Len(t, matches, 1)
	assert.Equal(t, "u1", matches[0].Player1ID)
	assert.Equal(t, "u3", matches[0].Player2ID)
}

func TestSetPlayerReady(t *testing.T) {
	s := NewService()
	s.AddToQueue("u1", "alice", 1000)
	s.AddToQueue("u2", "bob", 1000)
	m := s.FindMatches()[0]

	both, ok := s.SetPlayerReady(m.MatchID, "u1")
	require.True(t, ok)
	assert.False(t, both)

	both, ok = s.SetPlayerReady(m.MatchID, "u2")
	require.True(t, ok)
	assert.True(t, both)

	_, ok = s.SetPlayerReady(m.MatchID, "stranger")
	assert.False(t, ok)

	_, ok = s.SetPlayerReady("no-such-match", "u1")
	assert.False(t, ok)
}

func TestFindPendingMatchForUser(t *testing.T) {
	s := NewService()
	s.AddToQueue("u1", "alice", 1000)
	s.AddToQueue("u2", "bob", 1000)
	created := s.FindMatches()[0]

	m, ok := s.FindPendingMatchForUser("u2")
	require.True(t, ok)
	assert.Equal(t, created.MatchID, m.MatchID)

	_, ok = s.FindPendingMatchForUser("stranger")
	assert.False(t, ok)
}

func TestCancelMatch(t *testing.T) {
	s := NewService()
	s.AddToQueue("u1", "alice", 1000)
	s.AddToQueue("u2", "bob", 1000)
	created := s.FindMatches()[0]

	m, ok := s.CancelMatch(created.MatchID)
	require.True(t, ok)
	assert.Equal(t, created.MatchID, m.MatchID)

	_, ok = s.CancelMatch(created.MatchID)
	assert.False(t, ok)
	_, ok = s.FindPendingMatchForUser("u1")
	assert.False(t, ok)
}

func TestCleanupPendingMatches(t *testing.T) {
	s := NewService()
	s.AddToQueue("u1", "alice", 1000)
	s.AddToQueue("u2", "bob", 1000)
	s.AddToQueue("u3", "carol", 1000)
	s.AddToQueue("u4", "dave", 1000)
	matches := s.FindMatches()
	require.Len(t, matches, 2)

	// Backdate one match past the timeout.
	old := s.pendingMatches[matches[0].MatchID]
	old.CreatedAt = time.Now().Add(-time.Minute)
	s.pendingMatches[matches[0].MatchID] = old

	expired := s.CleanupPendingMatches(30 * time.Second)
	require.Len(t, expired, 1)
	assert.Equal(t, matches[0].MatchID, expired[0].MatchID)

	_, ok := s.FindPendingMatchForUser(matches[1].Player1ID)
	assert.True(t, ok, "fresh match must survive cleanup")
}

func TestQueueStats(t *testing.T) {
	s := NewService()

	size, avg := s.QueueStats()
	assert.Equal(t, 0, size)
	assert.Equal(t, time.Duration(0), avg)

	s.AddToQueue("u1", "alice", 1000)
	s.AddToQueue("u2", "bob", 1000)

	size, avg = s.QueueStats()
	assert.Equal(t, 2, size)
	assert.GreaterOrEqual(t, avg, time.Duration(0))
}
