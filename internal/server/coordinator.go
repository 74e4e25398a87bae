// Package server hosts the game coordinator: the single authority over
// sessions, users, the matchmaking queue and every live game. It is an
// event-driven actor; one goroutine owns all of its state and processes one
// inbound event to completion before the next, so none of the maps need
// locking.
package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/playreversi/backend/internal/config"
	"github.com/playreversi/backend/internal/logger"
	"github.com/playreversi/backend/internal/matchmaking"
	"github.com/playreversi/backend/internal/protocol"
	"github.com/playreversi/backend/internal/reversi"
)

const (
	// GameOver reasons on the wire.
	reasonCompleted    = "Game completed"
	reasonDisconnected = "Opponent disconnected"

	evictionNotice = "Your account has been logged in from another device or location. " +
		"If this wasn't you, please secure your account immediately."

	inboxCapacity = 256
)

type event interface{ isEvent() }

type connectEvent struct {
	sessionID string
	username  string
	mailbox   chan []byte
	quit      chan struct{}
}

type disconnectEvent struct {
	sessionID string
}

type intentEvent struct {
	sessionID string
	msg       *protocol.ClientMessage
}

func (connectEvent) isEvent()    {}
func (disconnectEvent) isEvent() {}
func (intentEvent) isEvent()     {}

type sessionEntry struct {
	username string
	mailbox  chan []byte
	quit     chan struct{}
}

// Coordinator routes client intents to games, drives matchmaking and fans
// game state out to the two participants of each game.
type Coordinator struct {
	cfg *config.Config

	events chan event
	quit   chan struct{}

	// All of the below is touched only by the run loop (and by tests that
	// call the handlers directly).
	sessions    map[string]sessionEntry     // session_id -> (username, mailbox)
	users       map[string]string           // username -> session_id
	statuses    map[string]Status           // session_id -> status
	activeGames map[string]*reversi.Game    // game_id -> game
	userGames   map[string]string           // session_id -> game_id
	matchmaker  *matchmaking.Service

	// Sessions whose mailbox refused an enqueue during the current event;
	// they are disconnected once the event finishes.
	stuck []string
}

// NewCoordinator builds a coordinator. Run must be started for it to make
// progress.
func NewCoordinator(cfg *config.Config) *Coordinator {
	return &Coordinator{
		cfg:         cfg,
		events:      make(chan event, inboxCapacity),
		quit:        make(chan struct{}),
		sessions:    make(map[string]sessionEntry),
		users:       make(map[string]string),
		statuses:    make(map[string]Status),
		activeGames: make(map[string]*reversi.Game),
		userGames:   make(map[string]string),
		matchmaker:  matchmaking.NewService(),
	}
}

// Connect registers an authenticated session with its outbound mailbox and
// hang-up signal. The coordinator never closes the mailbox — the session
// keeps enqueueing its own replies into it — it closes quit instead, after
// which it never touches the mailbox again.
func (c *Coordinator) Connect(sessionID, username string, mailbox chan []byte, quit chan struct{}) {
	c.post(connectEvent{sessionID: sessionID, username: username, mailbox: mailbox, quit: quit})
}

// Disconnect removes a session. Safe to call more than once.
func (c *Coordinator) Disconnect(sessionID string) {
	c.post(disconnectEvent{sessionID: sessionID})
}

// Intent forwards a parsed client message from a session.
func (c *Coordinator) Intent(sessionID string, msg *protocol.ClientMessage) {
	c.post(intentEvent{sessionID: sessionID, msg: msg})
}

func (c *Coordinator) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.quit:
	}
}

// Run processes events and the matchmaking tick until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	logger.Info("Game coordinator started")

	ticker := time.NewTicker(time.Duration(c.cfg.MatchmakingIntervalMS) * time.Millisecond)
	defer ticker.Stop()
	defer close(c.quit)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Game coordinator stopped")
			return
		case ev := <-c.events:
			c.dispatch(ev)
		case <-ticker.C:
			c.handleTick()
		}
		c.flushStuck()
	}
}

func (c *Coordinator) dispatch(ev event) {
	switch e := ev.(type) {
	case connectEvent:
		c.handleConnect(e.sessionID, e.username, e.mailbox, e.quit)
	case disconnectEvent:
		c.handleDisconnect(e.sessionID)
	case intentEvent:
		c.handleIntent(e.sessionID, e.msg)
	}
}

// sendTo serializes msg into the session's mailbox. A full mailbox marks
// the session stuck; it is disconnected after the current event.
func (c *Coordinator) sendTo(sessionID string, msg interface{}) {
	entry, ok := c.sessions[sessionID]
	if !ok {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Couldn't serialize message for session %s: %v", sessionID, err)
		return
	}

	select {
	case entry.mailbox <- data:
	default:
		logger.Warning("Mailbox full for session %s, scheduling disconnect", sessionID)
		c.stuck = append(c.stuck, sessionID)
	}
}

// broadcast sends msg to every session except skipID.
func (c *Coordinator) broadcast(msg interface{}, skipID string) {
	for id := range c.sessions {
		if id == skipID {
			continue
		}
		c.sendTo(id, msg)
	}
}

func (c *Coordinator) flushStuck() {
	for len(c.stuck) > 0 {
		id := c.stuck[0]
		c.stuck = c.stuck[1:]
		if _, ok := c.sessions[id]; ok {
			c.handleDisconnect(id)
		}
	}
}

func (c *Coordinator) handleConnect(sessionID, username string, mailbox chan []byte, quit chan struct{}) {
	// One live session per username: the older one is told why and then
	// treated as a disconnect, which also forfeits any game it is in.
	if oldID, ok := c.users[username]; ok && oldID != sessionID {
		c.sendTo(oldID, protocol.NewError(evictionNotice))
		c.handleDisconnect(oldID)
	}

	c.sessions[sessionID] = sessionEntry{username: username, mailbox: mailbox, quit: quit}
	c.users[username] = sessionID
	c.statuses[sessionID] = StatusIdle

	logger.Info("New user connected: %s (session %s), total connections: %d",
		username, sessionID, len(c.sessions))

	c.broadcast(protocol.NewSuccess("User "+username+" has logged in"), sessionID)
}

func (c *Coordinator) handleDisconnect(sessionID string) {
	entry, ok := c.sessions[sessionID]
	if !ok {
		return // already gone; Disconnect is idempotent
	}

	delete(c.sessions, sessionID)
	if c.users[entry.username] == sessionID {
		delete(c.users, entry.username)
	}
	delete(c.statuses, sessionID)

	c.matchmaker.RemoveFromQueue(sessionID)

	if gameID, inGame := c.userGames[sessionID]; inGame {
		if game, exists := c.activeGames[gameID]; exists {
			c.endGameByDisconnect(game, sessionID)
		}
	}

	// Hang up. The session's write pump drains the queued frames and shuts
	// the socket down; the mailbox itself stays open because the session's
	// read pump may still reply into it until its own teardown.
	close(entry.quit)

	logger.Info("User disconnected: %s (session %s), total connections: %d",
		entry.username, sessionID, len(c.sessions))

	c.broadcast(protocol.NewSuccess("User "+entry.username+" has logged out"), sessionID)
}

// endGameByDisconnect declares the remaining player the winner and tears
// the game down. Only the opponent is notified; the leaver is already gone.
func (c *Coordinator) endGameByDisconnect(game *reversi.Game, leaverID string) {
	opponent, ok := game.Opponent(leaverID)
	if !ok {
		return
	}

	if _, err := game.Resign(leaverID); err != nil {
		logger.Debug("Game %s already over on disconnect of %s", game.ID, leaverID)
	}

	winner := opponent.Name
	c.sendTo(opponent.ID, protocol.NewGameOver(&winner, reasonDisconnected))
	if _, ok := c.sessions[opponent.ID]; ok {
		c.statuses[opponent.ID] = StatusIdle
	}

	delete(c.userGames, game.BlackPlayer.ID)
	delete(c.userGames, game.WhitePlayer.ID)
	delete(c.activeGames, game.ID)

	logger.Info("Game %s ended: %s disconnected, %s wins", game.ID, leaverID, opponent.Name)
}

func (c *Coordinator) handleIntent(sessionID string, msg *protocol.ClientMessage) {
	entry, ok := c.sessions[sessionID]
	if !ok {
		return
	}

	switch msg.Type {
	case protocol.TypeJoinQueue:
		c.handleJoinQueue(sessionID, entry.username)

	case protocol.TypeLeaveQueue:
		c.handleLeaveQueue(sessionID)

	case protocol.TypeMakeMove:
		c.handleMakeMove(sessionID, msg.MakeMove.X, msg.MakeMove.Y)

	case protocol.TypeResign:
		c.handleResign(sessionID)

	case protocol.TypeHeartbeat:
		// Liveness is refreshed at the session; nothing to do here.

	case protocol.TypeAuthenticate:
		// Authentication is handled at the session; nothing to do here.
	}
}

func (c *Coordinator) handleJoinQueue(sessionID, username string) {
	if _, inGame := c.userGames[sessionID]; inGame {
		c.sendTo(sessionID, protocol.NewError("Already in a game"))
		return
	}

	if !c.matchmaker.AddToQueue(sessionID, username, c.cfg.DefaultRating) {
		c.sendTo(sessionID, protocol.NewError("Already in matchmaking queue"))
		return
	}

	c.statuses[sessionID] = StatusSearchingMatch
	c.sendTo(sessionID, protocol.NewSuccess("Joined matchmaking queue. Searching for opponent..."))
}

func (c *Coordinator) handleLeaveQueue(sessionID string) {
	if !c.matchmaker.RemoveFromQueue(sessionID) {
		c.sendTo(sessionID, protocol.NewError("Not in matchmaking queue"))
		return
	}

	c.statuses[sessionID] = StatusIdle
	c.sendTo(sessionID, protocol.NewSuccess("Left matchmaking queue"))
}

func (c *Coordinator) handleMakeMove(sessionID string, x, y int) {
	game, ok := c.gameFor(sessionID)
	if !ok {
		c.sendTo(sessionID, protocol.NewError("You are not in a game"))
		return
	}

	res, err := game.MakeMove(sessionID, x, y)
	if err != nil {
		c.sendTo(sessionID, protocol.NewError(err.Error()))
		return
	}

	c.fanOutState(game, res)
}

func (c *Coordinator) handleResign(sessionID string) {
	game, ok := c.gameFor(sessionID)
	if !ok {
		c.sendTo(sessionID, protocol.NewError("You are not in a game"))
		return
	}

	res, err := game.Resign(sessionID)
	if err != nil {
		c.sendTo(sessionID, protocol.NewError(err.Error()))
		return
	}

	c.fanOutState(game, res)
}

func (c *Coordinator) gameFor(sessionID string) (*reversi.Game, bool) {
	gameID, ok := c.userGames[sessionID]
	if !ok {
		return nil, false
	}
	game, ok := c.activeGames[gameID]
	return game, ok
}

// fanOutState sends the post-move snapshot to both players, announces a
// pass-skip if one happened, and runs the game-over fan-out when the move
// ended the game.
func (c *Coordinator) fanOutState(game *reversi.Game, res reversi.MoveResult) {
	c.sendTo(game.BlackPlayer.ID, protocol.NewGameState(res.State, reversi.Black))
	c.sendTo(game.WhitePlayer.ID, protocol.NewGameState(res.State, reversi.White))

	if res.Skipped != reversi.Empty && !res.State.IsGameOver {
		notice := protocol.NewSuccess(res.Skipped.String() + " has no valid moves. Turn skipped.")
		c.sendTo(game.BlackPlayer.ID, notice)
		c.sendTo(game.WhitePlayer.ID, notice)
	}

	if res.State.IsGameOver {
		c.finishGame(game, reasonCompleted)
	}
}

// finishGame runs the game-over fan-out: a GameOver carrying the winner's
// display name (or null on a draw) goes to both players, statuses return to
// Idle and the game is unregistered.
func (c *Coordinator) finishGame(game *reversi.Game, reason string) {
	var winner *string
	if id := game.Winner(); id != "" {
		name := game.PlayerName(id)
		winner = &name
	}

	over := protocol.NewGameOver(winner, reason)
	for _, playerID := range []string{game.BlackPlayer.ID, game.WhitePlayer.ID} {
		c.sendTo(playerID, over)
		if _, ok := c.sessions[playerID]; ok {
			c.statuses[playerID] = StatusIdle
		}
		delete(c.userGames, playerID)
	}
	delete(c.activeGames, game.ID)

	logger.Info("Game %s finished (%s), active games: %d", game.ID, reason, len(c.activeGames))
}

// handleTick runs one matchmaking pass: pair queued players, start a game
// per pair, then expire stale pending matches.
func (c *Coordinator) handleTick() {
	matches := c.matchmaker.FindMatches()
	for _, m := range matches {
		c.startGame(m)
	}
	if len(matches) > 0 {
		size, avgWait := c.matchmaker.QueueStats()
		logger.Debug("Matchmaking tick: %d matches created, %d still queued (avg wait %s)",
			len(matches), size, avgWait)
	}

	timeout := time.Duration(c.cfg.PendingMatchTimeoutSecs) * time.Second
	for _, expired := range c.matchmaker.CleanupPendingMatches(timeout) {
		notice := protocol.NewError("Match timed out. Please join the queue again.")
		for _, playerID := range []string{expired.Player1ID, expired.Player2ID} {
			c.sendTo(playerID, notice)
			if _, ok := c.sessions[playerID]; ok {
				c.statuses[playerID] = StatusIdle
			}
		}
	}
}

// startGame commits a pending match: player1 takes black, player2 white.
// MatchFound always precedes the first GameState for each player.
func (c *Coordinator) startGame(m matchmaking.PendingMatch) {
	game := reversi.NewGame(uuid.NewString(),
		reversi.Player{ID: m.Player1ID, Name: m.Player1Name},
		reversi.Player{ID: m.Player2ID, Name: m.Player2Name},
	)
	snapshot := game.Snapshot()

	c.activeGames[game.ID] = game
	c.userGames[m.Player1ID] = game.ID
	c.userGames[m.Player2ID] = game.ID
	c.statuses[m.Player1ID] = StatusInGame
	c.statuses[m.Player2ID] = StatusInGame

	c.sendTo(m.Player1ID, protocol.NewMatchFound(m.Player2Name))
	c.sendTo(m.Player1ID, protocol.NewGameState(snapshot, reversi.Black))
	c.sendTo(m.Player2ID, protocol.NewMatchFound(m.Player1Name))
	c.sendTo(m.Player2ID, protocol.NewGameState(snapshot, reversi.White))

	// Committed immediately, so the pending record must not linger and
	// later be swept as timed out.
	c.matchmaker.CancelMatch(m.MatchID)

	logger.Success("Game %s started: %s (black) vs %s (white)",
		game.ID, m.Player1Name, m.Player2Name)
}
