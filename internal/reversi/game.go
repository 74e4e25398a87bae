package reversi

import "errors"

// Rule-engine errors. The text of each is the exact string sent back to the
// offending client.
var (
	ErrGameOver       = errors.New("Game is already over")
	ErrNotParticipant = errors.New("You are not a player in this game")
	ErrNotYourTurn    = errors.New("It's not your turn")
	ErrOutOfBounds    = errors.New("Invalid coordinates")
	ErrInvalidMove    = errors.New("Invalid move")
)

// Player identifies one side of a game.
type Player struct {
	ID   string
	Name string
}

// Move is one entry of a game's append-only history.
type Move struct {
	PlayerID string
	X        int
	Y        int
	Color    Disk
}

// Game holds the full authoritative state of one Reversi match. It has no
// internal locking; the coordinator is its only owner.
type Game struct {
	ID          string
	BlackPlayer Player
	WhitePlayer Player

	board        Board
	currentColor Disk
	isGameOver   bool
	winner       string // player ID, "" while running or on a draw
	history      []Move
}

// Snapshot is the serializable projection of a Game, recomputed on demand.
type Snapshot struct {
	Board         [BoardSize][BoardSize]*string `json:"board"`
	CurrentPlayer string                        `json:"current_player"`
	IsGameOver    bool                          `json:"is_game_over"`
	Winner        *string                       `json:"winner"`
	BlackCount    int                           `json:"black_count"`
	WhiteCount    int                           `json:"white_count"`
	BlackCanMove  bool                          `json:"black_can_move"`
	WhiteCanMove  bool                          `json:"white_can_move"`
}

// MoveResult is what a successful MakeMove or Resign hands back to the
// coordinator. Skipped is the color whose turn was passed over, or Empty.
type MoveResult struct {
	State   Snapshot
	Skipped Disk
}

// NewGame starts a game between black and white with the opening position.
// Black moves first.
func NewGame(id string, black, white Player) *Game {
	return &Game{
		ID:           id,
		BlackPlayer:  black,
		WhitePlayer:  white,
		board:        NewBoard(),
		currentColor: Black,
	}
}

// Snapshot projects the current game state.
func (g *Game) Snapshot() Snapshot {
	black, white := g.board.Count()

	var winner *string
	if g.winner != "" {
		w := g.winner
		winner = &w
	}

	return Snapshot{
		Board:         g.board.Wire(),
		CurrentPlayer: g.currentColor.String(),
		IsGameOver:    g.isGameOver,
		Winner:        winner,
		BlackCount:    black,
		WhiteCount:    white,
		BlackCanMove:  g.board.CanMove(Black),
		WhiteCanMove:  g.board.CanMove(White),
	}
}

// IsOver reports whether the game has ended.
func (g *Game) IsOver() bool { return g.isGameOver }

// Winner returns the winning player's ID, or "" on a draw or while running.
func (g *Game) Winner() string { return g.winner }

// History returns the moves played so far, in order.
func (g *Game) History() []Move { return g.history }

// Opponent returns the other participant, or false if playerID is not in
// this game.
func (g *Game) Opponent(playerID string) (Player, bool) {
	switch playerID {
	case g.BlackPlayer.ID:
		return g.WhitePlayer, true
	case g.WhitePlayer.ID:
		return g.BlackPlayer, true
	default:
		return Player{}, false
	}
}

// PlayerName resolves a participant ID to its display name.
func (g *Game) PlayerName(playerID string) string {
	switch playerID {
	case g.BlackPlayer.ID:
		return g.BlackPlayer.Name
	case g.WhitePlayer.ID:
		return g.WhitePlayer.Name
	default:
		return ""
	}
}

// PlayerColor returns the color playerID plays, or Empty if not a player.
func (g *Game) PlayerColor(playerID string) Disk {
	switch playerID {
	case g.BlackPlayer.ID:
		return Black
	case g.WhitePlayer.ID:
		return White
	default:
		return Empty
	}
}

// MakeMove validates and applies a move for playerID at (x, y). The
// preconditions are checked in order, each with its own error. On success
// the disk is placed, bracketed runs flip, the move is appended to the
// history and the turn advances (skipping a side with no reply).
func (g *Game) MakeMove(playerID string, x, y int) (MoveResult, error) {
	if g.isGameOver {
		return MoveResult{}, ErrGameOver
	}

	playerColor := g.PlayerColor(playerID)
	if playerColor == Empty {
		return MoveResult{}, ErrNotParticipant
	}

	if playerColor != g.currentColor {
		return MoveResult{}, ErrNotYourTurn
	}

	if !inBounds(x, y) {
		return MoveResult{}, ErrOutOfBounds
	}

	if !g.board.IsValidMove(x, y, playerColor) {
		return MoveResult{}, ErrInvalidMove
	}

	g.board[y][x] = playerColor
	g.board.FlipDisks(x, y, playerColor)
	g.history = append(g.history, Move{PlayerID: playerID, X: x, Y: y, Color: playerColor})

	skipped := g.advanceTurn()

	return MoveResult{State: g.Snapshot(), Skipped: skipped}, nil
}

// advanceTurn hands the turn to the opponent. If the opponent has no valid
// move the turn reverts (pass-skip); if the reverted side also has none the
// game ends. Returns the skipped color, or Empty.
func (g *Game) advanceTurn() Disk {
	g.currentColor = g.currentColor.Opposite()

	if g.board.CanMove(g.currentColor) {
		return Empty
	}

	skipped := g.currentColor
	g.currentColor = g.currentColor.Opposite()

	if !g.board.CanMove(g.currentColor) {
		g.endGame()
	}

	return skipped
}

// endGame marks the game over and determines the winner by disk count.
// Equal counts leave winner unset (draw).
func (g *Game) endGame() {
	g.isGameOver = true

	black, white := g.board.Count()
	switch {
	case black > white:
		g.winner = g.BlackPlayer.ID
	case white > black:
		g.winner = g.WhitePlayer.ID
	}
}

// Resign ends the game in favor of playerID's opponent. The board is left
// untouched.
func (g *Game) Resign(playerID string) (MoveResult, error) {
	if g.isGameOver {
		return MoveResult{}, ErrGameOver
	}

	opponent, ok := g.Opponent(playerID)
	if !ok {
		return MoveResult{}, ErrNotParticipant
	}

	g.isGameOver = true
	g.winner = opponent.ID

	return MoveResult{State: g.Snapshot()}, nil
}
