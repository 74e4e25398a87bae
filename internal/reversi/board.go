package reversi

// BoardSize is the side length of the playing field.
const BoardSize = 8

// Disk is the content of a single board cell.
type Disk uint8

const (
	Empty Disk = iota
	Black
	White
)

// String returns the wire form of a disk color ("black"/"white").
// Empty cells have no wire form and return "".
func (d Disk) String() string {
	switch d {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return ""
	}
}

// Opposite returns the other color. Empty maps to Empty.
func (d Disk) Opposite() Disk {
	switch d {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

// Board is an 8x8 grid indexed [y][x].
type Board [BoardSize][BoardSize]Disk

// directions are the eight unit vectors a run of flipped disks can follow.
var directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// NewBoard returns a board holding the standard opening position.
func NewBoard() Board {
	var b Board
	b[3][3] = White
	b[3][4] = Black
	b[4][3] = Black
	b[4][4] = White
	return b
}

func inBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// IsValidMove reports whether placing color at (x, y) flips at least one
// opposing disk: some direction holds a non-empty run of the opposite color
// terminated by a same-color disk.
func (b *Board) IsValidMove(x, y int, color Disk) bool {
	if !inBounds(x, y) || b[y][x] != Empty {
		return false
	}

	for _, d := range directions {
		dx, dy := d[0], d[1]
		nx, ny := x+dx, y+dy

		if !inBounds(nx, ny) || b[ny][nx] != color.Opposite() {
			continue
		}

		nx += dx
		ny += dy
	walk:
		for inBounds(nx, ny) {
			switch b[ny][nx] {
			case color:
				return true
			case Empty:
				break walk
			default:
				nx += dx
				ny += dy
			}
		}
	}

	return false
}

// FlipDisks turns every bracketed run around (x, y) to color. The disk at
// (x, y) itself is placed by the caller beforehand.
func (b *Board) FlipDisks(x, y int, color Disk) {
	for _, d := range directions {
		dx, dy := d[0], d[1]
		nx, ny := x+dx, y+dy

		if !inBounds(nx, ny) || b[ny][nx] != color.Opposite() {
			continue
		}

		toFlip := [][2]int{{nx, ny}}
		nx += dx
		ny += dy

	walk:
		for inBounds(nx, ny) {
			switch b[ny][nx] {
			case color:
				for _, f := range toFlip {
					b[f[1]][f[0]] = color
				}
				break walk
			case Empty:
				break walk
			default:
				toFlip = append(toFlip, [2]int{nx, ny})
				nx += dx
				ny += dy
			}
		}
	}
}

// CanMove reports whether color has at least one valid move anywhere.
func (b *Board) CanMove(color Disk) bool {
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if b.IsValidMove(x, y, color) {
				return true
			}
		}
	}
	return false
}

// Count returns the number of black and white disks on the board.
func (b *Board) Count() (black, white int) {
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			switch b[y][x] {
			case Black:
				black++
			case White:
				white++
			}
		}
	}
	return black, white
}

// Wire returns the board in wire form: each cell is "black", "white" or nil.
func (b *Board) Wire() [BoardSize][BoardSize]*string {
	var out [BoardSize][BoardSize]*string
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if c := b[y][x]; c != Empty {
				s := c.String()
				out[y][x] = &s
			}
		}
	}
	return out
}
