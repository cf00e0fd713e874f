// Package grid holds the arithmetic of the 100-cell ring the game is played on.
package grid

import "fmt"

// Size is the number of cells on the track.
const Size = 100

type Position int

type Direction uint8

const (
	DirectionForward  Direction = 1
	DirectionBackward Direction = 2
)

func (d Direction) Valid() bool {
	return d == DirectionForward || d == DirectionBackward
}

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

var primes = []Position{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97}

var primeCells = func() [Size]bool {
	var cells [Size]bool
	for _, p := range primes {
		cells[p] = true
	}
	return cells
}()

func Valid(p Position) bool {
	return p >= 0 && p < Size
}

func Successor(p Position) Position {
	return (p + 1) % Size
}

func Predecessor(p Position) Position {
	return (p + Size - 1) % Size
}

// Step moves p one cell in direction d. Unknown directions leave p unchanged.
func Step(p Position, d Direction) Position {
	switch d {
	case DirectionForward:
		return Successor(p)
	case DirectionBackward:
		return Predecessor(p)
	default:
		return p
	}
}

func IsPrime(p Position) bool {
	if !Valid(p) {
		return false
	}
	return primeCells[p]
}

// Primes returns a copy of the prime cells in ascending order.
func Primes() []Position {
	out := make([]Position, len(primes))
	copy(out, primes)
	return out
}

// Normalize reduces a raw random word into a cell.
func Normalize(v uint64) Position {
	return Position(v % Size)
}
