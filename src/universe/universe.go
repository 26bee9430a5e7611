/*
	Package universe is the simulation core: a toroidal grid of cells packed one bit per cell
	and the B3/S23 generation step over it.
	The Universe is not safe for concurrent use, the owner mutates it synchronously.
*/
package universe

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
)

//default dimensions
const (
	DefWidth  = 64
	DefHeight = 64
)

//Coord addresses a single cell
type Coord struct {
	Row uint32
	Col uint32
}

//Universe holds the grid dimensions and the packed cell states
type Universe struct {
	width  uint32
	height uint32
	cells  *bitset.BitSet
}

//New allocates the width x height universe and settles it with the seed
func New(width uint32, height uint32, seed Seed) *Universe {
	u := &Universe{width: width, height: height}
	u.cells = allocate(width, height)
	if seed != nil {
		seed(u)
	}
	return u
}

//NewDefault creates the 64x64 universe settled with the Pattern seed
func NewDefault() *Universe {
	return New(DefWidth, DefHeight, Pattern)
}

func (u *Universe) Width() uint32 {
	return u.width
}

func (u *Universe) Height() uint32 {
	return u.height
}

//Cells returns the packed cell words: cell i is the bit i%64 of the word i/64
//the slice is shared with the universe and stays valid only until the next mutation
func (u *Universe) Cells() []uint64 {
	return u.cells.Bytes()
}

//Cell reports whether the cell at row, col is alive
func (u *Universe) Cell(row uint32, col uint32) bool {
	u.mustContain(row, col)
	return u.cells.Test(u.index(row, col))
}

//LiveCells returns the count of live cells
func (u *Universe) LiveCells() int {
	return int(u.cells.Count())
}

//Clone returns the deep copy of the universe
func (u *Universe) Clone() *Universe {
	return &Universe{width: u.width, height: u.height, cells: u.cells.Clone()}
}

//ToggleCell inverses the cell state at row, col
func (u *Universe) ToggleCell(row uint32, col uint32) {
	u.mustContain(row, col)
	u.cells.Flip(u.index(row, col))
}

//SetCells sets every listed cell to value
func (u *Universe) SetCells(coords []Coord, value bool) {
	for _, c := range coords {
		u.mustContain(c.Row, c.Col)
	}
	for _, c := range coords {
		u.cells.SetTo(u.index(c.Row, c.Col), value)
	}
}

//SetWidth changes the width, all cells become dead
func (u *Universe) SetWidth(width uint32) {
	u.cells = allocate(width, u.height)
	u.width = width
}

//SetHeight changes the height, all cells become dead
func (u *Universe) SetHeight(height uint32) {
	u.cells = allocate(u.width, height)
	u.height = height
}

//Reset kills all cells keeping the dimensions
func (u *Universe) Reset() {
	u.cells.ClearAll()
}

//index converts row, col to the bit position
//the caller guarantees row < height and col < width
func (u *Universe) index(row uint32, col uint32) uint {
	return uint(row)*uint(u.width) + uint(col)
}

func (u *Universe) size() uint {
	return uint(u.width) * uint(u.height)
}

func (u *Universe) mustContain(row uint32, col uint32) {
	if row >= u.height || col >= u.width {
		panic(fmt.Sprintf("universe: cell (%d, %d) is outside the %dx%d grid", row, col, u.width, u.height))
	}
}

//allocate returns the cleared bit array for the width x height grid
//zero dimensions and sizes exceeding int are unrecoverable
func allocate(width uint32, height uint32) *bitset.BitSet {
	if width == 0 || height == 0 {
		panic(fmt.Sprintf("universe: invalid dimension %dx%d", width, height))
	}
	size := uint64(width) * uint64(height)
	if size > math.MaxInt {
		panic(fmt.Sprintf("universe: %dx%d grid does not fit in memory", width, height))
	}
	return bitset.New(uint(size))
}
