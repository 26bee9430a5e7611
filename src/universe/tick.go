package universe

import "github.com/bits-and-blooms/bitset"

//Tick advances the universe by one generation
//every cell is evaluated against the current generation and written to a separate buffer,
//the buffer replaces the cells when the whole grid is calculated
//returns the live cells count of the new generation and whether any cell has changed
func (u *Universe) Tick() (live int, changed bool) {
	next := bitset.New(u.size())
	for row := uint32(0); row < u.height; row++ {
		for col := uint32(0); col < u.width; col++ {
			idx := u.index(row, col)
			if nextState(u.cells.Test(idx), u.liveNeighborCount(row, col)) {
				next.Set(idx)
			}
		}
	}
	changed = !next.Equal(u.cells)
	u.cells = next
	return int(next.Count()), changed
}

//nextState applies B3/S23
func nextState(alive bool, liveNeighbors uint8) bool {
	switch {
	case alive && liveNeighbors < 2:
		//underpopulation
		return false
	case alive && (liveNeighbors == 2 || liveNeighbors == 3):
		return true
	case alive && liveNeighbors > 3:
		//overpopulation
		return false
	case !alive && liveNeighbors == 3:
		//reproduction
		return true
	}
	return alive
}

//liveNeighborCount counts live cells among the 8 neighbors of row, col
//the edges wrap: height-1 and width-1 deltas stand for -1 modulo the dimension
func (u *Universe) liveNeighborCount(row uint32, col uint32) (count uint8) {
	for _, dr := range [3]uint32{u.height - 1, 0, 1} {
		for _, dc := range [3]uint32{u.width - 1, 0, 1} {
			//skip my position
			if dr == 0 && dc == 0 {
				continue
			}
			nr := uint32((uint64(row) + uint64(dr)) % uint64(u.height))
			nc := uint32((uint64(col) + uint64(dc)) % uint64(u.width))
			if u.cells.Test(u.index(nr, nc)) {
				count++
			}
		}
	}
	return
}
