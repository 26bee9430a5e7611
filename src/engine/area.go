package engine

import "torlife/src/universe"

//Area is the snapshot of the field where cells are living
//it is detached from the engine and can be read from any goroutine
type Area struct {
	Width  int
	Height int
	u      *universe.Universe
}

func newArea(u *universe.Universe) Area {
	return Area{Width: int(u.Width()), Height: int(u.Height()), u: u.Clone()}
}

//Alive reports the cell state at point x, y, the points outside the area are dead
func (a Area) Alive(x int, y int) bool {
	if a.u == nil || x < 0 || y < 0 || x >= a.Width || y >= a.Height {
		return false
	}
	return a.u.Cell(uint32(y), uint32(x))
}

//LiveCells returns the count of live cells in the snapshot
func (a Area) LiveCells() int {
	if a.u == nil {
		return 0
	}
	return a.u.LiveCells()
}

//Render returns the text picture of the snapshot
func (a Area) Render() string {
	if a.u == nil {
		return ""
	}
	return a.u.Render()
}
