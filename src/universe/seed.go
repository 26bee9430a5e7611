package universe

import "golang.org/x/exp/rand"

//Source provides uniform random values in [0, 1)
type Source interface {
	Float64() float64
}

//Seed settles the freshly allocated universe
type Seed func(u *Universe)

//Empty leaves all cells dead
var Empty Seed = func(u *Universe) {}

//Pattern settles the deterministic demo pattern: the cell is alive when idx%2 == 0 or idx%7 == 0
var Pattern Seed = func(u *Universe) {
	for i := uint(0); i < u.size(); i++ {
		u.cells.SetTo(i, i%2 == 0 || i%7 == 0)
	}
}

//Random settles each cell alive with probability 0.5 drawn from src
func Random(src Source) Seed {
	return func(u *Universe) {
		u.Randomize(src)
	}
}

//Randomize makes each cell alive with probability 0.5
func (u *Universe) Randomize(src Source) {
	for i := uint(0); i < u.size(); i++ {
		u.cells.SetTo(i, src.Float64() < 0.5)
	}
}

//NewSource returns the pseudo-random Source seeded with seed
func NewSource(seed uint64) Source {
	return rand.New(rand.NewSource(seed))
}
