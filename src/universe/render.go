package universe

import "strings"

const (
	AliveGlyph = '◼'
	DeadGlyph  = '◻'
)

//Render draws the grid as text, one glyph per cell and one line per row
func (u *Universe) Render() string {
	var b strings.Builder
	b.Grow(int(u.size())*3 + int(u.height))
	for i := uint(0); i < u.size(); i++ {
		if u.cells.Test(i) {
			b.WriteRune(AliveGlyph)
		} else {
			b.WriteRune(DeadGlyph)
		}
		if (i+1)%uint(u.width) == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (u *Universe) String() string {
	return u.Render()
}
