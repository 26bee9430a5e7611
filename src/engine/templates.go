package engine

//DefaultTemplates returns the built-in seeding templates
func DefaultTemplates() []Template {
	return []Template{
		{
			Name:  "sample",
			Descr: "the test sample with 3 stable patterns",
			Coordinates: [][]int{
				{1, 1}, {1, 2},
				{2, 1}, {2, 2},
				{3, 3},
				{4, 2},
				{4, 3},
				{5, 3},
			},
		},
		{
			Name:        "glider",
			Descr:       "the spaceship travelling down and right",
			Coordinates: [][]int{{1, 0}, {2, 1}, {0, 2}, {1, 2}, {2, 2}},
		},
		{
			Name:        "blinker",
			Descr:       "the period 2 oscillator",
			Coordinates: [][]int{{1, 2}, {2, 2}, {3, 2}},
		},
		{
			Name:        "block",
			Descr:       "the still life",
			Coordinates: [][]int{{1, 1}, {2, 1}, {1, 2}, {2, 2}},
		},
	}
}

//Shape is the set of [dx,dy] offsets stamped around a point
type Shape [][]int

//shapes stamped by the interactive viewer
var (
	//ShapeLine is the vertical 3-cell line centered on the point
	ShapeLine = Shape{{0, 0}, {0, 1}, {0, -1}}
	//ShapeGlider is the glider with the point at its bottom left cell
	ShapeGlider = Shape{{0, 0}, {0, -1}, {0, -2}, {1, 0}, {2, -1}}
)
