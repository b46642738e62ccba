package raster

// Layer is a dense 2-D numeric grid over a fixed spatial domain. Values are
// stored row-major in a flat slice; Valid is a parallel mask where false marks
// cells that carry no observation and must be excluded from reductions.
//
// Layers are treated as immutable once handed to a consumer: every pipeline
// stage allocates a fresh Layer for its output.
type Layer struct {
	Rows int
	Cols int

	Values []float64
	Valid  []bool
}

// NewLayer allocates a layer with every cell marked invalid.
func NewLayer(rows, cols int) *Layer {
	return &Layer{
		Rows:   rows,
		Cols:   cols,
		Values: make([]float64, rows*cols),
		Valid:  make([]bool, rows*cols),
	}
}

// Idx converts a (row, col) pair to a flat cell index.
func (l *Layer) Idx(row, col int) int { return row*l.Cols + col }

// Size returns the number of cells in the layer.
func (l *Layer) Size() int { return l.Rows * l.Cols }

// Set stores a valid value at the flat index i.
func (l *Layer) Set(i int, v float64) {
	l.Values[i] = v
	l.Valid[i] = true
}

// At returns the value at flat index i and whether it is valid.
func (l *Layer) At(i int) (float64, bool) {
	return l.Values[i], l.Valid[i]
}

// SameShape reports whether two layers cover the same spatial domain.
func (l *Layer) SameShape(o *Layer) bool {
	return o != nil && l.Rows == o.Rows && l.Cols == o.Cols
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	c := NewLayer(l.Rows, l.Cols)
	copy(c.Values, l.Values)
	copy(c.Valid, l.Valid)
	return c
}

// ValidCount returns the number of valid cells.
func (l *Layer) ValidCount() int {
	n := 0
	for _, ok := range l.Valid {
		if ok {
			n++
		}
	}
	return n
}
