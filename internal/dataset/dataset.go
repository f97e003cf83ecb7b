package dataset

// Point is one logical row: a mapping from column name to field value plus
// the `_meta` provenance tree. A missing field is equivalent to null.
type Point struct {
	fields map[string]Value
	meta   *Meta
}

// NewPoint creates an empty data point
func NewPoint() *Point {
	return &Point{fields: make(map[string]Value)}
}

// Set stores a field value under column
func (p *Point) Set(column string, v Value) {
	p.fields[column] = v
}

// Get returns the field value for column and whether the field is present
func (p *Point) Get(column string) (Value, bool) {
	v, ok := p.fields[column]
	return v, ok
}

// Fields returns the underlying field map
func (p *Point) Fields() map[string]Value {
	return p.fields
}

// Meta returns the point's provenance tree, creating it on first use
func (p *Point) Meta() *Meta {
	if p.meta == nil {
		p.meta = NewMeta()
	}
	return p.meta
}

// HasMeta reports whether the point carries any provenance
func (p *Point) HasMeta() bool {
	return p.meta != nil && !p.meta.IsEmpty()
}

// Clone performs a deep copy of fields and meta
func (p *Point) Clone() *Point {
	clone := NewPoint()
	for column, value := range p.fields {
		clone.fields[column] = value
	}
	if p.meta != nil {
		clone.meta = p.meta.Clone()
	}
	return clone
}

// Dataset is an ordered sequence of data points plus an ordered,
// duplicate-free list of column names. Column order is first-appearance
// order across the input rows; a point's position in the sequence is its
// row identity.
type Dataset struct {
	columns []string
	index   map[string]int
	points  []*Point
}

// New creates a dataset with the given column layout
func New(columns []string) *Dataset {
	d := &Dataset{index: make(map[string]int, len(columns))}
	for _, column := range columns {
		d.EnsureColumn(column)
	}
	return d
}

// EnsureColumn registers a column on first appearance and returns its index
func (d *Dataset) EnsureColumn(name string) int {
	if idx, ok := d.index[name]; ok {
		return idx
	}
	idx := len(d.columns)
	d.columns = append(d.columns, name)
	d.index[name] = idx
	return idx
}

// Columns returns the ordered column names
func (d *Dataset) Columns() []string {
	return d.columns
}

// ColumnCount returns the number of columns
func (d *Dataset) ColumnCount() int {
	return len(d.columns)
}

// ColumnIndex returns the position of a column in the layout
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	idx, ok := d.index[name]
	return idx, ok
}

// HasColumn reports whether the layout contains name
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Append adds a point to the end of the row sequence
func (d *Dataset) Append(p *Point) {
	d.points = append(d.points, p)
}

// Points returns the ordered row sequence
func (d *Dataset) Points() []*Point {
	return d.points
}

// ReplacePoints swaps the row sequence while keeping the column layout
func (d *Dataset) ReplacePoints(points []*Point) {
	d.points = points
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.points)
}

// Clone performs a deep copy of the layout and every point
func (d *Dataset) Clone() *Dataset {
	clone := New(d.columns)
	clone.points = make([]*Point, 0, len(d.points))
	for _, point := range d.points {
		clone.points = append(clone.points, point.Clone())
	}
	return clone
}
