package value

// Parameters is an ordered collection of values, optionally keyed by name.
//
// Every entry occupies a position, named or not, so At(i) walks all entries
// in the order they were first added. Re-adding a name replaces the value in
// place and keeps its position.
type Parameters struct {
	names  []string // "" for positional entries
	values []Value
	index  map[string]int
}

// NewParameters returns an empty collection.
func NewParameters() *Parameters {
	return &Parameters{index: make(map[string]int)}
}

// Put appends a positional value.
func (p *Parameters) Put(v Value) {
	p.names = append(p.names, "")
	p.values = append(p.values, v)
}

// PutNamed adds a value under name, overwriting any earlier value with that name.
func (p *Parameters) PutNamed(name string, v Value) {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	if i, ok := p.index[name]; ok {
		p.values[i] = v
		return
	}
	p.index[name] = len(p.values)
	p.names = append(p.names, name)
	p.values = append(p.values, v)
}

// Len returns the number of entries.
func (p *Parameters) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

// At returns the entry at position i.
func (p *Parameters) At(i int) (Value, bool) {
	if p == nil || i < 0 || i >= len(p.values) {
		return Value{}, false
	}
	return p.values[i], true
}

// Get returns the entry stored under name.
func (p *Parameters) Get(name string) (Value, bool) {
	if p == nil || p.index == nil {
		return Value{}, false
	}
	i, ok := p.index[name]
	if !ok {
		return Value{}, false
	}
	return p.values[i], true
}

// NameAt returns the name of the entry at position i, or "" if positional.
func (p *Parameters) NameAt(i int) string {
	if p == nil || i < 0 || i >= len(p.names) {
		return ""
	}
	return p.names[i]
}
