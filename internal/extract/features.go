package extract

// Features is an insertion-ordered mapping from feature name to a scalar
// value (string, int, float64, or bool). Setting an existing name overwrites
// the value but keeps the original position, so duplicate header tags are
// last-wins without disturbing column order.
type Features struct {
	names  []string
	values map[string]any
}

func NewFeatures() *Features {
	return &Features{values: make(map[string]any)}
}

func (f *Features) Set(name string, v any) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = v
}

func (f *Features) Get(name string) (any, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Names returns the feature names in first-set order.
func (f *Features) Names() []string {
	return f.names
}

func (f *Features) Len() int {
	return len(f.names)
}
