package batch

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// SchemaSet is the running union of every feature name observed across all
// batches of a run.
type SchemaSet map[string]struct{}

func NewSchemaSet() SchemaSet {
	return make(SchemaSet)
}

func (s SchemaSet) Add(name string) {
	s[name] = struct{}{}
}

// Names returns all observed names in lexicographic order.
func (s SchemaSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteManifest writes the sorted column-name union, one name per line.
// Identical sets always produce byte-identical output.
func WriteManifest(path string, s SchemaSet) error {
	var b strings.Builder
	for _, name := range s.Names() {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("%w: manifest %s: %v", ErrArtifactWrite, path, err)
	}
	return nil
}
