// Package scrambler generates obfuscated identifiers and decides which
// identifiers must never be renamed.
package scrambler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/runstack/obfuscator/internal/logging"
)

const (
	// SentinelPrefix starts every generated name. Names carrying it are
	// treated as already obfuscated.
	SentinelPrefix = "_0x"

	// multiplier is odd, so counter*multiplier mod 2^16 is a bijection on the
	// 16-bit space: the first MaxUniqueNames allocations are pairwise distinct.
	multiplier = 16807
	modulus    = 1 << 16

	// MaxUniqueNames is the number of allocations guaranteed collision-free
	// within one run. Past it the 4-hex-digit suffixes start repeating.
	MaxUniqueNames = modulus
)

// NameGenerator hands out deterministic obfuscated names. The same original
// name always yields the same generated name until Reset is called.
//
// A NameGenerator is owned by a single obfuscation run and is not safe for
// concurrent use.
type NameGenerator struct {
	counter   int
	generated map[string]string // original -> generated
	originals map[string]string // generated -> first original
	warned    bool
}

// NewNameGenerator returns a generator with an empty allocation sequence.
func NewNameGenerator() *NameGenerator {
	g := &NameGenerator{}
	g.Reset()
	return g
}

// Generate returns the obfuscated name for originalName, allocating a new one
// on first sight.
func (g *NameGenerator) Generate(originalName string) string {
	if name, ok := g.generated[originalName]; ok {
		return name
	}

	g.counter++
	if g.counter > MaxUniqueNames && !g.warned {
		g.warned = true
		logging.Warningf("name generator passed %d allocations; generated names may repeat", MaxUniqueNames)
	}

	name := FormatName(g.counter)
	g.generated[originalName] = name
	if _, taken := g.originals[name]; !taken {
		g.originals[name] = originalName
	}
	return name
}

// Reset clears the cache and restarts the allocation sequence.
func (g *NameGenerator) Reset() {
	g.counter = 0
	g.generated = make(map[string]string)
	g.originals = make(map[string]string)
	g.warned = false
}

// Len returns the number of distinct original names seen since the last Reset.
func (g *NameGenerator) Len() int {
	return g.counter
}

// Lookup returns the generated name for originalName without allocating.
func (g *NameGenerator) Lookup(originalName string) (string, bool) {
	name, ok := g.generated[originalName]
	return name, ok
}

// Reverse returns the original name a generated name was first assigned to.
func (g *NameGenerator) Reverse(generatedName string) (string, bool) {
	original, ok := g.originals[strings.TrimPrefix(generatedName, "$")]
	return original, ok
}

// Mappings returns a copy of the original -> generated table.
func (g *NameGenerator) Mappings() map[string]string {
	out := make(map[string]string, len(g.generated))
	for k, v := range g.generated {
		out[k] = v
	}
	return out
}

// SortedOriginals lists the mapped original names in lexical order.
func (g *NameGenerator) SortedOriginals() []string {
	names := make([]string, 0, len(g.generated))
	for k := range g.generated {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FormatName renders the name allocated for the given counter value.
func FormatName(counter int) string {
	return fmt.Sprintf("%s%04x", SentinelPrefix, (counter*multiplier)%modulus)
}

// IsGenerated reports whether name carries the sentinel prefix.
func IsGenerated(name string) bool {
	return strings.HasPrefix(name, SentinelPrefix)
}
