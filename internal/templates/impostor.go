package templates

import (
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/ayusman/signcoach/internal/gesture"
)

// TemplateDict maps symbols to their loaded templates.
type TemplateDict map[string][]*gesture.Template

// Count returns the total number of templates in d.
func (d TemplateDict) Count() int {
	var n int
	for _, ts := range d {
		n += len(ts)
	}
	return n
}

// SelectImpostorTemplates samples count distinct symbols other than exclude
// and returns one random template of each. Symbols without templates are
// never picked. A nil rng uses the global source.
func SelectImpostorTemplates(dict TemplateDict, exclude string, count int, rng *rand.Rand) []*gesture.Template {
	if count <= 0 {
		return nil
	}

	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}

	symbols := slices.DeleteFunc(slices.Sorted(maps.Keys(dict)), func(s string) bool {
		return s == exclude || len(dict[s]) == 0
	})

	// Partial Fisher-Yates: the first n entries become the sample.
	n := min(count, len(symbols))
	for i := range n {
		j := i + intn(len(symbols)-i)
		symbols[i], symbols[j] = symbols[j], symbols[i]
	}

	impostors := make([]*gesture.Template, 0, n)
	for _, s := range symbols[:n] {
		ts := dict[s]
		impostors = append(impostors, ts[intn(len(ts))])
	}
	return impostors
}
