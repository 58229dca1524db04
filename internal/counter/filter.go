package counter

import (
	"sort"
	"strings"

	"github.com/wgomg/vocabula/internal/vocab"
)

// Filter returns a copy of f without the keys whose lowercase form is in
// exclude. f is not modified.
func Filter(f *Freq, exclude vocab.Set) *Freq {
	out := NewFreq()
	for _, k := range f.order {
		if exclude.Has(strings.ToLower(k)) {
			continue
		}
		out.Add(k, f.counts[k])
	}
	return out
}

// Merge returns a new map holding a[k] + b[k] for every key of either.
func Merge(a, b *Freq) *Freq {
	out := a.Clone()
	for _, k := range b.order {
		out.Add(k, b.counts[k])
	}
	return out
}

// Compose sums every group's map. Groups are visited in name order so the
// tie order of the result does not depend on map iteration.
func Compose(groups map[string]*Freq) *Freq {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := NewFreq()
	for _, name := range names {
		g := groups[name]
		if g == nil {
			continue
		}
		for _, k := range g.order {
			out.Add(k, g.counts[k])
		}
	}
	return out
}
