package counter

import (
	"slices"
	"sort"
)

// Freq is a frequency map that remembers first-insertion order, so tied
// counts always come out in the order their keys were first seen.
type Freq struct {
	counts map[string]int
	order  []string
}

type Entry struct {
	Key   string
	Count int
}

func NewFreq() *Freq {
	return &Freq{counts: make(map[string]int)}
}

// FromEntries builds a Freq in the given order. Repeated keys add up.
func FromEntries(entries ...Entry) *Freq {
	f := NewFreq()
	for _, e := range entries {
		f.Add(e.Key, e.Count)
	}
	return f
}

func (f *Freq) Inc(key string) {
	f.Add(key, 1)
}

// Add increases key by n. Non-positive n is ignored.
func (f *Freq) Add(key string, n int) {
	if n <= 0 {
		return
	}
	if _, ok := f.counts[key]; !ok {
		f.order = append(f.order, key)
	}
	f.counts[key] += n
}

func (f *Freq) Get(key string) int {
	return f.counts[key]
}

func (f *Freq) Has(key string) bool {
	_, ok := f.counts[key]
	return ok
}

// Len is the number of distinct keys.
func (f *Freq) Len() int {
	return len(f.order)
}

// Total is the sum of all counts.
func (f *Freq) Total() int {
	total := 0
	for _, n := range f.counts {
		total += n
	}
	return total
}

// Keys returns the keys in first-insertion order.
func (f *Freq) Keys() []string {
	return slices.Clone(f.order)
}

// MostCommon returns up to n entries by descending count; n <= 0 returns all.
func (f *Freq) MostCommon(n int) []Entry {
	entries := make([]Entry, len(f.order))
	for i, k := range f.order {
		entries[i] = Entry{Key: k, Count: f.counts[k]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

func (f *Freq) Clone() *Freq {
	c := &Freq{counts: make(map[string]int, len(f.counts)), order: slices.Clone(f.order)}
	for k, v := range f.counts {
		c.counts[k] = v
	}
	return c
}

// Equal reports whether both maps hold the same counts, ignoring order.
func (f *Freq) Equal(other *Freq) bool {
	if f.Len() != other.Len() {
		return false
	}
	for k, v := range f.counts {
		if other.counts[k] != v {
			return false
		}
	}
	return true
}
