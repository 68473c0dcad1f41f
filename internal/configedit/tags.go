// Package configedit holds the editors behind the configuration screen. Each
// editor keeps the last saved baseline next to the working copy and sends
// only the difference on save.
package configedit

import (
	"strings"

	"pitchdesk/internal/model"
)

// TagSet is an ordered list of unique strings.
type TagSet struct {
	original []string
	current  []string
}

// NewTagSet starts from the stored list. The working copy is de-duplicated
// while the baseline keeps every stored entry, so a value stored twice is
// removed with a single remove entry (the backend drops every occurrence).
func NewTagSet(items []string) *TagSet {
	t := &TagSet{original: []string{}}
	for _, v := range items {
		if v = strings.TrimSpace(v); v != "" {
			t.original = append(t.original, v)
		}
		t.Add(v)
	}
	return t
}

// Items returns a copy of the working list.
func (t *TagSet) Items() []string { return append([]string{}, t.current...) }

func (t *TagSet) Len() int { return len(t.current) }

func (t *TagSet) Contains(v string) bool {
	for _, c := range t.current {
		if c == v {
			return true
		}
	}
	return false
}

// Add appends v after trimming; blanks and duplicates are ignored.
func (t *TagSet) Add(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || t.Contains(v) {
		return false
	}
	t.current = append(t.current, v)
	return true
}

func (t *TagSet) Remove(v string) bool {
	for i, c := range t.current {
		if c == v {
			t.current = append(t.current[:i:i], t.current[i+1:]...)
			return true
		}
	}
	return false
}

func (t *TagSet) Diff() model.TagDiff { return ComputeDiff(t.original, t.current) }

func (t *TagSet) Dirty() bool { return !t.Diff().Empty() }

// Commit makes the working list the new baseline.
func (t *TagSet) Commit() { t.original = append([]string{}, t.current...) }

// CommitTo makes items the saved baseline and leaves the working list alone.
// Use it with the list that was sent when edits may have landed since.
func (t *TagSet) CommitTo(items []string) { t.original = append([]string{}, items...) }

// Reset drops unsaved changes.
func (t *TagSet) Reset() { t.current = append([]string{}, t.original...) }

// ComputeDiff returns what to add to and remove from original to reach
// current, in order of appearance.
func ComputeDiff(original, current []string) model.TagDiff {
	in := func(list []string, v string) bool {
		for _, x := range list {
			if x == v {
				return true
			}
		}
		return false
	}
	d := model.TagDiff{Add: []string{}, Remove: []string{}}
	for _, v := range current {
		if !in(original, v) && !in(d.Add, v) {
			d.Add = append(d.Add, v)
		}
	}
	for _, v := range original {
		if !in(current, v) && !in(d.Remove, v) {
			d.Remove = append(d.Remove, v)
		}
	}
	return d
}

// KeywordSets is one TagSet per keyword section.
type KeywordSets struct {
	sections []string
	sets     map[string]*TagSet
}

// NewKeywordSets builds the fixed sections from data; missing sections start empty.
func NewKeywordSets(data map[string][]string) *KeywordSets {
	k := &KeywordSets{
		sections: append([]string{}, model.KeywordSections...),
		sets:     make(map[string]*TagSet, len(model.KeywordSections)),
	}
	for _, s := range k.sections {
		k.sets[s] = NewTagSet(data[s])
	}
	return k
}

func (k *KeywordSets) Sections() []string { return append([]string{}, k.sections...) }

// Section returns the set for name, or nil for an unknown section.
func (k *KeywordSets) Section(name string) *TagSet { return k.sets[name] }

// Payload is the save body: every section with its add/remove lists.
func (k *KeywordSets) Payload() map[string]model.TagDiff {
	out := make(map[string]model.TagDiff, len(k.sections))
	for _, s := range k.sections {
		out[s] = k.sets[s].Diff()
	}
	return out
}

func (k *KeywordSets) Dirty() bool {
	for _, s := range k.sections {
		if k.sets[s].Dirty() {
			return true
		}
	}
	return false
}

func (k *KeywordSets) Commit() {
	for _, s := range k.sections {
		k.sets[s].Commit()
	}
}

// Snapshot copies the working list of every section.
func (k *KeywordSets) Snapshot() map[string][]string {
	out := make(map[string][]string, len(k.sections))
	for _, s := range k.sections {
		out[s] = k.sets[s].Items()
	}
	return out
}

// CommitTo makes a Snapshot the saved baseline.
func (k *KeywordSets) CommitTo(snap map[string][]string) {
	for _, s := range k.sections {
		if items, ok := snap[s]; ok {
			k.sets[s].CommitTo(items)
		}
	}
}
