// Package vocab maps words to model token ids and back.
package vocab

import (
	"sort"
	"strings"
)

// Reserved marker words.
const (
	Unknown = "<unk>"
	Start   = "<sos>"
	End     = "<eos>"
	Padding = "<pad>"
)

// Vocabulary is the word<->id mapping shipped with the model artifact.
// It is never mutated after New returns, so it can be shared across requests.
type Vocabulary struct {
	word2idx map[string]int
	idx2word map[int]string

	unk, sos, eos, pad int
}

// New copies the given mappings into a Vocabulary.
func New(word2idx map[string]int, idx2word map[int]string) *Vocabulary {
	v := &Vocabulary{
		word2idx: make(map[string]int, len(word2idx)),
		idx2word: make(map[int]string, len(idx2word)),
	}
	for w, id := range word2idx {
		v.word2idx[w] = id
	}
	for id, w := range idx2word {
		v.idx2word[id] = w
	}

	v.unk = v.lookup(Unknown, 0)
	v.sos = v.lookup(Start, 1)
	v.eos = v.lookup(End, 2)
	v.pad = v.lookup(Padding, 0)
	return v
}

func (v *Vocabulary) lookup(word string, fallback int) int {
	if id, ok := v.word2idx[word]; ok {
		return id
	}
	return fallback
}

func (v *Vocabulary) UnknownID() int { return v.unk }
func (v *Vocabulary) StartID() int   { return v.sos }
func (v *Vocabulary) EndID() int     { return v.eos }
func (v *Vocabulary) PadID() int     { return v.pad }

// Size is the number of distinct words in word2idx.
func (v *Vocabulary) Size() int { return len(v.word2idx) }

// ID returns the id for word, or the unknown id.
func (v *Vocabulary) ID(word string) int {
	return v.lookup(word, v.unk)
}

// Word returns the word for id, or "" when the id is not mapped.
func (v *Vocabulary) Word(id int) string {
	return v.idx2word[id]
}

// Encode lower-cases text, splits it on whitespace and maps every word to its id.
func (v *Vocabulary) Encode(text string) []int {
	fields := strings.Fields(strings.ToLower(text))
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, v.ID(f))
	}
	return ids
}

// Decode maps ids back to words joined by single spaces.
// Unmapped ids become empty strings but still take a separator.
func (v *Vocabulary) Decode(ids []int) string {
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = v.Word(id)
	}
	return strings.Join(words, " ")
}

// Words returns the vocabulary words, reserved markers excluded, sorted.
func (v *Vocabulary) Words() []string {
	out := make([]string, 0, len(v.word2idx))
	for w := range v.word2idx {
		if isReserved(w) {
			continue
		}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func isReserved(w string) bool {
	switch w {
	case Unknown, Start, End, Padding:
		return true
	}
	return false
}
