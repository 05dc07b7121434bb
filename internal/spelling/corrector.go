// Package spelling normalizes user text before tokenization.
package spelling

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// words.txt holds "word count" lines: general English counts derived from
// frequency rank, with symptom vocabulary raised to a common floor.
//
//go:embed words.txt
var builtinWords []byte

const (
	letters = "abcdefghijklmnopqrstuvwxyz"

	// vocabularyCount is the count given to model vocabulary words, above
	// every built-in symptom term.
	vocabularyCount = 100000

	// maxDoubledStem bounds stems whose final consonant doubles before a
	// suffix (stop, stopped). Longer stems rarely double, and accepting
	// them would hide misspellings such as "vomitting".
	maxDoubledStem = 4
)

var builtinCounts = mustParseCounts(builtinWords)

func mustParseCounts(raw []byte) map[string]int {
	counts := map[string]int{}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			panic(fmt.Sprintf("spelling: words.txt:%d: want \"word count\"", line))
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			panic(fmt.Sprintf("spelling: words.txt:%d: bad count %q", line, fields[1]))
		}
		counts[fields[0]] = n
	}
	return counts
}

// suffixes are tried when a word is not in the dictionary as typed. restore
// is appended to the stem (tries -> try, hoping -> hope).
var suffixes = []struct {
	suffix, restore string
	doubles         bool
}{
	{"iest", "y", false},
	{"ier", "y", false},
	{"ies", "y", false},
	{"ied", "y", false},
	{"ily", "y", false},
	{"ing", "e", false},
	{"ing", "", true},
	{"est", "", true},
	{"ed", "e", false},
	{"ed", "", true},
	{"er", "", true},
	{"es", "", false},
	{"ly", "", false},
	{"s", "", false},
	{"d", "", false},
	{"y", "e", false},
	{"y", "", true},
}

// Identity leaves text untouched.
type Identity struct{}

func (Identity) Correct(text string) string { return text }

// Corrector fixes misspelled words by choosing the most frequent known word
// within edit distance one, then two. Read-only after construction.
type Corrector struct {
	counts map[string]int
}

// NewCorrector builds a corrector over the built-in frequency table plus
// extra, typically the model vocabulary. extra words outrank built-in ones.
func NewCorrector(extra []string) *Corrector {
	c := &Corrector{counts: make(map[string]int, len(builtinCounts)+len(extra))}
	for w, n := range builtinCounts {
		c.counts[w] = n
	}
	for _, w := range extra {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || !isWord(w) {
			continue
		}
		c.counts[w] = max(c.counts[w], vocabularyCount)
	}
	return c
}

// Known reports whether word, or a regular inflection of a dictionary word,
// is spelled correctly.
func (c *Corrector) Known(word string) bool {
	return c.known(strings.ToLower(word))
}

func (c *Corrector) known(w string) bool {
	if _, ok := c.counts[w]; ok {
		return true
	}
	for _, s := range suffixes {
		stem, ok := strings.CutSuffix(w, s.suffix)
		if !ok || len(stem) < 3 {
			continue
		}
		if _, ok := c.counts[stem+s.restore]; ok {
			return true
		}
		if s.doubles && len(stem) > 3 && len(stem) <= maxDoubledStem+1 && stem[len(stem)-1] == stem[len(stem)-2] {
			if _, ok := c.counts[stem[:len(stem)-1]]; ok {
				return true
			}
		}
	}
	return false
}

// Correct corrects each whitespace separated word, keeping surrounding
// punctuation. Unknown words with no close match are left as typed.
func (c *Corrector) Correct(text string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		lead, core, trail := splitPunct(f)
		if fixed, ok := c.correctWord(core); ok {
			fields[i] = lead + fixed + trail
		}
	}
	return strings.Join(fields, " ")
}

func (c *Corrector) correctWord(word string) (string, bool) {
	lower := strings.ToLower(word)
	if len(lower) < 3 || !isWord(lower) {
		return "", false
	}
	if c.known(lower) {
		return "", false
	}

	e1 := edits(lower)
	if best, ok := c.best(e1); ok {
		return best, true
	}
	var e2 []string
	for _, e := range e1 {
		e2 = append(e2, edits(e)...)
	}
	return c.best(e2)
}

// best picks the most frequent known candidate; ties go to the
// lexicographically smallest word.
func (c *Corrector) best(candidates []string) (string, bool) {
	var (
		pick  string
		count int
	)
	for _, cand := range candidates {
		n, ok := c.counts[cand]
		if !ok {
			continue
		}
		if n > count || (n == count && cand < pick) {
			pick, count = cand, n
		}
	}
	return pick, count > 0
}

// edits returns all strings one delete, transpose, replace or insert away.
func edits(word string) []string {
	out := make([]string, 0, 54*len(word)+25)
	for i := 0; i <= len(word); i++ {
		left, right := word[:i], word[i:]
		if right != "" {
			out = append(out, left+right[1:])
		}
		if len(right) > 1 {
			out = append(out, left+string(right[1])+string(right[0])+right[2:])
		}
		for _, r := range letters {
			if right != "" {
				out = append(out, left+string(r)+right[1:])
			}
			out = append(out, left+string(r)+right)
		}
	}
	return out
}

func isWord(w string) bool {
	for _, r := range w {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func splitPunct(s string) (lead, core, trail string) {
	start := strings.IndexFunc(s, isLetterOrDigit)
	if start < 0 {
		return s, "", ""
	}
	end := strings.LastIndexFunc(s, isLetterOrDigit) + 1
	return s[:start], s[start:end], s[end:]
}

func isLetterOrDigit(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
