// Package compose turns a final diagnosis label into the message shown to
// the user.
package compose

import (
	_ "embed"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// FallbackAdvice is used for labels missing from the advice table.
const FallbackAdvice = "Please consult a general physician for a proper diagnosis."

// UnknownCondition names the diagnosis when the model produced no label.
const UnknownCondition = "an unidentified condition"

const (
	prefix    = "🩺 "
	separator = "\n\n💡 **Advice:**\n"
)

// Openers name the diagnosis. They differ only in wording.
var Openers = []string{
	"Based on your symptoms, this looks like **%s**.",
	"Your symptoms are most consistent with **%s**.",
	"From what you describe, the likely condition is **%s**.",
}

//go:embed advice.yaml
var adviceYAML []byte

var adviceTable = mustParseAdvice(adviceYAML)

func mustParseAdvice(raw []byte) map[string]string {
	table := map[string]string{}
	if err := yaml.Unmarshal(raw, &table); err != nil {
		panic(fmt.Sprintf("compose: parse advice table: %v", err))
	}
	return table
}

// Picker chooses an index in [0, n). *rand.Rand satisfies it.
type Picker interface {
	IntN(n int) int
}

// Composer formats diagnosis messages. Safe for concurrent use.
type Composer struct {
	mu     sync.Mutex
	picker Picker
	title  cases.Caser
}

// New returns a Composer that picks openers with p.
func New(p Picker) *Composer {
	return &Composer{
		picker: p,
		title:  cases.Title(language.English),
	}
}

// NewSeeded returns a Composer with a PCG source seeded by seed;
// seed 0 seeds from the clock.
func NewSeeded(seed uint64) *Composer {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // phrasing only
	}
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Advice looks up the advice block for label.
func (c *Composer) Advice(label string) (string, bool) {
	advice, ok := adviceTable[strings.ToLower(strings.TrimSpace(label))]
	return advice, ok
}

// Compose renders the message for label.
func (c *Composer) Compose(label string) string {
	advice, ok := c.Advice(label)
	if !ok {
		advice = FallbackAdvice
	}

	c.mu.Lock()
	opener := Openers[c.picker.IntN(len(Openers))]
	name := UnknownCondition
	if strings.TrimSpace(label) != "" {
		name = c.title.String(label)
	}
	c.mu.Unlock()

	return prefix + fmt.Sprintf(opener, name) + separator + advice
}

// Labels returns the labels that have advice, sorted.
func Labels() []string {
	return slices.Sorted(maps.Keys(adviceTable))
}
