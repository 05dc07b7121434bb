package spelling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrect(t *testing.T) {
	c := NewCorrector(nil)

	cases := map[string]string{
		"I have fevr and chillls":     "I have fever and chills",
		"yelow skin, dark urine":      "yellow skin, dark urine",
		"vomitting and diarrhea":      "vomiting and diarrhea",
		"hedache since morning!":      "headache since morning!",
		"fever and chills":            "fever and chills",
		"xqzt":                        "xqzt",
		"  fever   chills ":           "fever chills",
		"temperature 102, (shivring)": "temperature 102, (shivering)",
	}
	for in, want := range cases {
		assert.Equal(t, want, c.Correct(in), in)
	}
}

func TestCommonWordsUntouched(t *testing.T) {
	c := NewCorrector(nil)

	for _, w := range []string{"child", "never", "paint", "five"} {
		assert.True(t, c.Known(w), w)
		assert.Equal(t, w, c.Correct(w))
	}
	for _, in := range []string{
		"my child has fever and headache",
		"headache, never had this before",
		"paint fumes gave me a headache",
		"five days of fever",
	} {
		assert.Equal(t, in, c.Correct(in))
	}
}

func TestInflectedWordsUntouched(t *testing.T) {
	c := NewCorrector(nil)
	in := "snoring camping bruised stopped swimming worries happier"
	assert.Equal(t, in, c.Correct(in))
}

func TestFrequencyRanksCandidates(t *testing.T) {
	// "pian" is one edit from "pain", "pin", "pan" and "piano".
	c := NewCorrector(nil)
	assert.Equal(t, "chest pain", c.Correct("chest pian"))
}

func TestParseCounts(t *testing.T) {
	counts := mustParseCounts([]byte("fever 50000\n\nthe 1000000\n"))
	assert.Equal(t, map[string]int{"fever": 50000, "the": 1000000}, counts)

	assert.Panics(t, func() { mustParseCounts([]byte("fever\n")) })
	assert.Panics(t, func() { mustParseCounts([]byte("fever many\n")) })
}

func TestShortAndNonAlphaWordsUntouched(t *testing.T) {
	c := NewCorrector(nil)
	assert.Equal(t, "ok 42 x", c.Correct("ok 42 x"))
	assert.Equal(t, "can't", c.Correct("can't"))
}

func TestVocabularyWordsOutrankBuiltins(t *testing.T) {
	// "rach" is one edit from both "rash" (built-in) and "rack".
	c := NewCorrector([]string{"rack"})
	assert.Equal(t, "rack", c.Correct("rach"))

	c = NewCorrector(nil)
	assert.Equal(t, "rash", c.Correct("rach"))
}

func TestKnown(t *testing.T) {
	c := NewCorrector([]string{"Jaundice", "<unk>"})
	assert.True(t, c.Known("jaundice"))
	assert.True(t, c.Known("Fever"))
	assert.False(t, c.Known("<unk>"))
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "fevr  x", Identity{}.Correct("fevr  x"))
}

func TestEditsContainsAllOperations(t *testing.T) {
	e := edits("ab")
	for _, want := range []string{"b", "a", "ba", "xb", "ax", "xab", "abx"} {
		assert.Contains(t, e, want)
	}
}
