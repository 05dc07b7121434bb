package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Vocabulary {
	w2i := map[string]int{
		"<pad>": 0, "<sos>": 1, "<eos>": 2, "<unk>": 3,
		"fever": 4, "chills": 5, "malaria": 6,
	}
	i2w := map[int]string{}
	for w, i := range w2i {
		i2w[i] = w
	}
	return New(w2i, i2w)
}

func TestReservedIDs(t *testing.T) {
	v := sample()
	assert.Equal(t, 3, v.UnknownID())
	assert.Equal(t, 1, v.StartID())
	assert.Equal(t, 2, v.EndID())
	assert.Equal(t, 0, v.PadID())
}

func TestReservedFallbacks(t *testing.T) {
	v := New(map[string]int{"fever": 7}, map[int]string{7: "fever"})
	assert.Equal(t, 0, v.UnknownID())
	assert.Equal(t, 1, v.StartID())
	assert.Equal(t, 2, v.EndID())
	assert.Equal(t, 0, v.PadID())
}

func TestEncode(t *testing.T) {
	v := sample()
	got := v.Encode("  Fever and CHILLS\tmalaria ")
	require.Equal(t, []int{4, 3, 5, 6}, got)
}

func TestEncodeDeterministic(t *testing.T) {
	v := sample()
	for _, text := range []string{"", "fever", "fever fever chills", "unknown words only"} {
		assert.Equal(t, v.Encode(text), v.Encode(text), text)
	}
}

func TestDecode(t *testing.T) {
	v := sample()
	assert.Equal(t, "fever malaria", v.Decode([]int{4, 6}))
	// Unmapped ids keep their separator.
	assert.Equal(t, "fever  malaria", v.Decode([]int{4, 99, 6}))
	assert.Equal(t, "", v.Decode(nil))
}

func TestWordsExcludesReserved(t *testing.T) {
	assert.Equal(t, []string{"chills", "fever", "malaria"}, sample().Words())
}

func TestNewCopiesMaps(t *testing.T) {
	w2i := map[string]int{"fever": 4}
	v := New(w2i, map[int]string{4: "fever"})
	w2i["fever"] = 9
	assert.Equal(t, 4, v.ID("fever"))
}
