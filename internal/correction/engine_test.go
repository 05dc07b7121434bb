package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrect(t *testing.T) {
	e := NewEngine(nil)

	cases := []struct {
		name  string
		text  string
		raw   string
		label string
		rule  string
	}{
		{"chest pain wins", "Chest pain since morning", "migraine", BronchialAsthma, "safety-respiratory"},
		{"severe breathlessness", "severe breathlessness at night", "common cold", BronchialAsthma, "safety-respiratory"},
		{"unable to breathe", "i am unable to breathe", "typhoid", BronchialAsthma, "safety-respiratory"},
		{"unconscious", "patient was unconscious for a minute", "jaundice", ViralFever, "safety-neuro"},
		{"fainting", "fainting and dizziness", "migraine", ViralFever, "safety-neuro"},
		{"seizure", "had a seizure", "food poisoning", ViralFever, "safety-neuro"},

		{"spondylosis with chills", "neck stiffness and chills", "cervical spondylosis", ViralFever, "spondylosis-misfire"},
		{"spondylosis with vomiting", "vomiting all day", "cervical spondylosis", StomachInfection, "spondylosis-misfire"},
		{"spondylosis with itchy rash", "itching and red rash", "Cervical Spondylosis", FungalInfection, "spondylosis-misfire"},
		{"spondylosis with wheezing", "wheezing at night", "cervical spondylosis", BronchialAsthma, "spondylosis-misfire"},
		{"spondylosis kept", "neck pain and dizziness", "cervical spondylosis", "cervical spondylosis", "spondylosis-misfire"},

		{"yellow skin", "yellow skin and dark urine", "hepatitis", Jaundice, "jaundice"},
		{"yellow eyes", "yellow eyes", "hepatitis", Jaundice, "jaundice"},
		{"yellowish skin tone", "my skin looks yellowish", "allergy", Jaundice, "jaundice"},

		{"malaria", "fever with chills and shivering", "typhoid", Malaria, "fever-pattern"},
		{"malaria sweating", "fever and sweating every evening", "typhoid", Malaria, "fever-pattern"},
		{"viral fever body ache", "fever and body ache", "typhoid", ViralFever, "fever-pattern"},
		{"viral fever headache", "high fever with headache", "migraine", ViralFever, "fever-pattern"},

		{"dengue", "fever and joint pain", "typhoid", Dengue, "dengue"},
		{"dengue platelets", "fever, low platelet count", "typhoid", Dengue, "dengue"},

		{"asthma", "shortness of breath and wheezing", "common cold", BronchialAsthma, "asthma"},
		{"asthma tight chest", "tight chest in cold air", "common cold", BronchialAsthma, "asthma"},

		{"stomach infection", "vomiting and fever", "typhoid", StomachInfection, "gastro"},
		{"food poisoning", "nausea after eating out", "typhoid", FoodPoisoning, "gastro"},
		{"food poisoning negated fever", "vomiting and diarrhea, no fever", "typhoid", FoodPoisoning, "gastro"},
		{"loose motion", "loose motion since yesterday", "typhoid", FoodPoisoning, "gastro"},

		{"migraine", "headache and sensitivity to light", "tension", Migraine, "headache"},
		{"migraine throbbing", "throbbing headache", "tension", Migraine, "headache"},

		{"passthrough", "itchy red patches", "fungal infection", "fungal infection", "fallback"},
		{"plain headache falls through", "headache", "tension headache", "tension headache", "fallback"},
		{"fever alone falls through", "fever since two days", "typhoid", "typhoid", "fallback"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := e.Correct(tc.text, tc.raw)
			assert.Equal(t, tc.label, d.Label)
			assert.Equal(t, tc.rule, d.Rule)
			assert.Equal(t, tc.label != tc.raw, d.Overridden)
		})
	}
}

func TestSafetyPrecedesJaundice(t *testing.T) {
	d := NewEngine(nil).Correct("yellow skin, yellow eyes and chest pain", "jaundice")
	assert.Equal(t, BronchialAsthma, d.Label)
}

func TestChestPainAlwaysAsthma(t *testing.T) {
	e := NewEngine(nil)
	for _, raw := range []string{"", "malaria", "cervical spondylosis", "jaundice", "gerd"} {
		for _, text := range []string{"chest pain", "fever with chest pain", "vomiting, chest pain, yellow skin"} {
			assert.Equal(t, BronchialAsthma, e.Correct(text, raw).Label, "%q / %q", text, raw)
		}
	}
}

func TestUnconsciousAlwaysViralFever(t *testing.T) {
	e := NewEngine(nil)
	for _, raw := range []string{"", "malaria", "cervical spondylosis", "dengue"} {
		for _, text := range []string{"unconscious", "found unconscious with yellow skin", "unconscious after vomiting"} {
			assert.Equal(t, ViralFever, e.Correct(text, raw).Label, "%q / %q", text, raw)
		}
	}
}

// The jaundice rule carries a side-symptom branch whose two arms return the
// same label. Both inputs must give the same answer.
func TestJaundiceSideSymptomBranchIsNoOp(t *testing.T) {
	e := NewEngine(nil)
	with := e.Correct("yellow skin with fatigue", "x")
	without := e.Correct("yellow skin", "x")
	assert.Equal(t, with.Label, without.Label)
	assert.Equal(t, Jaundice, with.Label)
}

// Fever without a recognised companion leaves the fever rule and lets later
// rules decide.
func TestFeverRuleFallsThrough(t *testing.T) {
	d := NewEngine(nil).Correct("fever and nausea", "typhoid")
	assert.Equal(t, StomachInfection, d.Label)
	assert.Equal(t, "gastro", d.Rule)
}

func TestAsthmaNeedsNoFever(t *testing.T) {
	d := NewEngine(nil).Correct("fever and breathing trouble", "pneumonia")
	assert.Equal(t, "pneumonia", d.Label)

	d = NewEngine(nil).Correct("breathing trouble, no fever", "pneumonia")
	assert.Equal(t, BronchialAsthma, d.Label)
}

func TestHasFever(t *testing.T) {
	assert.True(t, hasFever("fever"))
	assert.True(t, hasFever("high fever"))
	assert.True(t, hasFever("no cough, fever"))
	assert.True(t, hasFever("no fever yesterday but fever today"))
	assert.False(t, hasFever("no fever"))
	assert.False(t, hasFever("without any fever"))
	assert.False(t, hasFever("i do not have fever"))
	assert.False(t, hasFever("cough"))
}

func TestRulesOrder(t *testing.T) {
	assert.Equal(t, []string{
		"safety-respiratory", "safety-neuro", "spondylosis-misfire", "jaundice",
		"fever-pattern", "dengue", "asthma", "gastro", "headache", "fallback",
	}, NewEngine(nil).Rules())
}

func TestCustomRulesGetFallback(t *testing.T) {
	e := NewEngineWithRules([]Rule{{ID: "never", Apply: func(Input) (string, bool) { return "", false }}}, nil)
	assert.Equal(t, []string{"never", "fallback"}, e.Rules())
	assert.Equal(t, "raw", e.Correct("text", "raw").Label)
}
