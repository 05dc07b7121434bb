package correction

import "strings"

// Diagnosis labels produced by overrides.
const (
	BronchialAsthma  = "bronchial asthma"
	ViralFever       = "viral fever"
	StomachInfection = "stomach infection"
	FungalInfection  = "fungal infection"
	Jaundice         = "jaundice"
	Malaria          = "malaria"
	Dengue           = "dengue"
	FoodPoisoning    = "food poisoning"
	Migraine         = "migraine"
)

var (
	respiratoryEmergency = []string{"chest pain", "severe breath", "unable to breathe"}
	neuroEmergency       = []string{"unconscious", "faint", "seizure"}

	chillTerms       = []string{"chill"}
	gutTerms         = []string{"vomit", "diarrhea"}
	breathTerms      = []string{"breath", "wheez"}
	liverSideTerms   = []string{"urine", "fatigue", "abdominal pain"}
	cyclicTerms      = []string{"shiver", "chill", "sweat"}
	systemicTerms    = []string{"body ache", "body pain", "headache", "weakness"}
	dengueTerms      = []string{"platelet", "joint pain", "eye pain"}
	airwayTerms      = []string{"breath", "wheezing", "tight chest"}
	digestiveTerms   = []string{"vomit", "nausea", "loose motion", "diarrhea"}
	migraineTriggers = []string{"light", "noise", "dark room", "throbbing"}

	negations = []string{"no", "not", "without", "denies", "denied"}
)

// Rule maps an input to an override label. ok reports whether the rule fired;
// a fired rule ends evaluation.
type Rule struct {
	ID    string
	Apply func(in Input) (label string, ok bool)
}

// DefaultRules returns the rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "safety-respiratory", Apply: safetyRespiratory},
		{ID: "safety-neuro", Apply: safetyNeuro},
		{ID: "spondylosis-misfire", Apply: spondylosisMisfire},
		{ID: "jaundice", Apply: jaundice},
		{ID: "fever-pattern", Apply: feverPattern},
		{ID: "dengue", Apply: dengue},
		{ID: "asthma", Apply: asthma},
		{ID: "gastro", Apply: gastro},
		{ID: "headache", Apply: headache},
		{ID: "fallback", Apply: passthrough},
	}
}

// Emergencies are matched as plain phrases, negated or not.
func safetyRespiratory(in Input) (string, bool) {
	if hasAny(in.Text, respiratoryEmergency) {
		return BronchialAsthma, true
	}
	return "", false
}

func safetyNeuro(in Input) (string, bool) {
	if hasAny(in.Text, neuroEmergency) {
		return ViralFever, true
	}
	return "", false
}

// spondylosisMisfire catches a label the model over-predicts. Once the label
// is seen the rule always fires, keeping the prediction when nothing matches.
func spondylosisMisfire(in Input) (string, bool) {
	if !strings.Contains(strings.ToLower(in.Prediction), "spondylosis") {
		return "", false
	}
	switch {
	case hasFever(in.Text) || hasAny(in.Text, chillTerms):
		return ViralFever, true
	case hasAny(in.Text, gutTerms):
		return StomachInfection, true
	case strings.Contains(in.Text, "itch") && strings.Contains(in.Text, "rash"):
		return FungalInfection, true
	case hasAny(in.Text, breathTerms):
		return BronchialAsthma, true
	}
	return in.Prediction, true
}

func jaundice(in Input) (string, bool) {
	if !(strings.Contains(in.Text, "yellow") && strings.Contains(in.Text, "skin")) &&
		!strings.Contains(in.Text, "yellow eyes") {
		return "", false
	}
	// Both arms return jaundice. The side-symptom check is kept as observed.
	if hasAny(in.Text, liverSideTerms) {
		return Jaundice, true
	}
	return Jaundice, true
}

// feverPattern does not fire when fever comes without a known companion.
func feverPattern(in Input) (string, bool) {
	if !hasFever(in.Text) {
		return "", false
	}
	if hasAny(in.Text, cyclicTerms) {
		return Malaria, true
	}
	if hasAny(in.Text, systemicTerms) {
		return ViralFever, true
	}
	return "", false
}

func dengue(in Input) (string, bool) {
	if hasFever(in.Text) && hasAny(in.Text, dengueTerms) {
		return Dengue, true
	}
	return "", false
}

func asthma(in Input) (string, bool) {
	if hasAny(in.Text, airwayTerms) && !hasFever(in.Text) {
		return BronchialAsthma, true
	}
	return "", false
}

func gastro(in Input) (string, bool) {
	if !hasAny(in.Text, digestiveTerms) {
		return "", false
	}
	if hasFever(in.Text) {
		return StomachInfection, true
	}
	return FoodPoisoning, true
}

// headache does not fire for a plain headache.
func headache(in Input) (string, bool) {
	if !strings.Contains(in.Text, "headache") {
		return "", false
	}
	if hasAny(in.Text, migraineTriggers) {
		return Migraine, true
	}
	if hasFever(in.Text) {
		return ViralFever, true
	}
	return "", false
}

func passthrough(in Input) (string, bool) {
	return in.Prediction, true
}

func hasAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// hasFever reports a mention of fever that is not negated by one of the
// two words before it ("no fever", "not any fever", "without fever").
func hasFever(text string) bool {
	const word = "fever"
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		at := from + i
		if !negated(text[:at]) {
			return true
		}
		from = at + len(word)
	}
	return false
}

func negated(before string) bool {
	fields := strings.Fields(before)
	for k := 1; k <= 2 && k <= len(fields); k++ {
		raw := fields[len(fields)-k]
		// A clause break ends the negation's reach: "no cough, fever".
		if strings.ContainsAny(raw[len(raw)-1:], ",.;:!?") {
			return false
		}
		w := strings.Trim(raw, ",.;:!?()\"'")
		for _, n := range negations {
			if w == n {
				return true
			}
		}
	}
	return false
}
