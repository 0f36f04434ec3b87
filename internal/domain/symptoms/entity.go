package symptoms

// Advice is the fixed recommendation for one recognized symptom.
type Advice struct {
	Symptom   string `json:"symptom"`
	Condition string `json:"condition"`
	Medicine  string `json:"medicine"`
}

type rule struct {
	token  string
	advice Advice
}

// rules are checked in this order, regardless of input order.
var rules = []rule{
	{"lethargy", Advice{
		Symptom:   "Lethargy/Dullness",
		Condition: "Possible anemia or malnutrition",
		Medicine:  "Vitamin B complex supplements and iron tonic",
	}},
	{"swelling", Advice{
		Symptom:   "Swelling in Body Parts",
		Condition: "Inflammation or edema",
		Medicine:  "Non-steroidal anti-inflammatory drugs like Meloxicam",
	}},
	{"diarrhea", Advice{
		Symptom:   "Diarrhea/Loose Motion",
		Condition: "Possible parasitic or bacterial infection",
		Medicine:  "Oral Rehydration Solution (ORS) and antibiotics if prescribed",
	}},
}

// Advise returns advice for every recognized token present in tokens.
// Unknown tokens are ignored. The result is never nil.
func Advise(tokens []string) []Advice {
	present := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		present[t] = struct{}{}
	}

	out := make([]Advice, 0, len(rules))
	for _, r := range rules {
		if _, ok := present[r.token]; ok {
			out = append(out, r.advice)
		}
	}
	return out
}

// Known lists the recognized symptom tokens.
func Known() []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.token)
	}
	return out
}
