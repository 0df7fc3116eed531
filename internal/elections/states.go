package elections

// statePostalCodes lists the 50 US states in alphabetical postal-code order.
// DC is appended dynamically when a dataset carries DC races.
var statePostalCodes = []string{
	"AK", "AL", "AR", "AZ", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "IA", "ID", "IL", "IN", "KS", "KY", "LA", "MA", "MD",
	"ME", "MI", "MN", "MO", "MS", "MT", "NC", "ND", "NE", "NH",
	"NJ", "NM", "NV", "NY", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VA", "VT", "WA", "WI", "WV", "WY",
}

func displayStates(includeDC bool) []string {
	out := make([]string, 0, len(statePostalCodes)+1)
	out = append(out, statePostalCodes...)
	if includeDC {
		// keep alphabetical order: DC sorts after CT
		idx := 0
		for i, s := range out {
			if s > "DC" {
				idx = i
				break
			}
		}
		out = append(out[:idx], append([]string{"DC"}, out[idx:]...)...)
	}
	return out
}
