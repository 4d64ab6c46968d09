package filter

import "strings"

// Keyword lists for the forbidden-content heuristic. Violence needs two
// distinct hits before rejecting; the other groups reject on one.
var (
	violenceKeywords = []string{"kill", "murder", "attack", "bomb", "weapon", "قتل", "هجوم", "سلاح"}
	hateKeywords     = []string{"hate", "racist", "nazi", "كراهية", "عنصري"}
	adultKeywords    = []string{"porn", "xxx", "adult content", "إباحي"}
	illegalKeywords  = []string{"drugs", "cocaine", "heroin", "مخدرات", "كوكايين"}
)

// hasForbiddenContent screens text for violence, hate speech, adult
// content and illegal-goods wording.
func hasForbiddenContent(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)

	violence := 0
	for _, kw := range violenceKeywords {
		if strings.Contains(lower, kw) {
			violence++
		}
	}
	if violence >= 2 {
		return "violent content", true
	}

	for _, kw := range hateKeywords {
		if strings.Contains(lower, kw) {
			return "hate speech", true
		}
	}
	for _, kw := range adultKeywords {
		if strings.Contains(lower, kw) {
			return "adult content", true
		}
	}
	for _, kw := range illegalKeywords {
		if strings.Contains(lower, kw) {
			return "illegal content", true
		}
	}
	return "", false
}
