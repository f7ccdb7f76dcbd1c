package nlp

import (
	"strings"

	"tailortalk/internal/analytics"
)

// keywordTable drives the rule-based classifier. Order matters: ties on hit
// count resolve to the earliest entry.
var keywordTable = []struct {
	kind     analytics.Kind
	keywords []string
}{
	{analytics.KindSurvival, []string{"survival", "survived", "die", "died", "death", "alive", "dead"}},
	{analytics.KindClass, []string{"class", "pclass", "first class", "second class", "third class", "1st", "2nd", "3rd"}},
	{analytics.KindAge, []string{"age", "young", "old", "child", "children", "adult", "elderly", "baby", "infant"}},
	{analytics.KindGender, []string{"gender", "sex", "male", "female", "men", "women", "man", "woman", "boy", "girl"}},
	{analytics.KindFare, []string{"fare", "price", "ticket", "cost", "expensive", "cheap", "payment"}},
	{analytics.KindEmbarked, []string{"embarked", "port", "boarding", "cherbourg", "queenstown", "southampton"}},
	{analytics.KindCorrelation, []string{"correlation", "related", "relationship", "impact", "effect", "influence", "factor"}},
}

// Classify maps a question to an analysis kind by counting keyword hits.
// No hits at all falls back to the general overview.
func Classify(question string) analytics.Kind {
	q := strings.ToLower(question)

	best := analytics.KindGeneral
	bestCount := 0
	for _, entry := range keywordTable {
		count := 0
		for _, kw := range entry.keywords {
			if strings.Contains(q, kw) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = entry.kind, count
		}
	}
	return best
}
