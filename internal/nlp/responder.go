package nlp

import (
	"strings"

	"tailortalk/internal/analytics"
)

// narratives holds the historical context paragraph appended after each
// analysis summary.
var narratives = map[analytics.Kind]struct {
	heading string
	body    string
}{
	analytics.KindSurvival: {
		"Survival Analysis",
		"The Titanic disaster was one of the deadliest maritime disasters in history. The survival rates were significantly influenced by factors such as passenger class, gender, and age. First-class passengers had better access to lifeboats, and the 'women and children first' policy greatly affected survival rates by gender.",
	},
	analytics.KindClass: {
		"Passenger Class Analysis",
		"The Titanic had three passenger classes, each with different accommodations and ticket prices. First-class passengers were wealthy and had cabins on the upper decks, closer to the lifeboats. Second-class accommodations were comparable to first-class on other ships. Third-class passengers were in the lower decks and had more limited access to the lifeboats during the emergency.",
	},
	analytics.KindAge: {
		"Age Analysis",
		"Age played a significant role in survival rates on the Titanic. The 'women and children first' policy meant that children had a higher chance of survival. However, very young children, especially infants, had lower survival rates than older children. Elderly passengers also had lower survival rates, possibly due to mobility issues during the evacuation.",
	},
	analytics.KindGender: {
		"Gender Analysis",
		"Gender was one of the most significant factors in determining survival rates on the Titanic. The 'women and children first' policy for loading lifeboats meant that women had a much higher chance of survival. This policy was more strictly followed in first and second class, which is why the disparity between male and female survival rates is most pronounced in those classes.",
	},
	analytics.KindFare: {
		"Fare Analysis",
		"Ticket prices varied significantly on the Titanic, reflecting the different classes and accommodations. Higher fares generally corresponded to first-class accommodations, which were located on the upper decks closer to the lifeboats. This proximity to lifeboats, along with preferential treatment during evacuation, contributed to the higher survival rates among passengers who paid more for their tickets.",
	},
	analytics.KindEmbarked: {
		"Embarkation Port Analysis",
		"The Titanic picked up passengers at three ports: Southampton (England), Cherbourg (France), and Queenstown (now Cobh, Ireland). The majority of passengers boarded at Southampton, the first stop. Interestingly, passengers who boarded at Cherbourg had the highest survival rate, possibly because they included a higher proportion of first-class passengers.",
	},
	analytics.KindCorrelation: {
		"Correlation Analysis",
		"Several factors were correlated with survival rates on the Titanic. The strongest correlations were with passenger class, gender, and age. First-class passengers, women, and children had higher survival rates. These correlations reflect the evacuation procedures and social norms of the time, as well as the physical layout of the ship, with first-class accommodations being closer to the lifeboats.",
	},
	analytics.KindGeneral: {
		"Titanic Dataset Overview",
		"The Titanic sank on April 15, 1912, after colliding with an iceberg during her maiden voyage. Of the estimated 2,224 passengers and crew aboard, more than 1,500 died, making it one of the deadliest commercial peacetime maritime disasters in modern history. The dataset reveals significant disparities in survival rates based on factors such as passenger class, gender, and age.",
	},
}

// followUps pairs each analysis kind with a canned suggestion; Compose
// skips the one matching the answered question.
var followUps = []struct {
	kind       analytics.Kind
	suggestion string
}{
	{analytics.KindSurvival, "What was the overall survival rate on the Titanic?"},
	{analytics.KindClass, "How did passenger class affect survival rates?"},
	{analytics.KindAge, "What was the age distribution of Titanic passengers?"},
	{analytics.KindGender, "How did gender affect survival rates?"},
	{analytics.KindFare, "What was the relationship between ticket price and survival?"},
	{analytics.KindEmbarked, "Did the port of embarkation affect survival rates?"},
}

// Compose turns an analysis result into the chat answer text and a list of
// follow-up questions.
func Compose(res analytics.Result) (string, []string) {
	n, ok := narratives[res.Kind]
	if !ok {
		n = narratives[analytics.KindGeneral]
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(n.heading)
	b.WriteString("\n\n")
	b.WriteString(res.Summary)
	b.WriteString("\n\n")
	b.WriteString(n.body)

	suggestions := Suggestions(res.Kind)
	b.WriteString("\n\n## You might also be interested in:\n")
	for _, s := range suggestions {
		b.WriteString("\n- ")
		b.WriteString(s)
	}

	return b.String(), suggestions
}

// Suggestions returns the follow-up questions for every kind except the one
// just answered.
func Suggestions(answered analytics.Kind) []string {
	out := make([]string, 0, len(followUps)-1)
	for _, f := range followUps {
		if f.kind == answered {
			continue
		}
		out = append(out, f.suggestion)
	}
	return out
}
