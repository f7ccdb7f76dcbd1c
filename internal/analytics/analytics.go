package analytics

import (
	"strings"

	"tailortalk/internal/dataset"
)

// Kind enumerates the canned analyses.
type Kind string

const (
	KindSurvival    Kind = "survival"
	KindClass       Kind = "class"
	KindAge         Kind = "age"
	KindGender      Kind = "gender"
	KindFare        Kind = "fare"
	KindEmbarked    Kind = "embarked"
	KindCorrelation Kind = "correlation"
	KindGeneral     Kind = "general"
)

// Chart type hints understood by the charts package.
const (
	ChartBar       = "bar"
	ChartPie       = "pie"
	ChartHistogram = "histogram"
	ChartLine      = "line"
)

// ParseKind normalizes a directive string ("survival", "survival_analysis",
// "Gender Analysis", ...) into a Kind. Anything unrecognized maps to general.
func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " analysis")
	s = strings.TrimSuffix(s, "_analysis")
	switch Kind(s) {
	case KindSurvival, KindClass, KindAge, KindGender, KindFare, KindEmbarked, KindCorrelation, KindGeneral:
		return Kind(s)
	}
	switch s {
	case "sex":
		return KindGender
	case "port", "embarkation":
		return KindEmbarked
	case "price", "ticket":
		return KindFare
	}
	return KindGeneral
}

// Result is one computed analysis: a text summary plus the series to chart.
// Labels/Values feed bar and pie charts; Samples feeds histograms.
type Result struct {
	Kind    Kind
	Title   string
	Summary string
	Chart   string
	Labels  []string
	Values  []float64
	Samples []float64
}

// Analyzer runs canned computations over the immutable dataset.
type Analyzer struct {
	ds *dataset.Dataset
}

func New(ds *dataset.Dataset) *Analyzer {
	return &Analyzer{ds: ds}
}

// Run dispatches to the analysis for kind. The question text steers
// secondary choices (e.g. survival-by-class vs overall survival).
func (a *Analyzer) Run(kind Kind, question string) Result {
	q := strings.ToLower(question)
	switch kind {
	case KindSurvival:
		return a.survival(q)
	case KindClass:
		return a.class(q)
	case KindAge:
		return a.age(q)
	case KindGender:
		return a.gender(q)
	case KindFare:
		return a.fare(q)
	case KindEmbarked:
		return a.embarked(q)
	case KindCorrelation:
		return a.correlation(q)
	default:
		return a.general(q)
	}
}

var portNames = map[string]string{
	"C": "Cherbourg",
	"Q": "Queenstown",
	"S": "Southampton",
}

func classLabel(pclass int) string {
	switch pclass {
	case 1:
		return "First Class"
	case 2:
		return "Second Class"
	case 3:
		return "Third Class"
	default:
		return "Unknown"
	}
}

func mentionsAny(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}
