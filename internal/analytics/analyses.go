package analytics

import (
	"fmt"
	"strconv"

	"tailortalk/internal/dataset"
)

func (a *Analyzer) survival(q string) Result {
	rate := a.ds.SurvivalRate() * 100
	byClass := a.ds.SurvivalRateBy(func(p dataset.Passenger) string { return strconv.Itoa(p.Pclass) })
	bySex := a.ds.SurvivalRateBy(func(p dataset.Passenger) string { return p.Sex })
	byPort := a.ds.SurvivalRateBy(func(p dataset.Passenger) string { return p.Embarked })

	res := Result{Kind: KindSurvival}
	switch {
	case mentionsAny(q, "class"):
		res.Title = "Survival Rate by Passenger Class"
		res.Chart = ChartBar
		for c := 1; c <= 3; c++ {
			res.Labels = append(res.Labels, classLabel(c))
			res.Values = append(res.Values, byClass[strconv.Itoa(c)]*100)
		}
	case mentionsAny(q, "gender", "sex"):
		res.Title = "Survival Rate by Gender"
		res.Chart = ChartBar
		res.Labels = []string{"Female", "Male"}
		res.Values = []float64{bySex["female"] * 100, bySex["male"] * 100}
	case mentionsAny(q, "embarked", "port"):
		res.Title = "Survival Rate by Port of Embarkation"
		res.Chart = ChartBar
		for _, code := range []string{"C", "Q", "S"} {
			res.Labels = append(res.Labels, portNames[code])
			res.Values = append(res.Values, byPort[code]*100)
		}
	default:
		res.Title = "Overall Survival Rate"
		res.Chart = ChartPie
		res.Labels = []string{"Survived", "Did not survive"}
		res.Values = []float64{rate, 100 - rate}
	}

	res.Summary = fmt.Sprintf(
		"The overall survival rate was %.1f%%. First class passengers had a %.1f%% survival rate, second class had %.1f%%, and third class had %.1f%%. Women had a %.1f%% survival rate, while men had only %.1f%%.",
		rate, byClass["1"]*100, byClass["2"]*100, byClass["3"]*100, bySex["female"]*100, bySex["male"]*100)
	return res
}

func (a *Analyzer) class(q string) Result {
	counts := a.ds.CountBy(func(p dataset.Passenger) string { return strconv.Itoa(p.Pclass) })
	byClass := a.ds.SurvivalRateBy(func(p dataset.Passenger) string { return strconv.Itoa(p.Pclass) })
	total := float64(a.ds.Len())

	res := Result{Kind: KindClass, Chart: ChartBar}
	if mentionsAny(q, "survival", "survived") {
		res.Title = "Survival Rate by Passenger Class"
		for c := 1; c <= 3; c++ {
			res.Labels = append(res.Labels, classLabel(c))
			res.Values = append(res.Values, byClass[strconv.Itoa(c)]*100)
		}
	} else {
		res.Title = "Passenger Class Distribution"
		for c := 1; c <= 3; c++ {
			res.Labels = append(res.Labels, classLabel(c))
			res.Values = append(res.Values, float64(counts[strconv.Itoa(c)]))
		}
	}

	res.Summary = fmt.Sprintf(
		"There were %d first class passengers (%.1f%%), %d second class passengers (%.1f%%), and %d third class passengers (%.1f%%). The survival rates were %.1f%% for first class, %.1f%% for second class, and %.1f%% for third class.",
		counts["1"], float64(counts["1"])/total*100,
		counts["2"], float64(counts["2"])/total*100,
		counts["3"], float64(counts["3"])/total*100,
		byClass["1"]*100, byClass["2"]*100, byClass["3"]*100)
	return res
}

func (a *Analyzer) age(q string) Result {
	ages := a.ds.Ages()
	mean, median := dataset.Mean(ages), dataset.Median(ages)
	min, max := dataset.Min(ages), dataset.Max(ages)

	res := Result{Kind: KindAge, Chart: ChartHistogram, Samples: ages}
	res.Summary = fmt.Sprintf(
		"The average age of Titanic passengers was %.1f years, with a median of %.1f years. The youngest passenger was %.1f years old, and the oldest was %.1f years old.",
		mean, median, min, max)

	if mentionsAny(q, "survival", "survived") {
		res.Title = "Age Distribution by Survival Status"
		survivedMean := dataset.Mean(agesOf(a.ds.Filter(func(p dataset.Passenger) bool { return p.Survived })))
		lostMean := dataset.Mean(agesOf(a.ds.Filter(func(p dataset.Passenger) bool { return !p.Survived })))
		res.Summary += fmt.Sprintf(
			" Survivors had an average age of %.1f years, while those who did not survive had an average age of %.1f years.",
			survivedMean, lostMean)
	} else {
		res.Title = "Age Distribution of Titanic Passengers"
	}
	return res
}

func (a *Analyzer) gender(q string) Result {
	counts := a.ds.CountBy(func(p dataset.Passenger) string { return p.Sex })
	bySex := a.ds.SurvivalRateBy(func(p dataset.Passenger) string { return p.Sex })
	total := float64(a.ds.Len())

	res := Result{Kind: KindGender}
	if mentionsAny(q, "survival", "survived") {
		res.Title = "Survival Rate by Gender"
		res.Chart = ChartBar
		res.Labels = []string{"Female", "Male"}
		res.Values = []float64{bySex["female"] * 100, bySex["male"] * 100}
	} else {
		res.Title = "Gender Distribution of Titanic Passengers"
		res.Chart = ChartPie
		res.Labels = []string{"Male", "Female"}
		res.Values = []float64{float64(counts["male"]), float64(counts["female"])}
	}

	res.Summary = fmt.Sprintf(
		"There were %d male passengers (%.1f%%) and %d female passengers (%.1f%%). The survival rate for women was %.1f%%, while for men it was only %.1f%%.",
		counts["male"], float64(counts["male"])/total*100,
		counts["female"], float64(counts["female"])/total*100,
		bySex["female"]*100, bySex["male"]*100)
	return res
}

func (a *Analyzer) fare(q string) Result {
	fares := a.ds.Fares()
	mean, median := dataset.Mean(fares), dataset.Median(fares)
	min, max := dataset.Min(fares), dataset.Max(fares)
	fareByClass := a.ds.MeanBy(
		func(p dataset.Passenger) string { return strconv.Itoa(p.Pclass) },
		func(p dataset.Passenger) float64 { return p.Fare })

	res := Result{Kind: KindFare}
	survivalQuery := mentionsAny(q, "survival", "survived", "relationship")
	switch {
	case mentionsAny(q, "class"):
		res.Title = "Average Fare by Passenger Class"
		res.Chart = ChartBar
		for c := 1; c <= 3; c++ {
			res.Labels = append(res.Labels, classLabel(c))
			res.Values = append(res.Values, fareByClass[strconv.Itoa(c)])
		}
	case survivalQuery:
		res.Title = "Average Fare by Survival Status"
		res.Chart = ChartBar
		bySurvival := a.ds.MeanBy(
			func(p dataset.Passenger) string {
				if p.Survived {
					return "survived"
				}
				return "lost"
			},
			func(p dataset.Passenger) float64 { return p.Fare })
		res.Labels = []string{"Survived", "Did not survive"}
		res.Values = []float64{bySurvival["survived"], bySurvival["lost"]}
	case mentionsAny(q, "distribution", "histogram", "spread", "range", "variation"):
		res.Title = "Fare Distribution of Titanic Passengers"
		res.Chart = ChartHistogram
		res.Samples = fares
	default:
		res.Title = "Average Fare by Passenger Class"
		res.Chart = ChartBar
		for c := 1; c <= 3; c++ {
			res.Labels = append(res.Labels, classLabel(c))
			res.Values = append(res.Values, fareByClass[strconv.Itoa(c)])
		}
	}

	res.Summary = fmt.Sprintf(
		"The average fare was £%.2f, with a median of £%.2f. Fares ranged from £%.2f to £%.2f. First class passengers paid an average of £%.2f, second class paid £%.2f, and third class paid £%.2f.",
		mean, median, min, max,
		fareByClass["1"], fareByClass["2"], fareByClass["3"])

	if survivalQuery {
		bySurvival := a.ds.MeanBy(
			func(p dataset.Passenger) string {
				if p.Survived {
					return "survived"
				}
				return "lost"
			},
			func(p dataset.Passenger) float64 { return p.Fare })
		res.Summary += fmt.Sprintf(
			" Passengers who survived paid an average fare of £%.2f, while those who did not survive paid an average of £%.2f.",
			bySurvival["survived"], bySurvival["lost"])
	}
	return res
}

func (a *Analyzer) embarked(q string) Result {
	counts := a.ds.CountBy(func(p dataset.Passenger) string { return p.Embarked })
	byPort := a.ds.SurvivalRateBy(func(p dataset.Passenger) string { return p.Embarked })
	total := float64(a.ds.Len())

	res := Result{Kind: KindEmbarked}
	if mentionsAny(q, "survival", "survived") {
		res.Title = "Survival Rate by Port of Embarkation"
		res.Chart = ChartBar
		for _, code := range []string{"C", "Q", "S"} {
			res.Labels = append(res.Labels, portNames[code])
			res.Values = append(res.Values, byPort[code]*100)
		}
	} else {
		res.Title = "Embarkation Port Distribution"
		res.Chart = ChartPie
		for _, code := range []string{"S", "C", "Q"} {
			res.Labels = append(res.Labels, portNames[code])
			res.Values = append(res.Values, float64(counts[code]))
		}
	}

	res.Summary = fmt.Sprintf(
		"%.1f%% of passengers embarked from Southampton, %.1f%% from Cherbourg, and %.1f%% from Queenstown. The survival rates were %.1f%% for Southampton, %.1f%% for Cherbourg, and %.1f%% for Queenstown.",
		float64(counts["S"])/total*100, float64(counts["C"])/total*100, float64(counts["Q"])/total*100,
		byPort["S"]*100, byPort["C"]*100, byPort["Q"]*100)
	return res
}

func (a *Analyzer) correlation(_ string) Result {
	passengers := a.ds.Passengers()
	survived := make([]float64, len(passengers))
	for i, p := range passengers {
		if p.Survived {
			survived[i] = 1
		}
	}

	factors := []struct {
		label string
		value func(dataset.Passenger) float64
	}{
		{"Passenger Class", func(p dataset.Passenger) float64 { return float64(p.Pclass) }},
		{"Female", func(p dataset.Passenger) float64 {
			if p.Sex == "female" {
				return 1
			}
			return 0
		}},
		{"Age", func(p dataset.Passenger) float64 { return p.Age }},
		{"Fare", func(p dataset.Passenger) float64 { return p.Fare }},
		{"Family Size", func(p dataset.Passenger) float64 { return float64(p.FamilySize) }},
	}

	// Bars show correlation strength, so the chart carries |r|; direction
	// is reported in the summary.
	res := Result{Kind: KindCorrelation, Chart: ChartBar, Title: "Correlation Strength of Passenger Factors with Survival"}
	strongest, strongestAbs := "", 0.0
	direction := map[string]string{}
	for _, f := range factors {
		xs := make([]float64, len(passengers))
		for i, p := range passengers {
			xs[i] = f.value(p)
		}
		r := dataset.Correlation(xs, survived)
		res.Labels = append(res.Labels, f.label)
		res.Values = append(res.Values, absFloat(r))
		if r >= 0 {
			direction[f.label] = "raised"
		} else {
			direction[f.label] = "lowered"
		}
		if abs := absFloat(r); abs > strongestAbs {
			strongest, strongestAbs = f.label, abs
		}
	}

	res.Summary = fmt.Sprintf(
		"Among passenger class, gender, age, fare and family size, the factor most strongly correlated with survival was %s (correlation strength %.2f); higher values of it %s the chance of survival.",
		strongest, strongestAbs, direction[strongest])
	return res
}

func (a *Analyzer) general(_ string) Result {
	total := a.ds.Len()
	rate := a.ds.SurvivalRate() * 100
	sexCounts := a.ds.CountBy(func(p dataset.Passenger) string { return p.Sex })
	classCounts := a.ds.CountBy(func(p dataset.Passenger) string { return strconv.Itoa(p.Pclass) })
	ages := a.ds.Ages()

	// Survival by class and gender, the original's heatmap flattened into
	// grouped bars.
	byClassSex := a.ds.SurvivalRateBy(func(p dataset.Passenger) string {
		return strconv.Itoa(p.Pclass) + "/" + p.Sex
	})
	res := Result{Kind: KindGeneral, Chart: ChartBar, Title: "Survival Rate by Class and Gender"}
	for c := 1; c <= 3; c++ {
		for _, sex := range []string{"female", "male"} {
			res.Labels = append(res.Labels, fmt.Sprintf("%s %s", classLabel(c), sex))
			res.Values = append(res.Values, byClassSex[strconv.Itoa(c)+"/"+sex]*100)
		}
	}

	res.Summary = fmt.Sprintf(
		"The Titanic had %d passengers, with an overall survival rate of %.1f%%. There were %d men (%.1f%%) and %d women (%.1f%%). The passengers were divided into first class (%.1f%%), second class (%.1f%%), and third class (%.1f%%). The average age was %.1f years, with a median of %.1f years.",
		total, rate,
		sexCounts["male"], float64(sexCounts["male"])/float64(total)*100,
		sexCounts["female"], float64(sexCounts["female"])/float64(total)*100,
		float64(classCounts["1"])/float64(total)*100,
		float64(classCounts["2"])/float64(total)*100,
		float64(classCounts["3"])/float64(total)*100,
		dataset.Mean(ages), dataset.Median(ages))
	return res
}

func agesOf(passengers []dataset.Passenger) []float64 {
	out := make([]float64, len(passengers))
	for i, p := range passengers {
		out[i] = p.Age
	}
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
