package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/gocarina/gocsv"
)

// record mirrors one raw CSV row. Age and Fare are pointers because the
// source file has blanks in both columns.
type record struct {
	ID       int      `csv:"PassengerId"`
	Survived int      `csv:"Survived"`
	Pclass   int      `csv:"Pclass"`
	Name     string   `csv:"Name"`
	Sex      string   `csv:"Sex"`
	Age      *float64 `csv:"Age"`
	SibSp    int      `csv:"SibSp"`
	Parch    int      `csv:"Parch"`
	Ticket   string   `csv:"Ticket"`
	Fare     *float64 `csv:"Fare"`
	Cabin    string   `csv:"Cabin"`
	Embarked string   `csv:"Embarked"`
}

// Passenger is one preprocessed row. Missing ages and fares are imputed
// with the column median, missing embarkation ports with the mode.
type Passenger struct {
	ID         int
	Survived   bool
	Pclass     int
	Name       string
	Sex        string
	Age        float64
	AgeImputed bool
	SibSp      int
	Parch      int
	Ticket     string
	Fare       float64
	Cabin      string
	Embarked   string

	// Derived fields.
	Title         string
	FamilySize    int
	IsAlone       bool
	FarePerPerson float64
	AgeGroup      string
	FareGroup     string
}

// Dataset is the immutable in-memory passenger table. It is loaded once at
// startup and shared read-only across all requests; no method mutates it.
type Dataset struct {
	passengers []Passenger
}

// Load reads the Titanic CSV at path and preprocesses it.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return New(f)
}

// New builds a dataset from CSV content.
func New(r io.Reader) (*Dataset, error) {
	var records []record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("parse dataset csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	return &Dataset{passengers: preprocess(records)}, nil
}

var titleRe = regexp.MustCompile(` ([A-Za-z]+)\.`)

// titleMapping folds rare honorifics into the common ones.
var titleMapping = map[string]string{
	"Mr":       "Mr",
	"Miss":     "Miss",
	"Mrs":      "Mrs",
	"Master":   "Master",
	"Dr":       "Officer",
	"Rev":      "Officer",
	"Col":      "Officer",
	"Major":    "Officer",
	"Capt":     "Officer",
	"Mlle":     "Miss",
	"Mme":      "Mrs",
	"Ms":       "Mrs",
	"Don":      "Royalty",
	"Lady":     "Royalty",
	"Countess": "Royalty",
	"Jonkheer": "Royalty",
	"Sir":      "Royalty",
}

func preprocess(records []record) []Passenger {
	var ages, fares []float64
	embarkedCounts := map[string]int{}
	for _, r := range records {
		if r.Age != nil {
			ages = append(ages, *r.Age)
		}
		if r.Fare != nil {
			fares = append(fares, *r.Fare)
		}
		if r.Embarked != "" {
			embarkedCounts[r.Embarked]++
		}
	}
	ageMedian := Median(ages)
	fareMedian := Median(fares)
	embarkedMode := mode(embarkedCounts, "S")

	out := make([]Passenger, 0, len(records))
	for _, r := range records {
		p := Passenger{
			ID:       r.ID,
			Survived: r.Survived != 0,
			Pclass:   r.Pclass,
			Name:     r.Name,
			Sex:      r.Sex,
			SibSp:    r.SibSp,
			Parch:    r.Parch,
			Ticket:   r.Ticket,
			Cabin:    r.Cabin,
			Embarked: r.Embarked,
		}
		if r.Age != nil {
			p.Age = *r.Age
		} else {
			p.Age = ageMedian
			p.AgeImputed = true
		}
		if r.Fare != nil {
			p.Fare = *r.Fare
		} else {
			p.Fare = fareMedian
		}
		if p.Embarked == "" {
			p.Embarked = embarkedMode
		}

		p.Title = extractTitle(r.Name)
		p.FamilySize = r.SibSp + r.Parch + 1
		p.IsAlone = p.FamilySize == 1
		p.FarePerPerson = p.Fare / float64(p.FamilySize)
		p.AgeGroup = ageGroup(p.Age)
		out = append(out, p)
	}

	// Fare quartiles come from the imputed column so every row gets a group.
	allFares := make([]float64, len(out))
	for i, p := range out {
		allFares[i] = p.Fare
	}
	q1, q2, q3 := Quartiles(allFares)
	for i := range out {
		out[i].FareGroup = fareGroup(out[i].Fare, q1, q2, q3)
	}
	return out
}

func extractTitle(name string) string {
	m := titleRe.FindStringSubmatch(name)
	if m == nil {
		return "Mr"
	}
	if mapped, ok := titleMapping[m[1]]; ok {
		return mapped
	}
	return "Mr"
}

func ageGroup(age float64) string {
	switch {
	case age <= 12:
		return "Child"
	case age <= 18:
		return "Teenager"
	case age <= 35:
		return "Young Adult"
	case age <= 60:
		return "Adult"
	default:
		return "Senior"
	}
}

func fareGroup(fare, q1, q2, q3 float64) string {
	switch {
	case fare <= q1:
		return "Low"
	case fare <= q2:
		return "Medium-Low"
	case fare <= q3:
		return "Medium-High"
	default:
		return "High"
	}
}

func mode(counts map[string]int, fallback string) string {
	best, bestCount := fallback, 0
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // deterministic tie-break
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// Len returns the number of passengers.
func (d *Dataset) Len() int { return len(d.passengers) }

// Passengers returns the underlying rows. Callers must treat the slice as
// read-only.
func (d *Dataset) Passengers() []Passenger { return d.passengers }

// Ages returns every passenger age as a fresh slice.
func (d *Dataset) Ages() []float64 {
	out := make([]float64, len(d.passengers))
	for i, p := range d.passengers {
		out[i] = p.Age
	}
	return out
}

// Fares returns every passenger fare as a fresh slice.
func (d *Dataset) Fares() []float64 {
	out := make([]float64, len(d.passengers))
	for i, p := range d.passengers {
		out[i] = p.Fare
	}
	return out
}

// SurvivalRate returns the overall survival fraction in [0,1].
func (d *Dataset) SurvivalRate() float64 {
	if len(d.passengers) == 0 {
		return 0
	}
	survived := 0
	for _, p := range d.passengers {
		if p.Survived {
			survived++
		}
	}
	return float64(survived) / float64(len(d.passengers))
}

// CountBy groups passengers by key and counts each group.
func (d *Dataset) CountBy(key func(Passenger) string) map[string]int {
	out := map[string]int{}
	for _, p := range d.passengers {
		out[key(p)]++
	}
	return out
}

// SurvivalRateBy groups passengers by key and returns per-group survival
// fractions in [0,1].
func (d *Dataset) SurvivalRateBy(key func(Passenger) string) map[string]float64 {
	total := map[string]int{}
	survived := map[string]int{}
	for _, p := range d.passengers {
		k := key(p)
		total[k]++
		if p.Survived {
			survived[k]++
		}
	}
	out := make(map[string]float64, len(total))
	for k, n := range total {
		out[k] = float64(survived[k]) / float64(n)
	}
	return out
}

// MeanBy groups passengers by key and averages value over each group.
func (d *Dataset) MeanBy(key func(Passenger) string, value func(Passenger) float64) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, p := range d.passengers {
		k := key(p)
		sums[k] += value(p)
		counts[k]++
	}
	out := make(map[string]float64, len(sums))
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}

// Filter returns the passengers matching keep as a fresh slice.
func (d *Dataset) Filter(keep func(Passenger) bool) []Passenger {
	var out []Passenger
	for _, p := range d.passengers {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
