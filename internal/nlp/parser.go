package nlp

import (
	"regexp"
	"strings"
)

// jsonBlockRe matches brace-delimited blocks nested up to three levels,
// which covers the directive shapes the models actually produce.
var jsonBlockRe = regexp.MustCompile(`\{(?:[^{}]|(?:\{(?:[^{}]|(?:\{[^{}]*\}))*\}))*\}`)

// ExtractJSONBlocks pulls candidate JSON objects out of a model reply.
func ExtractJSONBlocks(text string) []string {
	return jsonBlockRe.FindAllString(text, -1)
}

var chartTypes = []string{"bar", "histogram", "scatter", "pie", "line", "heatmap"}

// ExtractChartType scans free text for a known chart type word. Returns ""
// when none is present.
func ExtractChartType(text string) string {
	lower := strings.ToLower(text)
	for _, ct := range chartTypes {
		if strings.Contains(lower, ct) {
			return ct
		}
	}
	return ""
}

var datasetColumns = []string{
	"survived", "pclass", "name", "sex", "age", "sibsp",
	"parch", "ticket", "fare", "cabin", "embarked",
}

// ExtractColumns returns the dataset column names mentioned in text.
func ExtractColumns(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, col := range datasetColumns {
		if strings.Contains(lower, col) {
			found = append(found, col)
		}
	}
	return found
}

// ExtractTitle finds a title-like line: short, not ending in punctuation.
// Falls back to the first line.
func ExtractTitle(text string) string {
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) >= 3 && len(line) <= 100 && !strings.HasSuffix(line, ".") && !strings.HasSuffix(line, "?") {
			return line
		}
	}
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
