package training

import (
	"sort"
)

// ClassMetrics holds precision, recall and F1 for one label
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation summarizes a classifier on its held-out set
type Evaluation struct {
	Accuracy float64        `json:"accuracy"`
	Classes  []ClassMetrics `json:"classes"`
}

// Evaluate compares predictions against expected labels.
// Labels with no true or predicted samples score zero rather than NaN.
func Evaluate(expected, predicted []string) Evaluation {
	if len(expected) == 0 || len(expected) != len(predicted) {
		return Evaluation{}
	}

	truePos := make(map[string]int)
	predCount := make(map[string]int)
	support := make(map[string]int)
	correct := 0
	for i := range expected {
		support[expected[i]]++
		predCount[predicted[i]]++
		if expected[i] == predicted[i] {
			truePos[expected[i]]++
			correct++
		}
	}

	labels := make([]string, 0, len(support))
	seen := make(map[string]bool)
	for _, m := range []map[string]int{support, predCount} {
		for l := range m {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Strings(labels)

	eval := Evaluation{Accuracy: float64(correct) / float64(len(expected))}
	for _, l := range labels {
		m := ClassMetrics{Label: l, Support: support[l]}
		if predCount[l] > 0 {
			m.Precision = float64(truePos[l]) / float64(predCount[l])
		}
		if support[l] > 0 {
			m.Recall = float64(truePos[l]) / float64(support[l])
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		eval.Classes = append(eval.Classes, m)
	}
	return eval
}
