package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/snappy"
	"github.com/mikey/email-classifier/internal/vectorizer"
)

// ModelName identifies the classifier family in model metadata
const ModelName = "MultinomialNB"

var (
	// ErrNotFitted is returned when predicting with an unfitted model
	ErrNotFitted = errors.New("classifier not fitted")
	// ErrEmptyTrainingSet is returned when Fit receives no rows
	ErrEmptyTrainingSet = errors.New("empty training set")
	// ErrLabelMismatch is returned when rows and labels differ in length
	ErrLabelMismatch = errors.New("number of rows and labels differ")
	// ErrDimensionMismatch is matched by every DimensionMismatchError
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
)

// DimensionMismatchError reports a feature vector that does not fit the
// model width. Detail is set when the declared width is right but the
// vector's indices or values are not.
type DimensionMismatchError struct {
	Expected int
	Got      int
	Detail   string
}

func (e *DimensionMismatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("feature dimension mismatch: %s", e.Detail)
	}
	return fmt.Sprintf("feature dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// checkVector verifies x is a well-formed sparse vector of width dim
func checkVector(x vectorizer.FeatureVector, dim int) error {
	if x.Dim != dim {
		return &DimensionMismatchError{Expected: dim, Got: x.Dim}
	}
	if len(x.Indices) != len(x.Values) {
		return &DimensionMismatchError{
			Expected: len(x.Indices),
			Got:      len(x.Values),
			Detail:   fmt.Sprintf("%d indices but %d values", len(x.Indices), len(x.Values)),
		}
	}
	for _, idx := range x.Indices {
		if idx < 0 || idx >= dim {
			return &DimensionMismatchError{
				Expected: dim,
				Got:      idx,
				Detail:   fmt.Sprintf("feature index %d out of range [0, %d)", idx, dim),
			}
		}
	}
	return nil
}

// Is lets errors.Is match ErrDimensionMismatch
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// MultinomialNB is a multinomial naive Bayes classifier with additive smoothing.
// Once fitted it is read-only and can be shared between goroutines.
type MultinomialNB struct {
	Alpha float64

	classes        []string
	classLogPrior  []float64
	featureLogProb [][]float64
	nFeatures      int
}

// NewMultinomialNB creates an unfitted classifier
func NewMultinomialNB(alpha float64) (*MultinomialNB, error) {
	if alpha <= 0 || math.IsNaN(alpha) {
		return nil, fmt.Errorf("alpha must be positive, got %g", alpha)
	}
	return &MultinomialNB{Alpha: alpha}, nil
}

// Fit estimates class priors and per-class term weights from X and y
func (m *MultinomialNB) Fit(X []vectorizer.FeatureVector, y []string) error {
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrLabelMismatch, len(X), len(y))
	}

	dim := X[0].Dim
	for _, row := range X {
		if err := checkVector(row, dim); err != nil {
			return err
		}
	}

	counts := make(map[string]int)
	for _, label := range y {
		counts[label]++
	}
	classes := make([]string, 0, len(counts))
	for label := range counts {
		classes = append(classes, label)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	featureCount := make([][]float64, len(classes))
	for i := range featureCount {
		featureCount[i] = make([]float64, dim)
	}
	for r, row := range X {
		fc := featureCount[index[y[r]]]
		for k, idx := range row.Indices {
			fc[idx] += row.Values[k]
		}
	}

	total := float64(len(y))
	m.classes = classes
	m.nFeatures = dim
	m.classLogPrior = make([]float64, len(classes))
	m.featureLogProb = make([][]float64, len(classes))
	for i, c := range classes {
		m.classLogPrior[i] = math.Log(float64(counts[c])) - math.Log(total)

		var smoothedTotal float64
		for _, v := range featureCount[i] {
			smoothedTotal += v + m.Alpha
		}
		logTotal := math.Log(smoothedTotal)

		flp := make([]float64, dim)
		for j, v := range featureCount[i] {
			flp[j] = math.Log(v+m.Alpha) - logTotal
		}
		m.featureLogProb[i] = flp
	}
	return nil
}

// Classes returns the fitted labels in the order used by PredictProba
func (m *MultinomialNB) Classes() []string {
	out := make([]string, len(m.classes))
	copy(out, m.classes)
	return out
}

// NumFeatures returns the feature width the model was fitted on
func (m *MultinomialNB) NumFeatures() int {
	return m.nFeatures
}

// Fitted reports whether Fit has completed
func (m *MultinomialNB) Fitted() bool {
	return len(m.classes) > 0
}

func (m *MultinomialNB) jointLogLikelihood(x vectorizer.FeatureVector) ([]float64, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	if err := checkVector(x, m.nFeatures); err != nil {
		return nil, err
	}

	jll := make([]float64, len(m.classes))
	for i := range m.classes {
		score := m.classLogPrior[i]
		flp := m.featureLogProb[i]
		for k, idx := range x.Indices {
			score += x.Values[k] * flp[idx]
		}
		jll[i] = score
	}
	return jll, nil
}

// Predict returns the most likely label for x
func (m *MultinomialNB) Predict(x vectorizer.FeatureVector) (string, error) {
	jll, err := m.jointLogLikelihood(x)
	if err != nil {
		return "", err
	}
	return m.classes[argmax(jll)], nil
}

// PredictProba returns class probabilities aligned with Classes
func (m *MultinomialNB) PredictProba(x vectorizer.FeatureVector) ([]float64, error) {
	jll, err := m.jointLogLikelihood(x)
	if err != nil {
		return nil, err
	}
	return softmax(jll), nil
}

// Classify returns the predicted label and its probability
func (m *MultinomialNB) Classify(x vectorizer.FeatureVector) (string, float64, error) {
	jll, err := m.jointLogLikelihood(x)
	if err != nil {
		return "", 0, err
	}
	best := argmax(jll)
	return m.classes[best], softmax(jll)[best], nil
}

// argmax picks the first index on ties
func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func softmax(xs []float64) []float64 {
	maxVal := xs[argmax(xs)]
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

type modelState struct {
	Alpha          float64     `json:"alpha"`
	Classes        []string    `json:"classes"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
	NumFeatures    int         `json:"n_features"`
}

// MarshalBinary encodes the fitted model as snappy-compressed JSON
func (m *MultinomialNB) MarshalBinary() ([]byte, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	data, err := json.Marshal(modelState{
		Alpha:          m.Alpha,
		Classes:        m.classes,
		ClassLogPrior:  m.classLogPrior,
		FeatureLogProb: m.featureLogProb,
		NumFeatures:    m.nFeatures,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode classifier: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

// UnmarshalBinary restores a model written by MarshalBinary
func (m *MultinomialNB) UnmarshalBinary(blob []byte) error {
	data, err := snappy.Decode(nil, blob)
	if err != nil {
		return fmt.Errorf("failed to decompress classifier: %w", err)
	}

	var state modelState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to decode classifier: %w", err)
	}

	n := len(state.Classes)
	if n == 0 || len(state.ClassLogPrior) != n || len(state.FeatureLogProb) != n {
		return fmt.Errorf("corrupt classifier: %d classes, %d priors, %d weight rows",
			n, len(state.ClassLogPrior), len(state.FeatureLogProb))
	}
	for _, row := range state.FeatureLogProb {
		if len(row) != state.NumFeatures {
			return fmt.Errorf("corrupt classifier: weight row has %d features, want %d", len(row), state.NumFeatures)
		}
	}

	m.Alpha = state.Alpha
	m.classes = state.Classes
	m.classLogPrior = state.ClassLogPrior
	m.featureLogProb = state.FeatureLogProb
	m.nFeatures = state.NumFeatures
	return nil
}
