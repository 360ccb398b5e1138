package feature

import (
	"fmt"
	"slices"
)

// Labels tracks an ordered slice of features and their index locations. The order
// matches the column order of the model input.
type Labels struct {
	idx    map[string]int
	labels []Feature
}

func NewLabels(labels []Feature) *Labels {
	idx := make(map[string]int)
	for i := 0; i < len(labels); i++ {
		idx[labels[i].String()] = i
	}
	fl := &Labels{
		labels: labels,
		idx:    idx,
	}
	return fl
}

func (f *Labels) Len() int {
	if f == nil {
		return 0
	}
	return len(f.labels)
}

func (f *Labels) Labels() []Feature {
	labels := make([]Feature, len(f.labels))
	copy(labels, f.labels)
	return labels
}

// Names returns the string representation of every feature in order
func (f *Labels) Names() []string {
	names := make([]string, len(f.labels))
	for i, label := range f.labels {
		names[i] = label.String()
	}
	return names
}

// Decode describes every feature in order. Each entry carries the feature parameters
// along with its column name and kind.
func (f *Labels) Decode() []map[string]string {
	res := make([]map[string]string, len(f.labels))
	for i, label := range f.labels {
		d := label.Decode()
		d["column"] = label.String()
		d["type"] = label.Type().String()
		res[i] = d
	}
	return res
}

func (f *Labels) Index(label Feature) (int, bool) {
	if idx, exists := f.idx[label.String()]; exists {
		return idx, exists
	}
	return -1, false
}

// Check verifies that the input names match the labels one for one and in order
func (f *Labels) Check(names []string) error {
	expected := f.Names()
	if len(names) != len(expected) {
		return fmt.Errorf("expected %d features, but got %d, %w", len(expected), len(names), ErrFeatureMismatch)
	}
	if !slices.Equal(expected, names) {
		return fmt.Errorf("expected %v, but got %v, %w", expected, names, ErrFeatureMismatch)
	}
	return nil
}
