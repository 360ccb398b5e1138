package feature

import (
	"gonum.org/v1/gonum/mat"
)

// Set represents a mapping to each feature data keyed by the string representation
// of the feature. Features keep their insertion order.
type Set struct {
	m      int
	set    map[string][]float64
	labels []Feature
}

func NewSet() *Set {
	return &Set{
		set: make(map[string][]float64),
	}
}

// Len returns the number of rows in the set
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.m
}

// Set stores the feature data. Shorter columns are zero padded to the longest column in
// the set. Setting an existing feature overrides its data in place.
func (s *Set) Set(f Feature, data []float64) *Set {
	if s == nil {
		return nil
	}

	if _, exists := s.set[f.String()]; !exists {
		s.labels = append(s.labels, f)
	}
	cp := make([]float64, len(data))
	copy(cp, data)
	s.set[f.String()] = cp

	if len(data) > s.m {
		s.m = len(data)
	}
	for label, col := range s.set {
		if len(col) < s.m {
			padded := make([]float64, s.m)
			copy(padded, col)
			s.set[label] = padded
		}
	}
	return s
}

// Get returns the feature data and whether it exists
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	data, exists := s.set[f.String()]
	return data, exists
}

// Del removes a feature from the set
func (s *Set) Del(f Feature) *Set {
	if s == nil {
		return nil
	}
	if _, exists := s.set[f.String()]; !exists {
		return s
	}
	delete(s.set, f.String())
	for i, label := range s.labels {
		if label.String() == f.String() {
			s.labels = append(s.labels[:i], s.labels[i+1:]...)
			break
		}
	}
	if len(s.labels) == 0 {
		s.m = 0
	}
	return s
}

// Labels returns the features in insertion order
func (s *Set) Labels() *Labels {
	if s == nil {
		return nil
	}
	labels := make([]Feature, len(s.labels))
	copy(labels, s.labels)
	return NewLabels(labels)
}

// Matrix returns a matrix representation of the Set. The matrix has m rows representing
// the number of observations and n columns representing the number of features.
func (s *Set) Matrix() *mat.Dense {
	if s == nil || len(s.labels) == 0 || s.m == 0 {
		return nil
	}

	n := len(s.labels)
	obs := make([]float64, s.m*n)
	for j, label := range s.labels {
		feature := s.set[label.String()]
		for i := 0; i < len(feature); i++ {
			obs[n*i+j] = feature[i]
		}
	}
	return mat.NewDense(s.m, n, obs)
}
