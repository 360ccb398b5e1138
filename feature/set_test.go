package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSetSet(t *testing.T) {
	testData := map[string]struct {
		init     *Set
		f        Feature
		data     []float64
		expected *Set
	}{
		"initial set": {
			init: NewSet(),
			f:    NewIdentifier("store"),
			data: []float64{1, 2, 3, 4},
			expected: &Set{
				m: 4,
				set: map[string][]float64{
					"store": {1, 2, 3, 4},
				},
				labels: []Feature{NewIdentifier("store")},
			},
		},
		"set with more data": {
			init: &Set{
				m: 4,
				set: map[string][]float64{
					"store": {1, 2, 3, 4},
				},
				labels: []Feature{NewIdentifier("store")},
			},
			f:    NewIdentifier("item"),
			data: []float64{1, 2, 3, 4, 5, 6},
			expected: &Set{
				m: 6,
				set: map[string][]float64{
					"store": {1, 2, 3, 4, 0, 0},
					"item":  {1, 2, 3, 4, 5, 6},
				},
				labels: []Feature{
					NewIdentifier("store"),
					NewIdentifier("item"),
				},
			},
		},
		"set with less data": {
			init: &Set{
				m: 4,
				set: map[string][]float64{
					"store": {1, 2, 3, 4},
				},
				labels: []Feature{NewIdentifier("store")},
			},
			f:    NewTime(TimeYear),
			data: []float64{1, 2},
			expected: &Set{
				m: 4,
				set: map[string][]float64{
					"store": {1, 2, 3, 4},
					"year":  {1, 2, 0, 0},
				},
				labels: []Feature{
					NewIdentifier("store"),
					NewTime(TimeYear),
				},
			},
		},
		"override": {
			init: &Set{
				m: 4,
				set: map[string][]float64{
					"store": {1, 2, 3, 4},
				},
				labels: []Feature{NewIdentifier("store")},
			},
			f:    NewIdentifier("store"),
			data: []float64{5, 6, 7, 8},
			expected: &Set{
				m: 4,
				set: map[string][]float64{
					"store": {5, 6, 7, 8},
				},
				labels: []Feature{NewIdentifier("store")},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s := td.init.Set(td.f, td.data)
			assert.Equal(t, td.expected, s)
		})
	}
}

func TestSetDel(t *testing.T) {
	testData := map[string]struct {
		init     *Set
		f        Feature
		expected *Set
	}{
		"unknown feature": {
			init: &Set{
				m:      2,
				set:    map[string][]float64{"store": {1, 2}},
				labels: []Feature{NewIdentifier("store")},
			},
			f: NewIdentifier("item"),
			expected: &Set{
				m:      2,
				set:    map[string][]float64{"store": {1, 2}},
				labels: []Feature{NewIdentifier("store")},
			},
		},
		"remove one of two": {
			init: &Set{
				m:      2,
				set:    map[string][]float64{"store": {1, 2}, "item": {3, 4}},
				labels: []Feature{NewIdentifier("store"), NewIdentifier("item")},
			},
			f: NewIdentifier("store"),
			expected: &Set{
				m:      2,
				set:    map[string][]float64{"item": {3, 4}},
				labels: []Feature{NewIdentifier("item")},
			},
		},
		"remove last": {
			init: &Set{
				m:      2,
				set:    map[string][]float64{"store": {1, 2}},
				labels: []Feature{NewIdentifier("store")},
			},
			f: NewIdentifier("store"),
			expected: &Set{
				m:      0,
				set:    map[string][]float64{},
				labels: []Feature{},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.init.Del(td.f))
		})
	}
}

func TestSetMatrix(t *testing.T) {
	var nilSet *Set
	assert.Nil(t, nilSet.Matrix())
	assert.Nil(t, NewSet().Matrix())

	s := NewSet().
		Set(NewIdentifier("store"), []float64{1, 2, 3}).
		Set(NewIdentifier("item"), []float64{4, 5, 6})

	expected := mat.NewDense(3, 2, []float64{
		1, 4,
		2, 5,
		3, 6,
	})
	assert.Equal(t, expected, s.Matrix())
	assert.Equal(t, []string{"store", "item"}, s.Labels().Names())

	data, exists := s.Get(NewIdentifier("item"))
	assert.True(t, exists)
	assert.Equal(t, []float64{4, 5, 6}, data)
}
