package booster

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
)

var _ Model = (*XGBoost)(nil)

type xgbJSON struct {
	Learner learnerJSON `json:"learner"`
	Version []int       `json:"version"`
}

type learnerJSON struct {
	Attributes        map[string]string     `json:"attributes"`
	FeatureNames      []string              `json:"feature_names"`
	FeatureTypes      []string              `json:"feature_types"`
	GradientBooster   gradientBoosterJSON   `json:"gradient_booster"`
	LearnerModelParam learnerModelParamJSON `json:"learner_model_param"`
	Objective         objectiveJSON         `json:"objective"`
}

type learnerModelParamJSON struct {
	BaseScore  string `json:"base_score"`
	NumClass   string `json:"num_class"`
	NumFeature string `json:"num_feature"`
	NumTarget  string `json:"num_target"`
}

type objectiveJSON struct {
	Name string `json:"name"`
}

// gradientBoosterJSON covers both the gbtree layout and dart, which nests a gbtree
// under its own key alongside the per tree weights
type gradientBoosterJSON struct {
	Name       string           `json:"name"`
	Model      *gbtreeModelJSON `json:"model"`
	GBTree     *gbtreeJSON      `json:"gbtree"`
	WeightDrop []float64        `json:"weight_drop"`
}

type gbtreeJSON struct {
	Model gbtreeModelJSON `json:"model"`
}

type gbtreeModelJSON struct {
	Trees    []treeJSON `json:"trees"`
	TreeInfo []int      `json:"tree_info"`
}

type treeJSON struct {
	ID              int       `json:"id"`
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     flags     `json:"default_left"`
	SplitType       []int     `json:"split_type"`
}

// flags decodes default_left which older writers emit as booleans and newer ones as 0/1
type flags []bool

func (f *flags) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]bool, len(raw))
	for i, v := range raw {
		switch val := v.(type) {
		case bool:
			out[i] = val
		case float64:
			out[i] = val != 0
		default:
			return fmt.Errorf("unexpected default_left value %v, %w", v, ErrInvalidModel)
		}
	}
	*f = out
	return nil
}

// XGBoost is a gradient boosted tree ensemble loaded from the JSON model format
type XGBoost struct {
	objective    string
	link         link
	baseScore    float64
	baseMargin   float64
	numFeature   int
	featureNames []string
	booster      string
	trees        []tree
	weights      []float64
	version      []int
}

// Load reads an XGBoost JSON model from disk
func Load(path string) (*XGBoost, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s, %w", path, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	m, err := NewFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("unable to load model from %s, %w", path, err)
	}
	return m, nil
}

// NewFromReader decodes an XGBoost JSON model from r
func NewFromReader(r io.Reader) (*XGBoost, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewFromJSON(data)
}

// NewFromJSON decodes and validates an XGBoost JSON model. Binary and UBJSON artifacts are
// rejected, so are multi output models and boosters other than gbtree and dart.
func NewFromJSON(data []byte) (*XGBoost, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("model is not in the JSON format, %w", ErrUnsupportedModel)
	}

	var raw xgbJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInvalidModel, err)
	}
	learner := raw.Learner

	l, err := objectiveLink(learner.Objective.Name)
	if err != nil {
		return nil, err
	}

	params := learner.LearnerModelParam
	numClass, err := parseIntParam("num_class", params.NumClass, 0)
	if err != nil {
		return nil, err
	}
	numTarget, err := parseIntParam("num_target", params.NumTarget, 1)
	if err != nil {
		return nil, err
	}
	if numClass > 1 || numTarget > 1 {
		return nil, fmt.Errorf("multi output models with %d classes and %d targets, %w", numClass, numTarget, ErrUnsupportedModel)
	}
	numFeature, err := parseIntParam("num_feature", params.NumFeature, 0)
	if err != nil {
		return nil, err
	}
	if numFeature == 0 {
		numFeature = len(learner.FeatureNames)
	}
	if numFeature <= 0 {
		return nil, fmt.Errorf("model declares no features, %w", ErrInvalidModel)
	}
	if len(learner.FeatureNames) != 0 && len(learner.FeatureNames) != numFeature {
		return nil, fmt.Errorf("%d feature names for %d features, %w", len(learner.FeatureNames), numFeature, ErrInvalidModel)
	}

	baseScore, err := parseBaseScore(params.BaseScore)
	if err != nil {
		return nil, err
	}
	baseMargin, err := l.toMargin(baseScore)
	if err != nil {
		return nil, err
	}

	m := &XGBoost{
		objective:    learner.Objective.Name,
		link:         l,
		baseScore:    baseScore,
		baseMargin:   baseMargin,
		numFeature:   numFeature,
		featureNames: learner.FeatureNames,
		booster:      learner.GradientBooster.Name,
		version:      raw.Version,
	}

	gb := learner.GradientBooster
	var treesJSON []treeJSON
	switch gb.Name {
	case "gbtree":
		if gb.Model == nil {
			return nil, fmt.Errorf("gbtree booster without a model, %w", ErrInvalidModel)
		}
		treesJSON = gb.Model.Trees
	case "dart":
		if gb.GBTree == nil {
			return nil, fmt.Errorf("dart booster without a gbtree, %w", ErrInvalidModel)
		}
		treesJSON = gb.GBTree.Model.Trees
		if len(gb.WeightDrop) != len(treesJSON) {
			return nil, fmt.Errorf("dart booster has %d weights for %d trees, %w", len(gb.WeightDrop), len(treesJSON), ErrInvalidModel)
		}
	default:
		return nil, fmt.Errorf("booster %q, %w", gb.Name, ErrUnsupportedModel)
	}

	m.trees = make([]tree, len(treesJSON))
	m.weights = make([]float64, len(treesJSON))
	for i, tj := range treesJSON {
		t, err := newTree(tj, numFeature)
		if err != nil {
			return nil, err
		}
		m.trees[i] = t
		m.weights[i] = 1.0
		if gb.Name == "dart" {
			m.weights[i] = gb.WeightDrop[i]
		}
	}
	return m, nil
}

// parseBaseScore accepts both "5E-1" and the bracketed vector form "[5E-1]"
func parseBaseScore(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0.5, nil
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	parts := strings.Split(s, ",")
	if len(parts) != 1 {
		return 0, fmt.Errorf("base score with %d values, %w", len(parts), ErrUnsupportedModel)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("base score %q, %w, %w", s, ErrInvalidModel, err)
	}
	return v, nil
}

func parseIntParam(name, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q, %w, %w", name, s, ErrInvalidModel, err)
	}
	return v, nil
}

// Predict scores each row of x, returning predictions in the output space of the objective
func (m *XGBoost) Predict(x mat.Matrix) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	nObs, nFeat := x.Dims()
	if nFeat != m.numFeature {
		return nil, fmt.Errorf("expected %d features, but got %d, %w", m.numFeature, nFeat, ErrFeatureLenMismatch)
	}

	row := make([]float32, nFeat)
	res := make([]float64, nObs)
	for i := 0; i < nObs; i++ {
		for j := 0; j < nFeat; j++ {
			row[j] = float32(x.At(i, j))
		}
		res[i] = m.predictRow(row)
	}
	return res, nil
}

func (m *XGBoost) predictRow(row []float32) float64 {
	margin := m.baseMargin
	for i, t := range m.trees {
		margin += m.weights[i] * float64(t.leaf(row))
	}
	return m.link.fromMargin(margin)
}

func (m *XGBoost) NumFeatures() int {
	return m.numFeature
}

// FeatureNames returns a copy of the feature names stored with the model, nil if the model
// was trained without them
func (m *XGBoost) FeatureNames() []string {
	if m.featureNames == nil {
		return nil
	}
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

func (m *XGBoost) NumTrees() int {
	return len(m.trees)
}

func (m *XGBoost) Objective() string {
	return m.objective
}

func (m *XGBoost) Booster() string {
	return m.booster
}

func (m *XGBoost) BaseScore() float64 {
	return m.baseScore
}

// Version returns the xgboost version that wrote the model formatted as major.minor.patch
func (m *XGBoost) Version() string {
	if len(m.version) == 0 {
		return "unknown"
	}
	parts := make([]string, len(m.version))
	for i, v := range m.version {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}

func (m *XGBoost) String() string {
	return fmt.Sprintf("xgboost %s %s objective=%s trees=%d features=%d", m.Version(), m.booster, m.objective, len(m.trees), m.numFeature)
}
