package feature

import "fmt"

const (
	IdentifierStore = "store"
	IdentifierItem  = "item"
)

// Identifier is a categorical id such as the store or item number passed through to
// the model as a numeric value.
type Identifier struct {
	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{name}
}

func (i Identifier) String() string {
	return i.Name
}

func (i Identifier) Type() FeatureType {
	return FeatureTypeIdentifier
}

func (i Identifier) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = i.Name
	return res
}

// Value selects the store or item id
func (i Identifier) Value(store, item int) (int, error) {
	switch i.Name {
	case IdentifierStore:
		return store, nil
	case IdentifierItem:
		return item, nil
	}
	return 0, fmt.Errorf("%s, %w", i.Name, ErrUnknownFeature)
}
