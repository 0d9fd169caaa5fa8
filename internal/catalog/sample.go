package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// SampleType is the role a sample plays for its coin type.
type SampleType int

const (
	SampleTypeUnknown SampleType = 0
	SampleReference   SampleType = 1
	SampleSecondary   SampleType = 2
	SamplePastSale    SampleType = 3
)

func (t SampleType) String() string {
	switch t {
	case SampleReference:
		return "reference"
	case SampleSecondary:
		return "secondary"
	case SamplePastSale:
		return "past-sale"
	default:
		return fmt.Sprintf("type-%d", int(t))
	}
}

// Attribute is one of the mutually exclusive sample tags.
type Attribute string

const (
	AttributeNone           Attribute = ""
	AttributeHolder         Attribute = "holder"
	AttributeCounterstamped Attribute = "counterstamped"
	AttributeRoll           Attribute = "roll"
	AttributeContainsHolder Attribute = "contains-holder"
	AttributeContainsText   Attribute = "contains-text"
	AttributeMultiCoin      Attribute = "multi-coin"
)

// Attributes lists every settable tag in display order.
var Attributes = []Attribute{
	AttributeHolder,
	AttributeCounterstamped,
	AttributeRoll,
	AttributeContainsHolder,
	AttributeContainsText,
	AttributeMultiCoin,
}

// ParseAttribute accepts a tag name or "none".
func ParseAttribute(value string) (Attribute, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if normalized == "" || normalized == "none" {
		return AttributeNone, nil
	}
	for _, attr := range Attributes {
		if string(attr) == normalized {
			return attr, nil
		}
	}
	return AttributeNone, fmt.Errorf("unknown attribute %q", value)
}

// Tags is the persisted flag set of a sample. At most one flag is true once a
// sample has been marked.
type Tags struct {
	Holder         bool
	Counterstamped bool
	Roll           bool
	ContainsHolder bool
	ContainsText   bool
	MultiCoin      bool
}

// TagsFor returns a flag set where only attr is true.
func TagsFor(attr Attribute) Tags {
	return Tags{
		Holder:         attr == AttributeHolder,
		Counterstamped: attr == AttributeCounterstamped,
		Roll:           attr == AttributeRoll,
		ContainsHolder: attr == AttributeContainsHolder,
		ContainsText:   attr == AttributeContainsText,
		MultiCoin:      attr == AttributeMultiCoin,
	}
}

// Active returns the first set tag, or AttributeNone.
func (t Tags) Active() Attribute {
	switch {
	case t.Holder:
		return AttributeHolder
	case t.Counterstamped:
		return AttributeCounterstamped
	case t.Roll:
		return AttributeRoll
	case t.ContainsHolder:
		return AttributeContainsHolder
	case t.ContainsText:
		return AttributeContainsText
	case t.MultiCoin:
		return AttributeMultiCoin
	default:
		return AttributeNone
	}
}

// Sample is one obverse/reverse image pair attached to a coin type.
type Sample struct {
	ID           int64
	CoinTypeID   int64
	ObverseImage string
	ReverseImage string
	Type         SampleType
	Removed      bool
	Tags         Tags

	// Absolute paths resolved through Layout.
	ObversePath string
	ReversePath string
}

func (s Sample) HasObverse() bool { return strings.TrimSpace(s.ObverseImage) != "" }

func (s Sample) HasReverse() bool { return strings.TrimSpace(s.ReverseImage) != "" }

// HasBothFaces reports whether obverse and reverse are both present.
func (s Sample) HasBothFaces() bool { return s.HasObverse() && s.HasReverse() }

// Valid reports whether the sample references at least one image.
func (s Sample) Valid() bool { return s.HasObverse() || s.HasReverse() }

// IsCombined reports whether both faces point at the same photograph.
func (s Sample) IsCombined() bool {
	if !s.HasBothFaces() {
		return false
	}
	if sameName(s.ObverseImage, s.ReverseImage) {
		return true
	}
	return s.ObversePath != "" && s.ObversePath == s.ReversePath
}

// DistinctReverse reports whether the reverse is a separate file from the obverse.
func (s Sample) DistinctReverse() bool {
	return s.HasReverse() && !sameName(s.ObverseImage, s.ReverseImage)
}

// fold case-folds value. A cases.Caser is stateful, so each call gets its own.
func fold(value string) string { return cases.Fold().String(value) }

func sameName(a, b string) bool {
	return fold(strings.TrimSpace(a)) == fold(strings.TrimSpace(b))
}

// SameImageName compares two image file names the way the catalog does:
// trimmed and case-insensitive.
func SameImageName(a, b string) bool { return sameName(a, b) }
