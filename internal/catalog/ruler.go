package catalog

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Ruler is one row of the ruler/issuer association table.
type Ruler struct {
	RowID          int64
	RulerID        int64
	Name           string
	IssuerLabel    string
	YearsText      string
	Period         string
	PeriodOrder    int
	SubperiodOrder int
	// IssuerID is nil while the row is unassociated.
	IssuerID *int64
	IsManual bool
}

// AssociatedWith reports whether the row is bound to issuerID.
func (r Ruler) AssociatedWith(issuerID int64) bool {
	return r.IssuerID != nil && *r.IssuerID == issuerID
}

var firstNumber = regexp.MustCompile(`\d+`)

// StartYear parses the first year from YearsText. Years are negative when the
// text mentions BC. Rows without a year sort last via math.MaxInt.
func (r Ruler) StartYear() int {
	match := firstNumber.FindString(r.YearsText)
	if match == "" {
		return math.MaxInt
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return math.MaxInt
	}
	if strings.Contains(strings.ToUpper(r.YearsText), "BC") {
		return -year
	}
	return year
}

// PeriodGroup is a set of rulers sharing (Period, PeriodOrder). Rulers with no
// period appear as singleton groups with an empty Period.
type PeriodGroup struct {
	Period                string
	PeriodOrder           int
	Rulers                []Ruler
	IsAssociated          bool
	IsPartiallyAssociated bool
}

// GroupByPeriod groups rulers in first-seen order and computes association
// state relative to issuerID.
func GroupByPeriod(rulers []Ruler, issuerID int64) []PeriodGroup {
	type key struct {
		period string
		order  int
	}
	var groups []PeriodGroup
	index := map[key]int{}
	var loose []PeriodGroup
	for _, r := range rulers {
		if strings.TrimSpace(r.Period) == "" {
			loose = append(loose, PeriodGroup{
				Rulers:       []Ruler{r},
				IsAssociated: r.AssociatedWith(issuerID),
			})
			continue
		}
		k := key{r.Period, r.PeriodOrder}
		idx, ok := index[k]
		if !ok {
			idx = len(groups)
			index[k] = idx
			groups = append(groups, PeriodGroup{Period: r.Period, PeriodOrder: r.PeriodOrder})
		}
		groups[idx].Rulers = append(groups[idx].Rulers, r)
	}
	for i := range groups {
		all, some := true, false
		for _, r := range groups[i].Rulers {
			if r.AssociatedWith(issuerID) {
				some = true
			} else {
				all = false
			}
		}
		groups[i].IsAssociated = all
		groups[i].IsPartiallyAssociated = some && !all
	}
	return append(groups, loose...)
}

// RulerMatch is the candidacy predicate the resolver derives for an issuer.
// A label matches when it equals Name exactly (AllowSimple) or when it starts
// with Name and contains Territory afterwards, ignoring case (AllowCombined).
type RulerMatch struct {
	Name          string
	Territory     string
	AllowSimple   bool
	AllowCombined bool
}

// CombinedPattern returns the SQL LIKE pattern for the combined form.
func (m RulerMatch) CombinedPattern() string {
	return escapeLike(m.Name) + "%" + escapeLike(m.Territory) + "%"
}

// Matches evaluates the predicate in memory.
func (m RulerMatch) Matches(label string) bool {
	if strings.TrimSpace(m.Name) == "" {
		return false
	}
	if m.AllowSimple && label == m.Name {
		return true
	}
	folded := fold(strings.TrimSpace(label))
	name := fold(strings.TrimSpace(m.Name))
	if m.AllowCombined && strings.HasPrefix(folded, name) {
		return strings.Contains(folded[len(name):], fold(strings.TrimSpace(m.Territory)))
	}
	return false
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.TrimSpace(value))
}
