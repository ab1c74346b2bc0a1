package align

import (
	"strings"

	"github.com/fwojciec/scrapely"
)

// attrSimilarity compares two attribute sets. Every attribute name present on
// either side contributes equally: 1 for equal values, 0.5 for differing
// values, 0 when missing on one side. Class lists are compared as sets.
// Two tags without attributes are identical.
func attrSimilarity(a, b []scrapely.Attr) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	total := 0.0
	union := len(a)
	for _, x := range a {
		y, ok := lookup(b, x.Name)
		switch {
		case !ok:
		case x.Name == "class":
			total += jaccard(strings.Fields(x.Value), strings.Fields(y))
		case x.Value == y:
			total++
		default:
			total += 0.5
		}
	}
	for _, y := range b {
		if _, ok := lookup(a, y.Name); !ok {
			union++
		}
	}
	return total / float64(union)
}

func lookup(attrs []scrapely.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// jaccard returns |a ∩ b| / |a ∪ b| over the distinct words of a and b.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := make(map[string]uint8, len(a)+len(b))
	for _, w := range a {
		set[w] |= 1
	}
	for _, w := range b {
		set[w] |= 2
	}
	inter := 0
	for _, v := range set {
		if v == 3 {
			inter++
		}
	}
	return float64(inter) / float64(len(set))
}
