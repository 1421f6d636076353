package imagery

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

var ErrInvalidBand = errors.New("invalid band")

// Selection is the result of matching a band pattern against an image.
type Selection struct {
	Matched   []string
	Unmatched []string
}

// MatchBands splits names by a band pattern. The pattern is a regular
// expression that has to match the whole band name, so "SR_B." selects SR_B1
// through SR_B7 but not SR_QA_AEROSOL.
func MatchBands(names []string, pattern string) (Selection, error) {
	re, err := compileBandPattern(pattern)
	if err != nil {
		return Selection{}, err
	}
	var sel Selection
	for _, name := range names {
		if re.MatchString(name) {
			sel.Matched = append(sel.Matched, name)
		} else {
			sel.Unmatched = append(sel.Unmatched, name)
		}
	}
	sort.Strings(sel.Matched)
	sort.Strings(sel.Unmatched)
	return sel, nil
}

// SelectBands matches pattern against the bands of img.
func SelectBands(img *Image, pattern string) (Selection, error) {
	return MatchBands(img.BandNames(), pattern)
}

// Select returns a copy of img holding only the bands that match pattern.
func (img *Image) Select(pattern string) (*Image, error) {
	sel, err := SelectBands(img, pattern)
	if err != nil {
		return nil, err
	}
	out := img.shallowCopy()
	for _, name := range sel.Unmatched {
		delete(out.Bands, name)
	}
	return out, nil
}

func compileBandPattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrInvalidBand, pattern, err)
	}
	return re, nil
}
