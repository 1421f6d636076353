package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lst-tools/geometry"
)

var (
	ErrInvalidRange = errors.New("invalid date range")
	ErrInvalidQuery = errors.New("invalid query")
)

// QuerySpec selects the images of one catalog acquired in [Start, End) whose
// footprint intersects Filter.
type QuerySpec struct {
	CatalogID string            `json:"catalog"`
	Start     time.Time         `json:"start"`
	End       time.Time         `json:"end"`
	Filter    *geometry.Encoded `json:"filter"`
}

// Query describes a filtered image collection. Nothing is fetched until the
// collection is evaluated through a Session.
func Query(catalogID string, start, end time.Time, filter geometry.Geometry) (*Collection, error) {
	if strings.TrimSpace(catalogID) == "" {
		return nil, fmt.Errorf("%w: empty catalog id", ErrInvalidQuery)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if filter == nil {
		return nil, fmt.Errorf("%w: missing spatial filter", geometry.ErrInvalidGeometry)
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	enc, err := geometry.Encode(filter)
	if err != nil {
		return nil, err
	}
	spec := &QuerySpec{CatalogID: catalogID, Start: start.UTC(), End: end.UTC(), Filter: enc}
	return &Collection{node: &Node{Op: OpQuery, Query: spec}}, nil
}

// InRange reports whether t falls in the half-open interval [Start, End).
func (q QuerySpec) InRange(t time.Time) bool {
	return !t.Before(q.Start) && t.Before(q.End)
}

func (q QuerySpec) Geometry() (geometry.Geometry, error) {
	return q.Filter.Decode()
}

func (q QuerySpec) validate() error {
	if strings.TrimSpace(q.CatalogID) == "" {
		return fmt.Errorf("%w: empty catalog id", ErrInvalidQuery)
	}
	if !q.Start.Before(q.End) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidRange, q.Start, q.End)
	}
	_, err := q.Geometry()
	return err
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate accepts a plain date or a timestamp. Values without a zone are UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q could not be parsed by any expected format", ErrInvalidRange, s)
}
