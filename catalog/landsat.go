package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidProductID = errors.New("invalid Landsat product id")

// LC09_L2SP_013031_20240702_20240703_02_T1
var productIDPattern = regexp.MustCompile(`^L([COTEM])(0[4-9])_(L[12][A-Z]{2})_([0-9]{3})([0-9]{3})_([0-9]{8})_([0-9]{8})_([0-9]{2})_(T1|T2|RT)$`)

// ProductID is a parsed Landsat Collection product identifier.
type ProductID struct {
	Sensor     string
	Satellite  int
	Level      string
	Path       int
	Row        int
	Acquired   time.Time
	Processed  time.Time
	Collection int
	Tier       string
}

// ParseProductID parses a Landsat product id. A file name with an extension or
// a band suffix (LC09_..._T1_SR_B4.TIF) is accepted and the suffix ignored.
func ParseProductID(s string) (ProductID, error) {
	id := s
	if i := strings.IndexByte(id, '.'); i >= 0 {
		id = id[:i]
	}
	parts := strings.Split(id, "_")
	if len(parts) > 7 {
		id = strings.Join(parts[:7], "_")
	}

	m := productIDPattern.FindStringSubmatch(id)
	if m == nil {
		return ProductID{}, fmt.Errorf("%w: %q", ErrInvalidProductID, s)
	}
	acquired, err := time.Parse("20060102", m[6])
	if err != nil {
		return ProductID{}, fmt.Errorf("%w: acquisition date %q", ErrInvalidProductID, m[6])
	}
	processed, err := time.Parse("20060102", m[7])
	if err != nil {
		return ProductID{}, fmt.Errorf("%w: processing date %q", ErrInvalidProductID, m[7])
	}

	return ProductID{
		Sensor:     m[1],
		Satellite:  atoi(m[2]),
		Level:      m[3],
		Path:       atoi(m[4]),
		Row:        atoi(m[5]),
		Acquired:   acquired,
		Processed:  processed,
		Collection: atoi(m[8]),
		Tier:       m[9],
	}, nil
}

func (p ProductID) String() string {
	return fmt.Sprintf("L%s%02d_%s_%03d%03d_%s_%s_%02d_%s",
		p.Sensor, p.Satellite, p.Level, p.Path, p.Row,
		p.Acquired.Format("20060102"), p.Processed.Format("20060102"), p.Collection, p.Tier)
}

// CollectionID is the catalog id of the collection the product belongs to,
// e.g. LANDSAT/LC09/C02/T1_L2.
func (p ProductID) CollectionID() string {
	level := "L1"
	if strings.HasPrefix(p.Level, "L2") {
		level = "L2"
	}
	return fmt.Sprintf("LANDSAT/L%s%02d/C%02d/%s_%s", p.Sensor, p.Satellite, p.Collection, p.Tier, level)
}

// BandSuffix returns the band part of a per-band product file name, e.g.
// ST_B10 for LC09_..._T1_ST_B10.TIF, or "" when the name carries no band.
func BandSuffix(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	parts := strings.Split(name, "_")
	if len(parts) <= 7 {
		return ""
	}
	return strings.Join(parts[7:], "_")
}

// atoi is only called on digit-only submatches.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
