package geometry

import (
	"math"

	"github.com/airbusgeo/godal"
)

// AreaSquareMeters reprojects g into the UTM zone of its center and returns its
// area in square meters.
func AreaSquareMeters(g Geometry) (area float64, err error) {
	geom, err := wgs84GeomFromString(WKT(g))
	if err != nil {
		return 0, err
	}
	defer geom.Close()

	center := g.Bound().Center()
	utmSRS, err := getUTMSpatialRef(center.Lng, center.Lat)
	if err != nil {
		return 0, err
	}
	defer utmSRS.Close()

	if err := geom.Reproject(utmSRS); err != nil {
		return 0, err
	}
	return geom.Area(), nil
}

func wgs84GeomFromString(wkt string) (*godal.Geometry, error) {
	srs, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return nil, err
	}
	defer srs.Close()
	geom, err := godal.NewGeometryFromWKT(wkt, srs)
	if err != nil {
		return nil, err
	}
	return geom, nil
}

func getUTMSpatialRef(lng float64, lat float64) (*godal.SpatialRef, error) {
	utm := int(math.Ceil((lng + 180) / 6))
	if utm < 1 {
		utm = 1
	}
	if utm > 60 {
		utm = 60
	}
	if lat >= 0 {
		return godal.NewSpatialRefFromEPSG(32600 + utm)
	}
	return godal.NewSpatialRefFromEPSG(32700 + utm)
}
