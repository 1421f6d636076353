// Package scaling converts Landsat Collection 2 Level-2 digital numbers into
// physical units.
package scaling

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"lst-tools/imagery"
)

const (
	// OpticalPattern selects the surface reflectance bands SR_B1..SR_B7.
	OpticalPattern = `SR_B.`
	// ThermalPattern selects the surface temperature bands (ST_B10).
	ThermalPattern = `ST_B.*`

	ReflectanceMultiplier = 0.0000275
	ReflectanceOffset     = -0.2

	ThermalMultiplier = 0.00341802
	ThermalOffset     = 149.0

	KelvinAtZeroCelsius = 273.15
)

// FunctionName is the name ApplyScaleFactors is registered under in a session.
const FunctionName = "applyScaleFactors"

func Reflectance(dn float64) float64 {
	return dn*ReflectanceMultiplier + ReflectanceOffset
}

func Kelvin(dn float64) float64 {
	return dn*ThermalMultiplier + ThermalOffset
}

func Celsius(kelvin float64) float64 {
	return kelvin - KelvinAtZeroCelsius
}

func Fahrenheit(celsius float64) float64 {
	return celsius*(9.0/5.0) + 32
}

// ThermalFahrenheit converts a thermal digital number to degrees Fahrenheit by
// way of Kelvin and Celsius, one step at a time.
func ThermalFahrenheit(dn float64) float64 {
	return Fahrenheit(Celsius(Kelvin(dn)))
}

// Policy controls what happens when a band group matches nothing.
type Policy struct {
	// RequireMatch turns an empty optical or thermal match into ErrInvalidBand.
	RequireMatch bool
}

type bandGroup struct {
	pattern string
	convert func(float64) float64
}

var scaleGroups = []bandGroup{
	{pattern: OpticalPattern, convert: Reflectance},
	{pattern: ThermalPattern, convert: ThermalFahrenheit},
}

// ApplyScaleFactors returns a new image where optical bands hold surface
// reflectance and thermal bands hold degrees Fahrenheit. Other bands are passed
// through. It is not idempotent: every call rescales the matched bands again.
func ApplyScaleFactors(img *imagery.Image, policy Policy) (*imagery.Image, error) {
	converted := map[string]*imagery.Band{}
	for _, group := range scaleGroups {
		sel, err := imagery.SelectBands(img, group.pattern)
		if err != nil {
			return nil, err
		}
		if len(sel.Matched) == 0 {
			if policy.RequireMatch {
				return nil, fmt.Errorf("%w: %q matches no band of %s", imagery.ErrInvalidBand, group.pattern, img.ID)
			}
			logrus.Debugf("No band of %s matches %q", img.ID, group.pattern)
			continue
		}
		for _, name := range sel.Matched {
			converted[name] = img.Bands[name].Apply(group.convert)
		}
	}
	return img.WithBands(converted)
}

// ScaleFactors wraps ApplyScaleFactors as a collection transform.
func ScaleFactors(policy Policy) imagery.Transform {
	return func(img *imagery.Image) (*imagery.Image, error) {
		return ApplyScaleFactors(img, policy)
	}
}
