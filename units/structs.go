package units

import "math"

// RelativeHumidity is a percentage in [0, 100]
type RelativeHumidity float64
type Celsius float64
type GramsPerCubicMeter float64
type MetersPerSecond float64
type Kilopascals float64
type WattsPerSquareMeter float64
type SquareMeterKelvinPerWatt float64

// Met is a unit of metabolic rate; 1 met = 58.15 W/m²
type Met float64

// Clo is a unit of clothing thermal insulation; 1 clo = 0.155 m²K/W
type Clo float64

func (m Met) WattsPerSquareMeter() WattsPerSquareMeter {
	return WattsPerSquareMeter(float64(m) * 58.15)
}

func (c Clo) Insulation() SquareMeterKelvinPerWatt {
	return SquareMeterKelvinPerWatt(float64(c) * 0.155)
}

// SaturationVaporPressure uses the Tetens approximation over water
func SaturationVaporPressure(temperature Celsius) Kilopascals {
	c := float64(temperature)
	return Kilopascals(0.6108 * math.Exp(17.27*c/(c+237.3)))
}

// VaporPressure is the partial water vapour pressure of air at the given temperature and relative humidity
func VaporPressure(temperature Celsius, relativeHumidity RelativeHumidity) Kilopascals {
	return Kilopascals(float64(relativeHumidity) / 100.0 * float64(SaturationVaporPressure(temperature)))
}

// AbsoluteHumidity uses the Magnus formula; relative humidity is in percent
func AbsoluteHumidity(temperature Celsius, relativeHumidity RelativeHumidity) GramsPerCubicMeter {
	rh := float64(relativeHumidity) / 100.0
	c := float64(temperature)
	numerator := rh * 6.112 * math.Exp((17.62*c)/(243.12+c))
	denominator := 273.15 + c

	humidity := GramsPerCubicMeter(216.7 * (numerator / denominator))
	return humidity
}
