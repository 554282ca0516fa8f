// Package pmv computes the Predicted Mean Vote per ISO 7730 / ASHRAE 55, using the closed-form heat
// balance with a linearised clothing surface temperature rather than the iterative solution given in
// the standard.
package pmv

import (
	"comfort-exporter/units"
	"math"

	"github.com/pkg/errors"
)

const (
	DefaultMetabolicRate units.Met = 1.2
	DefaultClothing      units.Clo = 0.5

	// Below this air to radiant temperature difference, in K, convection is treated as forced
	naturalConvectionThreshold = 0.1
	// Above this insulation, in clo, the heavier clothing area factor applies
	clothingAreaFactorThreshold units.Clo = 0.5
)

var (
	ErrNonFiniteInput = errors.New("non-finite input")
	ErrDomain         = errors.New("argument outside real domain")
)

// Conditions are the environmental and personal parameters of a single evaluation
type Conditions struct {
	AirTemperature   units.Celsius
	RelativeHumidity units.RelativeHumidity
	AirVelocity      units.MetersPerSecond
	MetabolicRate    units.Met
	Clothing         units.Clo
	// Air temperature is used when nil
	MeanRadiantTemperature *units.Celsius
	// Derived from air temperature and relative humidity when nil
	VaporPressure *units.Kilopascals
}

func NewConditions(
	airTemperature units.Celsius,
	relativeHumidity units.RelativeHumidity,
	airVelocity units.MetersPerSecond,
) Conditions {
	return Conditions{
		AirTemperature:   airTemperature,
		RelativeHumidity: relativeHumidity,
		AirVelocity:      airVelocity,
		MetabolicRate:    DefaultMetabolicRate,
		Clothing:         DefaultClothing,
	}
}

func (c Conditions) WithMetabolicRate(met units.Met) Conditions {
	c.MetabolicRate = met
	return c
}

func (c Conditions) WithClothing(clo units.Clo) Conditions {
	c.Clothing = clo
	return c
}

func (c Conditions) WithMeanRadiantTemperature(tr units.Celsius) Conditions {
	c.MeanRadiantTemperature = &tr
	return c
}

func (c Conditions) WithVaporPressure(pa units.Kilopascals) Conditions {
	c.VaporPressure = &pa
	return c
}

// HeatBalance holds every intermediate quantity of an evaluation along with the resulting PMV
type HeatBalance struct {
	MetabolicRate          units.WattsPerSquareMeter
	ExternalWork           units.WattsPerSquareMeter
	ClothingInsulation     units.SquareMeterKelvinPerWatt
	MeanRadiantTemperature units.Celsius
	VaporPressure          units.Kilopascals
	// W/m²K
	ConvectiveHeatTransfer     float64
	ClothingAreaFactor         float64
	ClothingSurfaceTemperature units.Celsius

	SkinDiffusion       units.WattsPerSquareMeter
	Sweating            units.WattsPerSquareMeter
	LatentRespiration   units.WattsPerSquareMeter
	SensibleRespiration units.WattsPerSquareMeter
	Convection          units.WattsPerSquareMeter
	Radiation           units.WattsPerSquareMeter

	PMV float64
}

type HeatLoss struct {
	Term  string
	Value units.WattsPerSquareMeter
}

// Losses lists the heat loss terms in the order they are subtracted from the metabolic heat
func (h *HeatBalance) Losses() []HeatLoss {
	return []HeatLoss{
		{"skin_diffusion", h.SkinDiffusion},
		{"sweating", h.Sweating},
		{"latent_respiration", h.LatentRespiration},
		{"sensible_respiration", h.SensibleRespiration},
		{"convection", h.Convection},
		{"radiation", h.Radiation},
	}
}

// Evaluate returns the predicted mean vote for the conditions. The result is not clamped to [-3, 3].
func Evaluate(c Conditions) (float64, error) {
	balance, err := Breakdown(c)
	if err != nil {
		return 0, err
	}
	return balance.PMV, nil
}

// Breakdown evaluates the conditions and returns the full heat balance.
func Breakdown(c Conditions) (*HeatBalance, error) {
	err := validate(c)
	if err != nil {
		return nil, err
	}

	ta := float64(c.AirTemperature)
	clo := float64(c.Clothing)

	tr := ta
	if c.MeanRadiantTemperature != nil {
		tr = float64(*c.MeanRadiantTemperature)
	}

	var pa float64
	if c.VaporPressure != nil {
		pa = float64(*c.VaporPressure)
	} else {
		if ta+237.3 == 0 {
			return nil, errors.Wrapf(ErrDomain, "saturation vapor pressure undefined at %v °C", ta)
		}
		pa = float64(units.VaporPressure(c.AirTemperature, c.RelativeHumidity))
	}

	m := float64(c.MetabolicRate.WattsPerSquareMeter())
	w := 0.0
	icl := float64(c.Clothing.Insulation())

	hc, err := convectiveHeatTransfer(ta, tr, float64(c.AirVelocity))
	if err != nil {
		return nil, err
	}

	fcl := clothingAreaFactor(clo)

	tcl, err := clothingSurfaceTemperature(ta, icl)
	if err != nil {
		return nil, err
	}

	hl1 := 3.05e-3 * (5733 - 6.99*(m-w) - pa*1000)
	hl2 := 0.42 * ((m - w) - 58.15)
	hl3 := 1.7e-5 * m * (5867 - pa*1000)
	hl4 := 0.0014 * m * (34 - ta)
	hl5 := fcl * hc * (tcl - ta)
	hl6 := fcl * 3.96e-8 * (math.Pow(tcl+273, 4) - math.Pow(tr+273, 4))

	pmv := (0.303*math.Exp(-0.036*m) + 0.028) * ((m - w) - hl1 - hl2 - hl3 - hl4 - hl5 - hl6)
	if math.IsNaN(pmv) || math.IsInf(pmv, 0) {
		return nil, errors.Wrapf(ErrDomain, "heat balance did not produce a finite vote (%v)", pmv)
	}

	return &HeatBalance{
		MetabolicRate:              units.WattsPerSquareMeter(m),
		ExternalWork:               units.WattsPerSquareMeter(w),
		ClothingInsulation:         units.SquareMeterKelvinPerWatt(icl),
		MeanRadiantTemperature:     units.Celsius(tr),
		VaporPressure:              units.Kilopascals(pa),
		ConvectiveHeatTransfer:     hc,
		ClothingAreaFactor:         fcl,
		ClothingSurfaceTemperature: units.Celsius(tcl),
		SkinDiffusion:              units.WattsPerSquareMeter(hl1),
		Sweating:                   units.WattsPerSquareMeter(hl2),
		LatentRespiration:          units.WattsPerSquareMeter(hl3),
		SensibleRespiration:        units.WattsPerSquareMeter(hl4),
		Convection:                 units.WattsPerSquareMeter(hl5),
		Radiation:                  units.WattsPerSquareMeter(hl6),
		PMV:                        pmv,
	}, nil
}

type input struct {
	name  string
	value float64
}

func validate(c Conditions) error {
	inputs := []input{
		{"air temperature", float64(c.AirTemperature)},
		{"relative humidity", float64(c.RelativeHumidity)},
		{"air velocity", float64(c.AirVelocity)},
		{"metabolic rate", float64(c.MetabolicRate)},
		{"clothing insulation", float64(c.Clothing)},
	}
	if c.MeanRadiantTemperature != nil {
		inputs = append(inputs, input{"mean radiant temperature", float64(*c.MeanRadiantTemperature)})
	}
	if c.VaporPressure != nil {
		inputs = append(inputs, input{"vapor pressure", float64(*c.VaporPressure)})
	}

	for _, in := range inputs {
		if math.IsNaN(in.value) || math.IsInf(in.value, 0) {
			return errors.Wrapf(ErrNonFiniteInput, "%s is %v", in.name, in.value)
		}
	}
	return nil
}

// convectiveHeatTransfer uses natural convection when air and radiant temperatures differ by more than
// the threshold, and forced convection at the body otherwise.
func convectiveHeatTransfer(ta, tr, v float64) (float64, error) {
	if math.Abs(ta-tr) > naturalConvectionThreshold {
		return 2.38 * math.Pow(math.Abs(ta-tr), 0.25), nil
	}

	if v < 0 {
		return 0, errors.Wrapf(ErrDomain, "square root of negative air velocity %v", v)
	}
	return 12.1 * math.Sqrt(v), nil
}

func clothingAreaFactor(clo float64) float64 {
	if clo > float64(clothingAreaFactorThreshold) {
		return 1.05 + 0.1*clo
	}
	return 1 + 0.2*clo
}

func clothingSurfaceTemperature(ta, icl float64) (float64, error) {
	denominator := 3.5 * (6.45*icl + 0.1)
	if denominator == 0 {
		return 0, errors.Wrapf(ErrDomain, "clothing insulation %v m²K/W gives a zero surface resistance", icl)
	}
	return ta + (35.5-ta)/denominator, nil
}
