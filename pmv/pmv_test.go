package pmv

import (
	"comfort-exporter/units"
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

const tolerance = 1e-9

func TestEvaluate_ReferencePoint(t *testing.T) {
	vote, err := Evaluate(NewConditions(25, 50, 0.1))
	require.NoError(t, err)

	assert.InDelta(t, 0.16150127395699065, vote, tolerance)
	assert.Equal(t, "PMV: 0.16", fmt.Sprintf("PMV: %.2f", vote))
}

func TestEvaluate_KnownValues(t *testing.T) {
	tests := []struct {
		name       string
		conditions Conditions
		expected   float64
	}{
		{
			name:       "cool room",
			conditions: NewConditions(20, 50, 0.1),
			expected:   -1.0067517690361663,
		},
		{
			name:       "warm room",
			conditions: NewConditions(30, 50, 0.1),
			expected:   1.4008381410992676,
		},
		{
			name:       "draughty room",
			conditions: NewConditions(25, 50, 0.5),
			expected:   -1.2063679601150226,
		},
		{
			name:       "heavier clothing",
			conditions: NewConditions(25, 50, 0.1).WithClothing(1.0),
			expected:   1.1793638142540013,
		},
		{
			name:       "sedentary occupant",
			conditions: NewConditions(25, 50, 0.1).WithMetabolicRate(0.8),
			expected:   -0.7568333088246881,
		},
		{
			name: "warm radiant surroundings",
			conditions: NewConditions(22, 40, 0.2).
				WithMetabolicRate(1.0).
				WithClothing(1.0).
				WithMeanRadiantTemperature(24),
			expected: 1.3550032763077202,
		},
		{
			name:       "explicit vapor pressure",
			conditions: NewConditions(25, 50, 0.1).WithVaporPressure(1.5),
			expected:   0.14281810367300793,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vote, err := Evaluate(tt.conditions)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, vote, tolerance)
		})
	}
}

func TestEvaluate_IsNotClamped(t *testing.T) {
	hot, err := Evaluate(NewConditions(40, 80, 0.1).WithMetabolicRate(4).WithClothing(1.0))
	require.NoError(t, err)
	assert.InDelta(t, 5.011196880722064, hot, tolerance)

	cold, err := Evaluate(NewConditions(10, 30, 1.0).WithMetabolicRate(0.8).WithClothing(0))
	require.NoError(t, err)
	assert.InDelta(t, -104.47765497844053, cold, 1e-6)
}

func grid() []Conditions {
	var conditions []Conditions
	for ta := units.Celsius(16); ta <= 32; ta += 2 {
		for _, rh := range []units.RelativeHumidity{20, 50, 80} {
			for _, v := range []units.MetersPerSecond{0.05, 0.1, 0.3} {
				conditions = append(conditions,
					NewConditions(ta, rh, v),
					NewConditions(ta, rh, v).WithClothing(0.9).WithMeanRadiantTemperature(ta+3))
			}
		}
	}
	return conditions
}

func evaluateAll(t *testing.T, conditions []Conditions) []float64 {
	votes := make([]float64, len(conditions))
	for i, c := range conditions {
		vote, err := Evaluate(c)
		require.NoError(t, err)
		votes[i] = vote
	}
	return votes
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	conditions := grid()

	first := evaluateAll(t, conditions)
	second := evaluateAll(t, conditions)

	assert.True(t, slices.Equal(first, second), "repeated evaluations differ")
}

func TestEvaluate_ConcurrentCallersAgree(t *testing.T) {
	conditions := grid()
	expected := evaluateAll(t, conditions)

	results := make([][]float64, 16)
	group, _ := errgroup.WithContext(context.Background())
	for i := range results {
		i := i
		group.Go(func() error {
			votes := make([]float64, len(conditions))
			for j, c := range conditions {
				vote, err := Evaluate(c)
				if err != nil {
					return err
				}
				votes[j] = vote
			}
			results[i] = votes
			return nil
		})
	}
	require.NoError(t, group.Wait())

	for i, votes := range results {
		assert.True(t, slices.Equal(expected, votes), "caller %d disagrees", i)
	}
}

func TestEvaluate_WarmerWithAirTemperature(t *testing.T) {
	previous := math.Inf(-1)
	for ta := units.Celsius(20); ta <= 30; ta += 0.5 {
		vote, err := Evaluate(NewConditions(ta, 50, 0.1))
		require.NoError(t, err)
		assert.Greater(t, vote, previous, "ta=%v", ta)
		previous = vote
	}
}

func TestEvaluate_WarmerWithClothing(t *testing.T) {
	previous := math.Inf(-1)
	for _, clo := range []units.Clo{0, 0.25, 0.5, 0.51, 0.75, 1.0, 1.5, 2.0} {
		vote, err := Evaluate(NewConditions(25, 50, 0.1).WithClothing(clo))
		require.NoError(t, err)
		assert.Greater(t, vote, previous, "clo=%v", clo)
		previous = vote
	}
}

func TestEvaluate_CoolerWithAirVelocity(t *testing.T) {
	previous := math.Inf(1)
	for _, v := range []units.MetersPerSecond{0.05, 0.1, 0.2, 0.5, 1.0} {
		vote, err := Evaluate(NewConditions(25, 50, v))
		require.NoError(t, err)
		assert.Less(t, vote, previous, "v=%v", v)
		previous = vote
	}
}

func TestClothingAreaFactor_ThresholdIsExclusive(t *testing.T) {
	assert.Equal(t, 1+0.2*0.5, clothingAreaFactor(0.5))
	assert.InDelta(t, 1.101, clothingAreaFactor(0.51), tolerance)
	assert.InDelta(t, 1.11, clothingAreaFactor(0.6), tolerance)
	assert.Equal(t, 1.0, clothingAreaFactor(0))
}

func TestConvectiveHeatTransfer_ThresholdIsExclusive(t *testing.T) {
	ta, tr := 0.1, 0.0
	require.Equal(t, 0.1, math.Abs(ta-tr))

	hc, err := convectiveHeatTransfer(ta, tr, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 12.1*math.Sqrt(0.1), hc)

	hc, err = convectiveHeatTransfer(0.2, tr, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 2.38*math.Pow(0.2, 0.25), hc)
}

func TestEvaluate_OmittedMeanRadiantTemperatureIsAirTemperature(t *testing.T) {
	omitted, err := Evaluate(NewConditions(23.5, 45, 0.15))
	require.NoError(t, err)

	explicit, err := Evaluate(NewConditions(23.5, 45, 0.15).WithMeanRadiantTemperature(23.5))
	require.NoError(t, err)

	assert.Equal(t, omitted, explicit)
}

func TestEvaluate_DryAirHasNoVaporPressure(t *testing.T) {
	derived, err := Breakdown(NewConditions(25, 0, 0.1))
	require.NoError(t, err)
	assert.Equal(t, units.Kilopascals(0), derived.VaporPressure)

	explicit, err := Evaluate(NewConditions(25, 50, 0.1).WithVaporPressure(0))
	require.NoError(t, err)

	assert.Equal(t, explicit, derived.PMV)
	assert.InDelta(t, -0.19125194856537445, explicit, tolerance)
}

func TestBreakdown_ReferencePoint(t *testing.T) {
	balance, err := Breakdown(NewConditions(25, 50, 0.1))
	require.NoError(t, err)

	assert.InDelta(t, 69.78, float64(balance.MetabolicRate), tolerance)
	assert.Equal(t, units.WattsPerSquareMeter(0), balance.ExternalWork)
	assert.InDelta(t, 0.0775, float64(balance.ClothingInsulation), tolerance)
	assert.Equal(t, units.Celsius(25), balance.MeanRadiantTemperature)
	assert.InDelta(t, 1.5838888587534237, float64(balance.VaporPressure), tolerance)
	assert.InDelta(t, 3.826355968803739, balance.ConvectiveHeatTransfer, tolerance)
	assert.InDelta(t, 1.1, balance.ClothingAreaFactor, tolerance)
	assert.InDelta(t, 30.001041883725776, float64(balance.ClothingSurfaceTemperature), tolerance)

	expectedLosses := []float64{
		11.167114270802058,
		4.884600000000001,
		5.080883422415163,
		0.879228,
		21.04934310823478,
		23.646894419589838,
	}
	losses := balance.Losses()
	require.Len(t, losses, len(expectedLosses))
	for i, loss := range losses {
		assert.InDelta(t, expectedLosses[i], float64(loss.Value), tolerance, loss.Term)
	}

	vote, err := Evaluate(NewConditions(25, 50, 0.1))
	require.NoError(t, err)
	assert.Equal(t, vote, balance.PMV)
}

func TestBreakdown_SweatingIsSignedBelowComfort(t *testing.T) {
	balance, err := Breakdown(NewConditions(25, 50, 0.1).WithMetabolicRate(0.8))
	require.NoError(t, err)

	assert.Less(t, float64(balance.Sweating), 0.0)
	assert.InDelta(t, 0.42*(0.8*58.15-58.15), float64(balance.Sweating), tolerance)
}

func TestEvaluate_OutOfRangeHumidityIsNotRejected(t *testing.T) {
	vote, err := Evaluate(NewConditions(25, 150, 0.1))
	require.NoError(t, err)
	assert.InDelta(t, 0.8670077190017208, vote, tolerance)
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		conditions Conditions
		expected   error
	}{
		{
			name:       "NaN air temperature",
			conditions: NewConditions(units.Celsius(math.NaN()), 50, 0.1),
			expected:   ErrNonFiniteInput,
		},
		{
			name:       "infinite humidity",
			conditions: NewConditions(25, units.RelativeHumidity(math.Inf(1)), 0.1),
			expected:   ErrNonFiniteInput,
		},
		{
			name:       "infinite metabolic rate",
			conditions: NewConditions(25, 50, 0.1).WithMetabolicRate(units.Met(math.Inf(1))),
			expected:   ErrNonFiniteInput,
		},
		{
			name:       "NaN mean radiant temperature",
			conditions: NewConditions(25, 50, 0.1).WithMeanRadiantTemperature(units.Celsius(math.NaN())),
			expected:   ErrNonFiniteInput,
		},
		{
			name:       "infinite vapor pressure",
			conditions: NewConditions(25, 50, 0.1).WithVaporPressure(units.Kilopascals(math.Inf(-1))),
			expected:   ErrNonFiniteInput,
		},
		{
			name:       "negative air velocity under forced convection",
			conditions: NewConditions(25, 50, -0.5),
			expected:   ErrDomain,
		},
		{
			name:       "saturation pressure pole",
			conditions: NewConditions(-237.3, 50, 0.1),
			expected:   ErrDomain,
		},
		{
			name:       "overflowing heat balance",
			conditions: NewConditions(1e300, 50, 0.1).WithVaporPressure(1),
			expected:   ErrDomain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.conditions)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestEvaluate_NegativeVelocityUnusedUnderNaturalConvection(t *testing.T) {
	vote, err := Evaluate(NewConditions(25, 50, -0.5).WithMeanRadiantTemperature(27))
	require.NoError(t, err)
	assert.InDelta(t, 0.9393029008561817, vote, tolerance)
}

func TestEvaluate_SaturationPoleAvoidedWithExplicitVaporPressure(t *testing.T) {
	vote, err := Evaluate(NewConditions(-237.3, 50, 0.1).WithVaporPressure(1.0))
	require.NoError(t, err)
	assert.InDelta(t, -29.43701264914654, vote, 1e-6)
}

func TestClothingSurfaceTemperature_ZeroResistance(t *testing.T) {
	icl := -0.1
	icl /= 6.45

	_, err := clothingSurfaceTemperature(25, icl)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDomain)
}
