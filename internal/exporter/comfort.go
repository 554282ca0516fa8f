package exporter

import (
	"comfort-exporter/monitor"
	"comfort-exporter/pmv"
	"comfort-exporter/units"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sourceMonitor = "monitor"
	sourceHTTP    = "http"
)

var (
	comfort_evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comfort_evaluations",
			Help: "Number of predicted mean vote evaluations",
		},
		[]string{"source"},
	)
	comfort_evaluation_errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comfort_evaluation_errors",
			Help: "Number of predicted mean vote evaluations that failed",
		},
		[]string{"source"},
	)
	comfort_pmv = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comfort_pmv",
			Help: "Predicted mean vote on the seven-point thermal sensation scale, -3 cold to +3 hot",
		},
	)
	comfort_air_temperature = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comfort_air_temperature",
			Help: "Air temperature in degrees Celsius",
		},
	)
	comfort_mean_radiant_temperature = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comfort_mean_radiant_temperature",
			Help: "Mean radiant temperature in degrees Celsius",
		},
	)
	comfort_relative_humidity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comfort_relative_humidity",
			Help: "Percentage of relative humidity",
		},
	)
	comfort_absolute_humidity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comfort_absolute_humidity",
			Help: "Grams of water vapor per cubic meter of air",
		},
	)
	comfort_vapor_pressure = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comfort_vapor_pressure",
			Help: "Partial water vapor pressure in kilopascals",
		},
	)
	comfort_heat_loss = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "comfort_heat_loss",
			Help: "Heat loss from the body in watts per square meter of body surface",
		},
		[]string{"term"},
	)
)

func setComfortMetrics(reading *monitor.Reading) {
	comfort_evaluations.WithLabelValues(sourceMonitor).Inc()
	if reading.Err != nil {
		comfort_evaluation_errors.WithLabelValues(sourceMonitor).Inc()
		return
	}

	conditions := reading.Conditions
	balance := reading.Balance
	comfort_pmv.Set(balance.PMV)
	comfort_air_temperature.Set(float64(conditions.AirTemperature))
	comfort_mean_radiant_temperature.Set(float64(balance.MeanRadiantTemperature))
	comfort_relative_humidity.Set(float64(conditions.RelativeHumidity))
	comfort_absolute_humidity.Set(float64(units.AbsoluteHumidity(conditions.AirTemperature, conditions.RelativeHumidity)))
	comfort_vapor_pressure.Set(float64(balance.VaporPressure))
	setHeatLossMetrics(balance)
}

func setHeatLossMetrics(balance *pmv.HeatBalance) {
	for _, loss := range balance.Losses() {
		comfort_heat_loss.WithLabelValues(loss.Term).Set(float64(loss.Value))
	}
}
