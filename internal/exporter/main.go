package exporter

import (
	"comfort-exporter/monitor"
	"comfort-exporter/pmv"
	"comfort-exporter/units"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/syncromatics/go-kit/v2/cmd"
	"github.com/syncromatics/go-kit/v2/log"
)

// Settings defines the configured settings for the exporter
type Settings struct {
	MetricsPort        int           `mapstructure:"metrics-port"`
	EvaluationInterval time.Duration `mapstructure:"evaluation-interval"`
	AirTemperature     float64       `mapstructure:"air-temperature"`
	RelativeHumidity   float64       `mapstructure:"relative-humidity"`
	AirVelocity        float64       `mapstructure:"air-velocity"`
	MetabolicRate      float64       `mapstructure:"metabolic-rate"`
	Clothing           float64       `mapstructure:"clothing"`
	// Empty to use the air temperature
	MeanRadiantTemperature string `mapstructure:"mean-radiant-temperature"`
	// Empty to derive from air temperature and relative humidity
	VaporPressure string `mapstructure:"vapor-pressure"`
}

const (
	DefaultMetricsPort        int           = 9100
	DefaultEvaluationInterval time.Duration = 15 * time.Second
	DefaultAirTemperature     float64       = 25
	DefaultRelativeHumidity   float64       = 50
	DefaultAirVelocity        float64       = 0.1
	DefaultMetabolicRate      float64       = float64(pmv.DefaultMetabolicRate)
	DefaultClothing           float64       = float64(pmv.DefaultClothing)
)

func ConfigureFlags(flags *pflag.FlagSet) {
	flags.Int("metrics-port", DefaultMetricsPort, "Port on which to host Prometheus metrics and the evaluation endpoint")
	flags.Duration("evaluation-interval", DefaultEvaluationInterval, "Duration between evaluations of the configured conditions")
	flags.Float64("air-temperature", DefaultAirTemperature, "Dry-bulb air temperature in degrees Celsius")
	flags.Float64("relative-humidity", DefaultRelativeHumidity, "Relative humidity in percent")
	flags.Float64("air-velocity", DefaultAirVelocity, "Air speed at the body in meters per second")
	flags.Float64("metabolic-rate", DefaultMetabolicRate, "Metabolic rate of the occupants in met")
	flags.Float64("clothing", DefaultClothing, "Clothing insulation of the occupants in clo")
	flags.String("mean-radiant-temperature", "", "Mean radiant temperature in degrees Celsius; defaults to the air temperature")
	flags.String("vapor-pressure", "", "Partial water vapor pressure in kilopascals; defaults to a value derived from the relative humidity")
}

// Conditions resolves the configured environment into evaluator input
func (s *Settings) Conditions() (pmv.Conditions, error) {
	conditions := pmv.NewConditions(
		units.Celsius(s.AirTemperature),
		units.RelativeHumidity(s.RelativeHumidity),
		units.MetersPerSecond(s.AirVelocity),
	).
		WithMetabolicRate(units.Met(s.MetabolicRate)).
		WithClothing(units.Clo(s.Clothing))

	if s.MeanRadiantTemperature != "" {
		tr, err := strconv.ParseFloat(s.MeanRadiantTemperature, 64)
		if err != nil {
			return pmv.Conditions{}, errors.Wrap(err, "failed to parse mean radiant temperature")
		}
		conditions = conditions.WithMeanRadiantTemperature(units.Celsius(tr))
	}

	if s.VaporPressure != "" {
		pa, err := strconv.ParseFloat(s.VaporPressure, 64)
		if err != nil {
			return pmv.Conditions{}, errors.Wrap(err, "failed to parse vapor pressure")
		}
		conditions = conditions.WithVaporPressure(units.Kilopascals(pa))
	}

	return conditions, nil
}

func (s *Settings) validate() error {
	if s.EvaluationInterval <= 0 {
		return errors.Errorf("evaluation interval must be positive, got %v", s.EvaluationInterval)
	}
	_, err := s.Conditions()
	return err
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/evaluate", handleEvaluate)
	return mux
}

func Execute(settings *Settings) error {
	err := settings.validate()
	if err != nil {
		return errors.Wrap(err, "invalid settings")
	}

	group := cmd.NewProcessGroup(context.Background())

	metricServer := http.Server{
		Addr:    fmt.Sprintf(":%d", settings.MetricsPort),
		Handler: newMux(),
	}
	log.Info("starting metrics server",
		"addr", metricServer.Addr)
	group.Go(func() error {
		err := metricServer.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-group.Context().Done()
		log.Info("stopping metrics server")
		return metricServer.Close()
	})

	comfortMonitor := monitor.NewMonitor(settings.Conditions, settings.EvaluationInterval)
	log.Info("starting comfort monitor",
		"interval", settings.EvaluationInterval)
	group.Go(comfortMonitor.Start(group.Context()))

	group.Go(func() error {
		for {
			select {
			case reading, ok := <-comfortMonitor.Readings():
				if !ok {
					log.Debug("comfort readings channel closed")
					return nil
				}

				log.Debug("received comfort reading",
					"reading", reading)

				setComfortMetrics(reading)
			case <-group.Context().Done():
				return nil
			}
		}
	})

	return group.Wait()
}
