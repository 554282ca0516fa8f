package exporter

import (
	"comfort-exporter/pmv"
	"comfort-exporter/units"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/syncromatics/go-kit/v2/log"
)

type evaluation struct {
	PMV                        float64            `json:"pmv"`
	MetabolicRate              float64            `json:"metabolic_rate"`
	ClothingInsulation         float64            `json:"clothing_insulation"`
	MeanRadiantTemperature     float64            `json:"mean_radiant_temperature"`
	VaporPressure              float64            `json:"vapor_pressure"`
	ConvectiveHeatTransfer     float64            `json:"convective_heat_transfer"`
	ClothingAreaFactor         float64            `json:"clothing_area_factor"`
	ClothingSurfaceTemperature float64            `json:"clothing_surface_temperature"`
	HeatLosses                 map[string]float64 `json:"heat_losses"`
}

type problem struct {
	Error string `json:"error"`
}

func newEvaluation(balance *pmv.HeatBalance) *evaluation {
	e := &evaluation{
		PMV:                        balance.PMV,
		MetabolicRate:              float64(balance.MetabolicRate),
		ClothingInsulation:         float64(balance.ClothingInsulation),
		MeanRadiantTemperature:     float64(balance.MeanRadiantTemperature),
		VaporPressure:              float64(balance.VaporPressure),
		ConvectiveHeatTransfer:     balance.ConvectiveHeatTransfer,
		ClothingAreaFactor:         balance.ClothingAreaFactor,
		ClothingSurfaceTemperature: float64(balance.ClothingSurfaceTemperature),
		HeatLosses:                 map[string]float64{},
	}
	for _, loss := range balance.Losses() {
		e.HeatLosses[loss.Term] = float64(loss.Value)
	}
	return e
}

// handleEvaluate computes the heat balance for the conditions given as query parameters ta, rh, v and
// optionally met, clo, tr and pa
func handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, &problem{"method not allowed"})
		return
	}

	conditions, err := parseConditions(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &problem{err.Error()})
		return
	}

	comfort_evaluations.WithLabelValues(sourceHTTP).Inc()
	balance, err := pmv.Breakdown(conditions)
	if err != nil {
		comfort_evaluation_errors.WithLabelValues(sourceHTTP).Inc()
		status := http.StatusUnprocessableEntity
		if errors.Is(err, pmv.ErrNonFiniteInput) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, &problem{err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, newEvaluation(balance))
}

func parseConditions(query url.Values) (pmv.Conditions, error) {
	var ta, rh, v float64
	for _, required := range []struct {
		name  string
		value *float64
	}{
		{"ta", &ta},
		{"rh", &rh},
		{"v", &v},
	} {
		value, ok, err := parseParam(query, required.name)
		if err != nil {
			return pmv.Conditions{}, err
		}
		if !ok {
			return pmv.Conditions{}, errors.Errorf("missing query parameter %q", required.name)
		}
		*required.value = value
	}

	conditions := pmv.NewConditions(units.Celsius(ta), units.RelativeHumidity(rh), units.MetersPerSecond(v))

	met, ok, err := parseParam(query, "met")
	if err != nil {
		return pmv.Conditions{}, err
	}
	if ok {
		conditions = conditions.WithMetabolicRate(units.Met(met))
	}

	clo, ok, err := parseParam(query, "clo")
	if err != nil {
		return pmv.Conditions{}, err
	}
	if ok {
		conditions = conditions.WithClothing(units.Clo(clo))
	}

	tr, ok, err := parseParam(query, "tr")
	if err != nil {
		return pmv.Conditions{}, err
	}
	if ok {
		conditions = conditions.WithMeanRadiantTemperature(units.Celsius(tr))
	}

	pa, ok, err := parseParam(query, "pa")
	if err != nil {
		return pmv.Conditions{}, err
	}
	if ok {
		conditions = conditions.WithVaporPressure(units.Kilopascals(pa))
	}

	return conditions, nil
}

func parseParam(query url.Values, name string) (float64, bool, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, false, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "invalid query parameter %q", name)
	}
	return value, true, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		log.Warn("failed to write response",
			"err", err)
	}
}
