package batch

import (
	"comfort-exporter/pmv"
	"comfort-exporter/units"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var requiredColumns = []string{"ta", "rh", "v"}

// Row is one set of conditions; empty optional columns fall back to the evaluator's defaults
type Row struct {
	AirTemperature         float64  `csv:"ta"`
	RelativeHumidity       float64  `csv:"rh"`
	AirVelocity            float64  `csv:"v"`
	MetabolicRate          *float64 `csv:"met,omitempty"`
	Clothing               *float64 `csv:"clo,omitempty"`
	MeanRadiantTemperature *float64 `csv:"tr,omitempty"`
	VaporPressure          *float64 `csv:"pa,omitempty"`
}

type Result struct {
	Row
	PMV   *float64 `csv:"pmv,omitempty"`
	Error string   `csv:"error"`
}

type Summary struct {
	Rows     int
	Failures int
	Mean     float64
	Min      float64
	Max      float64
}

func (r *Row) Conditions() pmv.Conditions {
	conditions := pmv.NewConditions(
		units.Celsius(r.AirTemperature),
		units.RelativeHumidity(r.RelativeHumidity),
		units.MetersPerSecond(r.AirVelocity),
	)
	if r.MetabolicRate != nil {
		conditions = conditions.WithMetabolicRate(units.Met(*r.MetabolicRate))
	}
	if r.Clothing != nil {
		conditions = conditions.WithClothing(units.Clo(*r.Clothing))
	}
	if r.MeanRadiantTemperature != nil {
		conditions = conditions.WithMeanRadiantTemperature(units.Celsius(*r.MeanRadiantTemperature))
	}
	if r.VaporPressure != nil {
		conditions = conditions.WithVaporPressure(units.Kilopascals(*r.VaporPressure))
	}
	return conditions
}

func Read(in io.Reader) ([]*Row, error) {
	all, err := csv.NewReader(in).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read conditions")
	}
	if len(all) == 0 {
		return nil, errors.New("conditions file is empty")
	}

	header := all[0]
	for _, column := range requiredColumns {
		index := slices.Index(header, column)
		if index < 0 {
			return nil, errors.Errorf("conditions header is missing column %q", column)
		}
		for i, record := range all[1:] {
			if strings.TrimSpace(record[index]) == "" {
				return nil, errors.Errorf("conditions line %d is missing a value for %q", i+2, column)
			}
		}
	}

	var rows []*Row
	replay := records(all)
	err = gocsv.UnmarshalCSV(&replay, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse conditions")
	}
	return rows, nil
}

// records hands already parsed csv records to the decoder
type records [][]string

func (r *records) Read() ([]string, error) {
	if len(*r) == 0 {
		return nil, io.EOF
	}
	record := (*r)[0]
	*r = (*r)[1:]
	return record, nil
}

func (r *records) ReadAll() ([][]string, error) {
	all := *r
	*r = nil
	return all, nil
}

// Evaluate computes every row with at most workers concurrent evaluations. Results keep the order of
// rows; a row that cannot be evaluated carries its error rather than failing the batch.
func Evaluate(ctx context.Context, rows []*Row, workers int) ([]*Result, error) {
	results := make([]*Result, len(rows))

	group, groupCtx := errgroup.WithContext(ctx)
	if workers > 0 {
		group.SetLimit(workers)
	}

	for i, row := range rows {
		if groupCtx.Err() != nil {
			break
		}

		i, row := i, row
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = evaluate(row)
			return nil
		})
	}

	err := group.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, errors.Wrap(err, "batch evaluation interrupted")
	}
	return results, nil
}

func evaluate(row *Row) *Result {
	result := &Result{Row: *row}

	vote, err := pmv.Evaluate(row.Conditions())
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.PMV = &vote
	return result
}

func Write(out io.Writer, results []*Result) error {
	err := gocsv.Marshal(results, out)
	if err != nil {
		return errors.Wrap(err, "failed to write results")
	}
	return nil
}

func Summarize(results []*Result) Summary {
	summary := Summary{
		Rows: len(results),
	}

	votes := make([]float64, 0, len(results))
	for _, result := range results {
		if result.PMV == nil {
			summary.Failures++
			continue
		}
		votes = append(votes, *result.PMV)
	}

	if len(votes) > 0 {
		summary.Mean = stat.Mean(votes, nil)
		summary.Min = floats.Min(votes)
		summary.Max = floats.Max(votes)
	}
	return summary
}
