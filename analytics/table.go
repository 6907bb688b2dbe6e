package analytics

import (
	"encoding/json"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/rearcquest/datasync/tsv"
	"github.com/spf13/cast"
)

// PopulationRecord is one row of the population dataset.
type PopulationRecord struct {
	Year       int
	Nation     string
	Population int64
}

// Observation is one cleaned row of a BLS time-series file.
type Observation struct {
	SeriesID string
	Year     int
	Period   string
	Value    float64
}

// LoadPopulation decodes the population JSON document. Year and Population
// may be numbers or numeric strings; a row where either cannot be read as an
// integer fails the whole load.
func LoadPopulation(r io.Reader) ([]PopulationRecord, error) {
	var doc struct {
		Data *[]map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding population json")
	}
	if doc.Data == nil {
		return nil, errors.New(`population json has no "data" field`)
	}
	recs := make([]PopulationRecord, 0, len(*doc.Data))
	for i, row := range *doc.Data {
		yearv, ok := row["Year"]
		if !ok {
			return nil, errors.Errorf("population row %d: missing Year", i)
		}
		year, err := cast.ToIntE(yearv)
		if err != nil {
			return nil, errors.Wrapf(err, "population row %d: Year", i)
		}
		popv, ok := row["Population"]
		if !ok {
			return nil, errors.Errorf("population row %d: missing Population", i)
		}
		pop, err := cast.ToInt64E(popv)
		if err != nil {
			return nil, errors.Wrapf(err, "population row %d: Population", i)
		}
		recs = append(recs, PopulationRecord{
			Year:       year,
			Nation:     cast.ToString(row["Nation"]),
			Population: pop,
		})
	}
	return recs, nil
}

var seriesColumns = []string{"series_id", "year", "period", "value"}

// LoadSeries reads a tab-delimited time-series file. Identifiers are trimmed;
// rows whose year or value is not numeric, and lines that do not split into
// columns, are dropped and counted.
func LoadSeries(r io.Reader) (obs []Observation, dropped int, err error) {
	src := tsv.NewSource(r)
	header, err := src.Header()
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading time series header")
	}
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	for _, col := range seriesColumns {
		if !have[col] {
			return nil, 0, errors.Errorf("time series header %v has no %s column", header, col)
		}
	}

	for {
		rec, err := src.Record()
		if err == io.EOF {
			return obs, dropped, nil
		} else if _, ok := err.(*tsv.RecordError); ok {
			dropped++
			continue
		} else if err != nil {
			return nil, dropped, errors.Wrap(err, "reading time series")
		}
		o, ok := cleanObservation(rec)
		if !ok {
			dropped++
			continue
		}
		obs = append(obs, o)
	}
}

func cleanObservation(rec map[string]string) (Observation, bool) {
	o := Observation{
		SeriesID: strings.TrimSpace(rec["series_id"]),
		Period:   strings.TrimSpace(rec["period"]),
	}
	yearStr := strings.TrimSpace(rec["year"])
	valStr := strings.TrimSpace(rec["value"])
	if yearStr == "" || valStr == "" {
		return o, false
	}
	year, err := cast.ToIntE(yearStr)
	if err != nil {
		return o, false
	}
	val, err := cast.ToFloat64E(valStr)
	if err != nil || math.IsNaN(val) {
		return o, false
	}
	o.Year = year
	o.Value = val
	return o, true
}
