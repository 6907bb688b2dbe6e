package analytics_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/rearcquest/datasync/analytics"
)

const populationJSON = `{"data":[
	{"ID Nation":"01000US","Nation":"United States","ID Year":2013,"Year":"2013","Population":"311536594","Slug Nation":"united-states"},
	{"ID Nation":"01000US","Nation":"United States","ID Year":2014,"Year":2014,"Population":314107084,"Slug Nation":"united-states"},
	{"ID Nation":"01000US","Nation":"United States","ID Year":2019,"Year":"2019","Population":324697795,"Slug Nation":"united-states"}
]}`

func TestLoadPopulation(t *testing.T) {
	pop, err := analytics.LoadPopulation(strings.NewReader(populationJSON))
	if err != nil {
		t.Fatalf("loading population: %v", err)
	}
	exp := []analytics.PopulationRecord{
		{Year: 2013, Nation: "United States", Population: 311536594},
		{Year: 2014, Nation: "United States", Population: 314107084},
		{Year: 2019, Nation: "United States", Population: 324697795},
	}
	if !reflect.DeepEqual(pop, exp) {
		t.Fatalf("got %v, exp %v", pop, exp)
	}
}

func TestLoadPopulationErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		expErr string
	}{
		{name: "not json", data: "<html>", expErr: "decoding population json"},
		{name: "no data", data: `{"source":[]}`, expErr: `no "data" field`},
		{name: "no year", data: `{"data":[{"Population":1}]}`, expErr: "row 0: missing Year"},
		{name: "bad year", data: `{"data":[{"Year":"twenty","Population":1}]}`, expErr: "row 0: Year"},
		{name: "bad population", data: `{"data":[{"Year":2013,"Population":1},{"Year":2014,"Population":"lots"}]}`, expErr: "row 1: Population"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := analytics.LoadPopulation(strings.NewReader(test.data))
			if err == nil || !strings.Contains(err.Error(), test.expErr) {
				t.Fatalf("expected error containing %q, got %v", test.expErr, err)
			}
		})
	}
}

const seriesTSV = "series_id        \tyear\tperiod\t       value\tfootnote_codes\n" +
	"PRS30006011      \t2013\tQ01\t         1.5\t\n" +
	"PRS30006011      \t2013\tQ02\t         N/A\t\n" +
	"PRS30006011      \t2014\tQ01\t         2.5\n" +
	"PRS30006032      \t2013\tQ01\t         100\tR\n" +
	"PRS30006032      \t    \tQ01\t         7.0\n" +
	"PRS30006032      \t2014\tQ01\t            \n" +
	"PRS30006032      \t2014\tQ01\t         110\t\n"

func TestLoadSeries(t *testing.T) {
	obs, dropped, err := analytics.LoadSeries(strings.NewReader(seriesTSV))
	if err != nil {
		t.Fatalf("loading series: %v", err)
	}
	exp := []analytics.Observation{
		{SeriesID: "PRS30006011", Year: 2013, Period: "Q01", Value: 1.5},
		{SeriesID: "PRS30006011", Year: 2014, Period: "Q01", Value: 2.5},
		{SeriesID: "PRS30006032", Year: 2013, Period: "Q01", Value: 100},
		{SeriesID: "PRS30006032", Year: 2014, Period: "Q01", Value: 110},
	}
	if !reflect.DeepEqual(obs, exp) {
		t.Fatalf("got %v, exp %v", obs, exp)
	}
	if dropped != 3 {
		t.Fatalf("expected 3 dropped rows, got %d", dropped)
	}
}

func TestLoadSeriesMissingColumn(t *testing.T) {
	_, _, err := analytics.LoadSeries(strings.NewReader("series_id\tyear\tperiod\nPRS1\t2013\tQ01\n"))
	if err == nil || !strings.Contains(err.Error(), "no value column") {
		t.Fatalf("expected missing value column error, got %v", err)
	}
}

func TestLoadSeriesUnseparatedLine(t *testing.T) {
	data := "series_id\tyear\tperiod\tvalue\n" +
		"PRS30006032\t2013\tQ01\t100\n" +
		"garbage-line\n" +
		"PRS30006032\t2014\tQ01\t110\n"
	obs, dropped, err := analytics.LoadSeries(strings.NewReader(data))
	if err != nil {
		t.Fatalf("loading series: %v", err)
	}
	exp := []analytics.Observation{
		{SeriesID: "PRS30006032", Year: 2013, Period: "Q01", Value: 100},
		{SeriesID: "PRS30006032", Year: 2014, Period: "Q01", Value: 110},
	}
	if !reflect.DeepEqual(obs, exp) {
		t.Fatalf("got %v, exp %v", obs, exp)
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped row, got %d", dropped)
	}
}
