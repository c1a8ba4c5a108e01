package dataset

import (
	"errors"
	"io"
	"math"
	"strconv"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

// LoadCities reads the world cities file in source order. Rows without an id
// are skipped; unparseable coordinates are kept as nil.
func LoadCities(path string) ([]types.CitySource, error) {
	f, err := openCSV(path, []string{"id", "city_ascii", "country", "iso2", "lat", "lng"})
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var rows []types.CitySource
	for {
		rec, err := f.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		id := f.get(rec, "id")
		if id == "" {
			continue
		}
		rows = append(rows, types.CitySource{
			Line:      f.line,
			ID:        id,
			City:      f.get(rec, "city"),
			CityASCII: f.get(rec, "city_ascii"),
			Country:   f.get(rec, "country"),
			ISO2:      f.get(rec, "iso2"),
			Latitude:  parseCoordinate(f.get(rec, "lat")),
			Longitude: parseCoordinate(f.get(rec, "lng")),
		})
	}
	return rows, nil
}

// LoadAirports reads the airports file, dropping rows that lack a city,
// a city code or a country.
func LoadAirports(path string) ([]types.AirportSource, error) {
	f, err := openCSV(path, []string{"city", "city_code", "country"})
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var rows []types.AirportSource
	for {
		rec, err := f.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		a := types.AirportSource{
			City:     f.get(rec, "city"),
			CityCode: f.get(rec, "city_code"),
			Country:  f.get(rec, "country"),
		}
		if a.City == "" || a.CityCode == "" || a.Country == "" {
			continue
		}
		rows = append(rows, a)
	}
	return rows, nil
}

// LoadCosts reads the cost-of-living file. Price columns are optional per row.
func LoadCosts(path string) ([]types.CostSource, error) {
	f, err := openCSV(path, []string{"city", "country"})
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var rows []types.CostSource
	for {
		rec, err := f.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, types.CostSource{
			Line:           f.line,
			City:           f.get(rec, "city"),
			Country:        f.get(rec, "country"),
			MealRaw:        f.get(rec, "x1"),
			TicketRaw:      f.get(rec, "x28"),
			RentCentreRaw:  f.get(rec, "x48"),
			RentOutsideRaw: f.get(rec, "x49"),
		})
	}
	return rows, nil
}

func parseCoordinate(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
