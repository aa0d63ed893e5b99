package source

import (
	"context"

	"building-atlas/internal/models"
	"building-atlas/internal/normalize"
)

// SampleAdapter serves a fixed downtown dataset from memory. It
// implements the same interface as the network adapters and runs at
// lowest priority, so total upstream failure degrades to sample data
// through the normal adapter path instead of a special-cased branch.
type SampleAdapter struct{}

func NewSampleAdapter() *SampleAdapter { return &SampleAdapter{} }

func (a *SampleAdapter) Name() string { return string(normalize.KindSample) }

func (a *SampleAdapter) Fetch(_ context.Context, bounds models.Bounds, limit int) ([]models.Building, error) {
	return convert(sampleRecords, normalize.KindSample, bounds, limit), nil
}

// sampleRecords mirrors a few downtown Calgary blocks with realistic
// zoning codes and construction years.
var sampleRecords = []normalize.Raw{
	{
		"building_id": "sample_001", "address": "123 8 Ave SW, Calgary, AB",
		"latitude": 51.0447, "longitude": -114.0719,
		"height": 150.0, "floors": 15.0,
		"building_type": "Commercial", "zoning": "CC-X",
		"assessed_value": 2500000.0, "land_use": "Commercial", "construction_year": 2010.0,
		"geometry": map[string]interface{}{
			"type": "Polygon",
			"coordinates": []interface{}{[]interface{}{
				[]interface{}{-114.0720, 51.0446},
				[]interface{}{-114.0718, 51.0446},
				[]interface{}{-114.0718, 51.0448},
				[]interface{}{-114.0720, 51.0448},
				[]interface{}{-114.0720, 51.0446},
			}},
		},
	},
	{
		"building_id": "sample_002", "address": "456 7 Ave SW, Calgary, AB",
		"latitude": 51.0442, "longitude": -114.0715,
		"height": 80.0, "floors": 8.0,
		"building_type": "Residential", "zoning": "RC-G",
		"assessed_value": 450000.0, "land_use": "Residential", "construction_year": 2015.0,
	},
	{
		"building_id": "sample_003", "address": "789 6 Ave SW, Calgary, AB",
		"latitude": 51.0438, "longitude": -114.0712,
		"height": 200.0, "floors": 20.0,
		"building_type": "Commercial", "zoning": "CC-X",
		"assessed_value": 4200000.0, "land_use": "Commercial", "construction_year": 2008.0,
	},
	{
		"building_id": "sample_004", "address": "321 9 Ave SW, Calgary, AB",
		"latitude": 51.0451, "longitude": -114.0722,
		"height": 60.0, "floors": 6.0,
		"building_type": "Mixed Use", "zoning": "M-CG",
		"assessed_value": 750000.0, "land_use": "Mixed Use", "construction_year": 2012.0,
	},
	{
		"building_id": "sample_005", "address": "234 8 Ave SW, Calgary, AB",
		"latitude": 51.0445, "longitude": -114.0716,
		"height": 120.0, "floors": 12.0,
		"building_type": "Commercial", "zoning": "CC-X",
		"assessed_value": 1800000.0, "land_use": "Commercial", "construction_year": 2005.0,
	},
	{
		"building_id": "sample_006", "address": "567 7 Ave SW, Calgary, AB",
		"latitude": 51.0443, "longitude": -114.0710,
		"height": 95.0, "floors": 9.0,
		"building_type": "Residential", "zoning": "RC-G",
		"assessed_value": 520000.0, "land_use": "Residential", "construction_year": 2018.0,
	},
	{
		"building_id": "sample_007", "address": "890 6 Ave SW, Calgary, AB",
		"latitude": 51.0439, "longitude": -114.0708,
		"height": 180.0, "floors": 18.0,
		"building_type": "Commercial", "zoning": "CC-X",
		"assessed_value": 3200000.0, "land_use": "Commercial", "construction_year": 2012.0,
	},
	{
		"building_id": "sample_008", "address": "432 9 Ave SW, Calgary, AB",
		"latitude": 51.0450, "longitude": -114.0718,
		"height": 75.0, "floors": 7.0,
		"building_type": "Mixed Use", "zoning": "M-CG",
		"assessed_value": 680000.0, "land_use": "Mixed Use", "construction_year": 2014.0,
	},
	{
		"building_id": "sample_009", "address": "678 7 Ave SW, Calgary, AB",
		"latitude": 51.0441, "longitude": -114.0706,
		"height": 250.0, "floors": 25.0,
		"building_type": "Commercial", "zoning": "CC-X",
		"assessed_value": 5800000.0, "land_use": "Commercial", "construction_year": 2019.0,
	},
	{
		"building_id": "sample_010", "address": "789 9 Ave SW, Calgary, AB",
		"latitude": 51.0452, "longitude": -114.0713,
		"height": 45.0, "floors": 4.0,
		"building_type": "Residential", "zoning": "RC-G",
		"assessed_value": 280000.0, "land_use": "Residential", "construction_year": 2020.0,
	},
}
