package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"building-atlas/internal/models"
)

// buildingRow is the storage shape of a canonical building record.
type buildingRow struct {
	ID               int64           `db:"id"`
	BuildingID       string          `db:"building_id"`
	DataSource       string          `db:"data_source"`
	Address          sql.NullString  `db:"address"`
	Latitude         sql.NullFloat64 `db:"latitude"`
	Longitude        sql.NullFloat64 `db:"longitude"`
	Footprint        sql.NullString  `db:"footprint"`
	Height           sql.NullFloat64 `db:"height"`
	Floors           sql.NullInt64   `db:"floors"`
	BuildingType     sql.NullString  `db:"building_type"`
	Zoning           sql.NullString  `db:"zoning"`
	AssessedValue    sql.NullFloat64 `db:"assessed_value"`
	LandUse          sql.NullString  `db:"land_use"`
	ConstructionYear sql.NullInt64   `db:"construction_year"`
	LastUpdated      time.Time       `db:"last_updated"`
}

func toRow(b *models.Building) buildingRow {
	row := buildingRow{
		BuildingID:  b.SourceID,
		DataSource:  b.Source,
		LastUpdated: time.Now().UTC(),
	}
	if b.Address != nil {
		row.Address = sql.NullString{String: *b.Address, Valid: true}
	}
	if b.Latitude != nil {
		row.Latitude = sql.NullFloat64{Float64: *b.Latitude, Valid: true}
	}
	if b.Longitude != nil {
		row.Longitude = sql.NullFloat64{Float64: *b.Longitude, Valid: true}
	}
	if len(b.Footprint) > 0 {
		if data, err := json.Marshal(b.Footprint); err == nil {
			row.Footprint = sql.NullString{String: string(data), Valid: true}
		}
	}
	if b.Height != nil {
		row.Height = sql.NullFloat64{Float64: *b.Height, Valid: true}
	}
	if b.Floors != nil {
		row.Floors = sql.NullInt64{Int64: int64(*b.Floors), Valid: true}
	}
	if b.BuildingType != nil {
		row.BuildingType = sql.NullString{String: *b.BuildingType, Valid: true}
	}
	if b.Zoning != nil {
		row.Zoning = sql.NullString{String: *b.Zoning, Valid: true}
	}
	if b.AssessedValue != nil {
		row.AssessedValue = sql.NullFloat64{Float64: *b.AssessedValue, Valid: true}
	}
	if b.LandUse != nil {
		row.LandUse = sql.NullString{String: *b.LandUse, Valid: true}
	}
	if b.ConstructionYear != nil {
		row.ConstructionYear = sql.NullInt64{Int64: int64(*b.ConstructionYear), Valid: true}
	}
	return row
}

func (row *buildingRow) toModel() models.Building {
	b := models.Building{
		SourceID: row.BuildingID,
		Source:   row.DataSource,
	}
	if row.Address.Valid {
		b.Address = &row.Address.String
	}
	if row.Latitude.Valid {
		b.Latitude = &row.Latitude.Float64
	}
	if row.Longitude.Valid {
		b.Longitude = &row.Longitude.Float64
	}
	if row.Footprint.Valid {
		var ring orb.Ring
		if err := json.Unmarshal([]byte(row.Footprint.String), &ring); err == nil {
			b.Footprint = ring
		}
	}
	if row.Height.Valid {
		b.Height = &row.Height.Float64
	}
	if row.Floors.Valid {
		f := int(row.Floors.Int64)
		b.Floors = &f
	}
	if row.BuildingType.Valid {
		b.BuildingType = &row.BuildingType.String
	}
	if row.Zoning.Valid {
		b.Zoning = &row.Zoning.String
	}
	if row.AssessedValue.Valid {
		b.AssessedValue = &row.AssessedValue.Float64
	}
	if row.LandUse.Valid {
		b.LandUse = &row.LandUse.String
	}
	if row.ConstructionYear.Valid {
		y := int(row.ConstructionYear.Int64)
		b.ConstructionYear = &y
	}
	return b
}

// UpsertBuilding inserts or refreshes a building by its source-qualified
// id. On conflict, incoming non-null fields win and existing values fill
// the gaps, so a partial refresh never erases known data.
func (db *DB) UpsertBuilding(b *models.Building) error {
	row := toRow(b)

	_, err := db.NamedExec(`
		INSERT INTO buildings (
			building_id, data_source, address, latitude, longitude, footprint,
			height, floors, building_type, zoning, assessed_value, land_use,
			construction_year, last_updated
		) VALUES (
			:building_id, :data_source, :address, :latitude, :longitude, :footprint,
			:height, :floors, :building_type, :zoning, :assessed_value, :land_use,
			:construction_year, :last_updated
		)
		ON CONFLICT(building_id) DO UPDATE SET
			data_source = excluded.data_source,
			address = COALESCE(excluded.address, buildings.address),
			latitude = COALESCE(excluded.latitude, buildings.latitude),
			longitude = COALESCE(excluded.longitude, buildings.longitude),
			footprint = COALESCE(excluded.footprint, buildings.footprint),
			height = COALESCE(excluded.height, buildings.height),
			floors = COALESCE(excluded.floors, buildings.floors),
			building_type = COALESCE(excluded.building_type, buildings.building_type),
			zoning = COALESCE(excluded.zoning, buildings.zoning),
			assessed_value = COALESCE(excluded.assessed_value, buildings.assessed_value),
			land_use = COALESCE(excluded.land_use, buildings.land_use),
			construction_year = COALESCE(excluded.construction_year, buildings.construction_year),
			last_updated = excluded.last_updated
	`, row)
	if err != nil {
		return fmt.Errorf("upserting building %s: %w", b.SourceID, err)
	}
	return nil
}

// BuildingFilter contains the attribute and bounds filters for building
// queries.
type BuildingFilter struct {
	Bounds       *models.Bounds
	BuildingType string
	Zoning       string
	HeightMin    *float64
	HeightMax    *float64
	ValueMin     *float64
	ValueMax     *float64
	Limit        int
	Offset       int
}

// ListBuildings returns stored buildings matching the filter, most
// valuable first.
func (db *DB) ListBuildings(f BuildingFilter) ([]models.Building, error) {
	query := `
		SELECT id, building_id, data_source, address, latitude, longitude, footprint,
		       height, floors, building_type, zoning, assessed_value, land_use,
		       construction_year, last_updated
		FROM buildings
		WHERE 1=1
	`
	args := make([]interface{}, 0)

	if f.Bounds != nil {
		query += " AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?"
		args = append(args, f.Bounds.LatMin, f.Bounds.LatMax, f.Bounds.LngMin, f.Bounds.LngMax)
	}
	if f.BuildingType != "" {
		query += " AND building_type = ?"
		args = append(args, f.BuildingType)
	}
	if f.Zoning != "" {
		query += " AND zoning = ?"
		args = append(args, f.Zoning)
	}
	if f.HeightMin != nil {
		query += " AND height >= ?"
		args = append(args, *f.HeightMin)
	}
	if f.HeightMax != nil {
		query += " AND height <= ?"
		args = append(args, *f.HeightMax)
	}
	if f.ValueMin != nil {
		query += " AND assessed_value >= ?"
		args = append(args, *f.ValueMin)
	}
	if f.ValueMax != nil {
		query += " AND assessed_value <= ?"
		args = append(args, *f.ValueMax)
	}

	query += " ORDER BY assessed_value DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(" LIMIT %d", limit)
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	var rows []buildingRow
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing buildings: %w", err)
	}

	buildings := make([]models.Building, 0, len(rows))
	for i := range rows {
		buildings = append(buildings, rows[i].toModel())
	}
	return buildings, nil
}

// GetBuilding returns one building by its source-qualified id.
func (db *DB) GetBuilding(buildingID string) (*models.Building, error) {
	var row buildingRow
	err := db.Get(&row, `
		SELECT id, building_id, data_source, address, latitude, longitude, footprint,
		       height, floors, building_type, zoning, assessed_value, land_use,
		       construction_year, last_updated
		FROM buildings
		WHERE building_id = ?
	`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("getting building %s: %w", buildingID, err)
	}

	b := row.toModel()
	return &b, nil
}

// CountBuildings returns the number of stored buildings.
func (db *DB) CountBuildings() (int, error) {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM buildings"); err != nil {
		return 0, fmt.Errorf("counting buildings: %w", err)
	}
	return count, nil
}
