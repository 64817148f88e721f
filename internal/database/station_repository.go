package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStationNotFound is returned when no station matches a lookup
var ErrStationNotFound = errors.New("station not found")

// upsertColumns are overwritten on conflict; first_seen survives
var upsertColumns = []string{
	"kind", "real_name", "frequency", "facility", "rating",
	"latitude", "longitude", "altitude", "ground_speed", "last_seen",
}

// StationRepository provides database operations for stations
type StationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStationRepository creates a new repository instance
func NewStationRepository(db *gorm.DB) *StationRepository {
	return &StationRepository{db: db, now: time.Now}
}

// GetByCallsign finds a station by its callsign
func (r *StationRepository) GetByCallsign(callsign string) (*Station, error) {
	var station Station
	err := r.db.Where("callsign = ?", callsign).First(&station).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrStationNotFound, callsign)
	}
	if err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *StationRepository) prepare(station *Station) error {
	station.SanitizeFields()
	if !station.IsValid() {
		return fmt.Errorf("station is not valid: callsign=%q, kind=%q", station.Callsign, station.Kind)
	}
	now := r.now()
	if station.LastSeen.IsZero() {
		station.LastSeen = now
	}
	if station.FirstSeen.IsZero() {
		station.FirstSeen = station.LastSeen
	}
	return nil
}

func upsertClause() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "callsign"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}
}

// Upsert creates or updates a single station, keeping its first sighting
func (r *StationRepository) Upsert(station *Station) error {
	if station == nil {
		return fmt.Errorf("station cannot be nil")
	}
	if err := r.prepare(station); err != nil {
		return err
	}
	return r.db.Clauses(upsertClause()).Create(station).Error
}

// UpsertBatch creates or updates multiple stations in one transaction.
// Invalid records are skipped.
func (r *StationRepository) UpsertBatch(stations []Station) error {
	valid := make([]Station, 0, len(stations))
	for _, s := range stations {
		if err := r.prepare(&s); err == nil {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i := range valid {
			if err := tx.Clauses(upsertClause()).Create(&valid[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("batch upsert failed: %w", err)
	}
	return nil
}

// Delete removes a station; deleting an unknown callsign is not an error
func (r *StationRepository) Delete(callsign string) error {
	return r.db.Where("callsign = ?", callsign).Delete(&Station{}).Error
}

// Count returns the total number of stations in the database
func (r *StationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&Station{}).Count(&count).Error
	return count, err
}

// GetRecentlySeen returns stations seen after since, most recent first
func (r *StationRepository) GetRecentlySeen(since time.Time, limit int) ([]Station, error) {
	var stations []Station
	err := r.db.Where("last_seen > ?", since).
		Order("last_seen DESC").
		Limit(limit).
		Find(&stations).Error
	return stations, err
}

// FindByCallsignPattern searches for callsigns starting with prefix
func (r *StationRepository) FindByCallsignPattern(prefix string, limit int) ([]Station, error) {
	var stations []Station
	err := r.db.Where("callsign LIKE ?", prefix+"%").
		Order("callsign ASC").
		Limit(limit).
		Find(&stations).Error
	return stations, err
}

// PurgeOlderThan deletes stations last seen before cutoff and returns how
// many were removed
func (r *StationRepository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("last_seen < ?", cutoff).Delete(&Station{})
	return res.RowsAffected, res.Error
}

// Statistics summarizes the stored roster
type Statistics struct {
	Total    int64
	ATC      int64
	Pilots   int64
	LastSeen time.Time
}

// GetStatistics returns basic database statistics
func (r *StationRepository) GetStatistics() (Statistics, error) {
	var stats Statistics
	var rows []struct {
		Kind  StationKind
		Count int64
	}
	err := r.db.Model(&Station{}).
		Select("kind, COUNT(*) as count").
		Group("kind").
		Find(&rows).Error
	if err != nil {
		return stats, err
	}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Kind {
		case KindATC:
			stats.ATC = row.Count
		case KindPilot:
			stats.Pilots = row.Count
		}
	}

	var latest Station
	err = r.db.Order("last_seen DESC").First(&latest).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return stats, err
	}
	if err == nil {
		stats.LastSeen = latest.LastSeen
	}
	return stats, nil
}

// HealthCheck verifies the repository is working correctly
func (r *StationRepository) HealthCheck() error {
	var count int64
	return r.db.Model(&Station{}).Count(&count).Error
}
