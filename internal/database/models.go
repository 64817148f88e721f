package database

import (
	"fmt"
	"strings"
	"time"
)

// StationKind distinguishes controllers from pilots
type StationKind string

const (
	KindATC   StationKind = "atc"
	KindPilot StationKind = "pilot"
)

// Station is the last known report of a network station
type Station struct {
	Callsign    string      `gorm:"primarykey;size:20;not null" json:"callsign"`
	Kind        StationKind `gorm:"index;size:8" json:"kind"`
	RealName    string      `gorm:"size:100" json:"real_name"`
	Frequency   int         `json:"frequency"`
	Facility    int         `json:"facility"`
	Rating      int         `json:"rating"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Altitude    int         `json:"altitude"`
	GroundSpeed int         `json:"ground_speed"`
	FirstSeen   time.Time   `json:"first_seen"`
	LastSeen    time.Time   `gorm:"index" json:"last_seen"`
}

// TableName specifies the table name for GORM
func (Station) TableName() string {
	return "stations"
}

// FrequencyMHz formats the FSD frequency field ("18500") as "118.500"
func (s Station) FrequencyMHz() string {
	if s.Frequency <= 0 {
		return ""
	}
	khz := s.Frequency + 100000
	return fmt.Sprintf("%d.%03d", khz/1000, khz%1000)
}

// String returns a formatted string representation
func (s Station) String() string {
	result := fmt.Sprintf("%s (%s)", s.Callsign, s.Kind)
	if f := s.FrequencyMHz(); f != "" {
		result += " " + f
	}
	if s.RealName != "" {
		result += " - " + s.RealName
	}
	return result
}

// IsValid checks if the record has required fields
func (s Station) IsValid() bool {
	return s.Callsign != "" && (s.Kind == KindATC || s.Kind == KindPilot)
}

// SanitizeFields normalizes the callsign and trims text fields
func (s *Station) SanitizeFields() {
	s.Callsign = strings.ToUpper(strings.TrimSpace(s.Callsign))
	s.RealName = strings.TrimSpace(s.RealName)
}
