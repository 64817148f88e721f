package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

// StationType selects the ATIS callsign suffix
type StationType string

const (
	StationCombined  StationType = "combined"
	StationDeparture StationType = "departure"
	StationArrival   StationType = "arrival"
)

// Suffix returns the callsign suffix for the station type
func (t StationType) Suffix() string {
	switch t {
	case StationDeparture:
		return "_D_ATIS"
	case StationArrival:
		return "_A_ATIS"
	default:
		return "_ATIS"
	}
}

// Config represents the fsdclient configuration
type Config struct {
	filename string

	// Network section
	server               string
	port                 int
	challengeServer      bool
	ignoreUnknownPackets bool
	statusURL            string
	bestServerURL        string

	// Station section
	ident            string
	stationType      StationType
	realName         string
	cid              string
	password         string
	rating           protocol.NetworkRating
	facility         protocol.NetworkFacility
	frequencyHz      int
	latitude         float64
	longitude        float64
	visRange         int
	positionInterval time.Duration
	atisText         string
	atisLetter       string

	// Auth section
	clientID     uint16
	clientName   string
	versionMajor int
	versionMinor int
	privateKey   string

	// Database section
	databaseEnabled bool
	databasePath    string
	databaseDebug   bool

	// Monitor section
	monitorEnabled bool
	monitorListen  string

	// Log section
	logLevel   string
	logConsole bool
	logFile    string
}

type networkSection struct {
	Server               string `toml:"server"`
	Port                 int    `toml:"port"`
	ChallengeServer      bool   `toml:"challenge_server"`
	IgnoreUnknownPackets bool   `toml:"ignore_unknown_packets"`
	StatusURL            string `toml:"status_url"`
	BestServerURL        string `toml:"bestserver_url"`
}

type stationSection struct {
	Ident            string  `toml:"ident"`
	Type             string  `toml:"type"`
	RealName         string  `toml:"real_name"`
	CID              string  `toml:"cid"`
	Password         string  `toml:"password"`
	Rating           string  `toml:"rating"`
	Facility         string  `toml:"facility"`
	Frequency        string  `toml:"frequency"`
	Latitude         float64 `toml:"latitude"`
	Longitude        float64 `toml:"longitude"`
	VisRange         int     `toml:"vis_range"`
	PositionInterval string  `toml:"position_interval"`
	ATISText         string  `toml:"atis_text"`
	ATISLetter       string  `toml:"atis_letter"`
}

type authSection struct {
	ClientID     string `toml:"client_id"`
	ClientName   string `toml:"client_name"`
	VersionMajor int    `toml:"version_major"`
	VersionMinor int    `toml:"version_minor"`
	PrivateKey   string `toml:"private_key"`
}

type databaseSection struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Debug   bool   `toml:"debug"`
}

type monitorSection struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

type logSection struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
	File    string `toml:"file"`
}

type fileConfig struct {
	Network  networkSection  `toml:"network"`
	Station  stationSection  `toml:"station"`
	Auth     authSection     `toml:"auth"`
	Database databaseSection `toml:"database"`
	Monitor  monitorSection  `toml:"monitor"`
	Log      logSection      `toml:"log"`
}

// NewConfig creates a new configuration instance
func NewConfig(filename string) *Config {
	return &Config{
		filename: filename,
		// Set reasonable defaults
		port:             6809,
		statusURL:        "https://status.vatsim.net/status.json",
		bestServerURL:    "http://fsd.vatsim.net",
		stationType:      StationCombined,
		rating:           protocol.RatingOBS,
		facility:         protocol.FacilityTWR,
		visRange:         50,
		positionInterval: 15 * time.Second,
		atisLetter:       "A",
		clientName:       "fsdclient",
		versionMajor:     1,

		databasePath: "data/stations.db",

		monitorListen: "127.0.0.1:8089",

		logLevel:   "info",
		logConsole: true,
	}
}

// Load loads configuration from the configured file
func (c *Config) Load() error {
	var raw fileConfig
	meta, err := toml.DecodeFile(c.filename, &raw)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", c.filename, err)
	}
	return c.apply(&raw, meta)
}

// LoadFromString loads configuration from a string (useful for testing)
func (c *Config) LoadFromString(data string) error {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return c.apply(&raw, meta)
}

func (c *Config) apply(raw *fileConfig, meta toml.MetaData) error {
	if err := c.applyNetwork(&raw.Network, meta); err != nil {
		return err
	}
	if err := c.applyStation(&raw.Station, meta); err != nil {
		return err
	}
	if err := c.applyAuth(&raw.Auth, meta); err != nil {
		return err
	}

	if meta.IsDefined("database", "enabled") {
		c.databaseEnabled = raw.Database.Enabled
	}
	if meta.IsDefined("database", "path") {
		c.databasePath = strings.TrimSpace(raw.Database.Path)
	}
	if meta.IsDefined("database", "debug") {
		c.databaseDebug = raw.Database.Debug
	}

	if meta.IsDefined("monitor", "enabled") {
		c.monitorEnabled = raw.Monitor.Enabled
	}
	if meta.IsDefined("monitor", "listen") {
		c.monitorListen = strings.TrimSpace(raw.Monitor.Listen)
	}

	if meta.IsDefined("log", "level") {
		c.logLevel = strings.ToLower(strings.TrimSpace(raw.Log.Level))
	}
	if meta.IsDefined("log", "console") {
		c.logConsole = raw.Log.Console
	}
	if meta.IsDefined("log", "file") {
		c.logFile = strings.TrimSpace(raw.Log.File)
	}
	return nil
}

func (c *Config) applyNetwork(n *networkSection, meta toml.MetaData) error {
	if meta.IsDefined("network", "server") {
		c.server = strings.TrimSpace(n.Server)
	}
	if meta.IsDefined("network", "port") {
		c.port = n.Port
	}
	if meta.IsDefined("network", "challenge_server") {
		c.challengeServer = n.ChallengeServer
	}
	if meta.IsDefined("network", "ignore_unknown_packets") {
		c.ignoreUnknownPackets = n.IgnoreUnknownPackets
	}
	if meta.IsDefined("network", "status_url") {
		c.statusURL = strings.TrimSpace(n.StatusURL)
	}
	if meta.IsDefined("network", "bestserver_url") {
		c.bestServerURL = strings.TrimSpace(n.BestServerURL)
	}
	return nil
}

func (c *Config) applyStation(s *stationSection, meta toml.MetaData) error {
	if meta.IsDefined("station", "ident") {
		c.ident = strings.ToUpper(strings.TrimSpace(s.Ident))
	}
	if meta.IsDefined("station", "type") {
		c.stationType = StationType(strings.ToLower(strings.TrimSpace(s.Type)))
	}
	if meta.IsDefined("station", "real_name") {
		c.realName = strings.TrimSpace(s.RealName)
	}
	if meta.IsDefined("station", "cid") {
		c.cid = strings.TrimSpace(s.CID)
	}
	if meta.IsDefined("station", "password") {
		c.password = s.Password
	}
	if meta.IsDefined("station", "rating") {
		r, err := protocol.ParseNetworkRating(s.Rating)
		if err != nil {
			return fmt.Errorf("parse station.rating: %w", err)
		}
		c.rating = r
	}
	if meta.IsDefined("station", "facility") {
		f, err := protocol.ParseNetworkFacility(s.Facility)
		if err != nil {
			return fmt.Errorf("parse station.facility: %w", err)
		}
		c.facility = f
	}
	if meta.IsDefined("station", "frequency") {
		hz, err := parseFrequency(s.Frequency)
		if err != nil {
			return fmt.Errorf("parse station.frequency: %w", err)
		}
		c.frequencyHz = hz
	}
	if meta.IsDefined("station", "latitude") {
		c.latitude = s.Latitude
	}
	if meta.IsDefined("station", "longitude") {
		c.longitude = s.Longitude
	}
	if meta.IsDefined("station", "vis_range") {
		c.visRange = s.VisRange
	}
	if meta.IsDefined("station", "position_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(s.PositionInterval))
		if err != nil {
			return fmt.Errorf("parse station.position_interval: %w", err)
		}
		c.positionInterval = d
	}
	if meta.IsDefined("station", "atis_text") {
		c.atisText = strings.TrimSpace(s.ATISText)
	}
	if meta.IsDefined("station", "atis_letter") {
		c.atisLetter = strings.ToUpper(strings.TrimSpace(s.ATISLetter))
	}
	return nil
}

func (c *Config) applyAuth(a *authSection, meta toml.MetaData) error {
	if meta.IsDefined("auth", "client_id") {
		raw := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(a.ClientID)), "0x")
		id, err := strconv.ParseUint(raw, 16, 16)
		if err != nil {
			return fmt.Errorf("parse auth.client_id: %w", err)
		}
		c.clientID = uint16(id)
	}
	if meta.IsDefined("auth", "client_name") {
		c.clientName = strings.TrimSpace(a.ClientName)
	}
	if meta.IsDefined("auth", "version_major") {
		c.versionMajor = a.VersionMajor
	}
	if meta.IsDefined("auth", "version_minor") {
		c.versionMinor = a.VersionMinor
	}
	if meta.IsDefined("auth", "private_key") {
		c.privateKey = a.PrivateKey
	}
	return nil
}

// parseFrequency reads a frequency in MHz ("118.500") and returns Hz
func parseFrequency(value string) (int, error) {
	mhz, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if mhz < 118 || mhz >= 137 {
		return 0, fmt.Errorf("frequency %s MHz is outside the airband", value)
	}
	return int(math.Round(mhz * 1e6)), nil
}

// Validate reports every missing or invalid required field
func (c *Config) Validate() error {
	var errs []error
	if c.ident == "" {
		errs = append(errs, errors.New("station.ident is required"))
	}
	switch c.stationType {
	case StationCombined, StationDeparture, StationArrival:
	default:
		errs = append(errs, fmt.Errorf("station.type %q is not one of combined, departure, arrival", c.stationType))
	}
	if c.cid == "" {
		errs = append(errs, errors.New("station.cid is required"))
	}
	if c.frequencyHz == 0 {
		errs = append(errs, errors.New("station.frequency is required"))
	}
	if c.latitude < -90 || c.latitude > 90 {
		errs = append(errs, fmt.Errorf("station.latitude %v is out of range", c.latitude))
	}
	if c.longitude < -180 || c.longitude > 180 {
		errs = append(errs, fmt.Errorf("station.longitude %v is out of range", c.longitude))
	}
	if c.positionInterval <= 0 {
		errs = append(errs, errors.New("station.position_interval must be positive"))
	}
	if len(c.atisLetter) != 1 || c.atisLetter[0] < 'A' || c.atisLetter[0] > 'Z' {
		errs = append(errs, fmt.Errorf("station.atis_letter %q must be a single letter", c.atisLetter))
	}
	if c.port <= 0 || c.port > 65535 {
		errs = append(errs, fmt.Errorf("network.port %d is out of range", c.port))
	}
	if c.server == "" && c.bestServerURL == "" {
		errs = append(errs, errors.New("network.server or network.bestserver_url is required"))
	}
	if c.databaseEnabled && c.databasePath == "" {
		errs = append(errs, errors.New("database.path is required when the database is enabled"))
	}
	if c.monitorEnabled && c.monitorListen == "" {
		errs = append(errs, errors.New("monitor.listen is required when the monitor is enabled"))
	}
	return errors.Join(errs...)
}

// Getter methods for Network section
func (c *Config) GetServer() string             { return c.server }
func (c *Config) GetPort() int                  { return c.port }
func (c *Config) GetChallengeServer() bool      { return c.challengeServer }
func (c *Config) GetIgnoreUnknownPackets() bool { return c.ignoreUnknownPackets }
func (c *Config) GetStatusURL() string          { return c.statusURL }
func (c *Config) GetBestServerURL() string      { return c.bestServerURL }

// Getter methods for Station section
func (c *Config) GetIdent() string                      { return c.ident }
func (c *Config) GetStationType() StationType           { return c.stationType }
func (c *Config) GetCallsign() string                   { return c.ident + c.stationType.Suffix() }
func (c *Config) GetRealName() string                   { return c.realName }
func (c *Config) GetCID() string                        { return c.cid }
func (c *Config) GetPassword() string                   { return c.password }
func (c *Config) GetRating() protocol.NetworkRating     { return c.rating }
func (c *Config) GetFacility() protocol.NetworkFacility { return c.facility }
func (c *Config) GetFrequencyHz() int                   { return c.frequencyHz }
func (c *Config) GetLatitude() float64                  { return c.latitude }
func (c *Config) GetLongitude() float64                 { return c.longitude }
func (c *Config) GetVisRange() int                      { return c.visRange }
func (c *Config) GetPositionInterval() time.Duration    { return c.positionInterval }
func (c *Config) GetATISText() string                   { return c.atisText }
func (c *Config) GetATISLetter() string                 { return c.atisLetter }

// Getter methods for Auth section
func (c *Config) GetClientID() uint16   { return c.clientID }
func (c *Config) GetClientName() string { return c.clientName }
func (c *Config) GetVersionMajor() int  { return c.versionMajor }
func (c *Config) GetVersionMinor() int  { return c.versionMinor }
func (c *Config) GetPrivateKey() string { return c.privateKey }

// Getter methods for Database section
func (c *Config) GetDatabaseEnabled() bool { return c.databaseEnabled }
func (c *Config) GetDatabasePath() string  { return c.databasePath }
func (c *Config) GetDatabaseDebug() bool   { return c.databaseDebug }

// Getter methods for Monitor section
func (c *Config) GetMonitorEnabled() bool  { return c.monitorEnabled }
func (c *Config) GetMonitorListen() string { return c.monitorListen }

// Getter methods for Log section
func (c *Config) GetLogLevel() string { return c.logLevel }
func (c *Config) GetLogConsole() bool { return c.logConsole }
func (c *Config) GetLogFile() string  { return c.logFile }
