package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbehnke/fsdclient/internal/protocol"
)

const fullConfig = `[network]
server = "127.0.0.1"
port = 6809
challenge_server = true
ignore_unknown_packets = true

[station]
ident = "kbos"
type = "departure"
real_name = "Jane Controller"
cid = "1234567"
password = "hunter2"
rating = "C1"
facility = "TWR"
frequency = "135.000"
latitude = 42.36
longitude = -71.0
vis_range = 100
position_interval = "30s"
atis_text = "KBOS ATIS INFORMATION ALPHA"
atis_letter = "b"

[auth]
client_id = "0xb1d3"
client_name = "fsdclient"
version_major = 2
version_minor = 5
private_key = "secret"

[database]
enabled = true
path = "data/test.db"
debug = true

[monitor]
enabled = true
listen = ":9000"

[log]
level = "DEBUG"
console = false
file = "fsd.log"
`

func TestConfig_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fsdclient.toml")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o644))

	config := NewConfig(path)
	require.NoError(t, config.Load())

	assert.Equal(t, "127.0.0.1", config.GetServer())
	assert.Equal(t, 6809, config.GetPort())
	assert.True(t, config.GetChallengeServer())
	assert.True(t, config.GetIgnoreUnknownPackets())

	assert.Equal(t, "KBOS", config.GetIdent())
	assert.Equal(t, StationDeparture, config.GetStationType())
	assert.Equal(t, "KBOS_D_ATIS", config.GetCallsign())
	assert.Equal(t, "Jane Controller", config.GetRealName())
	assert.Equal(t, "1234567", config.GetCID())
	assert.Equal(t, "hunter2", config.GetPassword())
	assert.Equal(t, protocol.RatingC1, config.GetRating())
	assert.Equal(t, protocol.FacilityTWR, config.GetFacility())
	assert.Equal(t, 135000000, config.GetFrequencyHz())
	assert.Equal(t, 42.36, config.GetLatitude())
	assert.Equal(t, -71.0, config.GetLongitude())
	assert.Equal(t, 100, config.GetVisRange())
	assert.Equal(t, 30*time.Second, config.GetPositionInterval())
	assert.Equal(t, "KBOS ATIS INFORMATION ALPHA", config.GetATISText())
	assert.Equal(t, "B", config.GetATISLetter())

	assert.Equal(t, uint16(0xb1d3), config.GetClientID())
	assert.Equal(t, 2, config.GetVersionMajor())
	assert.Equal(t, 5, config.GetVersionMinor())
	assert.Equal(t, "secret", config.GetPrivateKey())

	assert.True(t, config.GetDatabaseEnabled())
	assert.Equal(t, "data/test.db", config.GetDatabasePath())
	assert.True(t, config.GetDatabaseDebug())
	assert.True(t, config.GetMonitorEnabled())
	assert.Equal(t, ":9000", config.GetMonitorListen())

	assert.Equal(t, "debug", config.GetLogLevel())
	assert.False(t, config.GetLogConsole())
	assert.Equal(t, "fsd.log", config.GetLogFile())

	assert.NoError(t, config.Validate())
}

func TestConfig_DefaultValues(t *testing.T) {
	config := NewConfig("")

	assert.Empty(t, config.GetServer())
	assert.Equal(t, 6809, config.GetPort())
	assert.Equal(t, "http://fsd.vatsim.net", config.GetBestServerURL())
	assert.Equal(t, StationCombined, config.GetStationType())
	assert.Equal(t, protocol.RatingOBS, config.GetRating())
	assert.Equal(t, protocol.FacilityTWR, config.GetFacility())
	assert.Equal(t, 50, config.GetVisRange())
	assert.Equal(t, 15*time.Second, config.GetPositionInterval())
	assert.Equal(t, "A", config.GetATISLetter())
	assert.False(t, config.GetDatabaseEnabled())
	assert.Equal(t, "info", config.GetLogLevel())
	assert.True(t, config.GetLogConsole())
}

func TestConfig_PartialOverlayKeepsDefaults(t *testing.T) {
	config := NewConfig("")
	require.NoError(t, config.LoadFromString(`
[station]
ident = "KJFK"

[network]
challenge_server = false
`))

	assert.Equal(t, "KJFK_ATIS", config.GetCallsign())
	assert.Equal(t, 6809, config.GetPort())
	assert.Equal(t, 15*time.Second, config.GetPositionInterval())
	assert.False(t, config.GetChallengeServer())
}

func TestConfig_InvalidFile(t *testing.T) {
	config := NewConfig("/nonexistent/file.toml")
	assert.Error(t, config.Load())
}

func TestConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"malformed toml", "[station\nident = 1"},
		{"unknown rating", "[station]\nrating = \"ZZ\""},
		{"unknown facility", "[station]\nfacility = \"TOWER\""},
		{"frequency outside airband", "[station]\nfrequency = \"99.9\""},
		{"frequency not a number", "[station]\nfrequency = \"abc\""},
		{"bad interval", "[station]\nposition_interval = \"soon\""},
		{"bad client id", "[auth]\nclient_id = \"zz\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewConfig("").LoadFromString(tt.config))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := `[station]
ident = "KBOS"
cid = "1"
frequency = "118.500"
`
	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{"valid", "", ""},
		{"bad type", "type = \"ground\"\n", "station.type"},
		{"latitude", "latitude = 91.0\n", "station.latitude"},
		{"letter", "atis_letter = \"AB\"\n", "station.atis_letter"},
		{"interval", "position_interval = \"0s\"\n", "station.position_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig("")
			require.NoError(t, config.LoadFromString(valid+tt.extra))
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		config := NewConfig("")
		require.NoError(t, config.LoadFromString("[database]\nenabled = true\npath = \"\"\n"))
		err := config.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "station.ident")
		assert.Contains(t, err.Error(), "station.cid")
		assert.Contains(t, err.Error(), "station.frequency")
		assert.Contains(t, err.Error(), "database.path")
	})
}

func TestStationTypeSuffix(t *testing.T) {
	assert.Equal(t, "_ATIS", StationCombined.Suffix())
	assert.Equal(t, "_D_ATIS", StationDeparture.Suffix())
	assert.Equal(t, "_A_ATIS", StationArrival.Suffix())
}

func BenchmarkConfig_Load(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.toml")
	if err := os.WriteFile(path, []byte(fullConfig), 0o644); err != nil {
		b.Fatalf("Failed to write config: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		config := NewConfig(path)
		_ = config.Load()
	}
}
