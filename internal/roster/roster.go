// Package roster tracks the stations visible on the network. It keeps the
// latest report of each in memory and, when given a store, writes it through
// to the database.
package roster

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dbehnke/fsdclient/internal/database"
	"github.com/dbehnke/fsdclient/internal/network"
	"github.com/dbehnke/fsdclient/internal/protocol"
	"github.com/dbehnke/fsdclient/internal/protocol/pdu"
)

// Store is the persistence the roster writes through to
type Store interface {
	GetByCallsign(callsign string) (*database.Station, error)
	Upsert(station *database.Station) error
	Delete(callsign string) error
}

// Stats counts roster lookups
type Stats struct {
	Lookups uint32
	Hits    uint32
	Misses  uint32
	Errors  uint32
}

// Roster is safe for concurrent use
type Roster struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time

	mutex    sync.RWMutex
	stations map[string]database.Station
	stats    Stats
	subs     []*network.Subscription
}

// Option configures a Roster
type Option func(*Roster)

// WithLogger sets the roster logger
func WithLogger(log zerolog.Logger) Option {
	return func(r *Roster) { r.log = log }
}

// WithClock replaces the time source stamping sightings
func WithClock(now func() time.Time) Option {
	return func(r *Roster) { r.now = now }
}

// New creates a roster. store may be nil for a memory-only roster.
func New(store Store, opts ...Option) *Roster {
	r := &Roster{
		store:    store,
		log:      zerolog.Nop(),
		now:      time.Now,
		stations: make(map[string]database.Station),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach subscribes the roster to a session's notifications
func (r *Roster) Attach(e *network.Events) {
	subs := []*network.Subscription{
		network.On(e, r.onATCPosition),
		network.On(e, r.onPilotPosition),
		network.On(e, func(p *pdu.DeleteATC) { r.remove(p.From) }),
		network.On(e, func(p *pdu.DeletePilot) { r.remove(p.From) }),
		network.On(e, r.onQueryResponse),
		network.On(e, func(network.Disconnected) { r.clear() }),
	}
	r.mutex.Lock()
	r.subs = append(r.subs, subs...)
	r.mutex.Unlock()
}

// Detach drops every subscription made by Attach
func (r *Roster) Detach() {
	r.mutex.Lock()
	subs := r.subs
	r.subs = nil
	r.mutex.Unlock()
	for _, s := range subs {
		s.Unsubscribe()
	}
}

func (r *Roster) onATCPosition(p *pdu.ATCPosition) {
	r.update(p.From, func(s *database.Station) {
		s.Kind = database.KindATC
		s.Frequency = p.Frequency()
		s.Facility = int(p.Facility)
		s.Rating = int(p.Rating)
		s.Latitude = p.Lat
		s.Longitude = p.Lon
	})
}

func (r *Roster) onPilotPosition(p *pdu.PilotPosition) {
	r.update(p.From, func(s *database.Station) {
		s.Kind = database.KindPilot
		s.Rating = int(p.Rating)
		s.Latitude = p.Lat
		s.Longitude = p.Lon
		s.Altitude = p.TrueAltitude
		s.GroundSpeed = p.GroundSpeed
	})
}

// onQueryResponse records real names from RN responses of tracked stations
func (r *Roster) onQueryResponse(p *pdu.ClientQueryResponse) {
	if p.QueryType != protocol.QueryRealName || len(p.Payload) == 0 {
		return
	}
	callsign := normalize(p.From)
	r.mutex.RLock()
	_, known := r.stations[callsign]
	r.mutex.RUnlock()
	if !known {
		return
	}
	r.update(callsign, func(s *database.Station) { s.RealName = strings.TrimSpace(p.Payload[0]) })
}

func normalize(callsign string) string {
	return strings.ToUpper(strings.TrimSpace(callsign))
}

func (r *Roster) update(callsign string, apply func(*database.Station)) {
	callsign = normalize(callsign)
	if callsign == "" {
		return
	}
	now := r.now()

	r.mutex.Lock()
	s, ok := r.stations[callsign]
	if !ok {
		s = database.Station{Callsign: callsign, FirstSeen: now}
	}
	apply(&s)
	s.LastSeen = now
	r.stations[callsign] = s
	r.mutex.Unlock()

	if r.store == nil {
		return
	}
	row := s
	if err := r.store.Upsert(&row); err != nil {
		r.recordError()
		r.log.Warn().Err(err).Str("callsign", callsign).Msg("failed to persist station")
	}
}

func (r *Roster) remove(callsign string) {
	callsign = normalize(callsign)
	r.mutex.Lock()
	delete(r.stations, callsign)
	r.mutex.Unlock()

	if r.store == nil {
		return
	}
	if err := r.store.Delete(callsign); err != nil {
		r.recordError()
		r.log.Warn().Err(err).Str("callsign", callsign).Msg("failed to delete station")
	}
}

// clear forgets the live view; stored history is kept
func (r *Roster) clear() {
	r.mutex.Lock()
	r.stations = make(map[string]database.Station)
	r.mutex.Unlock()
}

// Lookup returns the latest report for callsign, reading the cache first
// and the store second
func (r *Roster) Lookup(callsign string) (database.Station, bool) {
	callsign = normalize(callsign)

	r.mutex.Lock()
	r.stats.Lookups++
	s, ok := r.stations[callsign]
	if ok {
		r.stats.Hits++
	}
	r.mutex.Unlock()
	if ok {
		return s, true
	}

	if r.store != nil && callsign != "" {
		stored, err := r.store.GetByCallsign(callsign)
		if err == nil {
			r.recordHit()
			return *stored, true
		}
		if !errors.Is(err, database.ErrStationNotFound) {
			r.recordError()
			r.log.Debug().Err(err).Str("callsign", callsign).Msg("station lookup failed")
		}
	}
	r.recordMiss()
	return database.Station{}, false
}

// Stations returns a snapshot of the live roster ordered by callsign
func (r *Roster) Stations() []database.Station {
	r.mutex.RLock()
	out := make([]database.Station, 0, len(r.stations))
	for _, s := range r.stations {
		out = append(out, s)
	}
	r.mutex.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Callsign < out[j].Callsign })
	return out
}

// Len returns the number of live stations
func (r *Roster) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.stations)
}

// GetStats returns the lookup counters
func (r *Roster) GetStats() Stats {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.stats
}

func (r *Roster) recordHit() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stats.Hits++
}

func (r *Roster) recordMiss() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stats.Misses++
}

func (r *Roster) recordError() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stats.Errors++
}
