package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dbehnke/fsdclient/internal/auth"
	"github.com/dbehnke/fsdclient/internal/config"
	"github.com/dbehnke/fsdclient/internal/database"
	"github.com/dbehnke/fsdclient/internal/monitor"
	"github.com/dbehnke/fsdclient/internal/network"
	"github.com/dbehnke/fsdclient/internal/roster"
	"github.com/dbehnke/fsdclient/internal/serverlist"
	"github.com/dbehnke/fsdclient/internal/station"
)

var errConnectionFailed = errors.New("connection failed")

// Client owns one station connection and the components observing it
type Client struct {
	config     *config.Config
	log        zerolog.Logger
	dispatcher *network.QueueDispatcher
	session    *network.Session
	station    *station.Station
	fetcher    *serverlist.Fetcher

	// optional components
	db     *database.DB
	roster *roster.Roster
	hub    *monitor.Hub

	mu            sync.Mutex
	pendingServer string
	ended         chan error
}

// NewClient wires a session, station and the enabled observers
func NewClient(cfg *config.Config, log zerolog.Logger) (*Client, error) {
	dispatcher := network.NewQueueDispatcher()
	session := network.NewSession(
		auth.NewSharedKey(cfg.GetClientID(), cfg.GetPrivateKey()),
		network.WithLogger(log.With().Str("component", "session").Logger()),
		network.WithDispatcher(dispatcher),
		network.WithIgnoreUnknownPackets(cfg.GetIgnoreUnknownPackets()),
	)

	c := &Client{
		config:     cfg,
		log:        log,
		dispatcher: dispatcher,
		session:    session,
		station: station.New(session, station.ConfigFromFile(cfg, uuid.NewString()),
			station.WithLogger(log.With().Str("component", "station").Logger())),
		fetcher: serverlist.NewFetcherWithConfig(log, serverlist.FetcherConfig{
			BestServerURL: cfg.GetBestServerURL(),
			StatusURL:     cfg.GetStatusURL(),
		}),
		ended: make(chan error, 1),
	}

	if cfg.GetDatabaseEnabled() {
		dbLog := log.With().Str("component", "database").Logger()
		db, err := database.NewDB(database.Config{Path: cfg.GetDatabasePath(), Debug: cfg.GetDatabaseDebug()}, &dbLog)
		if err != nil {
			// the roster is optional, keep going without it
			log.Warn().Err(err).Msg("station database unavailable, roster disabled")
		} else {
			c.db = db
			c.roster = roster.New(database.NewStationRepository(db.GetDB()),
				roster.WithLogger(log.With().Str("component", "roster").Logger()))
			c.roster.Attach(session.Events())
		}
	}

	if cfg.GetMonitorEnabled() {
		c.hub = monitor.NewHub(log.With().Str("component", "monitor").Logger())
		c.hub.Attach(session.Events())
	}

	return c, nil
}

// Run connects and blocks until ctx is cancelled or the connection ends
func (c *Client) Run(ctx context.Context) error {
	defer c.close()

	server := c.config.GetServer()
	if server == "" {
		best, err := c.fetcher.BestServer(ctx)
		if err != nil {
			return fmt.Errorf("no server configured and discovery failed: %w", err)
		}
		server = best
	}

	g, ctx := errgroup.WithContext(ctx)
	if c.hub != nil {
		srv := &http.Server{Addr: c.config.GetMonitorListen(), Handler: c.hub.Handler()}
		g.Go(func() error {
			c.hub.Run(ctx)
			return nil
		})
		g.Go(func() error {
			c.log.Info().Str("listen", srv.Addr).Msg("monitor listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("monitor: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	subs := c.watch(ctx)
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()

	g.Go(func() error {
		if err := c.station.Connect(ctx, server, c.config.GetPort(), c.config.GetChallengeServer()); err != nil {
			return err
		}
		c.log.Info().Str("callsign", c.station.Callsign()).Str("server", server).Msg("station connecting")

		var err error
		select {
		case <-ctx.Done():
		case err = <-c.ended:
		}
		c.station.Disconnect()
		if err != nil {
			return err
		}
		// stop the monitor once the connection is gone
		return errStopped
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errStopped) {
		return err
	}
	return nil
}

var errStopped = errors.New("stopped")

// watch follows the connection lifecycle and moves servers on request
func (c *Client) watch(ctx context.Context) []*network.Subscription {
	e := c.session.Events()
	return []*network.Subscription{
		network.On(e, func(network.ConnectionFailed) { c.end(errConnectionFailed) }),
		network.On(e, func(network.Disconnected) {
			c.mu.Lock()
			next := c.pendingServer
			c.pendingServer = ""
			c.mu.Unlock()
			if next == "" {
				c.end(nil)
				return
			}
			c.log.Info().Str("server", next).Msg("moving to new server")
			if err := c.station.Connect(ctx, next, c.config.GetPort(), c.config.GetChallengeServer()); err != nil {
				c.end(err)
			}
		}),
		network.On(e, func(n network.NetworkError) {
			if n.Fatal {
				c.log.Error().Msg(n.Message)
			} else {
				c.log.Warn().Msg(n.Message)
			}
		}),
		network.On(e, func(a station.Alert) {
			c.log.Error().Bool("fatal", a.Fatal).Msg(a.Message)
		}),
		network.On(e, func(k station.Killed) {
			c.log.Warn().Str("reason", k.Reason).Msg("station was removed from the network")
		}),
		network.On(e, func(s station.ServerChange) {
			c.mu.Lock()
			c.pendingServer = s.NewServer
			c.mu.Unlock()
			c.station.Disconnect()
		}),
	}
}

func (c *Client) end(err error) {
	select {
	case c.ended <- err:
	default:
	}
}

func (c *Client) close() {
	c.station.Close()
	if c.roster != nil {
		c.roster.Detach()
	}
	if c.hub != nil {
		c.hub.Detach()
	}
	c.dispatcher.Close()
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.log.Warn().Err(err).Msg("database close failed")
		}
	}
}
