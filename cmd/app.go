package cmd

import (
	"log/slog"
	"time"

	"github.com/hartley/lx/internal/config"
	"github.com/hartley/lx/internal/models"
	"github.com/hartley/lx/internal/outbox"
	"github.com/hartley/lx/internal/progress"
	"github.com/hartley/lx/internal/remote"
	"github.com/hartley/lx/internal/store"
)

// app wires the store, remote client, outbox and engine for one
// command invocation.
type app struct {
	cfg     *models.Config
	store   *store.Store
	client  *remote.Client
	manager *outbox.Manager
	engine  *progress.Engine
}

// openApp opens the existing project in baseDir.
func openApp(baseDir string) (*app, error) {
	st, err := store.Open(baseDir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		st.Close()
		return nil, err
	}

	deviceID := cfg.DeviceID
	if deviceID == "" {
		deviceID, err = config.EnsureDeviceID(baseDir)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	displayName := cfg.DisplayName
	if displayName == "" {
		displayName = "Learner"
	}

	client := remote.New(cfg.ServerURL, cfg.APIKey, deviceID)
	manager := outbox.New(st, client)

	engine, err := progress.New(st, manager, deviceID, displayName)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		store:   st,
		client:  client,
		manager: manager,
		engine:  engine,
	}, nil
}

func (a *app) close() {
	a.manager.Close()
	a.store.Close()
}

// probeOnline checks server reachability once and records the result
// on the manager. Going online kicks off a background drain.
func (a *app) probeOnline() bool {
	if a.cfg.ServerURL == "" {
		return false
	}
	_, err := a.client.HealthCheck()
	online := err == nil
	a.manager.SetOnline(online)
	return online
}

// autoSyncAfterRecord runs a quick drain after a mutating command.
// Errors are logged, never surfaced: the record is already durable.
func (a *app) autoSyncAfterRecord(baseDir string) {
	if !config.AutoSyncEnabled(baseDir) {
		return
	}
	a.client.HTTP.Timeout = 5 * time.Second // short timeout for auto-sync
	if !a.probeOnline() {
		slog.Debug("autosync: server unreachable, staying queued")
		return
	}
	a.manager.Wait()
}

// peerProvider returns the configured peer cohort, or the bundled one.
func (a *app) peerProvider(baseDir string) progress.PeerProvider {
	peers, err := config.LoadPeers(baseDir)
	if err != nil {
		slog.Warn("load peers file", "err", err)
	}
	if len(peers) == 0 {
		return progress.DefaultPeers
	}
	return progress.StaticPeers(peers)
}
