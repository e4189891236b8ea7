package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/board"
	"github.com/automoto/ld51/config"
	"github.com/automoto/ld51/engine"
	"github.com/automoto/ld51/game"
	"github.com/automoto/ld51/logger"
	"github.com/automoto/ld51/network"
	"github.com/automoto/ld51/recorder"
	"github.com/automoto/ld51/shared/messages"
)

const appName = "ld51"

type options struct {
	session  string
	relay    string
	players  int
	handle   int
	spectate bool
	watchers int
	script   string
	ticks    uint64
	seed     uint64
	record   string
	replay   string
	importF  string
	exportF  string
	layout   string
}

func main() {
	var o options
	flag.StringVar(&o.session, "session", "", "Session YAML file for a networked match")
	flag.StringVar(&o.relay, "relay", "", "Relay address, e.g. ws://127.0.0.1:7373")
	flag.IntVar(&o.players, "players", 1, "Players in the match (with -relay)")
	flag.IntVar(&o.handle, "handle", 0, "Local player handle (with -relay)")
	flag.BoolVar(&o.spectate, "spectate", false, "Watch the match instead of playing (with -relay)")
	flag.IntVar(&o.watchers, "spectators", 0, "Spectators the match waits for (with -relay)")
	flag.StringVar(&o.script, "script", "", "Scripted input file, one \"<tick> <Action> [x y]\" per line")
	flag.Uint64Var(&o.ticks, "ticks", 1200, "Ticks to run")
	flag.Uint64Var(&o.seed, "seed", 1, "World seed")
	flag.StringVar(&o.record, "record", "", "Save the recording under this name when done")
	flag.StringVar(&o.replay, "replay", "", "Replay the saved recording with this name")
	flag.StringVar(&o.importF, "import", "", "Replay a shared recording read from this file")
	flag.StringVar(&o.exportF, "export", "", "Write the recording as share text to this file")
	flag.StringVar(&o.layout, "layout", "", "Tiled .tmx board layout")
	flag.Parse()

	logger.Init()
	log := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, log); err != nil {
		log.WithError(err).Fatal("run failed")
	}
}

func run(ctx context.Context, o options, log *logrus.Entry) error {
	script := Script{}
	if o.script != "" {
		f, err := os.Open(o.script)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		script, err = ReadScript(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	var layout *board.Board
	if o.layout != "" {
		var err error
		layout, err = board.LoadLayout(os.DirFS(filepath.Dir(o.layout)), filepath.Base(o.layout))
		if err != nil {
			return err
		}
	}

	var store *recorder.Store
	if o.record != "" || o.replay != "" {
		var err error
		if store, err = recorder.OpenStore(appName); err != nil {
			return err
		}
	}

	var sc *config.SessionConfig
	if o.session != "" {
		var err error
		if sc, err = config.LoadSessionConfig(o.session); err != nil {
			return err
		}
	}

	rec := recorder.New()
	seed := o.seed
	if sc != nil && sc.Seed != 0 {
		seed = sc.Seed
	}
	replaying := false
	switch {
	case o.replay != "":
		s, err := store.Load(o.replay, rec)
		if err != nil {
			return err
		}
		seed, replaying = s, true
	case o.importF != "":
		data, err := os.ReadFile(o.importF)
		if err != nil {
			return fmt.Errorf("read recording: %w", err)
		}
		if err := rec.ImportText(string(data)); err != nil {
			return err
		}
		replaying = true
	}

	w := game.New(seed, layout)

	var err error
	if sc != nil || o.relay != "" {
		if replaying {
			return fmt.Errorf("replays run offline, drop -session and -relay")
		}
		err = runNetworked(ctx, o, sc, w, rec, script, log)
	} else {
		err = runOffline(ctx, o, w, rec, script, replaying)
	}
	if err != nil {
		return err
	}

	if o.record != "" {
		if err := store.Save(o.record, rec, seed); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"name": o.record, "records": rec.Len()}).Info("recording saved")
	}
	if o.exportF != "" {
		text, err := rec.ExportText()
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.exportF, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write recording: %w", err)
		}
	}

	fmt.Printf("step=%d credits=%d health=%.2f level=%d turrets=%d records=%d checksum=%016x\n",
		w.Step, w.Player.Credits, w.Player.Health, w.Player.Level,
		len(w.PlacedTurrets()), rec.Len(), game.Checksum(w))
	return nil
}

// runOffline runs ticks as fast as possible; there is no peer to wait for.
func runOffline(ctx context.Context, o options, w *game.World, rec *recorder.Recorder, script Script, replaying bool) error {
	runner := engine.NewRunner(w, rec, nil, nil)
	if replaying {
		runner.Playback()
	}
	for runner.Ticks() < o.ticks {
		if ctx.Err() != nil {
			return nil
		}
		for _, a := range script.At(runner.Ticks()) {
			runner.Push(a)
		}
		if err := runner.AdvanceTick(); err != nil {
			return err
		}
	}
	return nil
}

func runNetworked(ctx context.Context, o options, sc *config.SessionConfig, w *game.World, rec *recorder.Recorder, script Script, log *logrus.Entry) error {
	cfg := sessionConfig(o, sc)
	address := o.relay
	if address == "" && sc != nil {
		address = sc.Relay
	}
	if address == "" {
		return fmt.Errorf("no relay address")
	}

	spectators := o.watchers
	if sc != nil {
		spectators = max(spectators, len(sc.Spectators))
	}
	client, err := network.DialRelay(ctx, address, messages.JoinRequest{
		Version:    config.Net.Version,
		Handle:     cfg.LocalHandle,
		Spectator:  cfg.LocalHandle == network.SpectatorHandle,
		Spectators: spectators,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if client.Players() != cfg.NumPlayers {
		return fmt.Errorf("relay match has %d players, session expects %d", client.Players(), cfg.NumPlayers)
	}

	log.WithFields(logrus.Fields{
		"match":   client.MatchID(),
		"players": cfg.NumPlayers,
		"handle":  cfg.LocalHandle,
	}).Info("joined match, waiting for the other seats")
	if err := client.WaitStarted(ctx); err != nil {
		return err
	}

	// Created after the start so peer timeouts count from it.
	session, err := network.NewP2PSession(cfg, client)
	if err != nil {
		return err
	}

	loop := engine.NewLoop(engine.NewRunner(w, rec, session, nil), config.Time.TickRate)
	loop.Input = script.At
	loop.MaxTicks = o.ticks
	loop.StatsInterval = config.Net.StatsInterval
	return loop.Run(ctx)
}

// sessionConfig builds the rollback session settings from the session
// file or, without one, from the -players, -handle and -spectate flags.
func sessionConfig(o options, sc *config.SessionConfig) network.SessionConfig {
	if sc == nil {
		handle := o.handle
		if o.spectate {
			handle = network.SpectatorHandle
		}
		return network.DefaultSessionConfig(o.players, handle)
	}
	return network.SessionConfig{
		NumPlayers:        sc.NumPlayers(),
		LocalHandle:       sc.LocalHandle(),
		InputDelay:        *sc.InputDelay,
		MaxPrediction:     *sc.MaxPrediction,
		DisconnectTimeout: sc.DisconnectTimeout,
	}
}
