package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/config"
	"github.com/automoto/ld51/logger"
	"github.com/automoto/ld51/server/core"
)

func main() {
	port := flag.Uint("port", config.Net.RelayPort, "Relay port")
	players := flag.Int("players", 2, "Players per match")
	spectators := flag.Int("spectators", 0, "Spectators to wait for before the match starts")
	version := flag.String("version", config.Net.Version, "Required client version (empty = accept any)")
	stats := flag.Duration("stats", config.Net.StatsInterval, "Stats log interval (0 disables)")
	flag.Parse()

	logger.Init()
	log := logger.Component("main")

	if *players < 1 {
		log.Fatalf("players must be at least 1, got %d", *players)
	}

	server := core.NewServer(*players, *spectators, *version, *stats)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down relay")
		server.Stop()
		os.Exit(0)
	}()

	log.WithFields(logrus.Fields{
		"port":       *port,
		"players":    *players,
		"spectators": *spectators,
		"version":    *version,
		"match":      server.Relay().MatchID(),
	}).Info("starting relay")
	if err := server.Start(*port); err != nil {
		log.WithError(err).Fatal("relay error")
	}
}
