package core

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/logger"
)

// StatsLoop periodically logs relay traffic.
type StatsLoop struct {
	relay    *Relay
	interval time.Duration
	stopChan chan struct{}
	log      *logrus.Entry
}

func NewStatsLoop(relay *Relay, interval time.Duration) *StatsLoop {
	return &StatsLoop{
		relay:    relay,
		interval: interval,
		stopChan: make(chan struct{}),
		log:      logger.Component("relay"),
	}
}

func (g *StatsLoop) Run() {
	if g.interval <= 0 {
		<-g.stopChan
		return
	}
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.log.WithField("interval", g.interval.String()).Info("stats loop started")

	for {
		select {
		case <-g.stopChan:
			g.log.Info("stats loop stopped")
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *StatsLoop) Stop() {
	close(g.stopChan)
}

func (g *StatsLoop) tick() {
	st := g.relay.Stats()
	g.log.WithFields(logrus.Fields{
		"players":    st.Players,
		"spectators": st.Spectators,
		"forwarded":  st.Forwarded,
		"dropped":    st.Dropped,
	}).Info("relay stats")
}
