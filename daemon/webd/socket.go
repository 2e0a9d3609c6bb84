package webd

import (
	"encoding/json"
	"log"
	"log/slog"

	"github.com/olahol/melody"

	"github.com/strayward/stopd/aggregate"
)

type websocketAction string

var websocketActionStats websocketAction = "stats"

type broadcast struct {
	Action websocketAction             `json:"action"`
	Stats  []aggregate.TraceStatistics `json:"stats"`
}

// initMelody sets up the websocket handler.
// Every completed analysis is broadcast to all connected clients, and a
// freshly connected client is primed with the last analyzed run.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	s.melodyInstance.HandleConnect(func(sess *melody.Session) {
		log.Println("[websocket] connected", sess.Request.RemoteAddr)
		last := s.results.Last()
		if last == nil {
			return
		}
		b, err := json.Marshal(broadcast{Action: websocketActionStats, Stats: last.Stats})
		if err != nil {
			slog.Error("Failed to marshal stats event", "error", err)
			return
		}
		_ = sess.Write(b)
	})

	// Don't care about incoming messages from clients. Log and drop.
	s.melodyInstance.HandleMessage(loggingHandler)

	s.melodyInstance.HandleDisconnect(func(sess *melody.Session) {
		log.Println("[websocket] disconnected", sess.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(sess *melody.Session, e error) {
		log.Println("[websocket] error", e, sess.Request.RemoteAddr)
	})

	statsCh := make(chan []aggregate.TraceStatistics)
	statsSub := s.feedAnalyzed.Subscribe(statsCh)
	go func() {
		for {
			select {
			case stats := <-statsCh:
				b, err := json.Marshal(broadcast{Action: websocketActionStats, Stats: stats})
				if err != nil {
					slog.Error("Failed to marshal stats event", "error", err)
					continue
				}
				if err := s.melodyInstance.Broadcast(b); err != nil {
					slog.Warn("Failed to broadcast stats event", "error", err)
				}
			case err := <-statsSub.Err():
				slog.Error("Failed to subscribe to analyzed feed", "error", err)
				return
			}
		}
	}()
}

func loggingHandler(s *melody.Session, msg []byte) {
	log.Println("[websocket] message", s.Request.RemoteAddr, string(msg))
}
