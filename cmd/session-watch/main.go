package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"lane-games/internal/config"
	"lane-games/internal/identity"
	"lane-games/internal/logging"
	"lane-games/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}
	logCfg, err := config.LoadLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load log config:", err)
		os.Exit(1)
	}
	if err := logging.Init(logCfg); err != nil {
		fmt.Fprintln(os.Stderr, "init logging:", err)
		os.Exit(1)
	}
	cfg, err := config.LoadWatch()
	if err != nil {
		log.Fatal().Err(err).Msg("load watch config")
	}
	if cfg.Code == "" {
		log.Fatal().Msg("SESSION_CODE is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, sessionWSURL(cfg.BaseWSURL, cfg.Code), watchHeaders(cfg))
	if err != nil {
		if resp != nil {
			log.Fatal().Err(err).Int("status", resp.StatusCode).Msg("dial failed")
		}
		log.Fatal().Err(err).Msg("dial failed")
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if err := watch(conn); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("watch ended")
	}
}

func sessionWSURL(base, code string) string {
	return strings.TrimRight(base, "/") + "/api/sessions/" + strings.ToUpper(strings.TrimSpace(code)) + "/ws"
}

func watchHeaders(cfg config.WatchConfig) http.Header {
	h := http.Header{}
	if cfg.UserID != "" {
		h.Set(identity.HeaderUserID, cfg.UserID)
		h.Set(identity.HeaderUserName, cfg.UserName)
	}
	return h
}

// watch logs every snapshot until the session is deleted.
func watch(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &base); err != nil {
			log.Warn().Err(err).Msg("undecodable frame")
			continue
		}
		switch base.Type {
		case ws.TypeSnapshot:
			var snap ws.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil || snap.Session == nil {
				log.Warn().Err(err).Msg("bad snapshot")
				continue
			}
			logSnapshot(snap)
		case ws.TypeSessionDeleted:
			var del ws.SessionDeleted
			_ = json.Unmarshal(data, &del)
			log.Info().Str("code", del.Code).Msg("session deleted")
			return nil
		case ws.TypeError:
			var res ws.Result
			_ = json.Unmarshal(data, &res)
			return errors.New(res.Error)
		}
	}
}

func logSnapshot(snap ws.Snapshot) {
	s := snap.Session
	ev := log.Info().
		Str("code", s.Code).
		Str("mode", string(s.Mode)).
		Int64("version", s.Version).
		Str("status", string(s.Status)).
		Int("players", len(s.Players))
	for _, p := range s.Players {
		ev = ev.Int64(p.Name, int64(p.TotalWinnings))
	}
	ev.Msg("snapshot")
}
