package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ArjunBhandari2511/chatapp-frontend/internal/call"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/config"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/identity"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/presence"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/restclient"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/session"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/stats"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/transport"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/typing"
	"github.com/ArjunBhandari2511/chatapp-frontend/internal/types"
	"github.com/gorilla/handlers"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	relayURL    string
	apiURL      string
	token       string
	channelName string
	directUser  string
	debugAddr   string
	stunServers stringSliceFlag
)

func main() {
	flag.StringVar(&relayURL, "relay-url", "ws://localhost:5000", "websocket endpoint of the event relay")
	flag.StringVar(&apiURL, "api-url", "http://localhost:5000/api", "base URL of the REST api")
	flag.StringVar(&token, "token", os.Getenv("CHATAPP_TOKEN"), "bearer token")
	flag.StringVar(&channelName, "channel", "", "channel to join on startup")
	flag.StringVar(&directUser, "direct", "", "username to open a direct conversation with on startup")
	flag.StringVar(&debugAddr, "debug-addr", "", "listen address for the debug/metrics server (disabled when empty)")
	flag.Var(&stunServers, "stun", "comma-separated list of STUN server URLs")
	flag.Parse()

	logger := log.New(os.Stderr, "[chatapp] ", log.LstdFlags)

	cfg, err := config.NewConfig(relayURL, apiURL, token, stunServers, debugAddr)
	if err != nil {
		logger.Fatal("config:", err)
	}

	self, err := identity.FromToken(cfg.AuthToken)
	if err != nil {
		logger.Fatal("token:", err)
	}
	logger.Printf("authenticated as %s (%s)", self.Username, self.UserId)

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(mux)
	for _, m := range []string{
		stats.NumMessagesSent,
		stats.NumMessagesReceived,
		stats.NumReadReceipts,
		stats.NumActiveCalls,
		stats.NumCallsFailed,
	} {
		statsUpdater.RegisterMetric(m)
	}
	statsUpdater.Run()
	defer statsUpdater.Stop()

	var debugSrv *http.Server
	if cfg.DebugAddr != "" {
		debugSrv = &http.Server{
			Addr:    cfg.DebugAddr,
			Handler: handlers.LoggingHandler(os.Stderr, handlers.CORS()(mux)),
		}
		go func() {
			logger.Printf("debug server listening on %s", cfg.DebugAddr)
			if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Println("debug server:", err)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	conn, err := transport.Dial(ctx, cfg.RelayURL, cfg.AuthToken, logger)
	cancel()
	if err != nil {
		logger.Fatal("relay:", err)
	}
	defer conn.Close()

	svc := restclient.NewClient(cfg.APIBaseURL, cfg.AuthToken, logger)

	tracker := presence.NewTracker(logger)
	defer tracker.Attach(conn)()

	typer := typing.NewCoordinator(conn, self.UserId, logger)
	defer typer.Attach()()

	conv := session.NewSynchronizer(conn, svc, statsUpdater, self.UserId, logger)
	defer conv.Attach()()

	calls := call.NewManager(conn, statsUpdater, self.UserId, self.Username, cfg.STUNServers, logger)
	defer calls.Attach()()
	defer calls.Close()
	calls.OnIncoming(func(inv call.Invite) {
		fmt.Printf("incoming %s call from %s, /accept or /reject\n", inv.Kind, inv.CallerName)
	})
	calls.OnRejected(func(roomKey string) {
		fmt.Printf("call %s rejected\n", roomKey)
	})
	calls.OnPhase(func(p call.Phase) {
		logger.Printf("call phase: %s", p)
	})

	conn.On(transport.EventMessageReceived, func(data json.RawMessage) {
		var msg types.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		fmt.Printf("[%s] %s: %s\n", msg.RoomKey(), msg.SenderId, msg.Content)
	})

	if err := conv.RefreshDirectory(context.Background()); err != nil {
		logger.Println("directory:", err)
	}

	room, ok := startupRoom(conv, channelName, directUser)
	if ok {
		if err := conv.EnterRoom(context.Background(), room); err != nil {
			logger.Println("join room:", err)
		} else {
			typer.SetActiveRoom(room.Key(self.UserId))
		}
	}

	go inputLoop(conv, typer, calls, logger)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case <-conn.Done():
		logger.Println("relay connection closed")
	}

	if debugSrv != nil {
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := debugSrv.Shutdown(shutDownCtx); err != nil {
			logger.Println("debug server shutdown:", err)
		}
	}

	logger.Println("shutdown complete")
}

// startupRoom resolves the -channel or -direct flag against the fetched
// directory.
func startupRoom(conv *session.Synchronizer, channelName, directUser string) (session.Room, bool) {
	if channelName != "" {
		for _, c := range conv.Channels() {
			if c.Name == channelName {
				return session.Room{Type: types.RoomChannel, ChannelId: c.Id}, true
			}
		}
	}
	if directUser != "" {
		for _, u := range conv.Users() {
			if u.Username == directUser {
				return session.Room{Type: types.RoomDirect, UserId: u.Id}, true
			}
		}
	}

	return session.Room{}, false
}

// inputLoop reads lines from stdin. Plain lines are sent as text
// messages; /-prefixed lines control calls.
func inputLoop(conv *session.Synchronizer, typer *typing.Coordinator, calls *call.Manager, logger *log.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/accept":
			if err := calls.Accept(); err != nil {
				logger.Println("accept:", err)
			}
		case line == "/reject":
			if err := calls.Reject(); err != nil {
				logger.Println("reject:", err)
			}
		case line == "/hangup":
			calls.Hangup()
		case strings.HasPrefix(line, "/call "):
			if err := calls.Call(strings.TrimPrefix(line, "/call "), types.CallVideo); err != nil {
				logger.Println("call:", err)
			}
		case strings.HasPrefix(line, "/audiocall "):
			if err := calls.Call(strings.TrimPrefix(line, "/audiocall "), types.CallAudio); err != nil {
				logger.Println("call:", err)
			}
		default:
			typer.InputChanged(line)
			if err := conv.SendMessage(line, types.MessageText, ""); err != nil {
				logger.Println("send:", err)
			}
			typer.InputChanged("")
		}
	}
}
