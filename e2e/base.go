package e2e

import (
	"chat-relay/internal"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

// BaseRelaySuite runs a whole relay in-process against fake Telegram and
// Supabase servers, and lets scenarios connect dashboard viewers to it.
type BaseRelaySuite struct {
	suite.Suite
	Config   Config
	Telegram *fakeTelegram
	Supabase *fakeSupabase
	Products []map[string]any

	app    *internal.App
	cancel context.CancelFunc
	done   chan error
}

// SetupSuite loads the environment configuration and starts the relay
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	s.Telegram = newFakeTelegram()
	s.Supabase = newFakeSupabase(s.Products)

	config := internal.Config{
		TelegramBotToken:     "123:e2e",
		TelegramAPIEndpoint:  s.Telegram.URL + "/bot%s/%s",
		TelegramPollTimeout:  0,
		SupabaseURL:          s.Supabase.URL,
		SupabaseAnonKey:      "anon",
		Host:                 "127.0.0.1",
		Port:                 0,
		PingInterval:         time.Minute,
		ConnectionBufferSize: 16,
		BufferSize:           16,
		NumberOfWorkers:      2,
		GatewayTimeout:       2 * time.Second,
		ReplayInterval:       time.Minute,
		MetricInterval:       time.Minute,
		LogLevel:             s.Config.LogLevel,
	}
	s.Require().NoError(config.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.app, err = internal.NewApp(ctx, logs.GetLoggerFromString(config.LogLevel), config)
	s.Require().NoError(err)

	s.done = make(chan error, 1)
	go func() { s.done <- s.app.Run(ctx) }()
}

func (s *BaseRelaySuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
		s.NoError(<-s.done)
		s.app.Close()
	}
	s.Telegram.Close()
	s.Supabase.Close()
}

// Viewer connects a dashboard viewer, logging a colorized step header
func (s *BaseRelaySuite) Viewer(name string) *websocket.Conn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.app.Addr()+"/", nil)
	s.Require().NoError(err, "Failed to connect viewer to "+s.app.Addr())
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// Envelope reads the next frame of a viewer and decodes it
func (s *BaseRelaySuite) Envelope(conn *websocket.Conn) map[string]any {
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, frame, err := conn.ReadMessage()
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Log("FRAME:", string(frame))
	}
	var env map[string]any
	s.Require().NoError(json.Unmarshal(frame, &env))
	return env
}

// ReplyContaining waits until the bot has sent a reply with the given fragment
func (s *BaseRelaySuite) ReplyContaining(fragment string) string {
	var reply string
	s.Require().Eventually(func() bool {
		for _, sent := range s.Telegram.Sent() {
			if strings.Contains(sent, fragment) {
				reply = sent
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond, "no reply containing %q", fragment)
	return reply
}
