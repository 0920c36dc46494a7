package e2e

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type testCommandsSuite struct {
	BaseRelaySuite
}

func TestCommandsSuite(t *testing.T) {
	suite.Run(t, &testCommandsSuite{BaseRelaySuite{Products: []map[string]any{
		{"id": "p1", "name": "Elbise", "price": 149.9, "stock": 3, "category": "elbise", "created_at": "2026-10-18T10:00:00Z"},
		{"id": "p2", "name": "Tulum", "price": 249.5, "stock": 8, "category": "tulum", "created_at": "2026-10-17T10:00:00Z"},
	}}})
}

func (s *testCommandsSuite) TestCustomerConversation() {
	viewer := s.Viewer("Dashboard viewer connects")

	// --- STEP 1: WELCOME ---
	s.Run("Step 1: The first frame is the welcome", func() {
		env := s.Envelope(viewer)
		s.Equal("message", env["type"])
		data := env["data"].(map[string]any)
		s.Equal("System", data["from"])
		s.Equal("WebSocket connection established", data["text"])
	})

	// --- STEP 2: PLAIN TEXT ---
	s.Run("Step 2: A plain message is only relayed", func() {
		s.Telegram.Say("ayse", "merhaba")
		env := s.Envelope(viewer)
		s.Equal("message", env["type"])
		data := env["data"].(map[string]any)
		s.Equal("ayse", data["from"])
		s.Equal("merhaba", data["text"])
		_, err := time.Parse(time.RFC3339, data["timestamp"].(string))
		s.NoError(err)
	})

	// --- STEP 3: REPORT ---
	s.Run("Step 3: /rapor is relayed, answered and recorded", func() {
		s.Telegram.Say("mehmet", "/rapor")
		env := s.Envelope(viewer)
		s.Equal("/rapor", env["data"].(map[string]any)["text"])

		reply := s.ReplyContaining("Daily report")
		s.Contains(reply, "• New messages: 2")
		s.Contains(reply, "• Low stock: 2 products")

		s.Require().Eventually(func() bool { return len(s.Supabase.Inserted()) == 1 }, 3*time.Second, 10*time.Millisecond)
		row := s.Supabase.Inserted()[0]
		s.Equal("mehmet", row["name"])
		s.Equal("telegram@bot.messages", row["email"])
		s.Equal("/rapor", row["message"])
		s.Equal(false, row["read"])
	})

	// --- STEP 4: PRODUCTS ---
	s.Run("Step 4: /products lists the catalogue", func() {
		s.Telegram.Say("ayse", "/products")
		s.Envelope(viewer)
		reply := s.ReplyContaining("Product list")
		s.Equal(2, strings.Count(reply, "• "))
		s.Contains(reply, "Price: 149.9TL")
	})

	// --- STEP 5: HELP ---
	s.Run("Step 5: /help lists every command", func() {
		s.Telegram.Say("ayse", "/help@relay_bot")
		s.Envelope(viewer)
		reply := s.ReplyContaining("Available commands")
		for _, verb := range []string{"/start", "/status", "/help", "/report", "/products", "/product "} {
			s.Contains(reply, verb)
		}
	})
}
