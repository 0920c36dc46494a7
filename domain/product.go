package domain

import "time"

// LowStockThreshold is the stock count below which a product is reported as low stock.
const LowStockThreshold = 5

// PlatformTelegram tags records coming from the Telegram bot.
const PlatformTelegram = "telegram"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

type DailyReport struct {
	Messages int
	Comments int
	LowStock int
}

// BotMessage is the record of a chat command kept in the backend messages table.
type BotMessage struct {
	Name     string
	Message  string
	Platform string
}

// Email is the pseudo address the storefront admin panel groups bot messages by.
func (m BotMessage) Email() string {
	return m.Platform + "@bot.messages"
}

// StartOfDay returns local midnight of t.
func StartOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
