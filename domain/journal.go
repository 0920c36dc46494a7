package domain

import "time"

// JournalEntry is a bot message the backend refused, kept locally until replayed.
type JournalEntry struct {
	Key     string
	Message BotMessage
	At      time.Time
}
