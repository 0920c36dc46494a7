package domain

import (
	"strings"
	"time"
)

// CommandMarker prefixes every chat command.
const CommandMarker = "/"

type Verb string

const (
	VerbStart    Verb = "start"
	VerbStatus   Verb = "status"
	VerbHelp     Verb = "help"
	VerbReport   Verb = "report"
	VerbProducts Verb = "products"
	VerbProduct  Verb = "product"
)

// VerbAliases keeps the Turkish commands of the first bot version working.
var VerbAliases = map[Verb]Verb{
	"durum":   VerbStatus,
	"yardim":  VerbHelp,
	"rapor":   VerbReport,
	"urunler": VerbProducts,
	"urun":    VerbProduct,
}

// InboundMessage is a text message received from the chat platform.
type InboundMessage struct {
	ChatID     int64
	Sender     string
	Text       string
	ReceivedAt time.Time
}

func (m InboundMessage) IsCommand() bool {
	return strings.HasPrefix(m.Text, CommandMarker)
}

// CommandInvocation is a parsed command whose verb is known to the dispatcher.
type CommandInvocation struct {
	Verb   Verb
	Args   []string
	ChatID int64
	Sender string
}

// Arg returns the i-th argument or an empty string.
func (c CommandInvocation) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// ParseCommand splits a command text into a lower-cased verb and its arguments.
// "/Start@relay_bot foo" gives verb "start" and args ["foo"].
// ok is false when the text carries no command marker or no verb.
func ParseCommand(text string) (verb Verb, args []string, ok bool) {
	if !strings.HasPrefix(text, CommandMarker) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, CommandMarker))
	if len(fields) == 0 {
		return "", nil, false
	}
	head := fields[0]
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	if head == "" {
		return "", nil, false
	}
	return Verb(strings.ToLower(head)), fields[1:], true
}
