package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand_VerbIsLowerCasedAndArgsKept(t *testing.T) {
	req := require.New(t)

	verb, args, ok := ParseCommand("/URUNLER Elbise  Body")

	req.True(ok)
	req.Equal(Verb("urunler"), verb)
	req.Equal([]string{"Elbise", "Body"}, args)
}

func TestParseCommand_StripsBotMention(t *testing.T) {
	req := require.New(t)

	verb, args, ok := ParseCommand("/help@relay_bot")

	req.True(ok)
	req.Equal(VerbHelp, verb)
	req.Empty(args)
}

func TestParseCommand_RejectsNonCommands(t *testing.T) {
	req := require.New(t)

	for _, text := range []string{"hello", "", "/", "/   ", "/@relay_bot", " /start"} {
		_, _, ok := ParseCommand(text)
		req.False(ok, text)
	}
}

func TestInboundMessage_IsCommand(t *testing.T) {
	req := require.New(t)
	req.True(InboundMessage{Text: "/start"}.IsCommand())
	req.False(InboundMessage{Text: "start"}.IsCommand())
}

func TestCommandInvocation_Arg(t *testing.T) {
	req := require.New(t)
	inv := CommandInvocation{Args: []string{"42"}}

	req.Equal("42", inv.Arg(0))
	req.Equal("", inv.Arg(1))
	req.Equal("", inv.Arg(-1))
}
