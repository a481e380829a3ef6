// Package handler provides Telegram bot command handlers.
package handler

import (
	"strconv"
	"strings"
)

// Directives are inline overrides embedded in command text. A command like
// "/score player=123 channel=-100456" acts on the named player and channel
// instead of the sender and current chat.
type Directives struct {
	ChannelID  int64
	PlayerID   int64
	HasChannel bool
	HasPlayer  bool
}

// ParseDirectives extracts channel= and player= tokens from command text and
// returns the remaining text with the directives stripped. Only the first
// occurrence of each directive is honored; repeats are dropped from the text
// but ignored. Malformed values leave the token in place.
func ParseDirectives(text string) (Directives, string) {
	var d Directives
	var remaining []string

	for _, token := range strings.Fields(text) {
		switch {
		case strings.HasPrefix(token, "channel="):
			id, err := strconv.ParseInt(strings.TrimPrefix(token, "channel="), 10, 64)
			if err != nil {
				remaining = append(remaining, token)
				continue
			}
			if !d.HasChannel {
				d.ChannelID = id
				d.HasChannel = true
			}
		case strings.HasPrefix(token, "player="):
			id, err := strconv.ParseInt(strings.TrimPrefix(token, "player="), 10, 64)
			if err != nil {
				remaining = append(remaining, token)
				continue
			}
			if !d.HasPlayer {
				d.PlayerID = id
				d.HasPlayer = true
			}
		default:
			remaining = append(remaining, token)
		}
	}

	return d, strings.Join(remaining, " ")
}

// RequiresAdmin reports whether the directives redirect the command away
// from its default target. Redirection is restricted to admins of the
// target channel.
func (d Directives) RequiresAdmin() bool {
	return d.HasChannel || d.HasPlayer
}

// Channel resolves the target channel: the directive if present, otherwise
// the chat the command was sent in.
func (d Directives) Channel(current int64) int64 {
	if d.HasChannel {
		return d.ChannelID
	}
	return current
}

// Player resolves the target player: the directive if present, otherwise
// the sender.
func (d Directives) Player(sender int64) int64 {
	if d.HasPlayer {
		return d.PlayerID
	}
	return sender
}
