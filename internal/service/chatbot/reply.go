package chatbot

import (
	"net/url"
	"strings"
)

// ReplyKind tells the client how to present a reply.
type ReplyKind string

const (
	ReplyText         ReplyKind = "text"
	ReplyLocation     ReplyKind = "location_redirect"
	ReplyGame         ReplyKind = "game_redirect"
	ReplyInsightsGame ReplyKind = "insights_game_redirect"
	ReplyModuleList   ReplyKind = "module_list"
	ReplyCanteenTable ReplyKind = "canteen_table"
)

// Reply is the engine's answer to one turn. Only ReplyText carries prose;
// every other kind is a structured instruction for the client.
type Reply struct {
	Kind   ReplyKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Target string    `json:"target,omitempty"`
	Items  []string  `json:"items,omitempty"`
	Offer  Offer     `json:"-"`
}

func textReply(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}

// Wire renders the reply in the string form clients and stored messages use.
func (r Reply) Wire() string {
	switch r.Kind {
	case ReplyLocation:
		return "LOCATION_REDIRECT:" + r.Target + ":" + url.PathEscape(r.Target)
	case ReplyGame:
		return "GAME_REDIRECT:game"
	case ReplyInsightsGame:
		return "INSIGHTS_GAME_REDIRECT:sentiment"
	case ReplyModuleList:
		return "MODULE_LIST:" + strings.Join(r.Items, "|")
	case ReplyCanteenTable:
		return "SHOW_CANTEEN_TABLE"
	default:
		return r.Text
	}
}
