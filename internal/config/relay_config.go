package config

import "time"

const (
	// Rooms
	JoinLinkPrefix = "BOT-"
	JoinLinkLength = 8

	// Random chat
	DefaultSessionTTL = 5 * time.Minute

	// Websocket pumps
	WriteWait  = 10 * time.Second
	PongWait   = 60 * time.Second
	PingPeriod = (PongWait * 9) / 10

	// Event loop
	IncomingBuffer = 1024
	ExpiryBuffer   = 64

	// Service banner
	ServiceName    = "BoTing relay"
	ServiceVersion = "1.0.0"
	TokenIssuer    = "boting-relay"
)
