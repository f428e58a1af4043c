// Package state stores per-user conversation sessions for Telegram bots.
//
// Sessions expire after a configurable idle TTL. The memory backend loses all
// sessions on restart; the Redis backend keeps them for the remaining TTL.
package state
