// Package realtime subscribes to row changes over a Phoenix-channel
// websocket, the protocol spoken by Supabase Realtime.
//
// A Subscription owns one connection: it joins a single
// "postgres_changes" channel, sends a heartbeat every HeartbeatInterval,
// and calls the change callback from its read goroutine until closed.
package realtime
