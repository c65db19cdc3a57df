// Package relay holds the session and room membership state of the chat
// relay and the logic that turns inbound events into outbound ones.
//
// A single Manager owns the connection registry and the room index. Every
// state change goes through it, under one lock, and produces a list of
// Notices that are delivered through a Transport before the lock is
// released. The Dispatcher decodes inbound login/chat/move events and routes
// slash-commands to the command handlers in command.go.
//
// The package knows nothing about sockets; package app binds it to the
// socketio server.
package relay
