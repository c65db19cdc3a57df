// Package socketio serves the Socket.IO v4 protocol over the Engine.IO
// WebSocket transport in package engineio.
//
// Only the default namespace "/" is served. Clients that try to connect to
// another namespace get a CONNECT_ERROR packet. Acknowledgements and binary
// attachments are not supported; such packets are ignored.
//
// # Quick Start
//
//	server := socketio.NewServer(nil)
//
//	server.OnConnect(func(socket *socketio.Socket) {
//	    socket.On("chat", func(args []json.RawMessage) {
//	        server.To("lobby").Emit("chat", args[0])
//	    })
//	    socket.OnDisconnect(func(reason string) {
//	        log.Printf("client %s left: %s", socket.ID(), reason)
//	    })
//	})
//
//	http.Handle(socketio.Path, server)
//
// # Rooms
//
// Rooms route broadcasts. A socket is in no room until it joins one.
//
//	server.Join(socket.ID(), "room1")
//	server.Broadcast("room1", "news", payload)
//	server.Leave(socket.ID(), "room1")
//
// # Ordering
//
// Event handlers run on the connection's read goroutine, so one client's
// events are handled in the order they were sent. Disconnect handlers run on
// the same goroutine after the last event handler returned, and events that
// arrive after a disconnect are dropped. Outgoing packets are queued
// per connection without blocking the caller; a connection whose queue fills
// up is closed.
package socketio
