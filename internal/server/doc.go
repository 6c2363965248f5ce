// Package server wires the desktop engine together.
//
// New builds every component in dependency order: storage backend,
// hydrated store, manifest injection, event loop, bus, resource registry,
// headless presenter, lifecycle controller, the built-in task manager and
// the HTTP/WebSocket surface. Engine initialization happens before the
// loop starts, on the caller's goroutine.
//
// Serve runs the loop and the HTTP server until the context is cancelled,
// then flushes the layout and releases storage.
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = srv.Run(ctx)
package server
