// Command desktopd runs the desktop lifecycle engine.
//
// Configuration comes from the environment (see internal/infrastructure/config)
// and can be overridden with flags:
//
//	desktopd -port 8000 -manifest configs/apps.yaml -storage sqlite -storage-path /var/lib/desktop/layout.db
//
// SIGINT or SIGTERM triggers a graceful shutdown that flushes the layout.
package main
