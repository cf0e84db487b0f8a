// Package server implements inkwell-server, the HTTP backend the editor
// talks to.
//
// # Endpoints
//
//	POST /api/upload-image        store a base64 image, returns {url, filename}
//	GET  /assets/{name}           serve a stored image
//	POST /api/agents/text-action  run a text transform
//	GET  /ws                      live preview socket
//	GET  /healthz                 liveness and version
//
// Errors are JSON bodies of the form {"error": "..."}. When a token is
// configured the two POST endpoints require "Authorization: Bearer <token>".
//
// # Preview
//
// The /ws socket relays documents published by an editor to every other
// connected viewer as rendered HTML. See package preview.
//
// # Usage Example
//
//	config := &server.Config{
//	    Port:    8080,
//	    DataDir: "./assets",
//	    Token:   os.Getenv("INKWELL_TOKEN"),
//	}
//	srv, err := server.New(config, &transform.MockService{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until SIGINT or SIGTERM
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the server withdraws its mDNS advertisement, closes
// preview sockets and waits up to ShutdownTimeout for in-flight requests.
package server
