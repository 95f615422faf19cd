package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/experica/orthocam/config"
)

func newMux(reg *Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /servers", ListServers(reg))
	mux.HandleFunc("GET /servers/{id}", GetServer(reg))
	mux.HandleFunc("POST /servers/register", RegisterServer(reg))
	mux.HandleFunc("POST /servers/heartbeat", Heartbeat(reg))
	mux.HandleFunc("GET /health", Health(reg))
	return mux
}

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	ttl := flag.Duration("ttl", 90*time.Second, "Host TTL before expiry")
	logLevel := flag.String("loglevel", "INFO", "Log level: DEBUG, INFO, WARN, ERROR")
	flag.Parse()

	config.SetupLogging(*logLevel)

	reg := NewRegistry(*ttl)
	defer reg.Stop()

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("[master] starting on %s (TTL=%s)", addr, *ttl)
	server := &http.Server{
		Addr:              addr,
		Handler:           newMux(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("[master] fatal: %v", err)
	}
}
