package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mtaylor91/relay-server/pkg"
	log "github.com/sirupsen/logrus"
)

func main() {
	config, err := pkg.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	level, _ := log.ParseLevel(config.LogLevel)
	log.SetLevel(level)

	store := pkg.LoadCredentialStore(config.CredentialsPath, pkg.DefaultHasher())
	server := pkg.NewServer(config, store)

	listener, err := net.Listen("tcp", config.ListenAddr)
	if err != nil {
		log.Fatal("Failed to listen on ", config.ListenAddr, ": ", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Starting relay server on ", config.ListenAddr, "...")
	go func() {
		if err := server.Serve(ctx, listener); err != nil {
			log.Fatal("Relay server failed: ", err)
		}
	}()

	var httpServer *http.Server
	if config.HTTPAddr != "" && config.HTTPAddr != "off" {
		httpServer = &http.Server{
			Addr:    config.HTTPAddr,
			Handler: server.Router(),
		}

		log.Info("Starting HTTP server on ", config.HTTPAddr, "...")
		go func() {
			err := httpServer.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				log.Fatal("HTTP server failed: ", err)
			}
		}()
	}

	<-done

	log.Info("Shutting down...")
	cancel()

	if httpServer != nil {
		// Sessions are not drained.
		shutdownCtx, shutdownCancel := context.WithTimeout(
			context.Background(), time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed: ", err)
		}
	}
}
