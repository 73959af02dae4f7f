// Command main is the entry point for the netsocial backend server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netsocial/internal/config"
	"netsocial/internal/middleware"
	"netsocial/internal/observability"
	"netsocial/internal/server"

	"github.com/gofiber/fiber/v2"
)

// @title netsocial API
// @version 1.0
// @description Social network API with posts, comments, replies, hearts and profiles

// @contact.name API Support
// @contact.email support@netsocial.app

// @host localhost:5000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Configure(cfg.Env)

	shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName:    "netsocial-api",
		ServiceVersion: serviceVersion,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "netsocial API",
		BodyLimit:    10 * 1024 * 1024, // 10MB limit
		ErrorHandler: server.ErrorHandler,
	})

	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	if err := srv.StartRealtime(); err != nil {
		log.Printf("Realtime fan-out unavailable, feed events stay local: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("Server starting on port %s...", cfg.Port)
	if err := serve(app, ":"+cfg.Port, sigChan, srv.Shutdown, shutdownTracing); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

// serve runs app until stop fires, then shuts the listener down and runs
// each cleanup in order under one 10s deadline. It returns only after every
// cleanup has finished.
func serve(app *fiber.App, addr string, stop <-chan os.Signal, cleanups ...func(context.Context) error) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-stop

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		for _, cleanup := range cleanups {
			if err := cleanup(ctx); err != nil {
				log.Printf("Resource shutdown error: %v", err)
			}
		}
	}()

	if err := app.Listen(addr); err != nil {
		return err
	}
	<-done
	return nil
}
