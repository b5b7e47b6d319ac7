package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cardsmith/blackjack-be/internal/api"
	"github.com/cardsmith/blackjack-be/internal/config"
	"github.com/cardsmith/blackjack-be/internal/db"
	"github.com/cardsmith/blackjack-be/internal/deck"
	"github.com/cardsmith/blackjack-be/internal/game"
	"github.com/cardsmith/blackjack-be/internal/store"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DatabasePath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize the store
	roundStore := store.NewMemoryStore()
	log.Println("In-memory round store initialized")

	// Initialize the database
	database, err := db.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Printf("Warning: Failed to initialize database: %v", err)
		log.Println("Continuing without database persistence")
		database = nil
	} else {
		log.Println("Database initialized successfully")
		defer database.Close()
	}

	// Sweep settled rounds that haven't been touched in a while; their
	// snapshots live on in the database.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rounds, err := roundStore.GetAllRounds()
			if err != nil {
				continue
			}
			for _, round := range rounds {
				st := round.State()
				if st.Status == game.StatusComplete && time.Since(st.UpdatedAt) > 30*time.Minute {
					if err := roundStore.DeleteRound(st.ID); err == nil {
						log.Printf("Swept settled round %s", st.ID)
					}
				}
			}
		}
	}()

	// Initialize WebSocket hub
	hub := api.NewHub()
	go hub.Run()
	log.Println("WebSocket hub started")

	// Card sourcing: a remote shuffled-deck service when configured,
	// locally shuffled decks otherwise.
	newSource := func() (game.CardSource, error) {
		if cfg.DeckServiceURL != "" {
			client := deck.NewClient(cfg.DeckServiceURL, nil)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Shuffle(ctx, 1); err != nil {
				return nil, err
			}
			return client, nil
		}
		d := deck.New()
		d.Shuffle()
		return d, nil
	}
	if cfg.DeckServiceURL != "" {
		log.Printf("Using deck service at %s", cfg.DeckServiceURL)
	} else {
		log.Println("Using locally shuffled decks")
	}

	// Initialize API handlers
	handlers := api.NewHandlers(roundStore, database, hub, api.Options{
		Rules: game.Rules{
			HitOnSoft17:  cfg.HitOnSoft17,
			DoubleAnyTwo: cfg.DoubleAnyTwo,
		},
		StartBalance: cfg.StartBalance,
		MinBet:       cfg.MinBet,
		MaxBet:       cfg.MaxBet,
		NewSource:    newSource,
	})

	// Set up router
	r := mux.NewRouter()
	handlers.RegisterRoutes(r)

	// Add middleware for logging
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
		})
	})

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Set up graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a termination signal
	<-stop

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
