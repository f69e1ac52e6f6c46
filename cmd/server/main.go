package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/carlog/internal/auth"
	"github.com/ukydev/carlog/internal/cache"
	"github.com/ukydev/carlog/internal/garage"
	"github.com/ukydev/carlog/internal/handlers"
	"github.com/ukydev/carlog/internal/lookup"
	"github.com/ukydev/carlog/internal/middleware"
	"github.com/ukydev/carlog/internal/models"
	"github.com/ukydev/carlog/internal/simulation"
	"github.com/ukydev/carlog/internal/store"
	"github.com/ukydev/carlog/internal/telemetry"
)

func main() {
	// Optional .env file for local development.
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded configuration from .env")
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx := context.Background()

	vehicleStore, userCollection := buildStores(ctx)

	g := garage.New(vehicleStore)
	if err := g.Load(ctx); err != nil {
		log.WithError(err).Fatal("Failed to load garage")
	}

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	simService := buildSimulation(ctx)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	mux := http.NewServeMux()

	garageHandler := handlers.NewGarageHandler(g, simService, nil)
	garageHandler.Routes(mux)
	garageHandler.WorkshopRoutes(mux, authMiddleware.RequireRole(models.RoleMechanic))

	authHandler := handlers.NewAuthHandler(authService, userCollection)
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("/api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("/api/v1/auth/profile", profileRouter(authHandler))
	mux.HandleFunc("/api/v1/auth/change-password", authHandler.ChangePassword)

	if baseURL := os.Getenv("LOOKUP_BASE_URL"); baseURL != "" {
		client := lookup.NewClient(baseURL, nil, cache.New(cache.NewMemoryBackend(), nil))
		handlers.NewLookupHandler(client).Routes(mux)
	} else {
		log.Info("LOOKUP_BASE_URL not set, catalogue lookup disabled")
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		feed, err := telemetry.NewFeed(broker, g)
		if err != nil {
			log.WithError(err).Fatal("Failed to start telemetry feed")
		}
		defer feed.Close()
	} else {
		log.Info("MQTT_BROKER not set, telemetry feed disabled")
	}

	rateLimiter := middleware.NewRateLimitMiddleware()
	handler := rateLimiter.RateLimit(120, 60)(authMiddleware.Authenticate(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.WithField("port", port).Info("Server listening")
	if err := server.ListenAndServe(); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

// buildStores connects the persistence backends. Users always live in Mongo.
// Vehicles live there too unless STORE_PATH points at a JSON snapshot file,
// the single-machine deployment mode.
func buildStores(ctx context.Context) (store.VehicleStore, store.UserCollection) {
	client, err := store.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "carlog"
	}
	db := client.Database(dbName)
	users := &store.MongoUserCollection{Collection: db.Collection("users")}

	if path := os.Getenv("STORE_PATH"); path != "" {
		log.WithField("path", path).Info("Using snapshot storage for vehicles")
		return &store.SnapshotStore{Path: path}, users
	}

	log.WithField("database", dbName).Info("Using MongoDB storage for vehicles")
	return &store.MongoVehicleStore{Client: client, Collection: db.Collection("vehicles")}, users
}

// buildSimulation wires the AI generator when a key is configured. A missing
// key is a normal deployment, not an error; the offline fallback covers it.
func buildSimulation(ctx context.Context) *simulation.Service {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Info("GEMINI_API_KEY not set, simulations use the offline table")
		return simulation.NewService(nil)
	}

	gemini, err := simulation.NewGeminiGenerator(ctx, apiKey, os.Getenv("GEMINI_MODEL"))
	if err != nil {
		log.WithError(err).Warn("Failed to create Gemini generator, simulations use the offline table")
		return simulation.NewService(nil)
	}
	return simulation.NewService(gemini)
}

// profileRouter dispatches the profile endpoint by method.
func profileRouter(h *handlers.AuthHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetProfile(w, r)
		case http.MethodPut:
			h.UpdateProfile(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
