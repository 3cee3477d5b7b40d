package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authhandler "github.com/staffdesk/staffdesk-backend/internal/auth/handler"
	authmw "github.com/staffdesk/staffdesk-backend/internal/auth/middleware"
	authrepo "github.com/staffdesk/staffdesk-backend/internal/auth/repository"
	authservice "github.com/staffdesk/staffdesk-backend/internal/auth/service"
	employeehandler "github.com/staffdesk/staffdesk-backend/internal/employee/handler"
	employeerepo "github.com/staffdesk/staffdesk-backend/internal/employee/repository"
	employeeservice "github.com/staffdesk/staffdesk-backend/internal/employee/service"
	leavehandler "github.com/staffdesk/staffdesk-backend/internal/leave/handler"
	leaverepo "github.com/staffdesk/staffdesk-backend/internal/leave/repository"
	leaveservice "github.com/staffdesk/staffdesk-backend/internal/leave/service"

	"github.com/staffdesk/staffdesk-backend/internal/auth/jwt"
	"github.com/staffdesk/staffdesk-backend/internal/events"
	"github.com/staffdesk/staffdesk-backend/pkg/config"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/httputil"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.Load("api-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("api-server", cfg.Server.Environment)
	log.Info().Msg("starting API server")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	rawPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeOfficeEvents, "api-server", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}
	publisher := events.NewPublisher(rawPublisher, log)

	// Initialize repositories
	userRepo := authrepo.NewUserRepository(db)
	employeeRepo := employeerepo.NewEmployeeRepository(db)
	leaveRepo := leaverepo.NewLeaveRepository(db)

	// Initialize JWT manager
	tokens := jwt.NewManager(&cfg.JWT)

	// Initialize services
	authService := authservice.NewAuthService(userRepo, employeeRepo, tokens, publisher, log)
	employeeService := employeeservice.NewEmployeeService(employeeRepo, publisher, log)
	leaveService := leaveservice.NewLeaveService(leaveRepo, publisher, log)

	// Initialize handlers
	authHandler := authhandler.NewAuthHandler(authService)
	employeeHandler := employeehandler.NewEmployeeHandler(employeeService)
	leaveHandler := leavehandler.NewLeaveHandler(leaveService)

	authenticate := authmw.Authenticate(tokens, userRepo, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "api-server",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/profile", authHandler.Profile)
			})
		})

		r.Route("/employees", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/{id}", employeeHandler.Get)

			// Admin-only management endpoints. The services enforce the
			// same rule again so it holds regardless of routing.
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAdmin)
				r.Get("/", employeeHandler.List)
				r.Post("/", employeeHandler.Create)
				r.Put("/{id}", employeeHandler.Update)
				r.Delete("/{id}", employeeHandler.Delete)
			})
		})

		r.Route("/leave", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", leaveHandler.Create)
			r.Get("/employee/{employeeId}", leaveHandler.ListForEmployee)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAdmin)
				r.Get("/", leaveHandler.ListAll)
				r.Put("/{id}", leaveHandler.Review)
				r.Delete("/{id}", leaveHandler.Delete)
			})
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
