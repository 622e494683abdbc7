package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/aidos-dev/meetsync/internal/calendar"
	"github.com/aidos-dev/meetsync/internal/config"
	"github.com/aidos-dev/meetsync/internal/database"
	"github.com/aidos-dev/meetsync/internal/handlers"
	"github.com/aidos-dev/meetsync/internal/repository"
	"github.com/aidos-dev/meetsync/internal/services"
	"github.com/aidos-dev/meetsync/pkg/keylock"
	"github.com/aidos-dev/meetsync/pkg/logger"
	"github.com/aidos-dev/meetsync/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)

	// --- External calendar ---
	calendarProvider := calendar.NewICSProvider(userRepo, cfg.CalendarTimeout)

	// --- Services ---
	locks := keylock.New()
	userService := services.NewUserService(userRepo)
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo, locks, cfg.AllowReRequest)
	availabilityService := services.NewAvailabilityService(meetingRepo, calendarProvider, cfg.CalendarTimeout)
	meetingService := services.NewMeetingService(meetingRepo, friendshipRepo, availabilityService, locks)
	dashboardService := services.NewDashboardService(friendshipRepo, meetingRepo)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	friendshipHandler := handlers.NewFriendshipHandler(friendshipService)
	meetingHandler := handlers.NewMeetingHandler(meetingService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	router := mux.NewRouter()

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")

	// Protected user routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.HandleFunc("/me", userHandler.GetProfileHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/me/calendar", userHandler.SetCalendarFeedHandler).Methods("PUT")

	// Friend routes
	protectedFriendRoutes := router.PathPrefix("/friends").Subrouter()
	protectedFriendRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedFriendRoutes.HandleFunc("", friendshipHandler.GetFriendsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/request", friendshipHandler.SendFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/requests", friendshipHandler.GetPendingRequestsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/{id}/accept", friendshipHandler.AcceptFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/{id}/reject", friendshipHandler.RejectFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/{id}/close", friendshipHandler.ToggleCloseFriendHandler).Methods("POST")

	// Meeting routes
	protectedMeetingRoutes := router.PathPrefix("/meetings").Subrouter()
	protectedMeetingRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedMeetingRoutes.HandleFunc("", meetingHandler.CreateMeetingHandler).Methods("POST")
	protectedMeetingRoutes.HandleFunc("/upcoming", meetingHandler.GetUpcomingMeetingsHandler).Methods("GET")
	protectedMeetingRoutes.HandleFunc("/range", meetingHandler.GetMeetingsByRangeHandler).Methods("GET")
	protectedMeetingRoutes.HandleFunc("/{id}/status", meetingHandler.UpdateMeetingStatusHandler).Methods("PATCH")
	protectedMeetingRoutes.HandleFunc("/{id}", meetingHandler.CancelMeetingHandler).Methods("DELETE")

	// Availability routes
	protectedAvailabilityRoutes := router.PathPrefix("/availability").Subrouter()
	protectedAvailabilityRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedAvailabilityRoutes.HandleFunc("/busy", availabilityHandler.GetBusyIntervalsHandler).Methods("GET")
	protectedAvailabilityRoutes.HandleFunc("/slots", availabilityHandler.SuggestSlotsHandler).Methods("GET")

	// External calendar view
	protectedCalendarRoutes := router.PathPrefix("/calendar").Subrouter()
	protectedCalendarRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedCalendarRoutes.HandleFunc("/events", availabilityHandler.GetCalendarEventsHandler).Methods("GET")

	// Dashboard routes
	protectedDashboardRoutes := router.PathPrefix("/dashboard").Subrouter()
	protectedDashboardRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedDashboardRoutes.HandleFunc("/stats", dashboardHandler.GetStatsHandler).Methods("GET")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
