package main

import (
	"log"
	"net/http"

	"nexgig/db"
	"nexgig/db/migrations"
	"nexgig/internal/config"
	"nexgig/internal/handlers"
	authmw "nexgig/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	if err := migrations.Run(cfg.PostgresConn, cfg.MigrationsDir); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	store := db.NewStorage(dbConn)
	h := handlers.NewHandler(store, cfg.JWTSecret)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)

		// auth
		r.Post("/auth/register", h.RegisterHandler)
		r.Post("/auth/login", h.LoginHandler)
		r.Get("/auth/me", h.MeHandler)

		// public job feed
		r.Get("/jobs/public", h.GetPublicJobsHandler)
		r.Get("/jobs/{jobId}", h.GetJobHandler)

		// everything below requires a verified identity
		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth(cfg.JWTSecret))

			// jobs
			r.Post("/jobs", h.CreateJobHandler)
			r.Get("/jobs/mine/list", h.GetClientJobsHandler)
			r.Patch("/jobs/{jobId}", h.UpdateJobHandler)
			r.Delete("/jobs/{jobId}", h.DeleteJobHandler)

			// proposals
			r.Post("/jobs/{jobId}/proposals", h.SubmitProposalHandler)
			r.Get("/jobs/proposals/my", h.GetMyProposalsHandler)
			r.Get("/jobs/{jobId}/proposals", h.GetJobProposalsHandler)
			r.Patch("/jobs/proposals/{proposalId}/accept", h.AcceptProposalHandler)
			r.Patch("/jobs/proposals/{proposalId}/reject", h.RejectProposalHandler)

			// chats
			r.Get("/chats", h.GetChatsHandler)
			r.Post("/chats", h.CreateChatHandler)
			r.Get("/chats/{chatId}/messages", h.GetChatMessagesHandler)
			r.Post("/chats/{chatId}/messages", h.SendMessageHandler)

			// dashboard
			r.Get("/overview/me", h.GetOverviewHandler)
		})
	})

	log.Printf("Starting server on %s", cfg.ServerAddr)
	log.Fatal(http.ListenAndServe(cfg.ServerAddr, r))
}
