package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"noteboard/db"
	"noteboard/handlers"
	appmw "noteboard/middleware"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file, relying on process environment")
	}

	db.ConnectDB()
	db.BootstrapAdmin()

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/", handlers.Index)
	r.Get(appmw.LoginPath, handlers.LoginPage)
	r.Post("/register", handlers.Register)
	r.Post("/login", handlers.Login)
	r.Post("/logout", handlers.Logout)
	r.Get("/api/weather", handlers.GetWeather)

	r.Group(func(r chi.Router) {
		r.Use(appmw.RequireAuth)
		r.Get("/notes", handlers.GetNotes)
		r.Post("/notes", handlers.CreateNote)
		r.Get("/notes/{id}", handlers.GetNote)
		r.Post("/notes/{id}", handlers.UpdateNote)
		r.Post("/notes/{id}/delete", handlers.DeleteNote)
		r.Post("/notes/{id}/pin", handlers.TogglePin)
		r.Post("/notes/{id}/archive", handlers.ToggleArchive)
		r.Get("/export/json", handlers.ExportJSON)
		r.Post("/import/json", handlers.ImportJSON)
	})

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":3002"
	}
	log.Info().Str("addr", addr).Msg("server listening")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
