package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"piqle_tournament/config"
	"piqle_tournament/db"
	"piqle_tournament/engine"
	"piqle_tournament/handlers"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(cfg.App.LogLevel)

	if err := db.InitDB(cfg, log); err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := handlers.New(db.DB, engine.New(db.DB, log), log)
	h.Routes(r)

	addr := ":" + cfg.App.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.App.Env, "db": cfg.DB.Driver}).Info("division service started")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}
