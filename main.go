package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordrelay/go-server/internal/httpserver"
	"github.com/wordrelay/go-server/internal/session"
	"github.com/wordrelay/go-server/internal/store"
	"github.com/wordrelay/go-server/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("SQLITE_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}

	// Prefer the seeded words table when present, otherwise the file/embedded
	// list loaded above.
	var checker session.WordChecker = words.ListChecker{}
	if n, err := words.TableCount(context.Background(), db); err == nil && n > 0 {
		log.Info().Int("words", n).Msg("using words table as dictionary")
		checker = words.TableChecker{DB: db}
	} else {
		log.Info().Int("words", words.Count()).Msg("using word list as dictionary")
	}

	var st store.Store
	switch getEnv("STORE", "sqlite") {
	case "memory":
		st = store.NewMemoryStore()
	default:
		st = store.NewSQLiteStore(db)
	}

	reg := httpserver.NewRegistry()
	coord := session.New(st, reg, checker)
	srv := httpserver.New(db, st, coord, reg)

	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting wordrelay server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
