package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/pliu/termchat/internal/config"
	"github.com/pliu/termchat/internal/directory"
	"github.com/pliu/termchat/internal/groups"
	"github.com/pliu/termchat/internal/messaging"
	"github.com/pliu/termchat/internal/store"
	"github.com/pliu/termchat/internal/store/filestore"
	"github.com/pliu/termchat/internal/store/memstore"
	"github.com/pliu/termchat/internal/store/sqlstore"
	"github.com/pliu/termchat/internal/ui"
)

var (
	backend = flag.String("store", "", "store backend: file, sqlite3, postgres or mem (overrides TERMCHAT_STORE)")
	dataDir = flag.String("data", "", "data directory for the file backend (overrides TERMCHAT_DATA_DIR)")
	verbose = flag.Bool("verbose", false, "log to stderr instead of discarding")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *backend != "" {
		cfg.StoreBackend = *backend
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	// The console owns the terminal; keep zap quiet unless asked.
	logger := zap.NewNop()
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
	}
	defer logger.Sync()

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}

	users := directory.New(st, logger.Named("directory"))
	messages := messaging.NewLog(st, logger.Named("messaging"))
	registry := groups.New(st, users, logger.Named("groups"))
	unread := messaging.NewUnreadTracker(st, registry)

	console := ui.New(users, messages, registry, unread)
	console.Run()
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return sqlstore.New("sqlite3", cfg.SQLitePath)
	case config.BackendPostgres:
		return sqlstore.New("postgres", cfg.PostgresDSN)
	case config.BackendMemory:
		return memstore.New(), nil
	default:
		return filestore.New(cfg.DataDir)
	}
}
