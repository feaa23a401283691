package main

import (
	"log"

	"minddoc/internal/config"
	"minddoc/internal/dify"
	"minddoc/internal/jobstore"
	"minddoc/internal/pipeline"
	"minddoc/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration failed: %v", err)
	}

	var store jobstore.Store
	if cfg.Store.DBPath != "" {
		store, err = jobstore.OpenSQLite(cfg.Store.DBPath)
		if err != nil {
			log.Fatalf("open job database: %v", err)
		}
		log.Printf("job store: sqlite at %s", cfg.Store.DBPath)
	} else {
		store = jobstore.NewMemoryStore(cfg.Processing.Retention / 4)
		log.Printf("job store: in-memory, retention %s", cfg.Processing.Retention)
	}
	defer store.Close()

	suggester := dify.New(cfg.Dify.APIKey, cfg.Dify.APIURL)
	if !suggester.Enabled() {
		log.Printf("dify suggestions disabled: DIFY_API_KEY not set")
	}

	runner := pipeline.NewRunner(store, cfg.Processing, cfg.Server.MaxContentSize, suggester)
	defer runner.Close()

	srv := server.New(runner, cfg.Server.UploadDir, cfg.Server.MaxContentSize)
	router := server.NewRouter(srv)
	log.Printf("listening on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
