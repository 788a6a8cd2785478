package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/seiflotfy/huffman"
	"github.com/seiflotfy/huffman/internal/config"
	"github.com/seiflotfy/huffman/internal/handler"
	"github.com/seiflotfy/huffman/internal/logger"
	"github.com/seiflotfy/huffman/internal/repo"
	"github.com/seiflotfy/huffman/internal/router"
	"github.com/seiflotfy/huffman/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logg := logger.New()

	archiveRepo, err := openRepo(context.Background(), cfg, logg)
	if err != nil {
		log.Fatal(err)
	}
	enc := huffman.NewEncoder(
		huffman.WithWorkers(cfg.Workers),
		huffman.WithTreeCache(cfg.CacheSize),
	)
	dec := huffman.NewDecoder(huffman.WithTreeCache(cfg.CacheSize))
	archiveSvc := service.NewArchiveService(archiveRepo, enc, dec, logg)
	archiveH := handler.NewArchiveHandler(archiveSvc)

	r := gin.Default()
	router.Register(r, router.Dependencies{
		ArchiveHandler: archiveH,
	})

	addr := ":" + cfg.Port
	log.Printf("starting server at %s\n", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}

func openRepo(ctx context.Context, cfg config.Config, logg logger.Logger) (repo.ArchiveRepo, error) {
	if cfg.DatabaseURL == "" {
		logg.Infof("HUFFD_DATABASE_URL not set, keeping archives in memory")
		return repo.NewArchiveRepoInMemory(), nil
	}
	pool, err := repo.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return repo.NewArchiveRepoPostgres(pool), nil
}
