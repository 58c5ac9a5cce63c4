package main

import (
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/benbeisheim/percaturan-backend/internal/config"
	"github.com/benbeisheim/percaturan-backend/internal/controller"
	"github.com/benbeisheim/percaturan-backend/internal/engine"
	"github.com/benbeisheim/percaturan-backend/internal/service"
	"github.com/benbeisheim/percaturan-backend/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	store, err := storage.Open(storage.Options{Dir: cfg.DataDir, InMemory: cfg.InMemory})
	if err != nil {
		log.Fatalf("open stats store: %v", err)
	}

	engineOpts := []engine.Option{engine.WithWorkers(cfg.EngineWorkers)}
	if cfg.PseudoLegalSearch {
		engineOpts = append(engineOpts, engine.WithPseudoLegalSearch())
	}

	// Initialize services
	gameManager := service.NewGameManager(service.ManagerOptions{
		Engine:        engine.New(engineOpts...),
		Store:         store,
		SearchTimeout: cfg.SearchTimeout,
		ThinkScale:    cfg.ThinkScale,
	})
	gameService := service.NewGameService(gameManager)

	app := fiber.New(fiber.Config{
		AppName:               "percaturan",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Origins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: !slices.Contains(cfg.Origins, "*"),
	}))

	controller.RegisterRoutes(app, gameService, cfg.Origins)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Infof("received %s, shutting down", sig)
		if err := app.Shutdown(); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("listening on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Errorf("listen: %v", err)
	}

	gameManager.Close()
	if err := store.Close(); err != nil {
		log.Errorf("close stats store: %v", err)
	}
	log.Info("stopped")
}
