package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafeteria-pos/internal/config"
	"github.com/iliyamo/cafeteria-pos/internal/database"
	"github.com/iliyamo/cafeteria-pos/internal/handler"
	"github.com/iliyamo/cafeteria-pos/internal/hub"
	"github.com/iliyamo/cafeteria-pos/internal/queue"
	"github.com/iliyamo/cafeteria-pos/internal/reader"
	"github.com/iliyamo/cafeteria-pos/internal/repository"
	"github.com/iliyamo/cafeteria-pos/internal/router"
	"github.com/iliyamo/cafeteria-pos/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}

	persons := repository.NewPersonRepo(db)
	foods := repository.NewFoodRepo(db)
	purchases := repository.NewPurchaseRepo(db)
	reservations := repository.NewReservationRepo(db)
	operators := repository.NewOperatorRepo(db)

	station := service.Station{Cafeteria: cfg.CafeteriaName, ID: cfg.StationID}

	var billing service.BillingPublisher
	if cfg.AMQPURL != "" {
		billing = queue.NewPublisher(cfg.AMQPURL)
	} else {
		log.Println("AMQP_URL not set, billing events disabled")
	}

	h := hub.New()
	history := service.NewScanHistory(service.DefaultHistorySize)
	directory := service.NewUserDirectory(persons)
	ledger := service.NewPurchaseLedger(persons, foods, purchases, billing, station)
	workflow := service.NewReservationWorkflow(reservations, persons, foods, ledger, station)
	pipeline := service.NewScanPipeline(directory, workflow, h, history, station)

	manager := reader.NewManager(reader.Config{
		Mock:            cfg.MockReader,
		Family:          cfg.ReaderFamily,
		AutoReconnect:   cfg.ReaderAutoReconn,
		ErrorRetryDelay: cfg.ReaderErrorRetry,
		ReconnectDelay:  cfg.ReaderReconnectGap,
		PollInterval:    cfg.ReaderPoll,
	}, h, history, func(uid string) {
		pipeline.Process(context.Background(), uid)
	})
	manager.Initialize(context.Background())
	defer manager.Disconnect()

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, operators),
		RFID:         handler.NewRFIDHandler(manager, pipeline),
		Users:        handler.NewUserHandler(directory),
		Purchases:    handler.NewPurchaseHandler(ledger, h),
		Reservations: handler.NewReservationHandler(workflow, h),
		WS:           handler.NewWSHandler(h, manager, pipeline, ledger, workflow, station),
	}, cfg, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s station=%s)", addr, cfg.Env, cfg.StationID)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
