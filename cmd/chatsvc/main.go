package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/doojoo9999/liargame-services/configs"
	"github.com/doojoo9999/liargame-services/internal/chatsvc/broker"
	chatconfig "github.com/doojoo9999/liargame-services/internal/chatsvc/config"
	"github.com/doojoo9999/liargame-services/internal/chatsvc/db"
	handlers "github.com/doojoo9999/liargame-services/internal/chatsvc/handlers"
	"github.com/doojoo9999/liargame-services/internal/chatsvc/service"
	"github.com/doojoo9999/liargame-services/internal/chatsvc/store"
	"github.com/doojoo9999/liargame-services/internal/comm"
	nats "github.com/doojoo9999/liargame-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "chat"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	cfg := chatconfig.Load()

	gameStore := store.NewGameStore(dbpool)
	playerStore := store.NewPlayerStore(dbpool)
	messageStore := store.NewChatMessageStore(dbpool)
	profanityStore := store.NewProfanityStore(dbpool)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	sched := service.NewScheduler()
	defer sched.Stop()

	messenger := service.NewMessenger(n.Conn, messageStore)
	votingClient := service.NewVotingClient(n.Conn)

	hintCache := service.NewHintCache(cfg.HintCacheCapacity)
	policy := service.NewChatPolicy(messageStore, hintCache)

	turnService := service.NewTurnService(gameStore, playerStore, votingClient, messenger, sched, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	words, err := profanityStore.ListBannedWords(ctx)
	cancel()
	if err != nil {
		log.Errorf("unable to load banned words, filtering disabled: %v", err)
	}
	profanityFilter := service.NewWordListFilter(words)

	chatService := service.NewChatService(gameStore, playerStore, messageStore,
		policy, turnService, messenger, profanityFilter, sched, cfg)

	// init message broker, consume chat commands and game events
	b := broker.NewBroker(n.Conn, chatService, turnService, messenger)
	sub, err := b.SubscribeChatService(comm.SubjectChatService)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	handlers.SetRoutes(r, chatService)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
