package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/wleydkb/TravelProjectBackEnd/internal/adapters/amadeus"
	server "github.com/wleydkb/TravelProjectBackEnd/internal/adapters/http_server"
	"github.com/wleydkb/TravelProjectBackEnd/internal/adapters/kafka"
	"github.com/wleydkb/TravelProjectBackEnd/internal/adapters/observability"
	redisad "github.com/wleydkb/TravelProjectBackEnd/internal/adapters/redis"
	"github.com/wleydkb/TravelProjectBackEnd/internal/app"
	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
	"github.com/wleydkb/TravelProjectBackEnd/internal/shared"
	mysqlrepo "github.com/wleydkb/TravelProjectBackEnd/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	tokens, err := amadeus.NewTokenSource(cfg.AmadeusBase, cfg.AmadeusID, cfg.AmadeusSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("token source init failed")
	}
	client, err := amadeus.NewClient(cfg.AmadeusBase, tokens, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("provider client init failed")
	}

	offerCache := mysqlrepo.NewOfferCache(db)
	bookingRepo := mysqlrepo.NewBookings(db)
	userRepo := mysqlrepo.NewUsers(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var events domain.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.BookingsTopic)
		defer producer.Close()
		events = producer
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.BookingsTopic).Msg("booking events enabled")
	}

	flights := app.NewFlightService(client, offerCache, cfg.CacheTTL, cfg.DefaultCurrency, cfg.MaxResults)
	pricing := app.NewPricingService(client, offerCache)
	bookings := app.NewBookingService(bookingRepo, offerCache, pricing, cache, events, cfg.CacheTTL)
	users := app.NewUserService(userRepo, []byte(cfg.JWTSecret), cfg.JWTTTL)

	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Flights:  flights,
		Pricing:  pricing,
		Bookings: bookings,
		Users:    users,
		JWTKey:   []byte(cfg.JWTSecret),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
