// warmer pre-populates the offer cache for configured routes so the first
// user search of the day is a cache hit. Routes come from WARM_ROUTES
// ("CAI-DXB,LHR-JFK"), horizon from WARM_DAYS.
package main

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/wleydkb/TravelProjectBackEnd/internal/adapters/amadeus"
	"github.com/wleydkb/TravelProjectBackEnd/internal/adapters/observability"
	"github.com/wleydkb/TravelProjectBackEnd/internal/app"
	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
	"github.com/wleydkb/TravelProjectBackEnd/internal/shared"
	mysqlrepo "github.com/wleydkb/TravelProjectBackEnd/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if len(cfg.WarmRoutes) == 0 {
		log.Warn().Msg("WARM_ROUTES is empty; nothing to do")
		return
	}
	log.Info().
		Strs("routes", cfg.WarmRoutes).
		Int("days", cfg.WarmDays).
		Int("workers", cfg.WarmWorkers).
		Msg("warmer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	tokens, err := amadeus.NewTokenSource(cfg.AmadeusBase, cfg.AmadeusID, cfg.AmadeusSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("token source init failed")
	}
	client, err := amadeus.NewClient(cfg.AmadeusBase, tokens, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("provider client init failed")
	}
	flights := app.NewFlightService(client, mysqlrepo.NewOfferCache(db), cfg.CacheTTL, cfg.DefaultCurrency, cfg.MaxResults)

	sem := semaphore.NewWeighted(int64(cfg.WarmWorkers))
	var wg sync.WaitGroup

	today := time.Now().UTC()
	for _, route := range cfg.WarmRoutes {
		parts := strings.SplitN(route, "-", 2)
		if len(parts) != 2 || len(parts[0]) != 3 || len(parts[1]) != 3 {
			log.Warn().Str("route", route).Msg("skipping malformed route")
			continue
		}
		origin, destination := strings.ToUpper(parts[0]), strings.ToUpper(parts[1])

		for day := 0; day < cfg.WarmDays; day++ {
			date := today.AddDate(0, 0, day)

			if err := sem.Acquire(ctx, 1); err != nil {
				log.Fatal().Err(err).Msg("semaphore acquire failed")
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)

				offers, err := flights.Search(ctx, domain.SearchQuery{
					Origin:        origin,
					Destination:   destination,
					DepartureDate: date,
				})
				if err != nil {
					log.Warn().
						Str("origin", origin).
						Str("destination", destination).
						Str("date", date.Format("2006-01-02")).
						Err(err).
						Msg("warm failed")
					return
				}
				log.Info().
					Str("origin", origin).
					Str("destination", destination).
					Str("date", date.Format("2006-01-02")).
					Int("offers", len(offers)).
					Msg("warm ok")
			}()
		}
	}

	wg.Wait()
	log.Info().Msg("warming completed")
}
