// Command server runs the seat reservation HTTP API together with its
// hold-expiry reaper and optional booking-event consumer.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/showgrid/seat-reservation/internal/config"
	"github.com/showgrid/seat-reservation/internal/database"
	"github.com/showgrid/seat-reservation/internal/engine"
	"github.com/showgrid/seat-reservation/internal/handler"
	"github.com/showgrid/seat-reservation/internal/middleware"
	"github.com/showgrid/seat-reservation/internal/queue"
	"github.com/showgrid/seat-reservation/internal/repository"
	"github.com/showgrid/seat-reservation/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins

	cfg := config.Load()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	eng := engine.New(db)

	// The reaper gets its own pool so a saturated request pool can
	// never starve expiry sweeps.
	reaperDB, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database (reaper): %v", err)
	}
	defer reaperDB.Close()

	reaper := engine.NewReaper(engine.New(reaperDB), cfg.ReaperInterval)
	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		reaper.Run(ctx)
	}()

	var publisher handler.BookingPublisher
	if url := brokerURL(); url != "" {
		publisher = queue.NewPublisher(url)
		go func() {
			if err := queue.StartBookingConsumer(url); err != nil {
				log.Printf("booking consumer stopped: %v", err)
			}
		}()
	}

	if cfg.SeedDemoShow {
		seedDemoShow(ctx, eng)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), config.NewRedisClient()))

	shows := handler.NewShowHandler(eng)
	reservations := handler.NewReservationHandler(eng, publisher)
	admin := handler.NewAdminHandler(eng)
	health := handler.NewHealthHandler(db, repository.NewShowRepo(db))
	router.Register(e, shows, reservations, admin, health)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	<-reaperDone
}

// brokerURL returns the RabbitMQ URL from the environment, or empty
// when events are disabled.
func brokerURL() string {
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		return url
	}
	return os.Getenv("AMQP_URL")
}

// seedDemoShow creates a 50-seat demo show for local exploration.  An
// already-seeded database is left alone.
func seedDemoShow(ctx context.Context, eng *engine.Engine) {
	seats := make([]string, 0, 50)
	for _, row := range []string{"A", "B", "C", "D", "E"} {
		for n := 1; n <= 10; n++ {
			seats = append(seats, fmt.Sprintf("%s%d", row, n))
		}
	}
	summary, err := eng.InitializeShow(ctx, "avengers_2026_7pm", seats)
	switch {
	case errors.Is(err, engine.ErrShowAlreadyExists):
		log.Println("demo show already present, skipping seed")
	case err != nil:
		log.Printf("demo seed failed: %v", err)
	default:
		log.Printf("seeded demo show %s with %d seats", summary.ShowID, summary.SeatCount)
	}
}
