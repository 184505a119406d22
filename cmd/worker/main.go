package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jasonlvhit/gocron"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_booking/internal/adapters/imaging"
	"hotel_booking/internal/adapters/jobs"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "worker")

	log.Info().
		Str("broker", cfg.JobsBroker).
		Int("workers", cfg.Workers).
		Dur("checkin_sweep", cfg.CheckInSweep).
		Msg("worker starting")

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	defer db.Close()
	log.Info().Msg("db ping ok")

	jcfg := jobs.Config{
		Broker:   cfg.JobsBroker,
		AMQPURL:  cfg.AMQPURL,
		NATSURL:  cfg.NATSURL,
		Queue:    cfg.JobsQueue,
		Prefetch: cfg.Workers,
		Drain:    cfg.WorkerDrain,
	}
	pub, err := jobs.NewPublisher(jcfg)
	if err != nil {
		log.Fatal().Err(err).Msg("jobs publisher failed")
	}
	defer pub.Close()
	consumer, err := jobs.NewConsumer(jcfg)
	if err != nil {
		log.Fatal().Err(err).Msg("jobs consumer failed")
	}
	defer consumer.Close()

	// 2) scheduled check-in sweep; Redis claims keep it to one job per booking per day
	claims := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer claims.Close()
	if err := claims.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis ping failed, check-in sweeps will skip until it is back")
	}
	checkIns := app.NewCheckInService(mysqlrepo.New(db), pub, claims, time.Now)
	every := uint64(cfg.CheckInSweep / time.Second)
	if every == 0 {
		every = 1
	}
	sched := gocron.NewScheduler()
	if err := sched.Every(every).Seconds().Do(func() {
		n, err := checkIns.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("check-in sweep failed")
			return
		}
		if n > 0 {
			log.Info().Int("queued", n).Msg("check-in jobs queued")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule check-in sweep failed")
	}
	sched.Start()
	defer sched.Clear()

	// 3) consume jobs; resizing is CPU bound so it is capped at cfg.Workers
	resizer := imaging.NewResizer()
	sem := semaphore.NewWeighted(int64(cfg.Workers))
	handle := func(ctx context.Context, job domain.Job) error {
		switch job.Type {
		case domain.JobImageResize:
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			return resizer.HandleJob(ctx, job)
		case domain.JobBookingCheckIn:
			log.Info().
				Interface("booking_id", job.Data["booking_id"]).
				Interface("user_id", job.Data["user_id"]).
				Msg("guest checks in today")
			return nil
		default:
			log.Warn().Str("type", job.Type).Msg("unknown job type")
			return nil
		}
	}

	if err := consumer.Consume(ctx, handle); err != nil {
		log.Error().Err(err).Msg("consumer stopped")
	}
	log.Info().Msg("worker stopped")
}
