package app

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/you-humble/gearguard/internal/config"
	"github.com/you-humble/gearguard/internal/converter"
	"github.com/you-humble/gearguard/internal/platform/closer"
	"github.com/you-humble/gearguard/internal/platform/db/migrator"
	"github.com/you-humble/gearguard/internal/platform/kafka"
	"github.com/you-humble/gearguard/internal/platform/kafka/producer"
	"github.com/you-humble/gearguard/internal/platform/logger"
	equipmentrepo "github.com/you-humble/gearguard/internal/repository/equipment"
	reportrepo "github.com/you-humble/gearguard/internal/repository/report"
	requestrepo "github.com/you-humble/gearguard/internal/repository/request"
	teamrepo "github.com/you-humble/gearguard/internal/repository/team"
	userrepo "github.com/you-humble/gearguard/internal/repository/user"
	authsvc "github.com/you-humble/gearguard/internal/service/auth"
	equipmentsvc "github.com/you-humble/gearguard/internal/service/equipment"
	reqproducer "github.com/you-humble/gearguard/internal/service/producer/request"
	reportsvc "github.com/you-humble/gearguard/internal/service/report"
	requestsvc "github.com/you-humble/gearguard/internal/service/request"
	teamsvc "github.com/you-humble/gearguard/internal/service/team"
	usersvc "github.com/you-humble/gearguard/internal/service/user"
	authhttp "github.com/you-humble/gearguard/internal/transport/http/auth/v1"
	equipmenthttp "github.com/you-humble/gearguard/internal/transport/http/equipment/v1"
	"github.com/you-humble/gearguard/internal/transport/http/middleware"
	reporthttp "github.com/you-humble/gearguard/internal/transport/http/report/v1"
	requesthttp "github.com/you-humble/gearguard/internal/transport/http/request/v1"
	"github.com/you-humble/gearguard/internal/transport/http/router"
	teamhttp "github.com/you-humble/gearguard/internal/transport/http/team/v1"
	userhttp "github.com/you-humble/gearguard/internal/transport/http/user/v1"
)

// UserRepository is the union of the user store methods the services need.
type UserRepository interface {
	authsvc.UserRepository
	usersvc.UserRepository
}

type TeamRepository interface {
	teamsvc.TeamRepository
	requestsvc.TeamProvider
}

type RequestRepository interface {
	requestsvc.RequestRepository
	teamsvc.RequestUnassigner
}

type AuthService interface {
	authhttp.AuthService
	middleware.TokenVerifier
}

type di struct {
	dbPool   *pgxpool.Pool
	migrator *migrator.Migrator

	userRepository      UserRepository
	equipmentRepository equipmentsvc.EquipmentRepository
	teamRepository      TeamRepository
	requestRepository   RequestRepository
	reportRepository    reportsvc.ReportRepository

	syncProducer       sarama.SyncProducer
	eventsProducer     kafka.Producer
	kafkaConverter     reqproducer.Converter
	requestEventSender requestsvc.EventSender

	authService      AuthService
	userService      userhttp.UserService
	equipmentService equipmenthttp.EquipmentService
	teamService      teamhttp.TeamService
	requestService   requesthttp.RequestService
	reportService    reporthttp.ReportService

	router *chi.Mux
}

func NewDI() *di { return &di{} }

func (d *di) DBPool(ctx context.Context) *pgxpool.Pool {
	if d.dbPool == nil {
		pool, err := pgxpool.New(ctx, config.C().Postgres.DSN())
		if err != nil {
			panic(fmt.Sprintf("failed to create pg pool: %v\n", err))
		}

		closer.AddNamed("PGX Pool",
			func(ctx context.Context) error {
				pool.Close()
				return nil
			})

		if err := pool.Ping(ctx); err != nil {
			panic(fmt.Sprintf("failed to ping db: %v\n", err))
		}

		d.dbPool = pool
	}

	return d.dbPool
}

func (d *di) Migrator(ctx context.Context) *migrator.Migrator {
	if d.migrator == nil {
		d.migrator = migrator.NewMigrator(
			stdlib.OpenDBFromPool(d.DBPool(ctx)),
			config.C().Postgres.MigrationDirectory(),
		)

		closer.AddNamed("Migrator",
			func(ctx context.Context) error {
				return d.migrator.Close()
			})
	}

	return d.migrator
}

func (d *di) UserRepository(ctx context.Context) UserRepository {
	if d.userRepository == nil {
		d.userRepository = userrepo.NewUserRepository(d.DBPool(ctx))
	}

	return d.userRepository
}

func (d *di) EquipmentRepository(ctx context.Context) equipmentsvc.EquipmentRepository {
	if d.equipmentRepository == nil {
		d.equipmentRepository = equipmentrepo.NewEquipmentRepository(d.DBPool(ctx))
	}

	return d.equipmentRepository
}

func (d *di) TeamRepository(ctx context.Context) TeamRepository {
	if d.teamRepository == nil {
		d.teamRepository = teamrepo.NewTeamRepository(d.DBPool(ctx))
	}

	return d.teamRepository
}

func (d *di) RequestRepository(ctx context.Context) RequestRepository {
	if d.requestRepository == nil {
		d.requestRepository = requestrepo.NewRequestRepository(d.DBPool(ctx))
	}

	return d.requestRepository
}

func (d *di) ReportRepository(ctx context.Context) reportsvc.ReportRepository {
	if d.reportRepository == nil {
		d.reportRepository = reportrepo.NewReportRepository(d.DBPool(ctx))
	}

	return d.reportRepository
}

func (d *di) SyncProducer(ctx context.Context) sarama.SyncProducer {
	if d.syncProducer == nil {
		cfg := config.C()

		p, err := sarama.NewSyncProducer(
			cfg.Kafka.Brokers(),
			cfg.Kafka.ProducerConfig(),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create sync producer: %s\n", err.Error()))
		}
		closer.AddNamed("Kafka sync producer", func(ctx context.Context) error {
			return p.Close()
		})

		d.syncProducer = p
	}

	return d.syncProducer
}

func (d *di) EventsProducer(ctx context.Context) kafka.Producer {
	if d.eventsProducer == nil {
		d.eventsProducer = producer.NewProducer(
			d.SyncProducer(ctx),
			config.C().Kafka.RequestEventsTopic(),
			logger.L(),
		)
	}

	return d.eventsProducer
}

func (d *di) KafkaConverter(ctx context.Context) reqproducer.Converter {
	if d.kafkaConverter == nil {
		d.kafkaConverter = converter.NewKafkaConverter()
	}

	return d.kafkaConverter
}

func (d *di) RequestEventSender(ctx context.Context) requestsvc.EventSender {
	if d.requestEventSender == nil {
		d.requestEventSender = reqproducer.NewRequestProducer(
			d.EventsProducer(ctx),
			d.KafkaConverter(ctx),
		)
	}

	return d.requestEventSender
}

func (d *di) AuthService(ctx context.Context) AuthService {
	if d.authService == nil {
		cfg := config.C()

		d.authService = authsvc.NewAuthService(
			d.UserRepository(ctx),
			cfg.JWT.Secret(),
			cfg.JWT.TokenTTL(),
		)
	}

	return d.authService
}

func (d *di) UserService(ctx context.Context) userhttp.UserService {
	if d.userService == nil {
		d.userService = usersvc.NewUserService(d.UserRepository(ctx))
	}

	return d.userService
}

func (d *di) EquipmentService(ctx context.Context) equipmenthttp.EquipmentService {
	if d.equipmentService == nil {
		d.equipmentService = equipmentsvc.NewEquipmentService(
			d.EquipmentRepository(ctx),
			d.TeamRepository(ctx),
			d.UserRepository(ctx),
		)
	}

	return d.equipmentService
}

func (d *di) TeamService(ctx context.Context) teamhttp.TeamService {
	if d.teamService == nil {
		d.teamService = teamsvc.NewTeamService(
			d.TeamRepository(ctx),
			d.UserRepository(ctx),
			d.RequestRepository(ctx),
		)
	}

	return d.teamService
}

func (d *di) RequestService(ctx context.Context) requesthttp.RequestService {
	if d.requestService == nil {
		d.requestService = requestsvc.NewRequestService(
			d.RequestRepository(ctx),
			d.EquipmentRepository(ctx),
			d.TeamRepository(ctx),
			d.UserRepository(ctx),
			d.RequestEventSender(ctx),
		)
	}

	return d.requestService
}

func (d *di) ReportService(ctx context.Context) reporthttp.ReportService {
	if d.reportService == nil {
		d.reportService = reportsvc.NewReportService(
			d.ReportRepository(ctx),
			d.TeamRepository(ctx),
		)
	}

	return d.reportService
}

func (d *di) Handlers(ctx context.Context) router.Handlers {
	return router.Handlers{
		Auth:      authhttp.NewAuthHandler(d.AuthService(ctx)),
		Users:     userhttp.NewUserHandler(d.UserService(ctx)),
		Equipment: equipmenthttp.NewEquipmentHandler(d.EquipmentService(ctx)),
		Teams:     teamhttp.NewTeamHandler(d.TeamService(ctx)),
		Requests:  requesthttp.NewRequestHandler(d.RequestService(ctx)),
		Reports:   reporthttp.NewReportHandler(d.ReportService(ctx)),
	}
}

func (d *di) Router(_ context.Context) *chi.Mux {
	if d.router == nil {
		d.router = chi.NewRouter()
	}

	return d.router
}
