//go:build integration

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"
	tc "github.com/testcontainers/testcontainers-go"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/you-humble/gearguard/internal/app"
	"github.com/you-humble/gearguard/internal/converter"
	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/platform/db/migrator"
	"github.com/you-humble/gearguard/internal/platform/kafka"
	"github.com/you-humble/gearguard/internal/platform/kafka/consumer"
	"github.com/you-humble/gearguard/internal/platform/kafka/middleware"
	"github.com/you-humble/gearguard/internal/platform/kafka/producer"
	"github.com/you-humble/gearguard/internal/platform/logger"
	equipmentrepo "github.com/you-humble/gearguard/internal/repository/equipment"
	requestrepo "github.com/you-humble/gearguard/internal/repository/request"
	teamrepo "github.com/you-humble/gearguard/internal/repository/team"
	userrepo "github.com/you-humble/gearguard/internal/repository/user"
	equipmentsvc "github.com/you-humble/gearguard/internal/service/equipment"
	reqproducer "github.com/you-humble/gearguard/internal/service/producer/request"
	requestsvc "github.com/you-humble/gearguard/internal/service/request"
	requesthttp "github.com/you-humble/gearguard/internal/transport/http/request/v1"
)

const (
	pgImage = "postgres:17.0-alpine3.20"

	pgUser       = "gearguard-user"
	pgPass       = "12CXZ43_U_w"
	pgDB         = "gearguard-db"
	migrationDir = "../../migrations"

	kafkaImage = "confluentinc/cp-kafka:7.6.1"

	topicEvents     = "maintenance.request-events"
	consumerGroupID = "gearguard-it"
)

var (
	ctx context.Context

	pgC  *postgres.PostgresContainer
	pool *pgxpool.Pool

	kafkaC       tc.Container
	kafkaBrokers []string

	userRepo      app.UserRepository
	teamRepo      app.TeamRepository
	equipmentRepo equipmentsvc.EquipmentRepository
	requestRepo   app.RequestRepository
	reqSvc        requesthttp.RequestService
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Maintenance Request Integration Suite")
}

var _ = BeforeSuite(func() {
	ctx = context.Background()

	By("starting postgres container")
	var err error
	logger.SetNopLogger()
	pgC, err = postgres.Run(ctx,
		pgImage,
		postgres.WithDatabase(pgDB),
		postgres.WithUsername(pgUser),
		postgres.WithPassword(pgPass),
		tc.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp").WithStartupTimeout(60*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())

	By("building postgres connection string")
	dbURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	By("creating pgx pool")
	pool, err = pgxpool.New(ctx, dbURL)
	Expect(err).NotTo(HaveOccurred())

	Eventually(func(g Gomega) {
		err := pool.Ping(ctx)
		g.Expect(err).NotTo(HaveOccurred())
	}).WithTimeout(10 * time.Second).WithPolling(200 * time.Millisecond).Should(Succeed())

	m := migrator.NewMigrator(
		stdlib.OpenDBFromPool(pool),
		migrationDir,
	)

	By("running migrations")
	err = m.Up()
	Expect(err).NotTo(HaveOccurred())
	defer m.Close()

	By("starting kafka container (cp-kafka)")
	kafkaC, kafkaBrokers, err = runKafka(ctx)
	Expect(err).NotTo(HaveOccurred())

	By("creating kafka topics")
	Expect(createTopics(ctx, kafkaBrokers, topicEvents)).To(Succeed())

	By("creating repositories")
	userRepo = userrepo.NewUserRepository(pool)
	teamRepo = teamrepo.NewTeamRepository(pool)
	equipmentRepo = equipmentrepo.NewEquipmentRepository(pool)
	requestRepo = requestrepo.NewRequestRepository(pool)

	eventsProducerConfig := sarama.NewConfig()
	eventsProducerConfig.Version = sarama.V4_0_0_0
	eventsProducerConfig.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(kafkaBrokers, eventsProducerConfig)
	Expect(err).NotTo(HaveOccurred())

	eventsProducer := producer.NewProducer(p, topicEvents, logger.L())
	conv := converter.NewKafkaConverter()
	sender := reqproducer.NewRequestProducer(eventsProducer, conv)

	reqSvc = requestsvc.NewRequestService(requestRepo, equipmentRepo, teamRepo, userRepo, sender)
})

var _ = AfterSuite(func() {
	if pool != nil {
		pool.Close()
	}
	if pgC != nil {
		_ = pgC.Terminate(ctx)
	}
	mustTerminate(ctx, kafkaC)
})

var _ = BeforeEach(func() {
	By("cleaning tables")
	_, err := pool.Exec(ctx, `TRUNCATE TABLE
		maintenance_requests, equipment, team_members, maintenance_teams, users
		RESTART IDENTITY CASCADE`)
	Expect(err).NotTo(HaveOccurred())
})

var _ = Describe("Maintenance request lifecycle", func() {
	var (
		requester  model.Actor
		technician model.Actor
		manager    model.Actor
		teamID     uuid.UUID
		equipID    uuid.UUID
	)

	JustBeforeEach(func() {
		requester = model.Actor{ID: seedUser("requester@corp.io", model.RoleUser), Role: model.RoleUser}
		technician = model.Actor{ID: seedUser("tech@corp.io", model.RoleTechnician), Role: model.RoleTechnician}
		manager = model.Actor{ID: seedUser("manager@corp.io", model.RoleManager), Role: model.RoleManager}

		teamID = seedTeam("mechanical", technician.ID)
		equipID = seedEquipment("CNC mill", "SN-0001", teamID)
	})

	It("auto-fills the team from the equipment default and walks the repair flow", func() {
		By("creating a corrective request without a team")
		created, err := reqSvc.Create(ctx, model.CreateRequestParams{
			Subject:     "spindle vibration",
			Type:        model.RequestTypeCorrective,
			EquipmentID: equipID,
		}, requester)
		Expect(err).NotTo(HaveOccurred())
		Expect(created.TeamID).To(Equal(teamID))
		Expect(created.Status).To(Equal(model.StatusNew))
		Expect(created.AssignedToID).To(BeNil())

		By("technician advancing the unassigned request claims it")
		inProgress, err := reqSvc.Transition(ctx, created.ID, model.StatusInProgress, technician, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(inProgress.Status).To(Equal(model.StatusInProgress))
		Expect(inProgress.AssignedToID).NotTo(BeNil())
		Expect(*inProgress.AssignedToID).To(Equal(technician.ID))

		By("repairing with a recorded duration stamps completion")
		repaired, err := reqSvc.Transition(ctx, created.ID, model.StatusRepaired, technician, lo.ToPtr(3.5))
		Expect(err).NotTo(HaveOccurred())
		Expect(repaired.Status).To(Equal(model.StatusRepaired))
		Expect(repaired.CompletedAt).NotTo(BeNil())
		Expect(repaired.DurationHours).To(Equal(lo.ToPtr(3.5)))

		By("terminal requests refuse further transitions")
		_, err = reqSvc.Transition(ctx, created.ID, model.StatusScrap, manager, nil)
		Expect(errors.Is(err, model.ErrInvalidTransition)).To(BeTrue())
	})

	It("rejects repair without a duration", func() {
		created, err := reqSvc.Create(ctx, model.CreateRequestParams{
			Subject:     "coolant leak",
			Type:        model.RequestTypeCorrective,
			EquipmentID: equipID,
		}, requester)
		Expect(err).NotTo(HaveOccurred())

		_, err = reqSvc.Transition(ctx, created.ID, model.StatusInProgress, technician, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = reqSvc.Transition(ctx, created.ID, model.StatusRepaired, technician, nil)
		Expect(errors.Is(err, model.ErrValidation)).To(BeTrue())
	})

	It("scrapping a request retires the equipment", func() {
		created, err := reqSvc.Create(ctx, model.CreateRequestParams{
			Subject:     "frame cracked",
			Type:        model.RequestTypeCorrective,
			EquipmentID: equipID,
		}, requester)
		Expect(err).NotTo(HaveOccurred())

		By("scrapping straight from NEW")
		scrapped, err := reqSvc.Transition(ctx, created.ID, model.StatusScrap, manager, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(scrapped.Status).To(Equal(model.StatusScrap))
		Expect(scrapped.CompletedAt).NotTo(BeNil())

		By("verifying the cascade in the DB")
		var isScrap bool
		err = pool.QueryRow(ctx, `SELECT is_scrap FROM equipment WHERE id = $1`, equipID).Scan(&isScrap)
		Expect(err).NotTo(HaveOccurred())
		Expect(isScrap).To(BeTrue())

		By("rejecting new requests against scrapped equipment")
		_, err = reqSvc.Create(ctx, model.CreateRequestParams{
			Subject:     "one more try",
			Type:        model.RequestTypeCorrective,
			EquipmentID: equipID,
		}, requester)
		Expect(errors.Is(err, model.ErrValidation)).To(BeTrue())
	})

	It("publishes a request.created event", func() {
		type envelope struct {
			EventType string `json:"event_type"`
			Payload   struct {
				RequestID string `json:"request_id"`
			} `json:"payload"`
		}

		msgCh := make(chan []byte, 1)
		go func() {
			value, err := consumeOne(ctx, kafkaBrokers, topicEvents)
			if err == nil {
				msgCh <- value
			}
		}()

		created, err := reqSvc.Create(ctx, model.CreateRequestParams{
			Subject:     "belt slipping",
			Type:        model.RequestTypeCorrective,
			EquipmentID: equipID,
		}, requester)
		Expect(err).NotTo(HaveOccurred())

		var env envelope
		Eventually(msgCh, 15*time.Second).Should(Receive(WithTransform(func(value []byte) error {
			return json.Unmarshal(value, &env)
		}, Succeed())))
		Expect(env.EventType).To(Equal("request.created"))
		Expect(env.Payload.RequestID).To(Equal(created.ID.String()))
	})

	It("restricts listing to the requester's own requests", func() {
		mine, err := reqSvc.Create(ctx, model.CreateRequestParams{
			Subject:     "screen flicker",
			Type:        model.RequestTypeCorrective,
			EquipmentID: equipID,
		}, requester)
		Expect(err).NotTo(HaveOccurred())

		_, err = reqSvc.Create(ctx, model.CreateRequestParams{
			Subject:     "managed elsewhere",
			Type:        model.RequestTypeCorrective,
			EquipmentID: equipID,
		}, manager)
		Expect(err).NotTo(HaveOccurred())

		page, err := reqSvc.List(ctx, model.RequestFilter{}, requester)
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(int64(1)))
		Expect(page.Items).To(HaveLen(1))
		Expect(page.Items[0].ID).To(Equal(mine.ID))

		managerPage, err := reqSvc.List(ctx, model.RequestFilter{}, manager)
		Expect(err).NotTo(HaveOccurred())
		Expect(managerPage.Total).To(Equal(int64(2)))
	})
})

func seedUser(email string, role model.Role) uuid.UUID {
	id, err := userRepo.Create(ctx, &model.User{
		Email:        email,
		PasswordHash: "x",
		Name:         email,
		Role:         role,
		IsActive:     true,
	})
	Expect(err).NotTo(HaveOccurred())
	return id
}

func seedTeam(name string, memberIDs ...uuid.UUID) uuid.UUID {
	id, err := teamRepo.Create(ctx, &model.Team{Name: name, IsActive: true})
	Expect(err).NotTo(HaveOccurred())
	for _, memberID := range memberIDs {
		Expect(teamRepo.AddMember(ctx, id, memberID)).To(Succeed())
	}
	return id
}

func seedEquipment(name, serial string, defaultTeamID uuid.UUID) uuid.UUID {
	id, err := equipmentRepo.Create(ctx, &model.Equipment{
		Name:          name,
		SerialNumber:  serial,
		Category:      "machining",
		DefaultTeamID: &defaultTeamID,
	})
	Expect(err).NotTo(HaveOccurred())
	return id
}

func runKafka(ctx context.Context) (tc.Container, []string, error) {
	c, err := kafkaTc.Run(ctx,
		kafkaImage,
		kafkaTc.WithClusterID("Mk3OEYBSD34fcwNTJENDM2Qk"),
	)
	if err != nil {
		return nil, []string{}, err
	}

	bootstrap, err := c.Brokers(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, []string{}, err
	}

	return c, bootstrap, nil
}

func mustTerminate(ctx context.Context, c tc.Container) {
	if c != nil {
		_ = c.Terminate(ctx)
	}
}

func createTopics(_ context.Context, brokers []string, topics ...string) error {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V4_0_0_0
	cfg.Producer.Return.Successes = true
	cfg.Admin.Timeout = 10 * time.Second

	admin, err := sarama.NewClusterAdmin(brokers, cfg)
	if err != nil {
		return err
	}
	defer admin.Close()

	for _, t := range topics {
		err := admin.CreateTopic(t, &sarama.TopicDetail{
			NumPartitions:     1,
			ReplicationFactor: 1,
		}, false)
		if err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
			return err
		}
	}
	return nil
}

func consumeOne(ctx context.Context, brokers []string, topic string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V4_0_0_0
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true

	consumerGr, err := sarama.NewConsumerGroup(brokers, consumerGroupID, cfg)
	if err != nil {
		return nil, err
	}
	defer consumerGr.Close()

	c := consumer.NewConsumer(
		consumerGr,
		[]string{topic},
		logger.L(),
		middleware.Recovery(logger.L()),
		middleware.Logging(logger.L()),
	)

	var value []byte
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Consume(ctx, func(ctx context.Context, msg kafka.Message) error {
			value = msg.Value
			cancel()
			return nil
		})
	}()

	select {
	case err := <-errCh:
		if err != nil &&
			!errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return value, nil
	case <-ctx.Done():
		if value != nil {
			return value, nil
		}
		return nil, ctx.Err()
	}
}
