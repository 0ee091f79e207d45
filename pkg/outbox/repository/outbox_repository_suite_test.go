package repository_test

import (
	"encoding/json"
	"testing"

	outboxDomain "github.com/JonOng2002/microservices-ecommerce/pkg/outbox/domain"
	"github.com/JonOng2002/microservices-ecommerce/pkg/outbox/repository"
	"github.com/JonOng2002/microservices-ecommerce/pkg/outbox/worker"
	"github.com/JonOng2002/microservices-ecommerce/pkg/testsuite"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type OutboxRepoSuite struct {
	testsuite.BaseSuite
	repo worker.OutboxRepository
}

func TestOutboxRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}

	suite.Run(t, new(OutboxRepoSuite))
}

func (s *OutboxRepoSuite) SetupSuite() {
	s.SetupPostgres("../../../migrations")
	s.repo = repository.NewOutboxRepository(s.DbPool, zap.NewNop())
}

func (s *OutboxRepoSuite) TearDownSuite() {
	s.TearDownInfrastructure()
}

func (s *OutboxRepoSuite) SetupTest() {
	s.TruncateTable("outbox")
}

func (s *OutboxRepoSuite) saveEvent(topic string) {
	payload, err := json.Marshal(map[string]string{"id": "p1"})
	s.Require().NoError(err)

	s.inTx(func(tx pgx.Tx) error {
		return s.repo.SaveOutboxEvent(s.Ctx, tx, &outboxDomain.OutboxEvent{
			AggregateType: "Product",
			AggregateID:   "p1",
			EventType:     "ProductCreated",
			Payload:       payload,
			Topic:         topic,
		})
	})
}

func (s *OutboxRepoSuite) inTx(fn func(tx pgx.Tx) error) {
	tx, err := s.DbPool.Begin(s.Ctx)
	s.Require().NoError(err)

	s.Require().NoError(fn(tx))
	s.Require().NoError(tx.Commit(s.Ctx))
}

func (s *OutboxRepoSuite) fetchUnpublished() []*outboxDomain.OutboxEvent {
	var events []*outboxDomain.OutboxEvent

	s.inTx(func(tx pgx.Tx) error {
		var err error
		events, err = s.repo.GetUnpublishedEvents(s.Ctx, tx, 10)
		return err
	})

	return events
}

func (s *OutboxRepoSuite) TestSaveAndFetchUnpublished() {
	s.saveEvent("product.created")
	s.saveEvent("product.deleted")

	events := s.fetchUnpublished()
	s.Require().Len(events, 2)
	s.Equal("product.created", events[0].Topic)
	s.Equal("Product", events[0].AggregateType)
}

func (s *OutboxRepoSuite) TestMarkPublishedRemovesFromBatch() {
	s.saveEvent("product.created")

	events := s.fetchUnpublished()
	s.Require().Len(events, 1)

	s.inTx(func(tx pgx.Tx) error {
		return s.repo.MarkEventPublished(s.Ctx, tx, events[0].Id)
	})

	s.Empty(s.fetchUnpublished())
}

func (s *OutboxRepoSuite) TestMarkFailedCountsAttempts() {
	s.saveEvent("product.created")

	events := s.fetchUnpublished()
	s.Require().Len(events, 1)

	s.inTx(func(tx pgx.Tx) error {
		return s.repo.MarkEventFailed(s.Ctx, tx, events[0].Id, "broker unavailable")
	})

	var attempts int
	var lastError string
	err := s.DbPool.QueryRow(s.Ctx, "SELECT attempts, last_error FROM outbox WHERE id = $1", events[0].Id).
		Scan(&attempts, &lastError)
	s.Require().NoError(err)

	s.Equal(1, attempts)
	s.Equal("broker unavailable", lastError)

	// failed events stay eligible until the attempt cap
	s.Len(s.fetchUnpublished(), 1)
}
