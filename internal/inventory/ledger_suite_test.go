package inventory_test

import (
	"testing"

	"github.com/JonOng2002/microservices-ecommerce/internal/inventory"
	"github.com/JonOng2002/microservices-ecommerce/pkg/testsuite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LedgerSuite struct {
	testsuite.BaseSuite
	ledger inventory.Ledger
}

func TestLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}

	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupSuite() {
	s.SetupRedis()
	s.ledger = inventory.NewRedisLedger(s.RedisClient, zap.NewNop())
}

func (s *LedgerSuite) TearDownSuite() {
	s.TearDownInfrastructure()
}

func (s *LedgerSuite) SetupTest() {
	s.FlushRedis()
}

func (s *LedgerSuite) seed(productID string, l, m, small, threshold int64) {
	err := s.ledger.Set(s.Ctx, &inventory.Record{
		ProductID:   productID,
		ProductName: "Hoodie",
		ProductSlug: "hoodie",
		Quantities: inventory.Quantities{
			inventory.SizeLarge:  l,
			inventory.SizeMedium: m,
			inventory.SizeSmall:  small,
		},
		StockThreshold: threshold,
	})
	s.Require().NoError(err)
}

func (s *LedgerSuite) TestSetAndGet() {
	s.seed("p1", 10, 20, 30, 5)

	record, err := s.ledger.Get(s.Ctx, "p1")
	s.Require().NoError(err)

	s.Equal("Hoodie", record.ProductName)
	s.Equal("hoodie", record.ProductSlug)
	s.Equal(int64(10), record.Quantities[inventory.SizeLarge])
	s.Equal(int64(20), record.Quantities[inventory.SizeMedium])
	s.Equal(int64(30), record.Quantities[inventory.SizeSmall])
	s.Equal(int64(5), record.StockThreshold)
}

func (s *LedgerSuite) TestGetMissingRecord() {
	_, err := s.ledger.Get(s.Ctx, "missing")
	s.ErrorIs(err, inventory.ErrRecordNotFound)
}

func (s *LedgerSuite) TestAddGoesNegativeWithoutFloor() {
	s.seed("p1", 10, 3, 10, 5)

	record, err := s.ledger.Add(s.Ctx, "p1", inventory.Quantities{
		inventory.SizeMedium: -5,
	})
	s.Require().NoError(err)

	s.Equal(int64(-2), record.Quantities[inventory.SizeMedium])
	s.True(record.NeedsReconciliation())
}

func (s *LedgerSuite) TestAddTouchesOnlyRequestedSizes() {
	s.seed("p1", 10, 20, 30, 5)

	record, err := s.ledger.Add(s.Ctx, "p1", inventory.Quantities{
		inventory.SizeLarge: -4,
		inventory.SizeSmall: 2,
	})
	s.Require().NoError(err)

	s.Equal(int64(6), record.Quantities[inventory.SizeLarge])
	s.Equal(int64(20), record.Quantities[inventory.SizeMedium])
	s.Equal(int64(32), record.Quantities[inventory.SizeSmall])
}

func (s *LedgerSuite) TestDelete() {
	s.seed("p1", 1, 1, 1, 5)

	s.Require().NoError(s.ledger.Delete(s.Ctx, "p1"))

	_, err := s.ledger.Get(s.Ctx, "p1")
	s.ErrorIs(err, inventory.ErrRecordNotFound)

	s.ErrorIs(s.ledger.Delete(s.Ctx, "p1"), inventory.ErrRecordNotFound)
}

func (s *LedgerSuite) TestListLowStock() {
	s.seed("p1", 10, 10, 10, 5)
	s.seed("p2", 10, 4, 10, 5)
	s.seed("p3", 0, 10, 10, 5)

	low, err := s.ledger.ListLowStock(s.Ctx)
	s.Require().NoError(err)

	ids := make([]string, 0, len(low))
	for _, record := range low {
		ids = append(ids, record.ProductID)
	}

	s.ElementsMatch([]string{"p2", "p3"}, ids)
}

func (s *LedgerSuite) TestList() {
	s.seed("p1", 1, 1, 1, 5)
	s.seed("p2", 1, 1, 1, 5)

	records, err := s.ledger.List(s.Ctx)
	s.Require().NoError(err)
	s.Len(records, 2)
}
