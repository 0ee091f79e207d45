package repository_test

import (
	"testing"

	"github.com/JonOng2002/microservices-ecommerce/internal/product/domain"
	"github.com/JonOng2002/microservices-ecommerce/internal/product/repository"
	"github.com/JonOng2002/microservices-ecommerce/pkg/testsuite"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ProductRepoSuite struct {
	testsuite.BaseSuite
	repo repository.ProductRepository
}

func TestProductRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}

	suite.Run(t, new(ProductRepoSuite))
}

func (s *ProductRepoSuite) SetupSuite() {
	s.SetupPostgres("../../../migrations")
	s.repo = repository.NewProductRepository(s.DbPool, zap.NewNop())
}

func (s *ProductRepoSuite) TearDownSuite() {
	s.TearDownInfrastructure()
}

func (s *ProductRepoSuite) SetupTest() {
	s.TruncateTable("products")
}

func (s *ProductRepoSuite) createProduct(name string) *domain.Product {
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        domain.Slugify(name),
		Description: "test product",
		Price:       2100,
		Category:    "apparel",
	}

	s.inTx(func(tx pgx.Tx) error {
		return s.repo.Create(s.Ctx, tx, product)
	})

	return product
}

func (s *ProductRepoSuite) inTx(fn func(tx pgx.Tx) error) {
	tx, err := s.DbPool.Begin(s.Ctx)
	s.Require().NoError(err)

	s.Require().NoError(fn(tx))
	s.Require().NoError(tx.Commit(s.Ctx))
}

func (s *ProductRepoSuite) TestCreateAndGet() {
	created := s.createProduct("Black Hoodie")

	got, err := s.repo.GetByID(s.Ctx, created.ID)
	s.Require().NoError(err)

	s.Equal(created.ID, got.ID)
	s.Equal("Black Hoodie", got.Name)
	s.Equal("black-hoodie", got.Slug)
	s.Equal(int64(2100), got.Price)
	s.False(got.CreatedAt.IsZero())
}

func (s *ProductRepoSuite) TestGetMissingProduct() {
	_, err := s.repo.GetByID(s.Ctx, uuid.NewString())
	s.ErrorIs(err, repository.ErrProductNotFound)
}

func (s *ProductRepoSuite) TestListWithSearch() {
	s.createProduct("Black Hoodie")
	s.createProduct("White Hoodie")
	s.createProduct("Sneakers")

	products, total, err := s.repo.List(s.Ctx, 10, 0, "hoodie")
	s.Require().NoError(err)

	s.Equal(int64(2), total)
	s.Len(products, 2)
}

func (s *ProductRepoSuite) TestUpdate() {
	created := s.createProduct("Black Hoodie")

	newName := "Grey Hoodie"
	newPrice := int64(2500)
	err := s.repo.Update(s.Ctx, created.ID, &domain.UpdateProductInput{
		Name:  &newName,
		Price: &newPrice,
	})
	s.Require().NoError(err)

	got, err := s.repo.GetByID(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Grey Hoodie", got.Name)
	s.Equal("grey-hoodie", got.Slug)
	s.Equal(int64(2500), got.Price)
}

func (s *ProductRepoSuite) TestDeleteHidesProduct() {
	created := s.createProduct("Black Hoodie")

	s.inTx(func(tx pgx.Tx) error {
		return s.repo.DeleteByID(s.Ctx, tx, created.ID)
	})

	_, err := s.repo.GetByID(s.Ctx, created.ID)
	s.ErrorIs(err, repository.ErrProductNotFound)

	_, total, err := s.repo.List(s.Ctx, 10, 0, "")
	s.Require().NoError(err)
	s.Equal(int64(0), total)
}
