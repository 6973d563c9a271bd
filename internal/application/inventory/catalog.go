package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	dominv "github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

const (
	inventoryService     = "inventory-service"
	useCaseProductCreate = "product.create"
	useCaseProductGet    = "product.get"
	useCaseProductList   = "product.list"
	useCaseProductPrice  = "product.reprice"
)

var (
	ErrNotFound   = dominv.ErrNotFound
	ErrConflict   = dominv.ErrConflict
	ErrValidation = errors.New("inventory: validation failed")
	ErrRepository = errors.New("inventory: repository failure")
)

type IDGenerator interface {
	NewID() string
}

type CreateProductInput struct {
	ID    string // optional; generated when empty
	Name  string
	Price decimal.Decimal
	Stock int
}

type RepriceInput struct {
	ProductID string
	Price     decimal.Decimal
}

// Catalog is the product admin surface. Stock is set once at creation and
// afterwards only moves through the ledger.
type Catalog struct {
	catalog     dominv.Catalog
	idGenerator IDGenerator
	in          application.Instruments
}

func NewCatalog(catalog dominv.Catalog, idGen IDGenerator, tel observability.Observability) *Catalog {
	return &Catalog{
		catalog:     catalog,
		idGenerator: idGen,
		in:          application.NewInstruments(tel, inventoryService),
	}
}

func (c *Catalog) Create(ctx context.Context, cmd CreateProductInput) (_ *dominv.Product, err error) {
	ctx, run := c.in.Begin(ctx, useCaseProductCreate, "CreateProduct", attribute.String("product.name", cmd.Name))
	defer func() { run.End(err) }()

	if cmd.Name == "" {
		run.Fail("NAME_REQUIRED")
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	id := cmd.ID
	if id == "" {
		id = c.idGenerator.NewID()
	}
	p, err := dominv.NewProduct(id, cmd.Name, cmd.Price, cmd.Stock)
	if err != nil {
		run.Fail("PRODUCT_INVALID")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := c.catalog.Create(ctx, p); err != nil {
		if errors.Is(err, dominv.ErrConflict) {
			run.Fail("PRODUCT_EXISTS")
			return nil, ErrConflict
		}
		run.Fail("REPO_INSERT_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	run.Field("product_id", p.ID)
	return p, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (_ *dominv.Product, err error) {
	ctx, run := c.in.Begin(ctx, useCaseProductGet, "GetProduct", attribute.String("product.id", id))
	defer func() { run.End(err) }()

	p, err := c.catalog.Get(ctx, id)
	if err != nil {
		return nil, c.fail(run, err)
	}
	return p, nil
}

func (c *Catalog) List(ctx context.Context) (_ []*dominv.Product, err error) {
	ctx, run := c.in.Begin(ctx, useCaseProductList, "ListProducts")
	defer func() { run.End(err) }()

	out, err := c.catalog.List(ctx)
	if err != nil {
		return nil, c.fail(run, err)
	}
	run.Field("count", len(out))
	return out, nil
}

func (c *Catalog) Reprice(ctx context.Context, cmd RepriceInput) (_ *dominv.Product, err error) {
	ctx, run := c.in.Begin(ctx, useCaseProductPrice, "RepriceProduct",
		attribute.String("product.id", cmd.ProductID),
		attribute.String("product.price", cmd.Price.String()),
	)
	defer func() { run.End(err) }()

	if cmd.Price.IsNegative() {
		run.Fail("PRICE_INVALID")
		return nil, fmt.Errorf("%w: %w", ErrValidation, dominv.ErrInvalidPrice)
	}
	p, err := c.catalog.UpdatePrice(ctx, cmd.ProductID, cmd.Price)
	if err != nil {
		return nil, c.fail(run, err)
	}
	return p, nil
}

func (c *Catalog) fail(run *application.Run, err error) error {
	if errors.Is(err, dominv.ErrNotFound) {
		run.Fail("PRODUCT_NOT_FOUND")
		return ErrNotFound
	}
	run.Fail("REPO_FAILED")
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
