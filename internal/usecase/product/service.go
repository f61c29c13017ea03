package product

import (
	"context"

	"github.com/sirupsen/logrus"

	dom "example.com/product-catalog/internal/domain/product"
	"example.com/product-catalog/internal/infra/telemetry"
)

type Service struct {
	repo    dom.Repository
	log     logrus.FieldLogger
	metrics *telemetry.Metrics
}

func NewService(repo dom.Repository, log logrus.FieldLogger, metrics *telemetry.Metrics) *Service {
	return &Service{repo: repo, log: log, metrics: metrics}
}

func (s *Service) Create(ctx context.Context, p *dom.Product) (created *dom.Product, err error) {
	defer s.observe("create", &err)

	created, err = s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.log.WithField("product_id", created.ID).Infof("created %s", created)
	return created, nil
}

// Update replaces every mutable field of product id with the values in p.
// The id in p is ignored.
func (s *Service) Update(ctx context.Context, id int64, p *dom.Product) (updated *dom.Product, err error) {
	defer s.observe("update", &err)

	existed, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if existed == nil {
		return nil, dom.ErrProductNotFound
	}

	existed.Name = p.Name
	existed.Description = p.Description
	existed.Price = p.Price
	existed.Available = p.Available
	existed.Category = p.Category

	updated, err = s.repo.Update(ctx, existed)
	if err != nil {
		return nil, err
	}
	s.log.WithField("product_id", id).Infof("updated %s", updated)
	return updated, nil
}

// Delete succeeds whether or not the product exists.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer s.observe("delete", &err)

	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("product_id", id).Info("deleted product")
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (p *dom.Product, err error) {
	defer s.observe("get", &err)

	p, err = s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, dom.ErrProductNotFound
	}
	return p, nil
}

// List applies at most one filter. When several are set the first of
// name, category, available and price wins.
func (s *Service) List(ctx context.Context, filter dom.ListFilter) (products []*dom.Product, err error) {
	defer s.observe("list", &err)

	if filter.IsEmpty() {
		products, err = s.repo.All(ctx)
		if err != nil {
			return nil, err
		}
		s.log.WithField("count", len(products)).Debug("listed products")
		return products, nil
	}

	switch {
	case filter.Name != nil:
		products, err = s.repo.FindByName(ctx, *filter.Name)
	case filter.Category != nil:
		products, err = s.repo.FindByCategory(ctx, *filter.Category)
	case filter.Available != nil:
		products, err = s.repo.FindByAvailability(ctx, *filter.Available)
	default:
		products, err = s.repo.FindByPrice(ctx, *filter.Price)
	}
	if err != nil {
		return nil, err
	}
	s.log.WithField("count", len(products)).Debug("listed products")
	return products, nil
}

func (s *Service) observe(operation string, err *error) {
	s.metrics.ObserveOperation(operation, *err)
	if *err != nil {
		s.log.WithError(*err).WithField("operation", operation).Warn("product operation failed")
	}
}
