// Package services contains the business logic layer for the URL shortener application
package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/axellelanca/pitico/internal/encoder"
	customerrors "github.com/axellelanca/pitico/internal/errors"
	"github.com/axellelanca/pitico/internal/metrics"
	"github.com/axellelanca/pitico/internal/models"
	"github.com/axellelanca/pitico/internal/repository"
)

// Registration is the outcome of URLService.Register.
type Registration struct {
	Record *models.URL
	// Existing is true when the URL had already been registered.
	Existing bool
}

// URLService implements the registration and resolution protocols over the mapping store.
type URLService struct {
	repo   repository.URLRepository
	logger *logrus.Entry
}

// NewURLService creates and returns a new instance of URLService.
func NewURLService(repo repository.URLRepository, logger *logrus.Logger) *URLService {
	return &URLService{
		repo:   repo,
		logger: logger.WithField("module", "services/url"),
	}
}

// Register returns the alias of originalURL, allocating a new one on first registration.
// The URL is stored verbatim.
func (s *URLService) Register(ctx context.Context, originalURL string) (*Registration, error) {
	if originalURL == "" {
		return nil, customerrors.ErrEmptyURL
	}

	rec, created, err := s.repo.Register(ctx, originalURL, encoder.Encode)
	if err != nil {
		s.recordStorageError(err)
		return nil, err
	}

	metrics.RecordRegistration(!created)
	if created {
		s.logger.WithFields(logrus.Fields{"alias": rec.Alias, "id": rec.ID}).Infof("registered %s", originalURL)
	} else {
		s.logger.WithField("alias", rec.Alias).Debugf("%s already registered", originalURL)
	}
	return &Registration{Record: rec, Existing: !created}, nil
}

// Resolve returns the record of alias, or customerrors.ErrAliasNotFound.
// Aliases that Encode could never produce are reported missing without a store lookup.
func (s *URLService) Resolve(ctx context.Context, alias string) (*models.URL, error) {
	if !encoder.IsValid(alias) {
		return nil, customerrors.ErrAliasNotFound
	}

	rec, err := s.repo.FindByAlias(ctx, alias)
	if err != nil {
		s.recordStorageError(err)
		return nil, err
	}
	if rec == nil {
		return nil, customerrors.ErrAliasNotFound
	}
	return rec, nil
}

// List returns up to limit stored records ordered by id.
func (s *URLService) List(ctx context.Context, limit int) ([]models.URL, error) {
	urls, err := s.repo.List(ctx, limit)
	if err != nil {
		s.recordStorageError(err)
		return nil, err
	}
	return urls, nil
}

func (s *URLService) recordStorageError(err error) {
	var storageErr *customerrors.StorageError
	if errors.As(err, &storageErr) {
		metrics.RecordStorageError(storageErr.Op)
		return
	}
	metrics.RecordStorageError("unknown")
}
