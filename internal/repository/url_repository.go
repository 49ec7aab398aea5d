package repository

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/axellelanca/pitico/internal/encoder"
	customerrors "github.com/axellelanca/pitico/internal/errors"
	"github.com/axellelanca/pitico/internal/models"
)

// maxRegisterAttempts bounds the retries of Register when another writer took the computed id.
const maxRegisterAttempts = 5

// EncodeFunc turns an allocated identifier into its alias.
type EncodeFunc func(id uint64) string

// URLRepository is the mapping store. Lookups return nil, nil when nothing matches.
// Insert rejects records breaking alias == encoder.Encode(id) with customerrors.ErrInvalidAlias;
// every other failure is a *customerrors.StorageError.
type URLRepository interface {
	FindByAlias(ctx context.Context, alias string) (*models.URL, error)
	FindByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error)
	// NextIdentifier returns 1 + the highest stored id, or 1 on an empty store.
	NextIdentifier(ctx context.Context) (uint64, error)
	// Insert stores rec unless its id, alias or original URL is already taken.
	// It reports whether the record was written; a collision is not an error.
	// A zero CreatedAt is set to the insertion time.
	Insert(ctx context.Context, rec *models.URL) (bool, error)
	// Register returns the record of originalURL, creating it atomically when absent.
	Register(ctx context.Context, originalURL string, encode EncodeFunc) (rec *models.URL, created bool, err error)
	// List returns up to limit records ordered by id. A limit <= 0 means all.
	List(ctx context.Context, limit int) ([]models.URL, error)
	Close() error
}

// GormURLRepository is the URLRepository implementation backed by GORM.
type GormURLRepository struct {
	db     *gorm.DB
	logger *logrus.Entry
}

var _ URLRepository = (*GormURLRepository)(nil)

// NewURLRepository creates and returns a new instance of GormURLRepository.
// The schema must already exist, see OpenSQLite and Migrate.
func NewURLRepository(db *gorm.DB, logger *logrus.Logger) *GormURLRepository {
	return &GormURLRepository{
		db:     db,
		logger: logger.WithField("module", "repository/gorm"),
	}
}

// FindByAlias looks a record up by its alias.
func (r *GormURLRepository) FindByAlias(ctx context.Context, alias string) (*models.URL, error) {
	rec, err := findOne(r.db.WithContext(ctx), "alias = ?", alias)
	if err != nil {
		r.logger.WithError(err).Errorf("failed to find record by alias %s", alias)
		return nil, storageErr("find_by_alias", errors.Wrapf(err, "query alias %q", alias))
	}
	return rec, nil
}

// FindByOriginalURL looks a record up by the URL it was registered with.
func (r *GormURLRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error) {
	rec, err := findOne(r.db.WithContext(ctx), "original_url = ?", originalURL)
	if err != nil {
		r.logger.WithError(err).Errorf("failed to find record by original url %s", originalURL)
		return nil, storageErr("find_by_original_url", errors.Wrapf(err, "query original url %q", originalURL))
	}
	return rec, nil
}

// NextIdentifier derives the next id from the current maximum.
func (r *GormURLRepository) NextIdentifier(ctx context.Context) (uint64, error) {
	next, err := nextIdentifier(r.db.WithContext(ctx))
	if err != nil {
		return 0, storageErr("next_identifier", err)
	}
	return next, nil
}

// Insert writes rec with ON CONFLICT DO NOTHING.
func (r *GormURLRepository) Insert(ctx context.Context, rec *models.URL) (bool, error) {
	if err := checkRecord(rec); err != nil {
		return false, err
	}
	inserted, err := insertIfAbsent(r.db.WithContext(ctx), rec)
	if err != nil {
		r.logger.WithError(err).Errorf("failed to insert record %+v", *rec)
		return false, storageErr("insert", err)
	}
	return inserted, nil
}

// Register runs lookup, allocation and insertion in one transaction.
// Within a process the single pooled connection serializes transactions; the retry
// loop covers writers from other processes sharing the same database file.
func (r *GormURLRepository) Register(ctx context.Context, originalURL string, encode EncodeFunc) (*models.URL, bool, error) {
	for attempt := 1; attempt <= maxRegisterAttempts; attempt++ {
		var (
			rec     *models.URL
			created bool
		)
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := findOne(tx, "original_url = ?", originalURL)
			if err != nil {
				return err
			}
			if existing != nil {
				rec = existing
				return nil
			}

			next, err := nextIdentifier(tx)
			if err != nil {
				return err
			}
			candidate := &models.URL{ID: next, Alias: encode(next), OriginalURL: originalURL}
			inserted, err := insertIfAbsent(tx, candidate)
			if err != nil {
				return err
			}
			if inserted {
				rec, created = candidate, true
			}
			return nil
		})
		if err != nil {
			r.logger.WithError(err).Errorf("failed to register %s", originalURL)
			return nil, false, storageErr("register", err)
		}
		if rec != nil {
			return rec, created, nil
		}
		r.logger.Warnf("identifier taken concurrently while registering %s, retrying (%d/%d)", originalURL, attempt, maxRegisterAttempts)
	}
	return nil, false, storageErr("register",
		errors.Errorf("no free identifier for %q after %d attempts", originalURL, maxRegisterAttempts))
}

// List returns stored records ordered by id.
func (r *GormURLRepository) List(ctx context.Context, limit int) ([]models.URL, error) {
	var urls []models.URL
	q := r.db.WithContext(ctx).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&urls).Error; err != nil {
		return nil, storageErr("list", errors.Wrap(err, "failed to retrieve records"))
	}
	return urls, nil
}

// Close releases the underlying connection pool.
func (r *GormURLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return errors.Wrap(err, "get underlying sql database")
	}
	return sqlDB.Close()
}

func findOne(db *gorm.DB, query string, arg string) (*models.URL, error) {
	var rec models.URL
	if err := db.Where(query, arg).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func nextIdentifier(db *gorm.DB) (uint64, error) {
	var highest uint64
	if err := db.Model(&models.URL{}).Select("COALESCE(MAX(id), 0)").Scan(&highest).Error; err != nil {
		return 0, errors.Wrap(err, "select highest id")
	}
	return highest + 1, nil
}

func insertIfAbsent(db *gorm.DB, rec *models.URL) (bool, error) {
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "insert %s -> %s", rec.Alias, rec.OriginalURL)
	}
	return res.RowsAffected > 0, nil
}

// checkRecord enforces the id/alias pairing every stored record carries.
func checkRecord(rec *models.URL) error {
	if rec.ID == 0 {
		return errors.Wrap(customerrors.ErrInvalidAlias, "identifiers start at 1")
	}
	if want := encoder.Encode(rec.ID); rec.Alias != want {
		return errors.Wrapf(customerrors.ErrInvalidAlias, "alias %q does not encode id %d (want %q)", rec.Alias, rec.ID, want)
	}
	return nil
}

func storageErr(op string, err error) error {
	return &customerrors.StorageError{Op: op, Err: err}
}
