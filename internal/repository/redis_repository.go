package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	customerrors "github.com/axellelanca/pitico/internal/errors"
	"github.com/axellelanca/pitico/internal/models"
)

// insertScript writes a record only when none of its alias, original URL or id
// keys exist, and raises the sequence to the inserted id.
//
// KEYS: alias hash, url key, id key, sequence, ids sorted set
// ARGV: id, alias, original url, created at
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1], KEYS[2], KEYS[3]) > 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'alias', ARGV[2], 'original_url', ARGV[3], 'created_at', ARGV[4])
redis.call('SET', KEYS[2], ARGV[2])
redis.call('SET', KEYS[3], ARGV[2])
redis.call('ZADD', KEYS[5], ARGV[1], ARGV[2])
local seq = tonumber(redis.call('GET', KEYS[4]) or '0')
if tonumber(ARGV[1]) > seq then
	redis.call('SET', KEYS[4], ARGV[1])
end
return 1
`)

// maxTxAttempts bounds the optimistic transaction retries of Register.
const maxTxAttempts = 100

// reader is the read surface shared by *redis.Client and *redis.Tx.
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// RedisOptions configures OpenRedis.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisURLRepository is a URLRepository over Redis.
//
// Layout under the key prefix:
//
//	{p}:seq            highest stored id
//	{p}:alias:{alias}  hash with id, alias, original_url, created_at
//	{p}:url:{url}      alias of the original url
//	{p}:id:{id}        alias of the id
//	{p}:ids            sorted set of aliases scored by id
type RedisURLRepository struct {
	client *redis.Client
	prefix string
	logger *logrus.Entry
}

var _ URLRepository = (*RedisURLRepository)(nil)

// OpenRedis connects to Redis and checks the connection with a PING.
func OpenRedis(opts RedisOptions, logger *logrus.Logger) (*RedisURLRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,

		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(customerrors.ErrStorageUnavailable, "connect to redis at %s: %v", opts.Addr, err)
	}

	return NewRedisURLRepository(client, opts.KeyPrefix, logger), nil
}

// NewRedisURLRepository wraps an existing client.
func NewRedisURLRepository(client *redis.Client, prefix string, logger *logrus.Logger) *RedisURLRepository {
	if prefix == "" {
		prefix = "pitico"
	}
	return &RedisURLRepository{
		client: client,
		prefix: prefix,
		logger: logger.WithField("module", "repository/redis"),
	}
}

func (r *RedisURLRepository) seqKey() string { return r.prefix + ":seq" }

func (r *RedisURLRepository) idsKey() string { return r.prefix + ":ids" }

func (r *RedisURLRepository) aliasKey(alias string) string { return r.prefix + ":alias:" + alias }

func (r *RedisURLRepository) urlKey(originalURL string) string { return r.prefix + ":url:" + originalURL }

func (r *RedisURLRepository) idKey(id uint64) string {
	return r.prefix + ":id:" + strconv.FormatUint(id, 10)
}

// FindByAlias reads the record hash of alias.
func (r *RedisURLRepository) FindByAlias(ctx context.Context, alias string) (*models.URL, error) {
	rec, err := r.load(ctx, alias)
	if err != nil {
		r.logger.WithError(err).Errorf("failed to find record by alias %s", alias)
		return nil, storageErr("find_by_alias", err)
	}
	return rec, nil
}

// FindByOriginalURL follows the url key to the record hash.
func (r *RedisURLRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error) {
	rec, err := r.findByOriginalURL(ctx, originalURL)
	if err != nil {
		r.logger.WithError(err).Errorf("failed to find record by original url %s", originalURL)
		return nil, storageErr("find_by_original_url", err)
	}
	return rec, nil
}

func (r *RedisURLRepository) findByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error) {
	return r.findByOriginalURLWith(ctx, r.client, originalURL)
}

func (r *RedisURLRepository) findByOriginalURLWith(ctx context.Context, c reader, originalURL string) (*models.URL, error) {
	alias, err := c.Get(ctx, r.urlKey(originalURL)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get alias of %q", originalURL)
	}
	return r.loadWith(ctx, c, alias)
}

// NextIdentifier returns the sequence value plus one.
func (r *RedisURLRepository) NextIdentifier(ctx context.Context) (uint64, error) {
	highest, err := r.client.Get(ctx, r.seqKey()).Uint64()
	if errors.Is(err, redis.Nil) {
		return 1, nil
	}
	if err != nil {
		return 0, storageErr("next_identifier", errors.Wrap(err, "get sequence"))
	}
	return highest + 1, nil
}

// Insert runs the conditional insert script.
func (r *RedisURLRepository) Insert(ctx context.Context, rec *models.URL) (bool, error) {
	if err := checkRecord(rec); err != nil {
		return false, err
	}
	inserted, err := r.insert(ctx, rec)
	if err != nil {
		r.logger.WithError(err).Errorf("failed to insert record %+v", *rec)
		return false, storageErr("insert", err)
	}
	return inserted, nil
}

func (r *RedisURLRepository) insert(ctx context.Context, rec *models.URL) (bool, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	keys := []string{r.aliasKey(rec.Alias), r.urlKey(rec.OriginalURL), r.idKey(rec.ID), r.seqKey(), r.idsKey()}
	n, err := insertScript.Run(ctx, r.client, keys,
		strconv.FormatUint(rec.ID, 10), rec.Alias, rec.OriginalURL, rec.CreatedAt.Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return false, errors.Wrapf(err, "insert %s -> %s", rec.Alias, rec.OriginalURL)
	}
	return n == 1, nil
}

// Register looks the URL up, reads the sequence and writes the new record in one
// optimistic transaction watching the url key and the sequence. The sequence only
// moves when a record is written, so it stays equal to the highest stored id.
// A lost race on the original URL returns the winner's record.
func (r *RedisURLRepository) Register(ctx context.Context, originalURL string, encode EncodeFunc) (*models.URL, bool, error) {
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		var (
			rec     *models.URL
			created bool
		)
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			existing, err := r.findByOriginalURLWith(ctx, tx, originalURL)
			if err != nil {
				return err
			}
			if existing != nil {
				rec = existing
				return nil
			}

			highest, err := tx.Get(ctx, r.seqKey()).Uint64()
			if err != nil && !errors.Is(err, redis.Nil) {
				return errors.Wrap(err, "get sequence")
			}
			next := highest + 1
			candidate := &models.URL{ID: next, Alias: encode(next), OriginalURL: originalURL, CreatedAt: time.Now().UTC()}

			taken, err := tx.Exists(ctx, r.aliasKey(candidate.Alias), r.idKey(next)).Result()
			if err != nil {
				return errors.Wrap(err, "check identifier")
			}
			if taken > 0 {
				return errors.Errorf("identifier %d already stored above sequence %d", next, highest)
			}

			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.HSet(ctx, r.aliasKey(candidate.Alias),
					"id", strconv.FormatUint(next, 10),
					"alias", candidate.Alias,
					"original_url", originalURL,
					"created_at", candidate.CreatedAt.Format(time.RFC3339Nano),
				)
				p.Set(ctx, r.urlKey(originalURL), candidate.Alias, 0)
				p.Set(ctx, r.idKey(next), candidate.Alias, 0)
				p.ZAdd(ctx, r.idsKey(), redis.Z{Score: float64(next), Member: candidate.Alias})
				p.Set(ctx, r.seqKey(), next, 0)
				return nil
			})
			if err != nil {
				return err
			}
			rec, created = candidate, true
			return nil
		}, r.urlKey(originalURL), r.seqKey())

		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debugf("concurrent write while registering %s, retrying (%d/%d)", originalURL, attempt, maxTxAttempts)
			continue
		}
		if err != nil {
			r.logger.WithError(err).Errorf("failed to register %s", originalURL)
			return nil, false, storageErr("register", err)
		}
		return rec, created, nil
	}
	return nil, false, storageErr("register",
		errors.Errorf("too much contention registering %q after %d attempts", originalURL, maxTxAttempts))
}

// List reads aliases from the ids sorted set, then their hashes in one pipeline.
func (r *RedisURLRepository) List(ctx context.Context, limit int) ([]models.URL, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	aliases, err := r.client.ZRange(ctx, r.idsKey(), 0, stop).Result()
	if err != nil {
		return nil, storageErr("list", errors.Wrap(err, "read ids"))
	}

	cmds := make([]*redis.MapStringStringCmd, len(aliases))
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, alias := range aliases {
			cmds[i] = p.HGetAll(ctx, r.aliasKey(alias))
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("list", errors.Wrap(err, "read records"))
	}

	urls := make([]models.URL, 0, len(aliases))
	for _, cmd := range cmds {
		rec, err := decodeHash(cmd.Val())
		if err != nil {
			return nil, storageErr("list", err)
		}
		if rec != nil {
			urls = append(urls, *rec)
		}
	}
	return urls, nil
}

// Close closes the client.
func (r *RedisURLRepository) Close() error {
	return r.client.Close()
}

func (r *RedisURLRepository) load(ctx context.Context, alias string) (*models.URL, error) {
	return r.loadWith(ctx, r.client, alias)
}

func (r *RedisURLRepository) loadWith(ctx context.Context, c reader, alias string) (*models.URL, error) {
	fields, err := c.HGetAll(ctx, r.aliasKey(alias)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "read record %q", alias)
	}
	return decodeHash(fields)
}

func decodeHash(fields map[string]string) (*models.URL, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	id, err := strconv.ParseUint(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt id %q for alias %q: %w", fields["id"], fields["alias"], err)
	}
	rec := &models.URL{
		ID:          id,
		Alias:       fields["alias"],
		OriginalURL: fields["original_url"],
	}
	if ts := fields["created_at"]; ts != "" {
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("corrupt created_at %q for alias %q: %w", ts, rec.Alias, err)
		}
	}
	return rec, nil
}
