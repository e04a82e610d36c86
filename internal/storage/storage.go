// Package storage opens the settings backend selected in config and returns
// it as a metadata.Repository. SQL backends are migrated on open.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/safecheck/internal/config"
	"github.com/dmitrijs2005/safecheck/internal/filex"
	"github.com/dmitrijs2005/safecheck/internal/migrations"
	"github.com/dmitrijs2005/safecheck/internal/repositories/metadata"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ObjectAPI = func(cfg aws.Config, optFns ...func(*s3.Options)) metadata.ObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}

	// goose keeps its dialect and FS in package globals.
	gooseMu sync.Mutex
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// Open connects to the backend named by cfg.StoreDriver. The returned Closer
// releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config) (metadata.Repository, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		return openSQLite(ctx, cfg.SQLitePath)
	case config.StorePostgres:
		return openPostgres(ctx, cfg.PostgresDSN)
	case config.StoreRedis:
		return openRedis(ctx, cfg)
	case config.StoreS3:
		return openS3(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// RunMigrations applies the embedded migrations in dir using the goose dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func openSQLite(ctx context.Context, path string) (metadata.Repository, io.Closer, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single writer keeps :memory: databases on one connection
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db, "sqlite3", migrations.SQLiteDir); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return metadata.NewSQLiteRepository(db), db, nil
}

func openPostgres(ctx context.Context, dsn string) (metadata.Repository, io.Closer, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := RunMigrations(ctx, db, "postgres", migrations.PostgresDir); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, nil, err
	}
	_ = db.Close()

	return metadata.NewPostgresRepository(pool), closerFunc(func() error {
		pool.Close()
		return nil
	}), nil
}

func openRedis(ctx context.Context, cfg *config.Config) (metadata.Repository, io.Closer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	return metadata.NewRedisRepository(client, cfg.RedisKeyPrefix), client, nil
}

func openS3(ctx context.Context, cfg *config.Config) (metadata.Repository, io.Closer, error) {
	if cfg.S3Bucket == "" {
		return nil, nil, fmt.Errorf("s3 store requires a bucket")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config: %w", err)
	}

	api := newS3ObjectAPI(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return metadata.NewS3Repository(api, cfg.S3Bucket, cfg.S3Key), nopCloser, nil
}
