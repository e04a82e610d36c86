package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/safecheck/internal/config"
	"github.com/dmitrijs2005/safecheck/internal/repositories/metadata"
)

func baseConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func TestOpen_SQLiteMigratesAndPersists(t *testing.T) {
	cfg := baseConfig()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "safecheck.db")
	ctx := context.Background()

	repo, closer, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, repo.SetMany(ctx, map[string][]byte{"has_seen_welcome": []byte("true")}))
	require.NoError(t, closer.Close())

	// reopening re-runs migrations without touching data
	repo, closer, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer closer.Close()

	v, err := repo.Get(ctx, "has_seen_welcome")
	require.NoError(t, err)
	assert.Equal(t, []byte("true"), v)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.StoreDriver = config.StoreRedis
	cfg.RedisAddr = mr.Addr()
	ctx := context.Background()

	repo, closer, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer closer.Close()

	require.NoError(t, repo.SetMany(ctx, map[string][]byte{"app_state": []byte("{}")}))
	assert.True(t, mr.Exists(cfg.RedisKeyPrefix+"app_state"))
}

func TestOpen_RedisUnreachable(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreDriver = config.StoreRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, _, err := Open(context.Background(), cfg)
	require.ErrorContains(t, err, "connect redis")
}

type stubObjects struct{ metadata.ObjectAPI }

func TestOpen_S3UsesEndpointAndCredentials(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ObjectAPI
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ObjectAPI = origLoad, origNew })

	var loadOpts int
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		loadOpts = len(optFns)
		return aws.Config{}, nil
	}
	var got s3.Options
	newS3ObjectAPI = func(cfg aws.Config, optFns ...func(*s3.Options)) metadata.ObjectAPI {
		for _, fn := range optFns {
			fn(&got)
		}
		return stubObjects{}
	}

	cfg := baseConfig()
	cfg.StoreDriver = config.StoreS3
	cfg.S3Bucket = "alerts"
	cfg.S3BaseEndpoint = "http://localhost:9000"
	cfg.S3AccessKey = "minio"
	cfg.S3SecretKey = "minio123"

	repo, closer, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	assert.IsType(t, &metadata.S3Repository{}, repo)
	assert.Equal(t, 2, loadOpts)
	require.NotNil(t, got.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *got.BaseEndpoint)
	assert.True(t, got.UsePathStyle)
}

func TestOpen_S3Errors(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreDriver = config.StoreS3

	_, _, err := Open(context.Background(), cfg)
	require.ErrorContains(t, err, "bucket")

	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	}
	cfg.S3Bucket = "alerts"
	_, _, err = Open(context.Background(), cfg)
	require.ErrorContains(t, err, "load aws config")
}

func TestOpen_PostgresBadDSN(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreDriver = config.StorePostgres
	cfg.PostgresDSN = "postgres://user@localhost:notaport/db"

	_, _, err := Open(context.Background(), cfg)
	require.ErrorContains(t, err, "open postgres")
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreDriver = "etcd"

	_, _, err := Open(context.Background(), cfg)
	require.Error(t, err)
}
