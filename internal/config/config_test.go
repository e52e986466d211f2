package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newslens/internal/storage"
)

func writeQueryFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QUERY_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DB_DRIVER", "")
	t.Setenv("NUM_CLUSTERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultQuery, cfg.Query)
	assert.Equal(t, "2024-06-01", cfg.BeginDate.Format("2006-01-02"))
	assert.Equal(t, "2024-06-30", cfg.EndDate.Format("2006-01-02"))
	assert.Equal(t, 5, cfg.NYTMaxPages)
	assert.Equal(t, 50, cfg.GNewsMax)
	assert.Equal(t, 12*time.Second, cfg.NYTRequestInterval)
	assert.Equal(t, 5, cfg.NumClusters)
	assert.Equal(t, int64(42), cfg.ClusterSeed)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, []string{"nyt_articles", "gnews_articles", "feed_articles"}, cfg.Tables())
	assert.Empty(t, cfg.Feeds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUERY_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("NUM_CLUSTERS", "8")
	t.Setenv("NYT_REQUEST_INTERVAL", "1s")
	t.Setenv("CLUSTER_SEED", "7")
	t.Setenv("NYT_TABLE", "nyt_june")
	t.Setenv("DB_DRIVER", "file")
	t.Setenv("DATABASE_URL", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.NumClusters)
	assert.Equal(t, time.Second, cfg.NYTRequestInterval)
	assert.Equal(t, int64(7), cfg.ClusterSeed)
	assert.Equal(t, "nyt_june", cfg.NYTTable)
	assert.Equal(t, DriverFile, cfg.DBDriver)
}

func TestLoad_QueryFile(t *testing.T) {
	path := writeQueryFile(t, `
query: "floods"
begin_date: "2024-05-01"
end_date: "2024-05-31T23:59:59Z"
feeds:
  - url: https://example.com/rss
  - name: Example
    url: https://example.org/atom
    bias: Center
  - name: broken
`)
	t.Setenv("QUERY_CONFIG_PATH", path)
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "floods", cfg.Query)
	assert.Equal(t, "2024-05-01", cfg.BeginDate.Format("2006-01-02"))
	assert.Equal(t, "2024-05-31", cfg.EndDate.Format("2006-01-02"))
	require.Len(t, cfg.Feeds, 2)
	assert.Equal(t, Feed{Name: "https://example.com/rss", URL: "https://example.com/rss", Bias: DefaultFeedBias}, cfg.Feeds[0])
	assert.Equal(t, "Center", cfg.Feeds[1].Bias)
	assert.NoError(t, cfg.ValidateIngest())
}

func TestLoad_InvalidQueryFileDate(t *testing.T) {
	t.Setenv("QUERY_CONFIG_PATH", writeQueryFile(t, `begin_date: "June first"`))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("QUERY_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DB_DRIVER", "")
	cfg, err := Load()
	require.NoError(t, err)

	bad := *cfg
	bad.DBDriver = "mysql"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.BeginDate, bad.EndDate = cfg.EndDate, cfg.BeginDate
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.NumClusters = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.NYTMaxPages = 0
	assert.ErrorContains(t, bad.Validate(), "NYT_MAX_PAGES")

	bad = *cfg
	bad.ClusterSeed = 0
	assert.ErrorContains(t, bad.Validate(), "CLUSTER_SEED")

	bad = *cfg
	bad.NYTTable = "ingest_runs"
	assert.ErrorIs(t, bad.Validate(), storage.ErrInvalidTable)

	bad = *cfg
	bad.FeedTable = "Feed-Articles"
	assert.ErrorIs(t, bad.Validate(), storage.ErrInvalidTable)
}

func TestLoad_RejectsZeroPagesAndSeed(t *testing.T) {
	t.Setenv("QUERY_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DB_DRIVER", "")

	t.Setenv("NYT_MAX_PAGES", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("NYT_MAX_PAGES", "")
	t.Setenv("CLUSTER_SEED", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidateIngest_NeedsASource(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateIngest())

	cfg.GNewsAPIKey = "key"
	assert.NoError(t, cfg.ValidateIngest())
}
