package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/signalhub/internal/config"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartArchive_SaveAndEntries(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	a := NewChartArchive(fs)
	day := time.Date(2024, 5, 25, 15, 4, 0, 0, time.UTC)
	a.now = func() time.Time { return day }
	ctx := context.Background()

	result := core.AnalysisResult{
		Patterns:        []string{"Bandeira de Alta"},
		Trend:           "Alta",
		Indicators:      core.Indicators{RSI: "62 - neutro", Volume: "Crescente"},
		Recommendation:  core.RecommendationBuy,
		ConfidenceScore: 78,
		Summary:         "Rompimento confirmado.",
	}

	entry, err := a.Save(ctx, []byte("png-bytes"), "image/png", "gemini", result)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(entry.ImageKey, "charts/2024/05/25/"))
	assert.True(t, strings.HasSuffix(entry.ImageKey, ".png"))

	exists, err := fs.Exists(ctx, "charts/2024/05/25/"+entry.ID+".json")
	require.NoError(t, err)
	assert.True(t, exists)

	entries, err := a.Entries(ctx, day)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, result, entries[0].Result)
	assert.Equal(t, "gemini", entries[0].Provider)

	img, err := a.Image(ctx, entries[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), img)

	none, err := a.Entries(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, none)
}

type failingStore struct{ Store }

func (failingStore) Put(context.Context, string, []byte, string) error {
	return errors.New("disk full")
}

func TestChartArchive_SaveFailure(t *testing.T) {
	a := NewChartArchive(failingStore{})

	_, err := a.Save(context.Background(), []byte("x"), "image/png", "gemini", core.AnalysisResult{})
	assert.True(t, errors.Is(err, core.ErrArchiveFailed))
}

func TestNew(t *testing.T) {
	a, err := New(config.ArchiveConfig{})
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = New(config.ArchiveConfig{Type: "localfs", Path: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, a)

	a, err = New(config.ArchiveConfig{Type: "s3", S3: config.S3Config{Bucket: "b"}})
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = New(config.ArchiveConfig{Type: "ftp"})
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "png", Extension("image/png"))
	assert.Equal(t, "jpg", Extension("image/jpeg"))
	assert.Equal(t, "webp", Extension("IMAGE/WEBP"))
	assert.Equal(t, "bin", Extension("application/pdf"))
}
