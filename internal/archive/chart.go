package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/signalhub/internal/config"
	"github.com/newthinker/signalhub/internal/core"
)

// ChartPrefix is the key prefix of archived charts.
const ChartPrefix = "charts"

// ChartEntry is the JSON document stored next to an archived chart.
type ChartEntry struct {
	ID         string              `json:"id"`
	ImageKey   string              `json:"imageKey"`
	MIMEType   string              `json:"mimeType"`
	Provider   string              `json:"provider"`
	AnalyzedAt time.Time           `json:"analyzedAt"`
	Result     core.AnalysisResult `json:"result"`
}

// ChartArchive stores chart images with their analysis under
// charts/YYYY/MM/DD/<id>.<ext> and charts/YYYY/MM/DD/<id>.json.
type ChartArchive struct {
	store Store
	now   func() time.Time
}

// NewChartArchive wraps store.
func NewChartArchive(store Store) *ChartArchive {
	return &ChartArchive{store: store, now: time.Now}
}

// New builds the chart archive selected by cfg. An empty type disables
// archiving and returns nil.
func New(cfg config.ArchiveConfig) (*ChartArchive, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		s, err = NewLocalFS(cfg.Path)
	case "s3":
		s, err = NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type: %s", cfg.Type))
	}
	if err != nil {
		return nil, err
	}
	return NewChartArchive(s), nil
}

// Save writes the image and its analysis. The JSON document is written
// last so that a listed entry always has its image.
func (a *ChartArchive) Save(ctx context.Context, image []byte, mimeType, provider string, result core.AnalysisResult) (*ChartEntry, error) {
	now := a.now().UTC()
	id := uuid.NewString()
	dir := DayPrefix(now)

	entry := &ChartEntry{
		ID:         id,
		ImageKey:   path.Join(dir, id+"."+Extension(mimeType)),
		MIMEType:   mimeType,
		Provider:   provider,
		AnalyzedAt: now,
		Result:     result,
	}

	if err := a.store.Put(ctx, entry.ImageKey, image, mimeType); err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("writing image: %w", err))
	}

	doc, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}
	if err := a.store.Put(ctx, path.Join(dir, id+".json"), doc, "application/json"); err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("writing analysis: %w", err))
	}
	return entry, nil
}

// Entries returns the analyses archived on day.
func (a *ChartArchive) Entries(ctx context.Context, day time.Time) ([]ChartEntry, error) {
	keys, err := a.store.List(ctx, DayPrefix(day))
	if err != nil {
		return nil, err
	}

	entries := []ChartEntry{}
	for _, k := range keys {
		if !strings.HasSuffix(k, ".json") {
			continue
		}
		data, err := a.store.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", k, err)
		}
		var e ChartEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", k, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Image returns the archived image of entry.
func (a *ChartArchive) Image(ctx context.Context, entry ChartEntry) ([]byte, error) {
	return a.store.Get(ctx, entry.ImageKey)
}

// DayPrefix returns the key prefix for charts analysed on t.
func DayPrefix(t time.Time) string {
	return path.Join(ChartPrefix, t.UTC().Format("2006/01/02"))
}

// Extension maps an image MIME type to a file extension.
func Extension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "bin"
	}
}
