package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"kundali-lab/internal/domain"
)

// ErrNotFound is returned when an archived object does not exist.
var ErrNotFound = errors.New("s3blob: object not found")

// objectAPI is the subset of *s3.Client the archiver calls.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Archiver writes chart payloads and transit history as objects.
//
// Key schema:
//
//	charts/{shortID}.json
//	transits/{YYYY}/{MM}/{DD}/{calculatedAtMs}.jsonl
type Archiver struct {
	api    objectAPI
	bucket string
}

// NewArchiver creates an Archiver on the client's bucket.
func NewArchiver(c *Client) *Archiver {
	return &Archiver{api: c.S3(), bucket: c.Bucket()}
}

// ChartKey returns the object key for a chart.
func ChartKey(shortID string) string {
	return "charts/" + shortID + ".json"
}

// TransitKey returns the object key for a snapshot taken at calculatedAtMs.
func TransitKey(calculatedAtMs int64) string {
	t := time.UnixMilli(calculatedAtMs).UTC()
	return fmt.Sprintf("transits/%04d/%02d/%02d/%d.jsonl", t.Year(), t.Month(), t.Day(), calculatedAtMs)
}

// PutChart uploads a chart's JSON payload.
func (a *Archiver) PutChart(ctx context.Context, shortID string, payload []byte) error {
	if shortID == "" {
		return fmt.Errorf("s3blob: empty short id")
	}
	return a.put(ctx, ChartKey(shortID), payload, "application/json")
}

// GetChart downloads a chart's JSON payload. Returns ErrNotFound if absent.
func (a *Archiver) GetChart(ctx context.Context, shortID string) ([]byte, error) {
	key := ChartKey(shortID)
	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3blob: get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3blob: read object %s: %w", key, err)
	}
	return data, nil
}

// transitLine is one JSONL record.
type transitLine struct {
	CalculatedAtMs int64   `json:"calculated_at_ms"`
	Planet         string  `json:"planet"`
	Longitude      float64 `json:"longitude"`
	Sign           string  `json:"sign"`
	Ayanamsa       float64 `json:"ayanamsa"`
}

// ArchiveTransits writes one snapshot's rows as JSONL and returns the key.
// All points must share the same CalculatedAtMs.
func (a *Archiver) ArchiveTransits(ctx context.Context, points []*domain.TransitPoint) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("s3blob: no transit points")
	}

	ms := points[0].CalculatedAtMs
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range points {
		if p.CalculatedAtMs != ms {
			return "", fmt.Errorf("s3blob: mixed snapshot instants %d and %d", ms, p.CalculatedAtMs)
		}
		line := transitLine{
			CalculatedAtMs: p.CalculatedAtMs,
			Planet:         string(p.Planet),
			Longitude:      p.Longitude,
			Sign:           p.Sign.Name(),
			Ayanamsa:       p.Ayanamsa,
		}
		if err := enc.Encode(line); err != nil {
			return "", fmt.Errorf("s3blob: encode transit row: %w", err)
		}
	}

	key := TransitKey(ms)
	if err := a.put(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return "", err
	}
	return key, nil
}

func (a *Archiver) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3blob: put object %s: %w", key, err)
	}
	return nil
}
