package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

const accessDeniedBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`

// fakeBucket serves path-style GetObject requests for one bucket
type fakeBucket struct {
	mu      sync.Mutex
	name    string
	objects map[string]string
	denied  map[string]bool
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := strings.CutPrefix(r.URL.Path, "/"+b.name+"/")
	if !ok || r.Method != http.MethodGet {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	if b.denied[key] {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(accessDeniedBody))
		return
	}
	body, ok := b.objects[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(noSuchKeyBody))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	_, _ = w.Write([]byte(body))
}

func (b *fakeBucket) put(key, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = body
}

func (b *fakeBucket) deny(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.denied[key] = true
}

func newFakeBucketSource(t *testing.T, kind Kind) (*S3ItemSource, *fakeBucket) {
	t.Helper()

	bucket := &fakeBucket{name: "retreat-items", objects: map[string]string{}, denied: map[string]bool{}}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	client, err := NewS3Client(context.Background(), &config.StorageConfig{
		Endpoint:     server.URL,
		Region:       "us-east-1",
		Bucket:       bucket.name,
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	})
	require.NoError(t, err)

	return NewS3ItemSource(client, bucket.name, "/imports/", kind, zaptest.NewLogger(t)), bucket
}

func TestNewS3Client_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3Client(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is required")

	_, err = NewS3Client(ctx, &config.StorageConfig{AccessKey: "k", SecretKey: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")

	_, err = NewS3Client(ctx, &config.StorageConfig{Bucket: "b", SecretKey: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access key is required")

	_, err = NewS3Client(ctx, &config.StorageConfig{Bucket: "b", AccessKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key is required")

	client, err := NewS3Client(ctx, &config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "minio:9000"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestS3ItemSource_Key(t *testing.T) {
	id := uuid.MustParse("7f0c3c2e-4d55-4a43-9f3e-2a1f6f1f4b10")
	src := NewS3ItemSource(nil, "b", "/imports/", KindOthers, nil)
	assert.Equal(t, "imports/7f0c3c2e-4d55-4a43-9f3e-2a1f6f1f4b10.others.csv", src.Key(id))

	bare := NewS3ItemSource(nil, "b", "", KindSupplies, nil)
	assert.Equal(t, "7f0c3c2e-4d55-4a43-9f3e-2a1f6f1f4b10.supplies.csv", bare.Key(id))
}

func TestS3ItemSource_ItemAllocations(t *testing.T) {
	ctx := context.Background()
	src, bucket := newFakeBucketSource(t, KindSupplies)
	reservationID := uuid.New()

	bucket.put(src.Key(reservationID), "name,unit_price,quantity,total\n"+
		"Clay,3000,5,15000\n"+
		"Glaze,\"1,500\",2,\"3,000\"\n")

	t.Run("reads the object", func(t *testing.T) {
		items, err := src.ItemAllocations(ctx, reservationID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Clay", items[0].Name)
		assert.True(t, decimal.NewFromInt(1500).Equal(items[1].UnitPrice))
		assert.True(t, decimal.NewFromInt(3000).Equal(items[1].Total))
	})

	t.Run("missing object has no items", func(t *testing.T) {
		items, err := src.ItemAllocations(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("bad amount names the object and line", func(t *testing.T) {
		id := uuid.New()
		bucket.put(src.Key(id), "name,unit_price,quantity,total\nClay,abc,1,3000\n")

		_, err := src.ItemAllocations(ctx, id)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "s3://retreat-items/")
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("access errors are returned", func(t *testing.T) {
		id := uuid.New()
		bucket.deny(src.Key(id))

		_, err := src.ItemAllocations(ctx, id)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get supplies object")
	})
}
