package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	stdsync "sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/quickmark/qrvault/internal/common"
	"github.com/quickmark/qrvault/internal/models"
	"github.com/quickmark/qrvault/internal/repositories/qrcodes"
	"github.com/quickmark/qrvault/internal/repositories/templates"
	"github.com/quickmark/qrvault/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContainer is an in-memory stand-in for the S3 container.
type fakeContainer struct {
	mu      stdsync.Mutex
	objects map[string][]byte
	puts    int
}

func newFakeContainer() *fakeContainer {
	return &fakeContainer{objects: make(map[string][]byte)}
}

func (f *fakeContainer) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = body
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeContainer) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, fmt.Errorf("no such key %s", aws.ToString(in.Key))
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeContainer) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeContainer) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	prefix := aws.ToString(in.Prefix)
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func (f *fakeContainer) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

func (f *fakeContainer) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

func testConfig() Config {
	return Config{Container: "qrvault-test", Passphrase: "passphrase", Interval: time.Hour}
}

func newDevice(t *testing.T, container *fakeContainer) (*store.Store, *S3Engine) {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, newEngineWithAPI(st, container, testConfig(), nil)
}

func insertQR(t *testing.T, st *store.Store, id, title string) {
	t.Helper()
	repo := qrcodes.NewSQLiteRepository(st)
	require.NoError(t, repo.Insert(context.Background(), &models.QRRecord{
		ID: id, Title: title, Design: []byte(`{"size":1,"modules":[true]}`),
	}))
}

func TestPush_UploadsSealedEnvelopes(t *testing.T) {
	container := newFakeContainer()
	st, engine := newDevice(t, container)
	ctx := context.Background()

	insertQR(t, st, "q1", "Uploaded")
	require.NoError(t, engine.Push(ctx))

	keys := container.keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "records/qr/q1", keys[0])

	// the object is ciphertext; it opens only with the container key
	env, err := openEnvelope(container.objects["records/qr/q1"], engine.key)
	require.NoError(t, err)
	assert.Equal(t, "Uploaded", env.Title)
	assert.Equal(t, models.KindQR, env.Kind)
}

func TestPush_CursorPreventsReupload(t *testing.T) {
	container := newFakeContainer()
	st, engine := newDevice(t, container)
	ctx := context.Background()

	insertQR(t, st, "q1", "Once")
	require.NoError(t, engine.Push(ctx))
	first := container.putCount()

	require.NoError(t, engine.Push(ctx))
	assert.Equal(t, first, container.putCount(), "nothing new to push")

	insertQR(t, st, "q2", "Twice")
	require.NoError(t, engine.Push(ctx))
	assert.Equal(t, first+1, container.putCount())
}

func TestPush_PropagatesDeletes(t *testing.T) {
	container := newFakeContainer()
	st, engine := newDevice(t, container)
	ctx := context.Background()

	insertQR(t, st, "gone", "Doomed")
	require.NoError(t, engine.Push(ctx))
	require.Len(t, container.keys(), 1)

	repo := qrcodes.NewSQLiteRepository(st)
	require.NoError(t, repo.DeleteByID(ctx, "gone"))
	require.NoError(t, engine.Push(ctx))
	assert.Empty(t, container.keys())
}

func TestPush_PurgeClearsKindPrefix(t *testing.T) {
	container := newFakeContainer()
	st, engine := newDevice(t, container)
	ctx := context.Background()

	insertQR(t, st, "a", "A")
	insertQR(t, st, "b", "B")
	tplRepo := templates.NewSQLiteRepository(st)
	require.NoError(t, tplRepo.Insert(ctx, &models.TemplateRecord{ID: "t", Title: "T"}))
	require.NoError(t, engine.Push(ctx))
	require.Len(t, container.keys(), 3)

	qrRepo := qrcodes.NewSQLiteRepository(st)
	require.NoError(t, qrRepo.DeleteAll(ctx))
	require.NoError(t, engine.Push(ctx))

	keys := container.keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "records/template/t", keys[0])
}

func TestPull_AppliesRemoteRecords(t *testing.T) {
	container := newFakeContainer()

	// device A pushes, device B pulls
	stA, engineA := newDevice(t, container)
	insertQR(t, stA, "shared", "From device A")
	require.NoError(t, engineA.Push(context.Background()))

	stB, engineB := newDevice(t, container)
	require.NoError(t, engineB.Pull(context.Background()))

	got, err := qrcodes.NewSQLiteRepository(stB).GetByID(context.Background(), "shared")
	require.NoError(t, err)
	assert.Equal(t, "From device A", got.Title)
}

func TestPull_LastWriterWins(t *testing.T) {
	container := newFakeContainer()
	st, engine := newDevice(t, container)
	ctx := context.Background()
	repo := qrcodes.NewSQLiteRepository(st)

	// local record, updated now
	insertQR(t, st, "contested", "Local title")

	// remote envelope with an older update loses
	older := envelope{
		Kind: models.KindQR, ID: "contested", Title: "Stale remote",
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		ViewedAt:  time.Now().UTC().Add(-2 * time.Hour),
		UpdatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	sealed, err := sealEnvelope(older, engine.key)
	require.NoError(t, err)
	container.objects["records/qr/contested"] = sealed

	require.NoError(t, engine.Pull(ctx))
	got, err := repo.GetByID(ctx, "contested")
	require.NoError(t, err)
	assert.Equal(t, "Local title", got.Title)

	// a newer remote envelope wins
	newer := older
	newer.Title = "Fresh remote"
	newer.UpdatedAt = time.Now().UTC().Add(time.Hour)
	sealed, err = sealEnvelope(newer, engine.key)
	require.NoError(t, err)
	container.objects["records/qr/contested"] = sealed

	require.NoError(t, engine.Pull(ctx))
	got, err = repo.GetByID(ctx, "contested")
	require.NoError(t, err)
	assert.Equal(t, "Fresh remote", got.Title)
}

func TestPull_SkipsUnreadableObjects(t *testing.T) {
	container := newFakeContainer()
	st, engine := newDevice(t, container)
	ctx := context.Background()

	container.objects["records/qr/garbage"] = []byte("not an envelope")

	require.NoError(t, engine.Pull(ctx))

	_, err := qrcodes.NewSQLiteRepository(st).GetByID(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPull_RemoteChangesReachTheIndexViaHub(t *testing.T) {
	container := newFakeContainer()

	stA, engineA := newDevice(t, container)
	insertQR(t, stA, "observed", "Remote origin")
	require.NoError(t, engineA.Push(context.Background()))

	stB, engineB := newDevice(t, container)
	ch, cancel := stB.Subscribe(8)
	defer cancel()

	require.NoError(t, engineB.Pull(context.Background()))

	select {
	case got := <-ch:
		assert.Equal(t, "observed", got.RecordID)
		assert.Equal(t, store.OpUpsert, got.Op)
	case <-time.After(time.Second):
		t.Fatal("pull must publish on the notification hub")
	}
}

func TestStartStop_RunsCycles(t *testing.T) {
	container := newFakeContainer()
	st, engine := newDevice(t, container)
	ctx := context.Background()

	insertQR(t, st, "looped", "From the loop")

	require.NoError(t, engine.Start(ctx))
	require.NoError(t, engine.Start(ctx)) // idempotent

	require.Eventually(t, func() bool {
		return len(container.keys()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	engine.Stop()
	engine.Stop()
}

func TestNoopEngine(t *testing.T) {
	engine := NewNoopEngine()
	ctx := context.Background()

	require.NoError(t, engine.Start(ctx))
	require.NoError(t, engine.Push(ctx))
	require.NoError(t, engine.Pull(ctx))
	engine.Stop()
}
