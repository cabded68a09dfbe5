package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	stdsync "sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/quickmark/qrvault/internal/common"
	"github.com/quickmark/qrvault/internal/cryptox"
	"github.com/quickmark/qrvault/internal/logging"
	"github.com/quickmark/qrvault/internal/models"
	"github.com/quickmark/qrvault/internal/repositories/metadata"
	"github.com/quickmark/qrvault/internal/repositories/qrcodes"
	"github.com/quickmark/qrvault/internal/repositories/templates"
	"github.com/quickmark/qrvault/internal/store"
)

// cursorKey is the metadata key holding the change-log position already
// replicated to the container.
const cursorKey = "sync.cursor"

// recordPrefix is the object-key prefix all record envelopes live under.
const recordPrefix = "records/"

// objectAPI is the S3 surface the engine consumes, kept small so tests can
// substitute an in-memory container.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Engine replicates the store to an object-storage container.
type S3Engine struct {
	api    objectAPI
	bucket string
	key    []byte

	store *store.Store
	qr    qrcodes.Repository
	tpl   templates.Repository
	meta  metadata.Repository
	cfg   Config
	log   logging.Logger

	mu     stdsync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Engine = (*S3Engine)(nil)

// NewS3Engine builds an engine talking to the container named in cfg.
// The container key is derived from the passphrase, salted with the
// container name so every device of the account derives the same key.
func NewS3Engine(ctx context.Context, st *store.Store, cfg Config, log logging.Logger) (*S3Engine, error) {
	ac, err := cfg.awsConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cloud config: %w", err)
	}
	client := s3.NewFromConfig(ac, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.Endpoint != ""
	})
	return newEngineWithAPI(st, client, cfg, log), nil
}

func newEngineWithAPI(st *store.Store, api objectAPI, cfg Config, log logging.Logger) *S3Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &S3Engine{
		api:    api,
		bucket: cfg.Container,
		key:    cryptox.DeriveKey([]byte(cfg.Passphrase), []byte(cfg.Container)),
		store:  st,
		qr:     qrcodes.NewSQLiteRepository(st),
		tpl:    templates.NewSQLiteRepository(st),
		meta:   metadata.NewSQLiteRepository(st.DB()),
		cfg:    cfg,
		log:    log,
	}
}

// Start runs pull-then-push cycles on the configured interval until Stop
// or ctx cancellation. Calling Start on a running engine is a no-op.
func (e *S3Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(e.cfg.interval())
		defer ticker.Stop()
		for {
			e.cycle(loopCtx)
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	e.log.Info(ctx, "cloud sync started", "container", e.bucket, "interval", e.cfg.interval().String())
	return nil
}

func (e *S3Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (e *S3Engine) cycle(ctx context.Context) {
	if err := e.Pull(ctx); err != nil && !errors.Is(err, context.Canceled) {
		e.log.Warn(ctx, "sync pull failed", "error", err)
	}
	if err := e.Push(ctx); err != nil && !errors.Is(err, context.Canceled) {
		e.log.Warn(ctx, "sync push failed", "error", err)
	}
}

func objectKey(kind models.Kind, id string) string {
	return path.Join(recordPrefix+string(kind), id)
}

// Push replays change-log entries past the persisted cursor into the
// container. Pulled remote changes re-enter the change log and are pushed
// back once with identical content; the extra upload is harmless and the
// exchange settles.
func (e *S3Engine) Push(ctx context.Context) error {
	cursor, err := e.loadCursor(ctx)
	if err != nil {
		return err
	}

	changes, err := e.store.ChangesSince(ctx, cursor)
	if err != nil {
		return fmt.Errorf("reading change log: %w", err)
	}

	for _, ch := range changes {
		if err := e.pushChange(ctx, ch); err != nil {
			return err
		}
		cursor = ch.Seq
	}

	return e.saveCursor(ctx, cursor)
}

func (e *S3Engine) pushChange(ctx context.Context, ch store.Change) error {
	switch ch.Op {
	case store.OpUpsert:
		env, err := e.loadEnvelope(ctx, ch.Kind, ch.RecordID)
		if errors.Is(err, common.ErrNotFound) {
			// deleted after this log entry, a later entry covers it
			return nil
		}
		if err != nil {
			return err
		}
		return e.putEnvelope(ctx, env)
	case store.OpDelete:
		key := objectKey(ch.Kind, ch.RecordID)
		if _, err := e.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(e.bucket), Key: aws.String(key),
		}); err != nil {
			return fmt.Errorf("deleting object %s: %w", key, err)
		}
		return nil
	case store.OpPurge:
		return e.deletePrefix(ctx, recordPrefix+string(ch.Kind)+"/")
	default:
		return nil
	}
}

func (e *S3Engine) loadEnvelope(ctx context.Context, kind models.Kind, id string) (envelope, error) {
	switch kind {
	case models.KindQR:
		rec, err := e.qr.GetByID(ctx, id)
		if err != nil {
			return envelope{}, err
		}
		return envelopeFromQR(*rec), nil
	case models.KindTemplate:
		rec, err := e.tpl.GetByID(ctx, id)
		if err != nil {
			return envelope{}, err
		}
		return envelopeFromTemplate(*rec), nil
	default:
		return envelope{}, fmt.Errorf("unknown record kind %q", kind)
	}
}

func (e *S3Engine) putEnvelope(ctx context.Context, env envelope) error {
	sealed, err := sealEnvelope(env, e.key)
	if err != nil {
		return err
	}
	key := objectKey(env.Kind, env.ID)
	if _, err := e.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(sealed),
	}); err != nil {
		return fmt.Errorf("uploading object %s: %w", key, err)
	}
	e.log.Debug(ctx, "envelope uploaded", "key", key)
	return nil
}

func (e *S3Engine) deletePrefix(ctx context.Context, prefix string) error {
	keys, err := e.listKeys(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := e.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(e.bucket), Key: aws.String(key),
		}); err != nil {
			return fmt.Errorf("deleting object %s: %w", key, err)
		}
	}
	return nil
}

// Pull fetches every remote envelope and applies the ones newer than
// local state, most-recently-written wins per record. Remote deletions are
// not detected here: removal replicates through the deleting device's
// push, not by diffing listings.
func (e *S3Engine) Pull(ctx context.Context) error {
	keys, err := e.listKeys(ctx, recordPrefix)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := e.pullObject(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (e *S3Engine) pullObject(ctx context.Context, key string) error {
	out, err := e.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.bucket), Key: aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("fetching object %s: %w", key, err)
	}
	defer out.Body.Close()

	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("reading object %s: %w", key, err)
	}

	env, err := openEnvelope(sealed, e.key)
	if err != nil {
		// foreign or corrupt object, skip rather than wedge the cycle
		e.log.Warn(ctx, "skipping unreadable envelope", "key", key, "error", err)
		return nil
	}

	switch env.Kind {
	case models.KindQR:
		local, err := e.qr.GetByID(ctx, env.ID)
		if err == nil && !env.UpdatedAt.After(local.UpdatedAt) {
			return nil
		}
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		return e.qr.Save(ctx, env.qrRecord())
	case models.KindTemplate:
		local, err := e.tpl.GetByID(ctx, env.ID)
		if err == nil && !env.UpdatedAt.After(local.UpdatedAt) {
			return nil
		}
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		return e.tpl.Save(ctx, env.templateRecord())
	default:
		e.log.Warn(ctx, "skipping envelope of unknown kind", "key", key, "kind", string(env.Kind))
		return nil
	}
}

func (e *S3Engine) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := e.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(e.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("listing container: %w", err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}

func (e *S3Engine) loadCursor(ctx context.Context) (int64, error) {
	raw, err := e.meta.Get(ctx, cursorKey)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt sync cursor %q: %w", raw, err)
	}
	return cursor, nil
}

func (e *S3Engine) saveCursor(ctx context.Context, cursor int64) error {
	return e.meta.Set(ctx, cursorKey, []byte(strconv.FormatInt(cursor, 10)))
}
