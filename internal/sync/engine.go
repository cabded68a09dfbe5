// Package sync replicates the local store to a cloud container so a
// user's devices converge on the same records. The engine observes the
// store's change log, ships sealed record envelopes to object storage, and
// applies newer remote envelopes back through the repositories (which
// republish on the notification hub, so the search index follows remote
// changes too).
//
// Consistency is eventual: a read immediately after a remote-originated
// write may not observe it. No retries live here; a failed cycle logs and
// waits for the next interval.
package sync

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Engine is the cloud-replication capability. Like the search indexer it
// is selected at startup: S3-backed when a cloud account is available,
// no-op otherwise (and always no-op for in-memory stores).
type Engine interface {
	// Start runs the pull/push loop until ctx cancellation or Stop.
	Start(ctx context.Context) error

	// Stop halts the loop and waits for the current cycle to finish.
	Stop()

	// Push uploads local changes past the persisted cursor.
	Push(ctx context.Context) error

	// Pull applies remote envelopes that are newer than local state.
	Pull(ctx context.Context) error
}

// Config identifies the cloud container and how to reach it.
type Config struct {
	// Container is the bucket all devices of the account share.
	Container string

	Region   string
	Endpoint string // optional, for MinIO-style deployments

	// Static credentials; when empty the default AWS chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// Passphrase seals envelopes before upload. The key is derived per
	// container, so all devices of the account decrypt each other's
	// uploads.
	Passphrase string

	// Interval is the pull/push cadence. Zero means 30 seconds.
	Interval time.Duration
}

func (c Config) interval() time.Duration {
	if c.Interval <= 0 {
		return 30 * time.Second
	}
	return c.Interval
}

func (c Config) awsConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if c.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// AccountAvailable reports the externally-observable "cloud account
// present" signal: the container is named and credentials resolve on the
// configured chain.
func AccountAvailable(ctx context.Context, cfg Config) bool {
	if cfg.Container == "" {
		return false
	}
	ac, err := cfg.awsConfig(ctx)
	if err != nil {
		return false
	}
	_, err = ac.Credentials.Retrieve(ctx)
	return err == nil
}

// NoopEngine is the replication-off implementation.
type NoopEngine struct{}

func NewNoopEngine() *NoopEngine { return &NoopEngine{} }

func (*NoopEngine) Start(context.Context) error { return nil }
func (*NoopEngine) Stop()                       {}
func (*NoopEngine) Push(context.Context) error  { return nil }
func (*NoopEngine) Pull(context.Context) error  { return nil }
