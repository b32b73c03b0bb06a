package secrets

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterStore is the slice of the SSM API the provider needs.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

var _ ParameterStore = (*ssm.Client)(nil)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Provider resolves secrets from SSM Parameter Store behind a process-scoped
// TTL cache. Entries are refreshed strictly on expiry; there is no
// content-based invalidation. A lookup failure is returned as-is; callers
// must fail closed rather than fall back to a default secret.
type Provider struct {
	client ParameterStore
	prefix string
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewProvider(client ParameterStore, prefix string, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Provider{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the decrypted value for name, e.g. "paypal_client_id" under
// the configured prefix.
func (p *Provider) Get(ctx context.Context, name string) (string, error) {
	p.mu.RLock()
	entry, ok := p.entries[name]
	p.mu.RUnlock()

	if ok && p.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	fullName := path.Join(p.prefix, name)
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(fullName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve parameter %s: %w", fullName, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", fullName)
	}

	value := *out.Parameter.Value

	p.mu.Lock()
	p.entries[name] = cacheEntry{value: value, expiresAt: p.now().Add(p.ttl)}
	p.mu.Unlock()

	return value, nil
}
