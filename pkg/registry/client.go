package registry

import (
	"context"
	"io"
	"sync"

	"preflight/pkg/api"
	"preflight/pkg/throttle"

	"golang.org/x/sync/singleflight"
)

const keysPath = "/-/npm/v1/keys"

type client struct {
	rest     *api.RESTClient
	throttle *throttle.Throttle
	verifier Verifier

	group      singleflight.Group
	mu         sync.RWMutex
	packuments map[string]*Packument

	keysOnce sync.Once
	keys     KeySet
	keysErr  error
}

// Client is the trust client used to communicate with a package registry.
// Packuments are cached per name for the life of the client, the signing key
// set is fetched once and shared read-only, and every outbound call goes
// through the shared throttle.
type Client interface {
	// Packument fetches the metadata document for a package. Concurrent
	// requests for the same name share one in-flight fetch.
	Packument(ctx context.Context, name string) (*Packument, error)

	// Manifest resolves a version specifier and narrows the packument to
	// that concrete version.
	Manifest(ctx context.Context, name, specifier string) (*Manifest, error)

	// SigningKeys returns the registry's signing key set, fetched at most
	// once per process.
	SigningKeys(ctx context.Context) (KeySet, error)

	// VerifyManifestSignatures fetches the key set and verifies the
	// manifest's registry signatures.
	VerifyManifestSignatures(ctx context.Context, m *Manifest) (*Manifest, error)

	// VerifyManifestAttestations fetches and verifies the manifest's
	// build attestation bundles. ErrNoAttestations means the version has
	// no published attestations.
	VerifyManifestAttestations(ctx context.Context, m *Manifest) error

	// Get issues a throttled GET to a registry path or absolute URL.
	Get(ctx context.Context, pathOrURL string, resp any) error

	// Post issues a throttled POST to a registry path or absolute URL.
	Post(ctx context.Context, pathOrURL string, body io.Reader, resp any) error
}

var _ Client = &client{}

// Options configures a trust client.
type Options struct {
	// Host is the registry base, e.g. "https://registry.npmjs.org".
	Host string

	// AuthToken authenticates requests to the registry host only.
	AuthToken string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Throttle bounds outbound calls. A default throttle is constructed
	// when nil.
	Throttle *throttle.Throttle

	// Verifier is the attestation proof primitive; DSSEVerifier when nil.
	Verifier Verifier

	// Log, LogColorize configure debug HTTP tracing.
	Log         io.Writer
	LogColorize bool
}

// New returns a trust client for the given registry.
func New(opts Options) (Client, error) {
	clientOpts := api.ClientOptions{
		Host:        opts.Host,
		AuthToken:   opts.AuthToken,
		Log:         opts.Log,
		LogColorize: opts.LogColorize,
	}
	if opts.UserAgent != "" {
		clientOpts.Headers = map[string]string{api.HeaderUserAgent: opts.UserAgent}
	}

	rest, err := api.NewRESTClient(clientOpts)
	if err != nil {
		return nil, err
	}

	thr := opts.Throttle
	if thr == nil {
		thr = throttle.New(throttle.DefaultMaxConcurrent, throttle.DefaultMinDelay)
	}

	verifier := opts.Verifier
	if verifier == nil {
		verifier = DSSEVerifier{}
	}

	return &client{
		rest:       rest,
		throttle:   thr,
		verifier:   verifier,
		packuments: make(map[string]*Packument),
	}, nil
}

func (c *client) Get(ctx context.Context, pathOrURL string, resp any) error {
	return c.throttle.Do(ctx, func() error {
		return c.rest.Get(ctx, pathOrURL, resp)
	})
}

func (c *client) Post(ctx context.Context, pathOrURL string, body io.Reader, resp any) error {
	return c.throttle.Do(ctx, func() error {
		return c.rest.Post(ctx, pathOrURL, body, resp)
	})
}

func (c *client) Packument(ctx context.Context, name string) (*Packument, error) {
	c.mu.RLock()
	cached, ok := c.packuments[name]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	// Concurrent checks asking for the same package before the first
	// fetch completes share one network call.
	v, err, _ := c.group.Do(name, func() (any, error) {
		var pac Packument
		err := c.Get(ctx, "/"+EscapeName(name), &pac)
		if err != nil {
			if api.IsNotFound(err) {
				return nil, &NotFoundError{Package: name}
			}
			return nil, err
		}

		c.mu.Lock()
		c.packuments[name] = &pac
		c.mu.Unlock()

		return &pac, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Packument), nil
}

func (c *client) Manifest(ctx context.Context, name, specifier string) (*Manifest, error) {
	pac, err := c.Packument(ctx, name)
	if err != nil {
		return nil, err
	}

	version, err := ResolveVersion(pac, specifier)
	if err != nil {
		return nil, err
	}

	meta, ok := pac.Versions[version]
	if !ok {
		return nil, &NotFoundError{Package: name, Specifier: specifier}
	}

	m := &Manifest{
		Name:    pac.Name,
		Version: version,
		Meta:    meta,
	}
	if m.Name == "" {
		m.Name = name
	}

	if t, err := parseISOTime(pac.Time[version]); err == nil {
		m.PublishTime = t
	}
	if t, err := parseISOTime(pac.Time["created"]); err == nil {
		m.Created = t
	}

	return m, nil
}

func (c *client) SigningKeys(ctx context.Context) (KeySet, error) {
	c.keysOnce.Do(func() {
		var resp keysResponse
		c.keysErr = c.Get(ctx, keysPath, &resp)
		c.keys = resp.Keys
	})

	return c.keys, c.keysErr
}

func (c *client) VerifyManifestSignatures(ctx context.Context, m *Manifest) (*Manifest, error) {
	keys, err := c.SigningKeys(ctx)
	if err != nil {
		return nil, err
	}

	return VerifySignatures(m, keys)
}

func (c *client) VerifyManifestAttestations(ctx context.Context, m *Manifest) error {
	keys, err := c.SigningKeys(ctx)
	if err != nil {
		return err
	}

	path := "/-/npm/v1/attestations/" + EscapeName(m.Name) + "@" + m.Version
	if ref := m.Meta.Dist.Attestations; ref != nil && ref.URL != "" {
		path = ref.URL
	}

	var coll AttestationCollection
	if err := c.Get(ctx, path, &coll); err != nil {
		if api.IsNotFound(err) {
			return ErrNoAttestations
		}
		return err
	}

	if len(coll.Attestations) == 0 {
		return ErrNoAttestations
	}

	return VerifyAttestations(ctx, m, &coll, keys, c.verifier)
}
