package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryStub struct {
	mu         sync.Mutex
	packuments map[string]any
	keys       keysResponse

	packumentFetches atomic.Int64
	keyFetches       atomic.Int64
}

func (s *registryStub) handler() http.Handler {
	// Scoped names arrive with an encoded slash, so routing has to look
	// at the escaped path rather than ServeMux's decoded one.
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := r.URL.EscapedPath()

		if path == "/-/npm/v1/keys" {
			s.keyFetches.Add(1)
			_ = json.NewEncoder(w).Encode(s.keys)
			return
		}

		s.packumentFetches.Add(1)

		s.mu.Lock()
		doc, ok := s.packuments[path]
		s.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(doc)
	})
}

func newTestClient(t *testing.T, stub *registryStub) Client {
	t.Helper()

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	c, err := New(Options{Host: srv.URL})
	require.NoError(t, err)
	return c
}

func stubPackument() map[string]any {
	return map[string]any{
		"name":      "left-pad",
		"dist-tags": map[string]string{"latest": "1.3.0"},
		"versions": map[string]any{
			"1.2.0": map[string]any{"name": "left-pad", "version": "1.2.0"},
			"1.3.0": map[string]any{"name": "left-pad", "version": "1.3.0"},
		},
		"time": map[string]string{
			"created": "2014-03-14T06:23:52.984Z",
			"1.3.0":   "2018-04-26T18:11:06.703Z",
		},
	}
}

func TestClientPackumentCached(t *testing.T) {
	stub := &registryStub{packuments: map[string]any{"/left-pad": stubPackument()}}
	c := newTestClient(t, stub)
	ctx := context.Background()

	first, err := c.Packument(ctx, "left-pad")
	require.NoError(t, err)
	assert.Equal(t, "left-pad", first.Name)

	second, err := c.Packument(ctx, "left-pad")
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.EqualValues(t, 1, stub.packumentFetches.Load())
}

func TestClientPackumentSharesInflightFetch(t *testing.T) {
	stub := &registryStub{packuments: map[string]any{"/left-pad": stubPackument()}}
	c := newTestClient(t, stub)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Packument(context.Background(), "left-pad")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Callers racing the first fetch may or may not coalesce onto it,
	// but the cache bounds the fetch count well below the caller count.
	assert.Less(t, stub.packumentFetches.Load(), int64(8))
}

func TestClientPackumentNotFound(t *testing.T) {
	stub := &registryStub{packuments: map[string]any{}}
	c := newTestClient(t, stub)

	_, err := c.Packument(context.Background(), "no-such-package")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "no-such-package", notFound.Package)
}

func TestClientPackumentEscapesScopedNames(t *testing.T) {
	doc := stubPackument()
	doc["name"] = "@scope/pkg"
	stub := &registryStub{packuments: map[string]any{"/@scope%2Fpkg": doc}}
	c := newTestClient(t, stub)

	pac, err := c.Packument(context.Background(), "@scope/pkg")
	require.NoError(t, err)
	assert.Equal(t, "@scope/pkg", pac.Name)
}

func TestClientManifest(t *testing.T) {
	stub := &registryStub{packuments: map[string]any{"/left-pad": stubPackument()}}
	c := newTestClient(t, stub)

	m, err := c.Manifest(context.Background(), "left-pad", "^1.0.0")
	require.NoError(t, err)

	assert.Equal(t, "left-pad@1.3.0", m.ID())
	require.NotNil(t, m.PublishTime)
	assert.Equal(t, 2018, m.PublishTime.Year())
	require.NotNil(t, m.Created)
	assert.Equal(t, 2014, m.Created.Year())
}

func TestClientSigningKeysFetchedOnce(t *testing.T) {
	key, _ := genKey(t, "registry-key", nil)
	stub := &registryStub{keys: keysResponse{Keys: KeySet{key}}}
	c := newTestClient(t, stub)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		keys, err := c.SigningKeys(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, "registry-key", keys[0].KeyID)
	}

	assert.EqualValues(t, 1, stub.keyFetches.Load())
}

func TestClientVerifyManifestSignatures(t *testing.T) {
	key, priv := genKey(t, "registry-key", nil)
	stub := &registryStub{keys: keysResponse{Keys: KeySet{key}}}
	c := newTestClient(t, stub)

	m := signedManifest(t, priv, "registry-key")
	verified, err := c.VerifyManifestSignatures(context.Background(), m)
	require.NoError(t, err)
	assert.Len(t, verified.VerifiedSignatures, 1)
}

func TestClientVerifyManifestAttestationsAbsent(t *testing.T) {
	key, priv := genKey(t, "registry-key", nil)
	stub := &registryStub{keys: keysResponse{Keys: KeySet{key}}}
	c := newTestClient(t, stub)

	m := signedManifest(t, priv, "registry-key")
	err := c.VerifyManifestAttestations(context.Background(), m)
	assert.ErrorIs(t, err, ErrNoAttestations)
}
