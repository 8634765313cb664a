package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tether/internal/common"
	"github.com/bobmcallan/tether/internal/models"
	"github.com/bobmcallan/tether/internal/secrets"
)

type memStore struct {
	records map[string]*models.Connection
	getErr  error
}

func (m *memStore) GetByOwner(ctx context.Context, ownerID string) (*models.Connection, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.records[ownerID], nil
}

func (m *memStore) Upsert(ctx context.Context, ownerID, encryptedAccess, encryptedRefresh string) (*models.Connection, error) {
	conn := &models.Connection{
		OwnerID:               ownerID,
		EncryptedAccessToken:  encryptedAccess,
		EncryptedRefreshToken: encryptedRefresh,
		UpdatedAt:             time.Now().UTC(),
	}
	m.records[ownerID] = conn
	return conn, nil
}

func (m *memStore) Delete(ctx context.Context, ownerID string) error {
	delete(m.records, ownerID)
	return nil
}

type fakeCompletion struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (f *fakeCompletion) GenerateContent(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func linkedStore(t *testing.T, codec *secrets.Codec, ownerID string) *memStore {
	t.Helper()
	store := &memStore{records: make(map[string]*models.Connection)}
	encAccess, err := codec.Protect("A1")
	require.NoError(t, err)
	encRefresh, err := codec.Protect("R1")
	require.NoError(t, err)
	_, err = store.Upsert(context.Background(), ownerID, encAccess, encRefresh)
	require.NoError(t, err)
	return store
}

func TestRespond_LinkedUser(t *testing.T) {
	codec, err := secrets.NewCodec("chat-test-key")
	require.NoError(t, err)
	completion := &fakeCompletion{reply: "  The reply, exactly as generated.  "}
	svc := NewService(linkedStore(t, codec, "u1"), codec, completion, common.NewSilentLogger())

	reply, err := svc.Respond(context.Background(), "u1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "  The reply, exactly as generated.  ", reply, "reply must be returned verbatim")
	assert.True(t, strings.HasSuffix(completion.prompt, "hello"))
	assert.NotEqual(t, "hello", completion.prompt, "prompt is framed before forwarding")
}

func TestRespond_EmptyPrompt(t *testing.T) {
	codec, err := secrets.NewCodec("chat-test-key")
	require.NoError(t, err)
	completion := &fakeCompletion{reply: "unused"}
	svc := NewService(linkedStore(t, codec, "u1"), codec, completion, common.NewSilentLogger())

	for _, prompt := range []string{"", "   ", "\n"} {
		_, err := svc.Respond(context.Background(), "u1", prompt)
		assert.True(t, errors.Is(err, models.ErrBadRequest), "prompt %q", prompt)
	}
	assert.Zero(t, completion.calls, "no downstream call for an empty prompt")
}

func TestRespond_NotLinked(t *testing.T) {
	codec, err := secrets.NewCodec("chat-test-key")
	require.NoError(t, err)
	completion := &fakeCompletion{reply: "unused"}
	store := &memStore{records: make(map[string]*models.Connection)}
	svc := NewService(store, codec, completion, common.NewSilentLogger())

	_, err = svc.Respond(context.Background(), "u1", "hello")
	assert.True(t, errors.Is(err, models.ErrNotLinked))
	assert.Zero(t, completion.calls, "an unlinked user never reaches the completion service")
}

func TestRespond_TamperedConnection(t *testing.T) {
	codec, err := secrets.NewCodec("chat-test-key")
	require.NoError(t, err)
	store := &memStore{records: map[string]*models.Connection{
		"u1": {OwnerID: "u1", EncryptedAccessToken: "deadbeef", EncryptedRefreshToken: "deadbeef"},
	}}
	completion := &fakeCompletion{reply: "unused"}
	svc := NewService(store, codec, completion, common.NewSilentLogger())

	_, err = svc.Respond(context.Background(), "u1", "hello")
	assert.True(t, errors.Is(err, models.ErrIntegrity))
	assert.Zero(t, completion.calls)
}

func TestRespond_UpstreamFailure(t *testing.T) {
	codec, err := secrets.NewCodec("chat-test-key")
	require.NoError(t, err)
	completion := &fakeCompletion{err: errors.New("deadline exceeded")}
	svc := NewService(linkedStore(t, codec, "u1"), codec, completion, common.NewSilentLogger())

	_, err = svc.Respond(context.Background(), "u1", "hello")
	assert.True(t, errors.Is(err, models.ErrUpstream))
	assert.NotContains(t, err.Error(), "deadline", "upstream detail must not leak to the caller")
}

func TestRespond_MissingCipherKey(t *testing.T) {
	codec, err := secrets.NewCodec("chat-test-key")
	require.NoError(t, err)
	completion := &fakeCompletion{reply: "unused"}
	svc := NewService(linkedStore(t, codec, "u1"), nil, completion, common.NewSilentLogger())

	_, err = svc.Respond(context.Background(), "u1", "hello")
	assert.True(t, errors.Is(err, models.ErrMissingKey))
}
