package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wisefido-presence/internal/command"
	"wisefido-presence/internal/models"
	"wisefido-presence/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testHarness struct {
	agent  *Agent
	queue  *command.Queue
	tags   *repository.TagRepository
	people *repository.PeopleRepository
}

func setupAgent(t *testing.T, handler http.HandlerFunc) *testHarness {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zap.NewNop()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	commands := repository.NewCommandRepository(client, logger)
	tags := repository.NewTagRepository(client, logger)
	people := repository.NewPeopleRepository(client, logger)
	queue := command.NewQueue(commands, tags, logger)
	encoder := NewEncoderClient(server.URL, logger)

	return &testHarness{
		agent:  NewAgent(queue, encoder, time.Second, logger),
		queue:  queue,
		tags:   tags,
		people: people,
	}
}

func TestPollOnce_CompletesCommand(t *testing.T) {
	var gotReq EncoderRequest
	h := setupAgent(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/write", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(EncoderResponse{Status: "ok", TagID: "tag-99"})
	})
	ctx := context.Background()

	personID, err := h.people.Create(ctx, models.PersonTypeVisitor, "Ada", "Lovelace", "", "user-1")
	require.NoError(t, err)
	cmdID, err := h.queue.Enqueue(ctx, models.CommandTypeWriteRFID, personID, map[string]string{"user_id": "user-1"})
	require.NoError(t, err)

	require.NoError(t, h.agent.PollOnce(ctx))

	assert.Equal(t, personID, gotReq.PersonID)
	assert.Equal(t, "user-1", gotReq.UserID)

	cmd, err := h.queue.Get(ctx, models.CommandTypeWriteRFID, cmdID)
	require.NoError(t, err)
	assert.Equal(t, models.CommandStatusCompleted, cmd.Status)

	tag, err := h.tags.Get(ctx, "tag-99")
	require.NoError(t, err)
	assert.Equal(t, personID, tag.OwnerID)
}

func TestPollOnce_EncoderErrorFailsCommand(t *testing.T) {
	h := setupAgent(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EncoderResponse{Status: "error", Msg: "no tag in range"})
	})
	ctx := context.Background()

	cmdID, err := h.queue.Enqueue(ctx, models.CommandTypeWriteRFID, "person-1", nil)
	require.NoError(t, err)

	require.NoError(t, h.agent.PollOnce(ctx))

	cmd, err := h.queue.Get(ctx, models.CommandTypeWriteRFID, cmdID)
	require.NoError(t, err)
	assert.Equal(t, models.CommandStatusFailed, cmd.Status)
}

func TestPollOnce_NoPending(t *testing.T) {
	called := false
	h := setupAgent(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	require.NoError(t, h.agent.PollOnce(context.Background()))
	assert.False(t, called)
}

func TestWriteTag_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "encoder offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	encoder := NewEncoderClient(server.URL, zap.NewNop())
	_, err := encoder.WriteTag(&EncoderRequest{PersonID: "person-1"})
	assert.Error(t, err)
}
