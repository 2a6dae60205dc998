package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchDecodesEvent(t *testing.T) {
	var got NotificationEvent
	c := &Consumer{Handle: func(_ context.Context, ev NotificationEvent) error {
		got = ev
		return nil
	}}
	ev := NewEvent(KindContactCompleted)
	ev.ContactRequestID = 42
	ev.RatingToken = "abc"
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, c.dispatch(context.Background(), body))
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, uint64(42), got.ContactRequestID)
	assert.Equal(t, "abc", got.RatingToken)
}

func TestDispatchRejectsGarbage(t *testing.T) {
	called := false
	c := &Consumer{Handle: func(context.Context, NotificationEvent) error {
		called = true
		return nil
	}}
	assert.Error(t, c.dispatch(context.Background(), []byte("{not json")))
	assert.Error(t, c.dispatch(context.Background(), []byte(`{"id":"x"}`)))
	assert.False(t, called)
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	c := &Consumer{Handle: func(context.Context, NotificationEvent) error { return boom }}
	body, _ := json.Marshal(NewEvent(KindRatingCreated))
	assert.ErrorIs(t, c.dispatch(context.Background(), body), boom)
}

func TestModerationKind(t *testing.T) {
	assert.Equal(t, "moderation.delete-seller", ModerationKind("delete-seller"))
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, 0x7fffffff))
}
