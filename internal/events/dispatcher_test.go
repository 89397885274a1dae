package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher_DeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var got []string

	d.Subscribe(EventLoginFailed, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.Reason)
		return errors.New("handler broke")
	})
	d.Subscribe(EventLoginFailed, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.Reason)
		return nil
	})
	d.Subscribe(EventLoginSucceeded, func(context.Context, Event) error {
		got = append(got, "unexpected")
		return nil
	})

	d.Publish(context.Background(), Event{Type: EventLoginFailed, Reason: ReasonInvalidCredentials})

	assert.Equal(t, []string{"first:invalid_credentials", "second:invalid_credentials"}, got)
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	assert.NotPanics(t, func() {
		d.Publish(context.Background(), Event{Type: EventUserRegistered})
	})
}
