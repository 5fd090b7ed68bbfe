package event

import (
	"context"
	"testing"
	"time"

	"github.com/saquib-ali-khan/distalgo/service/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateChange struct {
	Process string `json:"process"`
	State   string `json:"state"`
}

func TestService_TypedPublishSubscribe(t *testing.T) {
	service, err := New(messaging.VendorMemory)
	require.NoError(t, err)
	defer service.Shutdown()

	typed := make(chan *Event[stateChange], 1)
	err = SetListenerOf(service, func(event *Event[stateChange]) {
		typed <- event
	})
	require.NoError(t, err)

	firehose := make(chan *Event[any], 1)
	service.SetListener(func(event *Event[any]) {
		firehose <- event
	})

	publisher, err := PublisherOf[stateChange](service)
	require.NoError(t, err)

	eventContext := &Context{ProcessID: "p1", Process: "site-1", Behavior: "lamutex/Site", EventType: "process.state"}
	err = publisher.Publish(context.Background(), NewEvent(eventContext, stateChange{Process: "site-1", State: "running"}))
	require.NoError(t, err)

	select {
	case event := <-typed:
		assert.Equal(t, "p1", event.Context.ProcessID)
		assert.Equal(t, "running", event.Data.State)
	case <-time.After(2 * time.Second):
		t.Fatal("typed listener did not observe event")
	}

	select {
	case event := <-firehose:
		assert.Equal(t, "process.state", event.Context.EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("firehose listener did not observe event")
	}
}

func TestService_UnknownVendor(t *testing.T) {
	_, err := New(messaging.Vendor("carrier-pigeon"))
	assert.Error(t, err)
}
