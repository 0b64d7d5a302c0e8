// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/dedupecore/eventdedupe/internal/logging"
)

// stageTopic is the single in-process topic carrying stage-boundary events
// for the run. There is no external broker: stage events live and die
// within one ProcessBatch call, consumed here only by the
// structured-logging sink.
const stageTopic = "pipeline.stage"

// stageEvent is the payload published at each pipeline stage boundary.
type stageEvent struct {
	RunID  string                 `json:"run_id"`
	Stage  string                 `json:"stage"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// eventBus is a thin wrapper around a gochannel pub/sub carrying
// stage-boundary events for one pipeline run.
type eventBus struct {
	channel *gochannel.GoChannel
}

func newEventBus() *eventBus {
	return &eventBus{
		channel: gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}),
	}
}

// startLoggingSink subscribes to stage events and logs each one at INFO, so
// every run emits a structured record at each pipeline boundary. It runs
// until ctx is canceled or Close is called.
func (b *eventBus) startLoggingSink(ctx context.Context) error {
	messages, err := b.channel.Subscribe(ctx, stageTopic)
	if err != nil {
		return err
	}
	go func() {
		for msg := range messages {
			var evt stageEvent
			if err := json.Unmarshal(msg.Payload, &evt); err != nil {
				msg.Ack()
				continue
			}
			logEntry := logging.CtxInfo(ctx).Str("run_id", evt.RunID).Str("stage", evt.Stage)
			for k, v := range evt.Fields {
				logEntry = logEntry.Interface(k, v)
			}
			logEntry.Msg(evt.Stage)
			msg.Ack()
		}
	}()
	return nil
}

func (b *eventBus) publishStage(runID, stage string, fields map[string]interface{}) {
	payload, err := json.Marshal(stageEvent{RunID: runID, Stage: stage, Fields: fields})
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	_ = b.channel.Publish(stageTopic, msg)
}

func (b *eventBus) Close() error {
	return b.channel.Close()
}
