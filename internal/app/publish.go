package app

import (
	"context"

	"github.com/notepulse-hq/note-pulse/internal/logger"
	"github.com/notepulse-hq/note-pulse/pkg/publishers"
)

// buildFanout assembles the run-summary event fanout from the optional
// publishers file. No file configured means an empty fanout, not an error.
func buildFanout(ctx context.Context, publishersFile string, log logger.Logger) (*publishers.Fanout, error) {
	if publishersFile == "" {
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(publishersFile)
	if err != nil {
		return nil, err
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, err
	}

	fanout := publishers.NewFanout(pubs)
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"file":  publishersFile,
		"count": fanout.Size(),
	})
	return fanout, nil
}

// publishEvent delivers a run summary on a best-effort basis; a sink failure
// must never fail the run that produced the data.
func publishEvent(ctx context.Context, fanout *publishers.Fanout, evt publishers.Event, log logger.Logger) {
	if fanout == nil || fanout.Size() == 0 {
		return
	}
	delivered, err := fanout.Publish(ctx, evt)
	if err != nil {
		log.WarnObj("run summary delivery incomplete", "publish_error", map[string]any{
			"run":       evt.Run,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	log.InfoObj("run summary published", "publish_meta", map[string]any{
		"run":       evt.Run,
		"delivered": delivered,
	})
}
