package bookshelf

import (
	bookcmd "github.com/goliatone/go-bookshelf/command"
	"github.com/goliatone/go-bookshelf/export"
	bookqry "github.com/goliatone/go-bookshelf/query"
	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-errors"
)

// RegisterHandlers wires the bookshelf commands and queries to go-command.
// Callers unsubscribe the returned subscriptions when done.
func RegisterHandlers(reg *gcmd.Registry, runner *export.Runner) ([]dispatcher.Subscription, error) {
	if runner == nil {
		return nil, errors.New("export runner is required", errors.CategoryValidation).
			WithTextCode("RUNNER_REQUIRED")
	}

	exportReport := bookcmd.NewExportReportHandler(runner)
	batch := bookcmd.NewBatchExportHandler(bookcmd.NewBatchCommand(runner))

	status := bookqry.NewExportStatusHandler(runner.Tracker)
	history := bookqry.NewExportHistoryHandler(runner.Tracker)
	formats := bookqry.NewFormatsHandler(runner.Renderers)

	subscriptions := []dispatcher.Subscription{
		dispatcher.SubscribeCommand(exportReport),
		dispatcher.SubscribeCommand(batch),
		dispatcher.SubscribeQuery(status),
		dispatcher.SubscribeQuery(history),
		dispatcher.SubscribeQuery(formats),
	}

	if reg != nil {
		handlers := []any{
			exportReport,
			batch,
			status,
			history,
			formats,
		}
		for _, handler := range handlers {
			if err := reg.RegisterCommand(handler); err != nil {
				return subscriptions, err
			}
		}
	}

	return subscriptions, nil
}
