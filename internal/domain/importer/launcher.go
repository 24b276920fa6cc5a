package importer

import (
	"context"

	"golang.org/x/exp/slog"
)

// Launcher runs processor passes in the background, detached from the HTTP
// request that created or resumed the run.
type Launcher struct {
	processor *Processor
	log       *slog.Logger
}

func NewLauncher(processor *Processor, log *slog.Logger) *Launcher {
	return &Launcher{
		processor: processor,
		log:       log.With(slog.String("component", "run_launcher")),
	}
}

func (l *Launcher) Launch(runID string) {
	go func() {
		if err := l.processor.Run(context.Background(), runID); err != nil {
			l.log.Error("run aborted", slog.String("run_id", runID), slog.String("error", err.Error()))
		}
	}()
}
