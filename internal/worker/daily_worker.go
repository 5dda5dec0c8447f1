package worker

import (
	"time"

	"github.com/cryptosim-ai/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DailyWorker drives the simulated clock: on every cron tick it advances
// all active plans by one day through the same batch entry point the admin
// endpoint uses.
type DailyWorker struct {
	simService *service.SimulationService
	cron       *cron.Cron
	spec       string
	log        *logrus.Logger
}

// NewDailyWorker creates a new DailyWorker with a cron spec like "0 0 * * *"
func NewDailyWorker(simService *service.SimulationService, spec string, log *logrus.Logger) *DailyWorker {
	return &DailyWorker{
		simService: simService,
		cron:       cron.New(),
		spec:       spec,
		log:        log,
	}
}

// Start schedules the daily tick and starts the cron loop
func (w *DailyWorker) Start() error {
	if _, err := w.cron.AddFunc(w.spec, w.tick); err != nil {
		return err
	}
	w.cron.Start()
	w.log.WithField("cron", w.spec).Info("daily worker started")
	return nil
}

// Stop stops the cron loop and waits for a running tick to finish
func (w *DailyWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.log.Info("daily worker stopped")
}

func (w *DailyWorker) tick() {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	result, err := w.simService.ProcessDailyBatch(today)
	if err != nil {
		// batch-level failure; per-user failures are handled inside
		w.log.WithError(err).Error("daily tick failed")
		return
	}

	w.log.WithFields(logrus.Fields{
		"date":      today.Format("2006-01-02"),
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	}).Info("daily tick complete")
}
