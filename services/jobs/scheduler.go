package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StartScheduler runs the sync on a cron schedule in the given timezone.
// A tick that finds a sync or search in flight is skipped. The returned
// cron must be stopped on shutdown.
func StartScheduler(schedule, timezone string, gate *Gate, sync *PortalSync) (*cron.Cron, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid sync timezone %q: %w", timezone, err)
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(schedule, func() {
		log.Println("[CRON] Ejecutando sincronización programada del portal...")
		err := gate.TryRun(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			sync.Run(ctx)
		})
		if errors.Is(err, ErrBusy) {
			log.Println("[CRON] Otra operación del portal está en curso, se omite esta ejecución")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule sync %q: %w", schedule, err)
	}

	c.Start()
	log.Printf("[CRON] Planificador de sincronización iniciado (%s, %s)", schedule, timezone)
	return c, nil
}
