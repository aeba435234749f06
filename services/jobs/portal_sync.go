package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"expedientes_app_go/models"
	"expedientes_app_go/services"
	"expedientes_app_go/services/portal"
)

// CredentialSource returns the portal account to log in with
type CredentialSource func() portal.Credentials

// PortalSync runs one end-to-end synchronization of the "Mis Causas" listing
// into the case store. It holds no lock of its own; run it through a Gate.
type PortalSync struct {
	session   *portal.SessionManager
	store     services.CaseStore
	creds     CredentialSource
	snapshots services.SnapshotStore
	notifier  services.SyncNotifier
	now       func() time.Time
}

// NewPortalSync wires a sync. snapshots and notifier may be nil.
func NewPortalSync(session *portal.SessionManager, store services.CaseStore, creds CredentialSource,
	snapshots services.SnapshotStore, notifier services.SyncNotifier) *PortalSync {
	return &PortalSync{
		session:   session,
		store:     store,
		creds:     creds,
		snapshots: snapshots,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Run logs in, loads the listing at the largest page size, extracts every card
// and reconciles them. The returned run is stored whether or not it succeeded;
// the error is the cause of a failed run.
func (p *PortalSync) Run(ctx context.Context) (*models.SyncRun, error) {
	run := &models.SyncRun{StartedAt: p.now()}
	log.Println("[SYNC] Starting portal sync")

	if err := p.session.Login(ctx, p.creds()); err != nil {
		return p.fail(ctx, run, err)
	}

	html, err := p.session.LoadListing(ctx)
	if err != nil {
		return p.fail(ctx, run, err)
	}

	records, err := portal.ExtractCases(html, p.session.BaseURL())
	if err != nil {
		return p.fail(ctx, run, err)
	}
	run.Extracted = len(records)

	if len(records) == 0 {
		log.Println("[SYNC] Listing rendered no cases, nothing to reconcile")
	} else {
		result, err := p.store.ReconcileCases(ctx, records)
		if err != nil {
			return p.fail(ctx, run, fmt.Errorf("failed to reconcile cases: %w", err))
		}
		run.Inserted = result.Inserted
		run.Updated = result.Updated
		run.Unchanged = result.Unchanged
		run.Skipped = result.Skipped
	}

	run.Status = models.SyncStatusSuccess
	run.FinishedAt = p.now()
	if err := p.store.RecordSyncRun(ctx, run); err != nil {
		return run, err
	}

	log.Printf("[SYNC] Sync finished: %d cards, %d new, %d updated, %d unchanged, %d skipped",
		run.Extracted, run.Inserted, run.Updated, run.Unchanged, run.Skipped)
	return run, nil
}

// fail records the failed run. A layout failure also keeps a capture of the
// page and forgets the login, so the next run starts from the login form.
// The browser itself stays open.
func (p *PortalSync) fail(ctx context.Context, run *models.SyncRun, cause error) (*models.SyncRun, error) {
	kind := portal.Classify(cause)
	run.Status = models.SyncStatusFailed
	run.FailureKind = string(kind)
	run.Message = portal.OperatorMessage(cause)
	log.Printf("[SYNC] Sync failed (%s): %v", kind, cause)

	// Bookkeeping must not be lost because the sync itself was cancelled
	bg := context.WithoutCancel(ctx)

	if kind == portal.FailureLayout {
		run.SnapshotURL, run.ScreenshotURL = p.snapshot(bg, run.StartedAt)
		p.session.Invalidate()
	}

	run.FinishedAt = p.now()
	if err := p.store.RecordSyncRun(bg, run); err != nil {
		log.Printf("[SYNC] Failed to record sync run: %v", err)
	}

	if p.notifier != nil {
		if err := p.notifier.SyncFailed(bg, run); err != nil {
			log.Printf("[SYNC] Failed to send failure alert: %v", err)
		}
	}
	return run, cause
}

// snapshot stores the page HTML and a screenshot under one base key and
// returns where each went
func (p *PortalSync) snapshot(ctx context.Context, at time.Time) (htmlURL, pngURL string) {
	if p.snapshots == nil {
		return "", ""
	}
	html, png, err := p.session.Snapshot(ctx)
	if err != nil {
		log.Printf("[SYNC] Could not capture page snapshot: %v", err)
		return "", ""
	}

	key := services.GenerateSnapshotKey(at)
	htmlURL, err = p.snapshots.Save(ctx, key+".html", "text/html; charset=utf-8", []byte(html))
	if err != nil {
		log.Printf("[SYNC] Could not store page snapshot: %v", err)
		return "", ""
	}
	if len(png) > 0 {
		if pngURL, err = p.snapshots.Save(ctx, key+".png", "image/png", png); err != nil {
			log.Printf("[SYNC] Could not store screenshot: %v", err)
			pngURL = ""
		}
	}
	log.Printf("[SYNC] Page snapshot saved: %s", htmlURL)
	return htmlURL, pngURL
}
