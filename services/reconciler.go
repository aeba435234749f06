package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"expedientes_app_go/models"
	"expedientes_app_go/services/portal"

	"gorm.io/gorm"
)

// CaseStore is the persistence side of the portal sync
type CaseStore interface {
	ReconcileCases(ctx context.Context, records []portal.RawCase) (ReconcileResult, error)
	RecordSyncRun(ctx context.Context, run *models.SyncRun) error
	LastSuccessfulSync(ctx context.Context) (*models.SyncRun, error)
}

// ReconcileResult counts what a reconciliation did per record
type ReconcileResult struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// GormCaseStore implements CaseStore on gorm
type GormCaseStore struct {
	db *gorm.DB
}

// NewGormCaseStore creates a store over the given connection
func NewGormCaseStore(db *gorm.DB) *GormCaseStore {
	return &GormCaseStore{db: db}
}

// portalFields are the portal-sourced values of one record, keyed by column
type portalFields struct {
	number string
	values map[string]interface{}
}

func fieldsFrom(rc portal.RawCase) portalFields {
	values := map[string]interface{}{
		"title":                   rc.Title.Value,
		"status":                  rc.Status.Value,
		"last_portal_update_text": rc.NoveltyText.Value,
		"last_portal_update_date": rc.NoveltyDate.Value,
	}
	// A card without a link keeps whatever link was stored before
	if rc.Link.Found && rc.Link.Value != "" {
		values["portal_link"] = rc.Link.Value
	}
	return portalFields{number: rc.Number.Value, values: values}
}

// ReconcileCases upserts the scraped records by case number inside a single
// transaction; any failure rolls the whole batch back. Only portal-sourced
// columns are written, and rows whose portal values did not change are not
// touched at all, so re-running the same batch is a no-op.
func (s *GormCaseStore) ReconcileCases(ctx context.Context, records []portal.RawCase) (ReconcileResult, error) {
	var result ReconcileResult
	batch := dedupe(records, &result)
	if len(batch) == 0 {
		return result, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range batch {
			var existing models.Expediente
			err := tx.Where("case_number = ?", rec.number).First(&existing).Error

			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(newExpediente(rec)).Error; err != nil {
					return fmt.Errorf("failed to insert case %s: %w", rec.number, err)
				}
				result.Inserted++

			case err != nil:
				return fmt.Errorf("failed to look up case %s: %w", rec.number, err)

			default:
				changes := diffPortalFields(existing, rec.values)
				if len(changes) == 0 {
					result.Unchanged++
					continue
				}
				if err := tx.Model(&existing).Updates(changes).Error; err != nil {
					return fmt.Errorf("failed to update case %s: %w", rec.number, err)
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	log.Printf("[STORE] Reconciled %d cases: %d new, %d updated, %d unchanged, %d skipped",
		len(records), result.Inserted, result.Updated, result.Unchanged, result.Skipped)
	return result, nil
}

// dedupe drops records without a usable case number and keeps the last
// occurrence of repeated numbers, preserving first-seen order.
func dedupe(records []portal.RawCase, result *ReconcileResult) []portalFields {
	index := make(map[string]int, len(records))
	batch := make([]portalFields, 0, len(records))
	for _, rc := range records {
		if !rc.Number.Found || rc.Number.Value == "" || rc.Number.Value == portal.NotAvailable {
			log.Printf("[STORE] Skipping card without case number (title: %q)", rc.Title.Value)
			result.Skipped++
			continue
		}
		f := fieldsFrom(rc)
		if i, seen := index[f.number]; seen {
			batch[i] = f
			result.Skipped++
			continue
		}
		index[f.number] = len(batch)
		batch = append(batch, f)
	}
	return batch
}

func newExpediente(rec portalFields) *models.Expediente {
	exp := &models.Expediente{
		CaseNumber:           rec.number,
		Title:                rec.values["title"].(string),
		Status:               rec.values["status"].(string),
		LastPortalUpdateText: rec.values["last_portal_update_text"].(string),
		LastPortalUpdateDate: rec.values["last_portal_update_date"].(string),
	}
	if link, ok := rec.values["portal_link"].(string); ok {
		exp.PortalLink = link
	}
	return exp
}

// diffPortalFields returns the subset of values that differ from the stored row
func diffPortalFields(existing models.Expediente, values map[string]interface{}) map[string]interface{} {
	current := map[string]string{
		"title":                   existing.Title,
		"status":                  existing.Status,
		"last_portal_update_text": existing.LastPortalUpdateText,
		"last_portal_update_date": existing.LastPortalUpdateDate,
		"portal_link":             existing.PortalLink,
	}
	changes := map[string]interface{}{}
	for column, v := range values {
		if current[column] != v.(string) {
			changes[column] = v
		}
	}
	return changes
}

// RecordSyncRun stores the outcome of a sync attempt
func (s *GormCaseStore) RecordSyncRun(ctx context.Context, run *models.SyncRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// LastSuccessfulSync returns the newest successful run, or nil if none
func (s *GormCaseStore) LastSuccessfulSync(ctx context.Context) (*models.SyncRun, error) {
	var run models.SyncRun
	err := s.db.WithContext(ctx).
		Where("status = ?", models.SyncStatusSuccess).
		Order("finished_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last sync: %w", err)
	}
	return &run, nil
}

// LastSyncRun returns the newest run regardless of outcome, or nil if none
func (s *GormCaseStore) LastSyncRun(ctx context.Context) (*models.SyncRun, error) {
	var run models.SyncRun
	err := s.db.WithContext(ctx).Order("started_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last sync run: %w", err)
	}
	return &run, nil
}
