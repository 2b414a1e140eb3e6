package store

import (
	"context"
	"database/sql"

	"commerce-service/internal/models"
)

// CreatePrintJob inserts a new print job row
func (s *Store) CreatePrintJob(ctx context.Context, job *models.PrintJob) error {
	query := `
		INSERT INTO print_jobs (order_item_id, status, provider_order_id, production_cost,
			shipping_cost, failure_reason, estimated_ship_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, job, query,
		job.OrderItemID, job.Status, job.ProviderOrderID, job.ProductionCost,
		job.ShippingCost, job.FailureReason, job.EstimatedShipDate)
}

// GetPrintJobsByOrderID retrieves all print jobs for an order's items
func (s *Store) GetPrintJobsByOrderID(ctx context.Context, orderID int64) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	err := s.db.SelectContext(ctx, &jobs, `
		SELECT pj.*
		FROM print_jobs pj
		JOIN order_items oi ON oi.id = pj.order_item_id
		WHERE oi.order_id = $1
		ORDER BY pj.id`, orderID)
	return jobs, err
}

// UpdatePrintJobTracking upserts the synced status and tracking info for a
// job. Plain row update, safe under concurrent sync runs.
func (s *Store) UpdatePrintJobTracking(ctx context.Context, jobID int64, status string, trackingNumber, trackingURL, carrier sql.NullString) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE print_jobs
		SET status = $1, tracking_number = $2, tracking_url = $3, carrier = $4, updated_at = NOW()
		WHERE id = $5`,
		status, trackingNumber, trackingURL, carrier, jobID)
	return err
}

// UpdatePrintJobStatus updates only the job status
func (s *Store) UpdatePrintJobStatus(ctx context.Context, jobID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE print_jobs SET status = $1, updated_at = NOW() WHERE id = $2",
		status, jobID)
	return err
}
