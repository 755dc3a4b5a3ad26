package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"foodshare/internal/database"
	"foodshare/internal/models"
	"foodshare/internal/notify"
)

// Schedule runs the scan every day at 8:00 AM server time.
const Schedule = "0 8 * * *"

// WarningWindowDays is how far ahead of the expiry date owners are warned.
const WarningWindowDays = 3

type Scanner struct {
	db       *database.DB
	notifier *notify.Notifier
}

func NewScanner(db *database.DB, notifier *notify.Notifier) *Scanner {
	return &Scanner{db: db, notifier: notifier}
}

// Start registers the scan on a cron runner and starts it.
func (s *Scanner) Start() (*cron.Cron, error) {
	runner := cron.New()

	_, err := runner.AddFunc(Schedule, func() {
		if err := s.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("expiry scan failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule expiry scan: %w", err)
	}

	runner.Start()
	return runner, nil
}

// Run warns owners of available products expiring within the window. Each
// owner is notified at most once per product per day, so re-runs and
// overlapping runs are harmless.
func (s *Scanner) Run(ctx context.Context) error {
	log.Info().Msg("running expiry check")

	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.owner_id, p.name, p.expiry_date
		 FROM products p
		 WHERE p.status = $1
		   AND p.expiry_date <= CURRENT_DATE + $2::int`,
		models.ProductStatusAvailable, WarningWindowDays)
	if err != nil {
		return fmt.Errorf("failed to query expiring products: %w", err)
	}
	defer rows.Close()

	type expiringProduct struct {
		id         int
		ownerID    int
		name       string
		expiryDate time.Time
	}

	var products []expiringProduct
	for rows.Next() {
		var p expiringProduct
		if err := rows.Scan(&p.id, &p.ownerID, &p.name, &p.expiryDate); err != nil {
			return fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read expiring products: %w", err)
	}

	created := 0
	for _, p := range products {
		payload := models.ExpiryWarningPayload{
			ProductID:  p.id,
			Name:       p.name,
			ExpiryDate: p.expiryDate.Format("2006-01-02"),
		}

		inserted, err := s.notifier.SendOnce(ctx, p.ownerID, models.NotificationExpiryWarning, p.id, payload)
		if err != nil {
			return fmt.Errorf("failed to notify owner of product %d: %w", p.id, err)
		}
		if inserted {
			created++
		}
	}

	log.Info().Int("matched", len(products)).Int("notified", created).
		Msg("expiry job done")
	return nil
}
