package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"foodshare/internal/database"
	"foodshare/internal/models"
	"foodshare/internal/websocket"
)

// Notifier is the single write path into the notification feed. Every
// producer (claim submission, claim resolution, expiry scan) goes through
// it so rows always reach the table and connected clients the same way.
type Notifier struct {
	db  *database.DB
	hub *websocket.Hub
}

func New(db *database.DB, hub *websocket.Hub) *Notifier {
	return &Notifier{db: db, hub: hub}
}

// Send inserts a notification and pushes it to the user's open connections.
func (n *Notifier) Send(ctx context.Context, userID int, notificationType string, payload interface{}) (*models.Notification, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var notification models.Notification
	err = n.db.QueryRow(ctx,
		`INSERT INTO notifications (user_id, type, payload)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, type, payload, is_read, created_at`,
		userID, notificationType, data).Scan(
		&notification.ID, &notification.UserID, &notification.Type,
		&notification.Payload, &notification.IsRead, &notification.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}

	n.Push(&notification)
	return &notification, nil
}

// SendTx inserts a notification on an open transaction. The caller pushes
// the returned notification with Push after the transaction commits, so a
// rollback never announces an event that was not recorded.
func (n *Notifier) SendTx(ctx context.Context, tx pgx.Tx, userID int, notificationType string, payload interface{}) (*models.Notification, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var notification models.Notification
	err = tx.QueryRow(ctx,
		`INSERT INTO notifications (user_id, type, payload)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, type, payload, is_read, created_at`,
		userID, notificationType, data).Scan(
		&notification.ID, &notification.UserID, &notification.Type,
		&notification.Payload, &notification.IsRead, &notification.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}

	return &notification, nil
}

// SendOnce inserts the notification only if the user has not already been
// notified with the same type about the same product today. Returns false
// when the insert was skipped. The unique index on daily expiry warnings
// backs the guard, so concurrent scanners cannot both insert.
func (n *Notifier) SendOnce(ctx context.Context, userID int, notificationType string, productID int, payload interface{}) (bool, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var notification models.Notification
	err = n.db.QueryRow(ctx,
		`INSERT INTO notifications (user_id, type, payload)
		 SELECT $1, $2, $3
		 WHERE NOT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND type = $2
			  AND (payload->>'product_id')::int = $4
			  AND created_at::date = CURRENT_DATE
		 )
		 RETURNING id, user_id, type, payload, is_read, created_at`,
		userID, notificationType, data, productID).Scan(
		&notification.ID, &notification.UserID, &notification.Type,
		&notification.Payload, &notification.IsRead, &notification.CreatedAt)

	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// A concurrent scanner won the insert
			return false, nil
		}
		return false, fmt.Errorf("failed to insert notification: %w", err)
	}

	n.Push(&notification)
	return true, nil
}

// Push delivers an already-persisted notification over the websocket hub.
func (n *Notifier) Push(notification *models.Notification) {
	if n.hub == nil {
		return
	}
	n.hub.BroadcastNotification(notification.UserID, notification)
}
