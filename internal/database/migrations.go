package database

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent so startup is safe against an already-initialized database.
func Migrate(db *DB) error {
	_, err := db.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(100) NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 1,
			expiry_date DATE NOT NULL,
			is_shareable BOOLEAN NOT NULL DEFAULT false,
			status VARCHAR(20) NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'claimed')),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS claims (
			id SERIAL PRIMARY KEY,
			product_id INTEGER NOT NULL REFERENCES products(id),
			claimer_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			message TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS groups (
			id SERIAL PRIMARY KEY,
			owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS group_members (
			id SERIAL PRIMARY KEY,
			group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(20) NOT NULL DEFAULT 'member' CHECK (role IN ('owner', 'member')),
			preferences TEXT,
			joined_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(group_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type VARCHAR(50) NOT NULL CHECK (type IN ('new_claim', 'claim_accepted', 'claim_rejected', 'expiry_warning')),
			payload JSONB NOT NULL DEFAULT '{}',
			is_read BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_products_owner_id ON products(owner_id);
		CREATE INDEX IF NOT EXISTS idx_claims_product_id ON claims(product_id);
		CREATE INDEX IF NOT EXISTS idx_claims_claimer_id ON claims(claimer_id);
		CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id);
		CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_expiry_daily
		ON notifications (user_id, (payload->>'product_id'), (created_at::date))
		WHERE type = 'expiry_warning';
	`)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
