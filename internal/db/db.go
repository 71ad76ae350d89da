package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres
func Init() {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	// Base tables used by every subsystem
	ensureCoreTables()

	// Columns added after the first deploy
	ensureUserColumns()
	ensureWalletColumns()
	ensureTransferReference()

	// Support tables for alerts and the audit trail
	ensureNotificationsTable()
	ensureAuditLogTable()
}

// ensureCoreTables creates users, wallets, transfers, transactions and topups
func ensureCoreTables() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user','admin')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE TABLE IF NOT EXISTS wallets (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
            balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE TABLE IF NOT EXISTS transfers (
            id UUID PRIMARY KEY,
            sender_id UUID NOT NULL REFERENCES users(id),
            recipient_id UUID NOT NULL REFERENCES users(id),
            amount BIGINT NOT NULL CHECK (amount > 0),
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','completed','rejected')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_transfers_pending_amount ON transfers(amount, created_at) WHERE status = 'pending';
        CREATE TABLE IF NOT EXISTS transactions (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id),
            amount BIGINT NOT NULL,
            type TEXT NOT NULL CHECK (type IN ('income','expense','transfer')),
            name TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT 'general',
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','completed','failed','cancelled','rejected')),
            note TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at);
        CREATE TABLE IF NOT EXISTS topups (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id),
            amount BIGINT NOT NULL CHECK (amount > 0),
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','completed','failed')),
            reference TEXT,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
    `)
	if err != nil {
		log.Fatalf("failed to ensure core tables: %v", err)
	}
}

// ensureUserColumns adds users.is_active and users.kyc_status if missing
func ensureUserColumns() {
	ctx := context.Background()

	var activeExists bool
	_ = Conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.columns
            WHERE table_schema = 'public' AND table_name = 'users' AND column_name = 'is_active'
        )`).Scan(&activeExists)
	if !activeExists {
		if _, err := Conn.Exec(ctx, `ALTER TABLE users ADD COLUMN IF NOT EXISTS is_active BOOLEAN DEFAULT TRUE`); err != nil {
			log.Printf("failed to add users.is_active: %v", err)
		} else {
			_, _ = Conn.Exec(ctx, `UPDATE users SET is_active = TRUE WHERE is_active IS NULL`)
		}
	}

	var kycExists bool
	_ = Conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.columns
            WHERE table_schema = 'public' AND table_name = 'users' AND column_name = 'kyc_status'
        )`).Scan(&kycExists)
	if !kycExists {
		if _, err := Conn.Exec(ctx, `ALTER TABLE users ADD COLUMN IF NOT EXISTS kyc_status TEXT DEFAULT 'unverified'`); err != nil {
			log.Printf("failed to add users.kyc_status: %v", err)
		}
	}
}

// ensureWalletColumns adds wallets.frozen if missing
func ensureWalletColumns() {
	ctx := context.Background()
	var frozenExists bool
	_ = Conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.columns
            WHERE table_schema = 'public' AND table_name = 'wallets' AND column_name = 'frozen'
        )`).Scan(&frozenExists)
	if !frozenExists {
		if _, err := Conn.Exec(ctx, `ALTER TABLE wallets ADD COLUMN IF NOT EXISTS frozen BOOLEAN DEFAULT FALSE`); err != nil {
			log.Printf("failed to add wallets.frozen: %v", err)
		} else {
			_, _ = Conn.Exec(ctx, `UPDATE wallets SET frozen = FALSE WHERE frozen IS NULL`)
		}
	}
}

// ensureTransferReference adds transactions.transfer_id so new rows carry an
// explicit link to their transfer instead of relying on amount matching
func ensureTransferReference() {
	ctx := context.Background()
	var exists bool
	_ = Conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.columns
            WHERE table_schema = 'public' AND table_name = 'transactions' AND column_name = 'transfer_id'
        )`).Scan(&exists)
	if exists {
		return
	}
	if _, err := Conn.Exec(ctx, `ALTER TABLE transactions ADD COLUMN IF NOT EXISTS transfer_id UUID NULL REFERENCES transfers(id)`); err != nil {
		log.Printf("failed to add transactions.transfer_id: %v", err)
		return
	}
	log.Printf("transactions.transfer_id column ensured")
}

// ensureNotificationsTable creates notifications table if it doesn't exist
func ensureNotificationsTable() {
	ctx := context.Background()
	var exists bool
	_ = Conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = 'public' AND table_name = 'notifications'
        )`).Scan(&exists)
	if exists {
		return
	}
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT,
            reference UUID NULL,
            metadata JSONB NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            read_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL;
    `)
	if err != nil {
		log.Printf("failed to create notifications table: %v", err)
	}
}

// ensureAuditLogTable creates the append-only admin activity log
func ensureAuditLogTable() {
	ctx := context.Background()
	var exists bool
	_ = Conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = 'public' AND table_name = 'admin_activity_log'
        )`).Scan(&exists)
	if exists {
		return
	}
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS admin_activity_log (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            admin_id UUID NOT NULL REFERENCES users(id),
            action TEXT NOT NULL,
            target_table TEXT NOT NULL,
            target_id TEXT NOT NULL,
            before_state JSONB NULL,
            after_state JSONB NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_audit_admin_created ON admin_activity_log(admin_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_audit_target ON admin_activity_log(target_table, target_id);
    `)
	if err != nil {
		log.Printf("failed to create admin_activity_log table: %v", err)
	}
}
