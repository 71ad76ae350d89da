package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/Abdullahi2202/wealthpay/internal/db"
)

// backfill_refs stamps transfer_id onto legacy transfer transactions that
// predate the explicit reference column. For each unreferenced transfer
// transaction it picks the sender's newest transfer with the same amount,
// mirroring how those rows used to be matched at settlement time.
//
// Run with -dry-run first to see what would change.
func main() {
	dryRun := flag.Bool("dry-run", false, "report candidate rows without updating")
	flag.Parse()

	_ = godotenv.Load()
	db.Init()

	ctx := context.Background()

	if *dryRun {
		var n int
		err := db.Conn.QueryRow(ctx, `
			SELECT COUNT(*)
			FROM transactions t
			WHERE t.type = 'transfer'
			  AND t.transfer_id IS NULL
			  AND EXISTS (
			      SELECT 1 FROM transfers tr
			      WHERE tr.sender_id = t.user_id AND tr.amount = t.amount
			  )
		`).Scan(&n)
		if err != nil {
			log.Fatalf("failed to count candidates: %v", err)
		}
		fmt.Printf("%d transaction(s) would be backfilled.\n", n)
		return
	}

	ct, err := db.Conn.Exec(ctx, `
		UPDATE transactions t
		SET transfer_id = (
			SELECT tr.id FROM transfers tr
			WHERE tr.sender_id = t.user_id AND tr.amount = t.amount
			ORDER BY tr.created_at DESC
			LIMIT 1
		)
		WHERE t.type = 'transfer'
		  AND t.transfer_id IS NULL
		  AND EXISTS (
		      SELECT 1 FROM transfers tr
		      WHERE tr.sender_id = t.user_id AND tr.amount = t.amount
		  )
	`)
	if err != nil {
		log.Fatalf("failed to backfill transfer references: %v", err)
	}

	fmt.Printf("Backfilled %d transaction(s).\n", ct.RowsAffected())
}
