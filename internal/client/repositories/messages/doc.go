// Package messages persists the record collection.
//
// The store keeps the authoritative collection in memory and hands the
// latest snapshot to Save after each mutation; Save replaces the stored
// rows in one transaction. Load returns records in the order they were
// saved (newest first). The seq column carries that order.
//
//	repo := messages.NewRepository(db, dbx.DialectSQLite)
//	msgs, _ := repo.Load(ctx)
//	_ = repo.Save(ctx, msgs)
package messages
