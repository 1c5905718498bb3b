//go:build integration

// Package testdb provides utilities for tests against a real PostgreSQL
// database.
//
// Tests get a migrated connection with GetTestDBWithT, which skips the test
// when no database URL is configured, and run inside WithTx so every change
// is rolled back when the test function returns:
//
//	func TestDocuments(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        docs := postgres.NewPostgresDocumentStore(tx, logger)
//	        ...
//	    })
//	}
//
// The database URL is read from JOBSCOUT_TEST_DATABASE_URL, falling back to
// DATABASE_URL. The database needs the pgvector extension available.
package testdb
