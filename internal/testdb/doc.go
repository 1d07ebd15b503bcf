// Package testdb provides database helpers for tests.
//
// GetTestDBWithT returns a migrated in-memory SQLite database, so store and
// service tests run without any external service. GetPostgresDBWithT returns
// a migrated PostgreSQL connection when DATABASE_URL or SCRY_TEST_DB_URL is
// set and skips the test otherwise.
//
//	func TestMyFeature(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        cards := sqlite.NewCardStore(tx, nil)
//	        ...
//	    })
//	}
package testdb
