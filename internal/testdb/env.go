package testdb

import "os"

// GetTestDatabaseURL returns the PostgreSQL URL for integration tests, or ""
// when none is configured.
func GetTestDatabaseURL() string {
	for _, key := range []string{"DATABASE_URL", "SCRY_TEST_DB_URL"} {
		if url := os.Getenv(key); url != "" {
			return url
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether PostgreSQL integration tests should
// be skipped because no database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}
