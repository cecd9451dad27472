// Package ingestion imports builds and their test occurrences from JSON lines.
//
// Every input line holds one build and its tests:
//
//	{"build":{"buildType":"Core","number":"42","status":"SUCCESS","startedAt":"2025-06-01T12:00:00Z"},
//	 "tests":[{"name":"unit: org.example.LoginTest.ok","status":"SUCCESS","durationMs":12}]}
//
// The Importer validates records, groups them into batches and writes the
// batches concurrently using a worker pool. Each batch is one transaction.
// Progress is saved as a checkpoint per source, so an interrupted import
// resumes after the last line known to be stored. Builds that already exist
// are skipped, which makes re-importing a source safe.
package ingestion
