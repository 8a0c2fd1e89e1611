// Package testutil provides shared testing utilities for mediaconv.
//
// It contains three groups of helpers:
//
// 1. Database helpers (db_helpers.go):
//   - SetupTestDB: an entitlement database, PostgreSQL when POSTGRES_TEST_URL
//     is set, otherwise a temporary SQLite file
//   - SeedEntitlements: inserts fixture rows
//
// 2. Pipeline mocks (mock_pipeline.go): testify/mock implementations of the
// converter collaborators (acquirer, metadata resolver, transcoder, prober,
// tagger, artifact store). Transcoder and acquirer mocks can write the files
// they promise so downstream stages see real paths.
//
// 3. Fixtures (fixtures.go): entitlement records for each quota state,
// sample metadata and small file helpers.
//
// # Usage
//
//	db := testutil.SetupTestDB(t)
//	testutil.SeedEntitlements(t, db, testutil.Entitlements()...)
//
//	acq := new(testutil.MockAcquirer)
//	acq.SucceedWith("ytdlp")
package testutil
