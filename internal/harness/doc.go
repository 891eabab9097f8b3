// Package harness executes parsed scenarios against a query dispatcher and
// reports what happened.
//
// # Execution
//
// Transactions run in scenario order; testers run in transaction order.
// Each tester dispatches its query with its parameters and is classified:
//
//   - success: counted as a pass and reported with its row count (for
//     statements that fetch) or affected-row count
//   - validation mismatch: reported as a warning, not a pass, not a failure
//   - any other error: reported as a failure and the run's exit code
//     becomes 1; later testers in the same transaction still run
//
// Dummy testers still execute but are left out of every count. Their
// successes and validation mismatches are silent; a dummy that fails to
// dispatch fails the run like any other tester.
//
// The dispatcher is rolled back after every transaction whether or not it
// failed, so no scenario ever commits.
//
// # Console Output
//
// Report lines have stable prefixes and are suitable for golden comparison:
//
//	[OK  ] find_user's row count is 1.
//	[OK  ] add_user's affected row is 1.
//	[WARN] find_user is failed to execute. <detail>
//	[FAIL] add_user is failed to execute. <detail>
//	[INFO] 2 passed / 3 tested in 4 querymap.
//	[WARN] clear_users, count_users are not excuted.
//
// Per-tester warnings and failures go to the error stream; everything else
// goes to the output stream.
package harness
