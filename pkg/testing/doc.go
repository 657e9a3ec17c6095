// Package testing provides a test harness for running bankmock inside Go tests.
//
// A MockServer wraps a complete bankmock handler over a private in-memory
// database, records every request it serves and cleans itself up when the
// test ends.
//
// # Basic Usage
//
//	func TestClient(t *testing.T) {
//	    bank := testing.New(t)
//	    url := bank.Start()
//
//	    acct := bank.Record(resource.KindPhysicalAccount).
//	        With("balance", 1000).
//	        With("currency", "RUB").
//	        With("owner", "Ivan").
//	        Create()
//
//	    // exercise the code under test against url ...
//
//	    bank.AssertCalled(t, "GET", "/accounts-v1.3.3/{id}")
//	}
//
// # Fixtures
//
// Create goes through validation exactly like a POST would. Insert writes
// straight through the repository, which is the only way to populate
// read-only kinds such as transactions:
//
//	bank.Record(resource.KindTransaction).
//	    With("date", "2026-04-01T10:00:00Z").
//	    With("amount", -150).
//	    With("account_id", acct["id"]).
//	    With("status", "completed").
//	    Insert()
//
// Seed fills the database with generated data:
//
//	bank.Seed(42, seed.Counts{Accounts: 4, Transactions: 20})
//
// # Assertions
//
//	bank.AssertCalledTimes(t, "POST", "/vrp-v1.3.1/", 1)
//	bank.AssertNotCalled(t, "DELETE", "/vrp-v1.3.1/{id}")
//
//	for _, req := range bank.Requests() {
//	    req.AssertStatus(t, 201)
//	    req.AssertJSONField(t, "currency", "RUB")
//	}
//
// Reset empties every table and the request log between scenarios.
package testing
