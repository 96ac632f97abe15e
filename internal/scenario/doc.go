// Package scenario runs scripted ledger sessions for regression testing.
//
// # Scenario Format
//
//	name: overdraw_then_interest
//	description: "Refused withdrawal, then credit 10%"
//	clock:
//	  start: "2024-01-01T09:00:00Z"
//	  step: 1m
//	interest_basis: post
//	steps:
//	  - op: open
//	    id: 1
//	    name: Alice
//	    amount: "100"
//	    pin: "1234"
//	  - op: withdraw
//	    id: 1
//	    amount: "500"
//	    expect_error: insufficient_funds
//	  - op: interest
//	    rate: "10"
//	expect:
//	  count: 1
//	  total: "110"
//	  order: [1]
//	  balances:
//	    1: "110"
//
// # Operations
//
//   - open: id, name, amount (opening balance), pin
//   - close: id
//   - auth: id, pin
//   - deposit, withdraw: id, amount
//   - transfer: id (source), to, amount
//   - interest: rate
//
// Every step either succeeds or fails with the ledger error code named in
// expect_error (see ledger.ErrorCode). A mismatch fails the scenario but the
// remaining steps still run, so one run reports every divergence.
//
// # Deterministic Output
//
// Timestamps come from a clock.Step seeded by the scenario (default start
// 2024-01-01T09:00:00Z, default step one second), so the final
// export is byte-identical across runs and can be compared against a
// golden file with AssertGolden.
package scenario
