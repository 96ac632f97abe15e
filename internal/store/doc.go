// Package store persists the ledger between sessions.
//
// Two backends implement Backend:
//
//   - TextFile: the flat text format. Each account is one line
//     "id,holderName,balance,secret", followed by its history lines
//     "timestamp,kind,amount", newest first. Accounts appear in ascending
//     account number order. Fields containing commas or quotes use CSV
//     quoting.
//   - SQLite: the same tuples in an embedded database, replaced wholesale
//     on every save inside one transaction.
//
// # Save Semantics
//
// Persistence is flush-on-save. Load happens once at session start and Save
// once at the end; nothing is written between. TextFile writes to a
// temporary file and renames it over the target so a failed save never
// truncates the previous file.
//
// # Failures
//
// I/O failures are returned as *IOError and never modify the in-memory
// ledger. Malformed text input is reported as *FormatError with the line
// number.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
