// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - Group: a set of members sharing expenses, with its settlement currency
//   - Member: one person in a group, optionally linked to a wallet address
//   - Expense / ExpenseShare: who paid, how much, and how it is split
//   - SettlementRecord: local cache row describing a committed settlement
//   - CommitmentRecord: what the external ledger holds for a settlement id
//
// # Design Principles
//
// 1. **Exact money**: amounts are decimal.Decimal in major units; nothing
// monetary is ever a float.
// 2. **Avoid circular references**: relationships use ID strings, not pointers.
// 3. **Ledger data is read-only**: CommitmentRecord is only ever read and
// compared, never built from local state.
package models
