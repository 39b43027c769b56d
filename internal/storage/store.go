// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a group, member or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMemberInUse is returned when removing a member who still holds
	// expense shares.
	ErrMemberInUse = errors.New("member still has expense shares")
)

// GroupStore persists groups together with their members and expenses.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type GroupStore interface {
	// CreateGroup persists a new group. ID and CreatedAt are filled in when
	// empty. Members on the group are created with it.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with all members, expenses and shares.
	// Returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups returns every group with its members, newest first.
	// Expenses are not loaded.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// DeleteGroup removes a group with its members, expenses and local
	// settlement records. Returns ErrNotFound if the group does not exist.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember adds a member to an existing group.
	AddMember(ctx context.Context, member *models.Member) error

	// RemoveMember deletes a member who holds no expense shares. Expenses the
	// member paid keep no payer. Returns ErrMemberInUse otherwise.
	RemoveMember(ctx context.Context, groupID, memberID string) error

	// UpdateMemberWallet sets or clears (empty string) a member's wallet
	// address. The address must already be validated and normalized.
	UpdateMemberWallet(ctx context.Context, groupID, memberID, wallet string) error

	// AddExpense persists an expense and its shares atomically.
	AddExpense(ctx context.Context, expense *models.Expense) error
}

// RecordStore keeps the advisory local record of committed settlements.
// The ledger is authoritative; losing a record loses only a shortcut.
type RecordStore interface {
	// SaveRecord stores a record. Saving the same settlement id twice is a
	// no-op.
	SaveRecord(ctx context.Context, record *models.SettlementRecord) error

	// ListRecords returns a group's records, newest first.
	ListRecords(ctx context.Context, groupID string) ([]*models.SettlementRecord, error)
}

// Store combines all storage operations.
type Store interface {
	GroupStore
	RecordStore

	// Close releases any resources held by the store.
	Close() error
}
