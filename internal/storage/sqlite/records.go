package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// SaveRecord stores a committed settlement record. A second save of the
// same settlement id is ignored.
func (s *SQLiteStore) SaveRecord(ctx context.Context, record *models.SettlementRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlement_records (id, group_id, settlement_id, tx_hash, settlement_hash, committed_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(settlement_id) DO NOTHING`,
		record.ID, record.GroupID, record.SettlementID, record.TxHash,
		record.SettlementHash, record.CommittedBy, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement record: %w", err)
	}

	return nil
}

// ListRecords retrieves a group's settlement records, newest first.
func (s *SQLiteStore) ListRecords(ctx context.Context, groupID string) ([]*models.SettlementRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, settlement_id, tx_hash, settlement_hash, committed_by, created_at
		 FROM settlement_records WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement records: %w", err)
	}
	defer rows.Close()

	var records []*models.SettlementRecord
	for rows.Next() {
		r := &models.SettlementRecord{}
		if err := rows.Scan(&r.ID, &r.GroupID, &r.SettlementID, &r.TxHash,
			&r.SettlementHash, &r.CommittedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement records: %w", err)
	}

	return records, nil
}
