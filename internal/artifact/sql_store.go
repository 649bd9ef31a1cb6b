package artifact

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	xerrors "Starfish-Go/internal/errors"
)

// SQLStore reads artifacts from the contract_artifacts table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database. Migrations are applied by the caller.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Lookup implements Store.
func (s *SQLStore) Lookup(ctx context.Context, name, network string) (Record, error) {
	var address, abiText string
	err := s.db.QueryRowContext(ctx,
		`SELECT address, abi FROM contract_artifacts WHERE name = ? AND network = ?`,
		name, network,
	).Scan(&address, &abiText)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, notFound(name, network)
	}
	if err != nil {
		return Record{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询合约构件失败")
	}
	return Record{Name: name, Network: network, Address: address, ABI: json.RawMessage(abiText)}, nil
}

// LookupAll implements BulkStore.
func (s *SQLStore) LookupAll(ctx context.Context, network string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, address, abi FROM contract_artifacts WHERE network = ? ORDER BY name`, network)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询合约构件失败")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var name, address, abiText string
		if err := rows.Scan(&name, &address, &abiText); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析合约构件失败")
		}
		out = append(out, Record{Name: name, Network: network, Address: address, ABI: json.RawMessage(abiText)})
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历合约构件失败")
	}
	return out, nil
}

// Save upserts an artifact.
func (s *SQLStore) Save(ctx context.Context, name, network string, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contract_artifacts (name, network, address, abi, updated_at) VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE address = VALUES(address), abi = VALUES(abi), updated_at = VALUES(updated_at)`,
		name, network, rec.Address, string(rec.ABI), time.Now().Unix(),
	)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入合约构件失败")
	}
	return nil
}
