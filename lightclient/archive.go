package lightclient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veilcash/relayer/db"
	"github.com/veilcash/relayer/lightclient/migrations"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

const errWhileRollbackFormat = "error while rolling back tx: %w"

// HeaderArchive persists finalized headers in SQLite so they stay queryable
// after eviction from the in-memory window.
type HeaderArchive struct {
	db *sql.DB
}

type archivedHeader struct {
	ChainID      uint64      `meddler:"chain_id"`
	Number       uint64      `meddler:"num"`
	Hash         common.Hash `meddler:"hash,hash"`
	ParentHash   common.Hash `meddler:"parent_hash,hash"`
	StateRoot    common.Hash `meddler:"state_root,hash"`
	TxRoot       common.Hash `meddler:"tx_root,hash"`
	ReceiptsRoot common.Hash `meddler:"receipts_root,hash"`
	Timestamp    uint64      `meddler:"timestamp"`
}

func (a *archivedHeader) toStoredHeader() StoredHeader {
	return StoredHeader{
		Number:       a.Number,
		Hash:         a.Hash,
		ParentHash:   a.ParentHash,
		StateRoot:    a.StateRoot,
		TxRoot:       a.TxRoot,
		ReceiptsRoot: a.ReceiptsRoot,
		Timestamp:    a.Timestamp,
	}
}

// NewHeaderArchive runs the migrations and opens the archive at dbPath.
func NewHeaderArchive(dbPath string) (*HeaderArchive, error) {
	if err := migrations.RunMigrations(dbPath); err != nil {
		return nil, err
	}
	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &HeaderArchive{db: database}, nil
}

// StoreHeaders writes the given headers of one chain in a single tx. Already
// archived block numbers are left untouched.
func (a *HeaderArchive) StoreHeaders(ctx context.Context, chainID uint64, headers []StoredHeader) error {
	tx, err := db.NewTx(ctx, a.db)
	if err != nil {
		return err
	}
	for _, h := range headers {
		if _, err := tx.Exec(
			`INSERT INTO header (chain_id, num, hash, parent_hash, state_root, tx_root, receipts_root, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (chain_id, num) DO NOTHING;`,
			chainID, h.Number, h.Hash.Hex(), h.ParentHash.Hex(),
			h.StateRoot.Hex(), h.TxRoot.Hex(), h.ReceiptsRoot.Hex(), h.Timestamp,
		); err != nil {
			if errRllbck := tx.Rollback(); errRllbck != nil {
				return errors.Join(err, fmt.Errorf(errWhileRollbackFormat, errRllbck))
			}
			return fmt.Errorf("error storing header %d: %w", h.Number, err)
		}
	}
	return tx.Commit()
}

// HeaderByHash returns the archived header with the given hash, or
// db.ErrNotFound.
func (a *HeaderArchive) HeaderByHash(chainID uint64, hash common.Hash) (StoredHeader, error) {
	var header archivedHeader
	if err := meddler.QueryRow(a.db, &header,
		"SELECT * FROM header WHERE chain_id = $1 AND hash = $2;", chainID, hash.Hex()); err != nil {
		return StoredHeader{}, db.ReturnErrNotFound(err)
	}
	return header.toStoredHeader(), nil
}

// Close closes the underlying DB.
func (a *HeaderArchive) Close() error {
	return a.db.Close()
}
