package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/pcetoken"
	"github.com/xraph/pcetoken/journal"
	"github.com/xraph/pcetoken/registry"
	pcestore "github.com/xraph/pcetoken/store"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

// compile-time interface check
var _ pcestore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("pcetoken/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("pcetoken/sqlite: %w: %w", pcetoken.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Registry Store ====================

func (s *Store) CreateTokenEntry(ctx context.Context, e *registry.Entry) error {
	if _, err := s.GetTokenEntry(ctx, e.Address); err == nil {
		return fmt.Errorf("%s: %w", e.Address.Hex(), pcetoken.ErrAlreadyExists)
	} else if !errors.Is(err, pcetoken.ErrNotFound) {
		return err
	}
	_, err := s.sdb.NewInsert(toTokenEntryModel(e)).Exec(ctx)
	return err
}

func (s *Store) GetTokenEntry(ctx context.Context, addr types.Address) (*registry.Entry, error) {
	m := new(tokenEntryModel)
	err := s.sdb.NewSelect(m).
		Where("address = ?", addr.Hex()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s: %w", addr.Hex(), pcetoken.ErrNotFound)
		}
		return nil, err
	}
	return fromTokenEntryModel(m)
}

func (s *Store) ListTokenEntries(ctx context.Context) ([]*registry.Entry, error) {
	var models []tokenEntryModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("created_at ASC, address ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*registry.Entry, len(models))
	for i := range models {
		e, err := fromTokenEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// ==================== Ledger state Store ====================

// SaveTokenState updates the row by primary key and inserts it when no row
// was touched.
func (s *Store) SaveTokenState(ctx context.Context, st *token.State) error {
	m, err := toTokenStateModel(st)
	if err != nil {
		return err
	}
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	_, err = s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetTokenState(ctx context.Context, addr types.Address) (*token.State, error) {
	m := new(tokenStateModel)
	err := s.sdb.NewSelect(m).
		Where("address = ?", addr.Hex()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s: %w", addr.Hex(), pcetoken.ErrNotFound)
		}
		return nil, err
	}
	return fromTokenStateModel(m)
}

func (s *Store) ListTokenStates(ctx context.Context) ([]*token.State, error) {
	var models []tokenStateModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("created_at ASC, address ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*token.State, len(models))
	for i := range models {
		st, err := fromTokenStateModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

// ==================== Journal Store ====================

func (s *Store) AppendJournal(ctx context.Context, entries []*journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]journalEntryModel, len(entries))
	for i, e := range entries {
		models[i] = *toJournalEntryModel(e)
	}
	_, err := s.sdb.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) ListJournal(ctx context.Context, tok types.Address, opts journal.ListOpts) ([]*journal.Entry, error) {
	var models []journalEntryModel
	q := s.sdb.NewSelect(&models).Where("token = ?", tok.Hex())

	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if !opts.Start.IsZero() {
		q = q.Where("at >= ?", opts.Start)
	}
	if !opts.End.IsZero() {
		q = q.Where("at < ?", opts.End)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*journal.Entry, len(models))
	for i := range models {
		e, err := fromJournalEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
