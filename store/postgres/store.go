package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
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

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("pcetoken/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("pcetoken/postgres: %w: %w", pcetoken.ErrMigrationFailed, err)
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
	res, err := s.pg.NewInsert(toTokenEntryModel(e)).
		OnConflict("(address) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", e.Address.Hex(), pcetoken.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) GetTokenEntry(ctx context.Context, addr types.Address) (*registry.Entry, error) {
	m := new(tokenEntryModel)
	err := s.pg.NewSelect(m).
		Where("address = $1", addr.Hex()).
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
	err := s.pg.NewSelect(&models).
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

func (s *Store) SaveTokenState(ctx context.Context, st *token.State) error {
	m, err := toTokenStateModel(st)
	if err != nil {
		return err
	}
	_, err = s.pg.NewInsert(m).
		OnConflict("(address) DO UPDATE").
		Set("owner = EXCLUDED.owner").
		Set("total_supply = EXCLUDED.total_supply").
		Set("balances = EXCLUDED.balances").
		Set("settings = EXCLUDED.settings").
		Set("last_decay_boundary = EXCLUDED.last_decay_boundary").
		Set("last_bonus_boundary = EXCLUDED.last_bonus_boundary").
		Set("midnight_total_supply = EXCLUDED.midnight_total_supply").
		Set("midnight_modified_at = EXCLUDED.midnight_modified_at").
		Set("minted_today = EXCLUDED.minted_today").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetTokenState(ctx context.Context, addr types.Address) (*token.State, error) {
	m := new(tokenStateModel)
	err := s.pg.NewSelect(m).
		Where("address = $1", addr.Hex()).
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
	err := s.pg.NewSelect(&models).
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
	_, err := s.pg.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) ListJournal(ctx context.Context, tok types.Address, opts journal.ListOpts) ([]*journal.Entry, error) {
	var models []journalEntryModel
	q := s.pg.NewSelect(&models).Where("token = $1", tok.Hex())

	argIdx := 1
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if !opts.Start.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("at >= $%d", argIdx), opts.Start)
	}
	if !opts.End.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("at < $%d", argIdx), opts.End)
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
