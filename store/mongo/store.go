package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/pcetoken"
	"github.com/xraph/pcetoken/journal"
	"github.com/xraph/pcetoken/registry"
	pcestore "github.com/xraph/pcetoken/store"
	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

// Collection name constants.
const (
	colTokens      = "pcetoken_tokens"
	colTokenStates = "pcetoken_token_states"
	colJournal     = "pcetoken_journal"
)

// compile-time interface check
var _ pcestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all pcetoken collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("pcetoken/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(toTokenEntryModel(e)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", e.Address.Hex(), pcetoken.ErrAlreadyExists)
		}
		return fmt.Errorf("pcetoken/mongo: create token entry: %w", err)
	}
	return nil
}

func (s *Store) GetTokenEntry(ctx context.Context, addr types.Address) (*registry.Entry, error) {
	var m tokenEntryModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.Hex()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%s: %w", addr.Hex(), pcetoken.ErrNotFound)
		}
		return nil, fmt.Errorf("pcetoken/mongo: get token entry: %w", err)
	}
	return fromTokenEntryModel(&m)
}

func (s *Store) ListTokenEntries(ctx context.Context) ([]*registry.Entry, error) {
	var models []tokenEntryModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("pcetoken/mongo: list token entries: %w", err)
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
	m := toTokenStateModel(st)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Address}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":                   m.Address,
			"name":                  m.Name,
			"symbol":                m.Symbol,
			"owner":                 m.Owner,
			"total_supply":          m.TotalSupply,
			"balances":              m.Balances,
			"settings":              m.Settings,
			"last_decay_boundary":   m.LastDecayBoundary,
			"last_bonus_boundary":   m.LastBonusBoundary,
			"midnight_total_supply": m.MidnightTotalSupply,
			"midnight_modified_at":  m.MidnightModifiedAt,
			"minted_today":          m.MintedToday,
			"created_at":            m.CreatedAt,
			"updated_at":            m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pcetoken/mongo: save token state: %w", err)
	}
	return nil
}

func (s *Store) GetTokenState(ctx context.Context, addr types.Address) (*token.State, error) {
	var m tokenStateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.Hex()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%s: %w", addr.Hex(), pcetoken.ErrNotFound)
		}
		return nil, fmt.Errorf("pcetoken/mongo: get token state: %w", err)
	}
	return fromTokenStateModel(&m)
}

func (s *Store) ListTokenStates(ctx context.Context) ([]*token.State, error) {
	var models []tokenStateModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("pcetoken/mongo: list token states: %w", err)
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
	for _, e := range entries {
		if _, err := s.mdb.NewInsert(toJournalEntryModel(e)).Exec(ctx); err != nil {
			return fmt.Errorf("pcetoken/mongo: append journal: %w", err)
		}
	}
	return nil
}

func (s *Store) ListJournal(ctx context.Context, tok types.Address, opts journal.ListOpts) ([]*journal.Entry, error) {
	filter := bson.M{"token": tok.Hex()}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	at := bson.M{}
	if !opts.Start.IsZero() {
		at["$gte"] = opts.Start
	}
	if !opts.End.IsZero() {
		at["$lt"] = opts.End
	}
	if len(at) > 0 {
		filter["at"] = at
	}

	var models []journalEntryModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "at", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("pcetoken/mongo: list journal: %w", err)
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

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all pcetoken collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTokens: {
			{Keys: bson.D{{Key: "creator", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colTokenStates: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colJournal: {
			{
				Keys:    bson.D{{Key: "token", Value: 1}, {Key: "at", Value: 1}},
				Options: options.Index().SetName("idx_pcetoken_journal_token_at"),
			},
			{Keys: bson.D{{Key: "token", Value: 1}, {Key: "kind", Value: 1}}},
		},
	}
}
