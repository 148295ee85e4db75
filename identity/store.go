package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PaulFidika/vippskit/config"
	migrations "github.com/PaulFidika/vippskit/migrations/postgres"
	"github.com/PaulFidika/vippskit/vipps"
)

// ErrNotFound is returned when no profile exists for a subject.
var ErrNotFound = errors.New("identity: profile not found")

// Store persists extracted Vipps profiles keyed by subject.
type Store struct {
	pg     *pgxpool.Pool
	schema string
}

// NewStore wraps pg. schema is trusted; a blank one means migrations.DefaultSchema.
func NewStore(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = migrations.DefaultSchema
	}
	return &Store{pg: pg, schema: s}
}

// NewStoreFromConfig opens a pool for cfg.DatabaseURL in cfg.DatabaseSchema.
// A blank URL gives a store without a pool, which persists nothing.
func NewStoreFromConfig(ctx context.Context, cfg config.Config) (*Store, error) {
	schema := strings.TrimSpace(cfg.DatabaseSchema)
	if schema == "" {
		schema = migrations.DefaultSchema
	}
	if !migrations.ValidSchema(schema) {
		return nil, fmt.Errorf("identity: invalid schema %q", schema)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return NewStore(nil, schema), nil
	}
	pg, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("identity: open pool: %w", err)
	}
	return NewStore(pg, schema), nil
}

// Schema returns the schema the store reads and writes.
func (s *Store) Schema() string { return s.schema }

// Close releases the pool, if any.
func (s *Store) Close() {
	if s.pg != nil {
		s.pg.Close()
	}
}

func (s *Store) profilesTable() string  { return s.schema + ".profiles" }
func (s *Store) addressesTable() string { return s.schema + ".addresses" }

// SaveProfile upserts the profile and replaces its addresses in one transaction.
func (s *Store) SaveProfile(ctx context.Context, p *vipps.UserProfile) error {
	if s.pg == nil || p == nil || p.Sub == uuid.Nil {
		return nil
	}
	var birth *time.Time
	if p.HasBirthDate() {
		b := p.BirthDate
		birth = &b
	}
	return pgx.BeginFunc(ctx, s.pg, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO `+s.profilesTable()+`
			(sub, birth_date, email, email_verified, family_name, given_name, name, phone_number, nnin, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			ON CONFLICT (sub) DO UPDATE SET
				birth_date=EXCLUDED.birth_date, email=EXCLUDED.email, email_verified=EXCLUDED.email_verified,
				family_name=EXCLUDED.family_name, given_name=EXCLUDED.given_name, name=EXCLUDED.name,
				phone_number=EXCLUDED.phone_number, nnin=EXCLUDED.nnin, updated_at=NOW()`,
			p.Sub, birth, p.Email, p.EmailVerified, p.FamilyName, p.GivenName, p.Name, p.PhoneNumber, p.NationalIdentityNumber)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM `+s.addressesTable()+` WHERE sub=$1`, p.Sub); err != nil {
			return err
		}
		for i, a := range p.Addresses {
			data, err := a.MarshalJSON()
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `INSERT INTO `+s.addressesTable()+`
				(sub, position, address_type, is_preferred, data) VALUES ($1, $2, $3, $4, $5)`,
				p.Sub, i, a.AddressType, a.IsPreferred, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetProfile loads a profile with its addresses in their original order.
func (s *Store) GetProfile(ctx context.Context, sub uuid.UUID) (*vipps.UserProfile, error) {
	if s.pg == nil || sub == uuid.Nil {
		return nil, ErrNotFound
	}
	p := vipps.UserProfile{Sub: sub, Addresses: []vipps.Address{}}
	var birth *time.Time
	err := s.pg.QueryRow(ctx, `SELECT birth_date, email, email_verified, family_name, given_name, name, phone_number, nnin
		FROM `+s.profilesTable()+` WHERE sub=$1`, sub).
		Scan(&birth, &p.Email, &p.EmailVerified, &p.FamilyName, &p.GivenName, &p.Name, &p.PhoneNumber, &p.NationalIdentityNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if birth != nil {
		p.BirthDate = birth.UTC()
	}

	rows, err := s.pg.Query(ctx, `SELECT data FROM `+s.addressesTable()+` WHERE sub=$1 ORDER BY position`, sub)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a vipps.Address
		if err := a.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		p.Addresses = append(p.Addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProfile removes a profile and its addresses.
func (s *Store) DeleteProfile(ctx context.Context, sub uuid.UUID) error {
	if s.pg == nil || sub == uuid.Nil {
		return nil
	}
	_, err := s.pg.Exec(ctx, `DELETE FROM `+s.profilesTable()+` WHERE sub=$1`, sub)
	return err
}

// GetEmailsBySubjects returns sub -> email for the given subjects.
func (s *Store) GetEmailsBySubjects(ctx context.Context, subs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(subs))
	if len(subs) == 0 || s.pg == nil {
		return out, nil
	}
	rows, err := s.pg.Query(ctx, `SELECT sub, email FROM `+s.profilesTable()+` WHERE sub = ANY($1::uuid[])`, subs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, err
		}
		out[id] = email
	}
	return out, rows.Err()
}
