package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/playerlink/internal/domain/identity"
	"github.com/riskibarqy/playerlink/internal/domain/playername"
	qb "github.com/riskibarqy/playerlink/internal/platform/querybuilder"
)

const (
	identitiesTable       = "player_identities"
	aliasesTable          = "player_aliases"
	identityExternalIDKey = "player_identities_external_id_key"
)

var identitySelectColumns = []string{
	"id",
	"display_name",
	"normalized_name",
	"surname",
	"external_id",
	"position",
	"team_key",
	"first_seen",
	"last_seen",
}

type IdentityRepository struct {
	db *sqlx.DB
}

func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) GetByID(ctx context.Context, id int64) (identity.Identity, error) {
	return r.getOne(ctx, "get identity by id", qb.Eq("id", id))
}

func (r *IdentityRepository) FindByExternalID(ctx context.Context, externalID string) (identity.Identity, error) {
	return r.getOne(ctx, "get identity by external id", qb.Eq("external_id", externalID))
}

func (r *IdentityRepository) FindByAlias(ctx context.Context, source identity.Source, normalizedName string) (identity.Identity, error) {
	const query = `
SELECT i.id, i.display_name, i.normalized_name, i.surname, i.external_id, i.position, i.team_key, i.first_seen, i.last_seen
FROM player_aliases a
JOIN player_identities i ON i.id = a.identity_id
WHERE a.source = $1
  AND a.normalized_name = $2`

	var row identityTableModel
	if err := r.db.GetContext(ctx, &row, query, string(source), normalizedName); err != nil {
		if isNotFound(err) {
			return identity.Identity{}, errors.Wrapf(identity.ErrNotFound, "alias %s/%s", source, normalizedName)
		}
		return identity.Identity{}, errors.Wrap(err, "get identity by alias")
	}
	return row.toDomain(), nil
}

func (r *IdentityRepository) FindByNormalizedName(ctx context.Context, normalizedName string) ([]identity.Identity, error) {
	return r.list(ctx, "list identities by normalized name", qb.Eq("normalized_name", normalizedName))
}

func (r *IdentityRepository) FindBySurname(ctx context.Context, surname string) ([]identity.Identity, error) {
	return r.list(ctx, "list identities by surname", qb.Eq("surname", surname))
}

// Create inserts an identity, or returns the stored one when the external id exists.
func (r *IdentityRepository) Create(ctx context.Context, in identity.NewIdentity) (identity.Identity, error) {
	if err := in.Validate(); err != nil {
		return identity.Identity{}, err
	}

	insertModel := identityInsertModel{
		DisplayName:    in.DisplayName,
		NormalizedName: in.NormalizedName,
		Surname:        playername.Surname(in.NormalizedName),
		ExternalID:     in.ExternalID,
		Position:       nullString(in.Position),
		TeamKey:        nullString(in.TeamKey),
		FirstSeen:      in.SeenDate,
		LastSeen:       in.SeenDate,
	}
	query, args, err := qb.InsertModel(identitiesTable, insertModel, `ON CONFLICT (external_id) DO UPDATE
SET updated_at = player_identities.updated_at
RETURNING `+joinColumns(identitySelectColumns))
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "build insert identity query")
	}

	var row identityTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return identity.Identity{}, errors.Wrap(err, "insert identity")
	}
	return row.toDomain(), nil
}

// Upgrade locks the row and applies the upgrade. A unique violation on external_id means
// another identity won the id first.
func (r *IdentityRepository) Upgrade(ctx context.Context, u identity.Upgrade) (identity.Identity, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "begin upgrade identity tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	selectQuery, selectArgs, err := qb.Select(identitySelectColumns...).From(identitiesTable).
		Where(qb.Eq("id", u.ID)).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "build lock identity query")
	}
	var row identityTableModel
	if err := tx.GetContext(ctx, &row, selectQuery, selectArgs...); err != nil {
		if isNotFound(err) {
			return identity.Identity{}, errors.Wrapf(identity.ErrNotFound, "identity %d", u.ID)
		}
		return identity.Identity{}, errors.Wrap(err, "lock identity")
	}

	current := row.toDomain()
	next := identity.ApplyUpgrade(current, u)

	updateQuery, updateArgs, err := qb.Update(identitiesTable).
		Set("display_name", next.DisplayName).
		Set("normalized_name", next.NormalizedName).
		Set("surname", playername.Surname(next.NormalizedName)).
		Set("external_id", next.ExternalID).
		Set("position", nullString(next.Position)).
		Set("team_key", nullString(next.TeamKey)).
		Set("last_seen", next.LastSeen).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", u.ID)).
		ToSQL()
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "build upgrade identity query")
	}
	if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		if isUniqueViolation(err, identityExternalIDKey) {
			return current, identity.ErrExternalIDTaken
		}
		return identity.Identity{}, errors.Wrap(err, "upgrade identity")
	}
	if err := tx.Commit(); err != nil {
		return identity.Identity{}, errors.Wrap(err, "commit upgrade identity tx")
	}
	return next, nil
}

// AddAlias inserts the alias or confirms the stored one points at the same identity.
func (r *IdentityRepository) AddAlias(ctx context.Context, alias identity.Alias) error {
	insertModel := aliasInsertModel{
		IdentityID:     alias.IdentityID,
		Source:         string(alias.Source),
		SourceName:     alias.SourceName,
		NormalizedName: alias.NormalizedName,
	}
	query, args, err := qb.InsertModel(aliasesTable, insertModel, `ON CONFLICT (source, normalized_name) DO NOTHING`)
	if err != nil {
		return errors.Wrap(err, "build insert alias query")
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "insert alias")
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		return nil
	}

	const ownerQuery = `SELECT identity_id FROM player_aliases WHERE source = $1 AND normalized_name = $2`
	var owner int64
	if err := r.db.GetContext(ctx, &owner, ownerQuery, string(alias.Source), alias.NormalizedName); err != nil {
		return errors.Wrap(err, "get alias owner")
	}
	if owner != alias.IdentityID {
		return identity.ErrAliasConflict
	}
	return nil
}

// ListAliases returns the aliases of one identity, for operator tooling.
func (r *IdentityRepository) ListAliases(ctx context.Context, identityID int64) ([]identity.Alias, error) {
	query, args, err := qb.Select("identity_id", "source", "source_name", "normalized_name").From(aliasesTable).
		Where(qb.Eq("identity_id", identityID)).
		OrderBy("source", "normalized_name").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list aliases query")
	}

	var rows []aliasInsertModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list aliases")
	}
	out := make([]identity.Alias, 0, len(rows))
	for _, row := range rows {
		out = append(out, identity.Alias{
			IdentityID:     row.IdentityID,
			Source:         identity.Source(row.Source),
			SourceName:     row.SourceName,
			NormalizedName: row.NormalizedName,
		})
	}
	return out, nil
}

func (r *IdentityRepository) getOne(ctx context.Context, op string, cond qb.Condition) (identity.Identity, error) {
	query, args, err := qb.Select(identitySelectColumns...).From(identitiesTable).Where(cond).ToSQL()
	if err != nil {
		return identity.Identity{}, errors.Wrapf(err, "build %s query", op)
	}
	var row identityTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return identity.Identity{}, errors.Wrap(identity.ErrNotFound, op)
		}
		return identity.Identity{}, errors.Wrap(err, op)
	}
	return row.toDomain(), nil
}

func (r *IdentityRepository) list(ctx context.Context, op string, cond qb.Condition) ([]identity.Identity, error) {
	query, args, err := qb.Select(identitySelectColumns...).From(identitiesTable).Where(cond).OrderBy("id").ToSQL()
	if err != nil {
		return nil, errors.Wrapf(err, "build %s query", op)
	}
	var rows []identityTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, op)
	}
	out := make([]identity.Identity, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
