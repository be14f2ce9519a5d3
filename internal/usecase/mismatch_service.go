package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
	"github.com/riskibarqy/playerlink/internal/domain/identity"
	"github.com/riskibarqy/playerlink/internal/domain/mismatch"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

const (
	defaultMismatchLimit = 50
	maxMismatchLimit     = 500
)

type ResolveMismatchInput struct {
	RecordID int64
	// ExternalID, when set, is bound to the record's identity if it is still a placeholder.
	ExternalID string
	Notes      string
}

type MismatchService struct {
	mismatches mismatch.Repository
	lines      bettingline.Repository
	identities identity.Repository
	resolver   *IdentityResolver
	logger     *logging.Logger
}

func NewMismatchService(
	mismatches mismatch.Repository,
	lines bettingline.Repository,
	identities identity.Repository,
	resolver *IdentityResolver,
	logger *logging.Logger,
) *MismatchService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MismatchService{
		mismatches: mismatches,
		lines:      lines,
		identities: identities,
		resolver:   resolver,
		logger:     logger.Named("mismatch"),
	}
}

func (s *MismatchService) ListUnresolved(ctx context.Context, limit int) ([]mismatch.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MismatchService.ListUnresolved")
	defer span.End()

	if limit <= 0 {
		limit = defaultMismatchLimit
	}
	limit = min(limit, maxMismatchLimit)
	entries, err := s.mismatches.ListUnresolved(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unresolved mismatches: %w", err)
	}
	return entries, nil
}

// ResolveMismatch closes a queue entry after operator review. The record itself is
// reconciled by the next run once its identity carries the right external id.
func (s *MismatchService) ResolveMismatch(ctx context.Context, in ResolveMismatchInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MismatchService.ResolveMismatch")
	defer span.End()

	if in.RecordID <= 0 {
		return fmt.Errorf("%w: record id is required", ErrInvalidInput)
	}
	rec, err := s.lines.GetByID(ctx, in.RecordID)
	if errors.Is(err, bettingline.ErrNotFound) {
		return fmt.Errorf("%w: betting line record %d", ErrNotFound, in.RecordID)
	}
	if err != nil {
		return fmt.Errorf("get betting line record: %w", err)
	}

	notes := strings.TrimSpace(in.Notes)
	externalID := strings.TrimSpace(in.ExternalID)
	if externalID != "" {
		if err := s.bindExternalID(ctx, rec, externalID); err != nil {
			return err
		}
		if notes == "" {
			notes = "manual: bound to " + externalID
		}
	}
	if notes == "" {
		notes = "manual: resolved"
	}

	if err := s.mismatches.Resolve(ctx, rec.ID, notes); err != nil {
		return fmt.Errorf("resolve mismatch for record %d: %w", rec.ID, err)
	}
	s.logger.InfoContext(ctx, "mismatch resolved", "record_id", rec.ID, "external_id", externalID)
	return nil
}

func (s *MismatchService) bindExternalID(ctx context.Context, rec bettingline.Record, externalID string) error {
	if identity.IsPlaceholderID(externalID) {
		return fmt.Errorf("%w: %s is not an authoritative id", ErrInvalidInput, externalID)
	}
	current, err := s.identities.GetByID(ctx, rec.PlayerID)
	if err != nil {
		return fmt.Errorf("get identity %d: %w", rec.PlayerID, err)
	}
	if current.HasAuthoritativeID() {
		if current.ExternalID != externalID {
			return fmt.Errorf("%w: identity %d already holds external id %s", ErrInvalidInput, current.ID, current.ExternalID)
		}
		return s.resolver.AttachManualAlias(ctx, current.ID, rec.PlayerName)
	}

	owner, err := s.identities.FindByExternalID(ctx, externalID)
	switch {
	case err == nil && owner.ID != current.ID:
		return fmt.Errorf("%w: external id %s belongs to identity %d", ErrInvalidInput, externalID, owner.ID)
	case err != nil && !errors.Is(err, identity.ErrNotFound):
		return fmt.Errorf("find identity by external id: %w", err)
	}

	if _, err := s.identities.Upgrade(ctx, identity.Upgrade{
		ID:         current.ID,
		ExternalID: externalID,
		SeenDate:   rec.GameDate,
	}); err != nil {
		return fmt.Errorf("upgrade identity %d: %w", current.ID, err)
	}
	return s.resolver.AttachManualAlias(ctx, current.ID, rec.PlayerName)
}
