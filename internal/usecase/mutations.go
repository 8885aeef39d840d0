package usecase

import (
	"context"

	"custodia/internal/domain"
)

// MediaMutations covers the platform-side state changes that must land in
// the custody chain: annotation edits, review status changes and deletions.
// Emitting the ledger entry is the operation, not a logging side effect.
type MediaMutations struct {
	Verifications VerificationRepository
	Index         MediaIndex
	Audit         *AuditEmitter
}

func (m *MediaMutations) UpdateAnnotation(ctx context.Context, mediaID, actor string, annotation map[string]any) error {
	if _, err := m.Verifications.GetByMediaID(ctx, mediaID); err != nil {
		return err
	}
	return m.Audit.EmitAnnotationUpdated(ctx, mediaID, actor, annotation)
}

func (m *MediaMutations) ChangeReviewStatus(ctx context.Context, mediaID, actor, previous, next string) error {
	if _, err := m.Verifications.GetByMediaID(ctx, mediaID); err != nil {
		return err
	}
	if next == "" {
		return domain.ErrInvalidEnvelope
	}
	return m.Audit.EmitReviewStatusChanged(ctx, mediaID, actor, previous, next)
}

// DeleteMedia records the deletion and drops the media from the known index
// so outstanding access tokens stop validating. The ledger entry itself is
// permanent; byte removal from object storage is the platform's job.
func (m *MediaMutations) DeleteMedia(ctx context.Context, mediaID, actor, reason string) error {
	if _, err := m.Verifications.GetByMediaID(ctx, mediaID); err != nil {
		return err
	}
	if err := m.Audit.EmitMediaDeleted(ctx, mediaID, actor, reason); err != nil {
		return err
	}
	if m.Index != nil {
		return m.Index.Remove(ctx, mediaID)
	}
	return nil
}
