package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/confirm"
	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
	"github.com/bwdnr95/tono-operation-sub000/pkg/metrics"
)

// Dispatcher delivers an outgoing reply to the booking channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, threadKey, content string) error
}

// AuditPublisher records send outcomes and broadcasts refresh events.
// Implementations may be nil-safe wrappers; SendService tolerates a nil
// publisher so tests and dev setups run without a broker.
type AuditPublisher interface {
	PublishSendLog(ctx context.Context, log *model.SendLog) error
	PublishRefresh(ctx context.Context, ev model.RefreshEvent) error
}

// SendService gates and executes draft sends: one-shot confirm tokens for
// manual sends, eligibility checks, dispatch, and audit/refresh publication.
type SendService struct {
	conversations *ConversationService
	tokens        confirm.Store
	dispatcher    Dispatcher
	audit         AuditPublisher
	logger        *logger.Logger
	tokenTTL      time.Duration
	now           func() time.Time
}

// NewSendService creates a new send service.
func NewSendService(
	conversations *ConversationService,
	tokens confirm.Store,
	dispatcher Dispatcher,
	audit AuditPublisher,
	log *logger.Logger,
	tokenTTL time.Duration,
) *SendService {
	return &SendService{
		conversations: conversations,
		tokens:        tokens,
		dispatcher:    dispatcher,
		audit:         audit,
		logger:        log,
		tokenTTL:      tokenTTL,
		now:           time.Now,
	}
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// IssueConfirmToken issues a one-shot token confirming the current draft
// content of a ready conversation. The token expires after the configured
// TTL and is invalidated by any subsequent draft edit, since it is bound to
// a hash of the exact content it confirms.
func (s *SendService) IssueConfirmToken(ctx context.Context, id string) (model.ConfirmTokenResponse, error) {
	detail, err := s.conversations.Get(ctx, id)
	if err != nil {
		return model.ConfirmTokenResponse{}, err
	}
	if detail.Summary.Status != model.StatusReadyToSend {
		return model.ConfirmTokenResponse{}, ErrNotReady
	}
	if detail.Draft == nil {
		return model.ConfirmTokenResponse{}, ErrNoDraft
	}

	token := uuid.NewString()
	binding := confirm.Binding{
		ConversationID: id,
		ContentHash:    contentHash(detail.Draft.Content),
	}
	if err := s.tokens.Put(ctx, token, binding, s.tokenTTL); err != nil {
		return model.ConfirmTokenResponse{}, err
	}

	return model.ConfirmTokenResponse{
		Token:     token,
		ExpiresAt: s.now().Add(s.tokenTTL),
	}, nil
}

// Send dispatches the current draft for one conversation, gated on workflow
// state, thread key consistency, safety verdict, and a valid confirm token.
func (s *SendService) Send(ctx context.Context, id, token string) (model.SendLog, error) {
	if err := s.checkEligible(ctx, id, true); err != nil {
		return model.SendLog{}, err
	}

	binding, err := s.tokens.Claim(ctx, token)
	if err != nil {
		if errors.Is(err, confirm.ErrTokenInvalid) {
			return model.SendLog{}, ErrConfirmToken
		}
		return model.SendLog{}, err
	}

	detail, err := s.conversations.Get(ctx, id)
	if err != nil {
		return model.SendLog{}, err
	}
	if binding.ConversationID != id || detail.Draft == nil || binding.ContentHash != contentHash(detail.Draft.Content) {
		// Token was issued for another conversation or for content that has
		// since been edited.
		return model.SendLog{}, ErrConfirmToken
	}

	return s.dispatch(ctx, id, detail, model.SendActionManual)
}

// BulkSend sends the drafts of every eligible conversation in ids, returning
// a per-item result. The bulk action itself is the confirmation; no per-item
// token is required. A single wide refresh event follows the batch.
func (s *SendService) BulkSend(ctx context.Context, ids []string) model.BulkSendResponse {
	resp := model.BulkSendResponse{Results: make([]model.BulkSendResult, 0, len(ids))}

	// Failed items can still change authoritative state (blocked status,
	// recorded send logs), so the refresh decision tracks state changes,
	// not successful sends.
	changed := 0

	for _, id := range ids {
		result := model.BulkSendResult{ConversationID: id}

		if err := s.checkEligible(ctx, id, false); err != nil {
			if errors.Is(err, ErrSafetyBlocked) {
				changed++
			}
			result.Error = err.Error()
			resp.Failed++
			resp.Results = append(resp.Results, result)
			continue
		}
		detail, err := s.conversations.Get(ctx, id)
		if err != nil {
			result.Error = err.Error()
			resp.Failed++
			resp.Results = append(resp.Results, result)
			continue
		}
		if entry, err := s.dispatch(ctx, id, detail, model.SendActionBulk); err != nil {
			if entry.ID != "" {
				changed++
			}
			result.Error = err.Error()
			resp.Failed++
			resp.Results = append(resp.Results, result)
			continue
		}
		result.Sent = true
		resp.Sent++
		changed++
		resp.Results = append(resp.Results, result)
	}

	if s.audit != nil && changed > 0 {
		ev := model.NewRefreshEvent(model.RefreshScopeAll, "", "bulk_send")
		if err := s.audit.PublishRefresh(ctx, ev); err != nil {
			s.logger.Warn("failed to publish bulk refresh event", zap.Error(err))
		}
	}
	return resp
}

// checkEligible verifies the gate chain common to manual and bulk sends.
// A review verdict is sendable manually once an operator promoted the
// conversation to ready_to_send; bulk sends skip review drafts entirely.
func (s *SendService) checkEligible(ctx context.Context, id string, manual bool) error {
	detail, err := s.conversations.Get(ctx, id)
	if err != nil {
		return err
	}
	if detail.Summary.Status != model.StatusReadyToSend {
		if detail.Summary.Status == model.StatusNeedsReview {
			return ErrNeedsReview
		}
		return ErrNotReady
	}
	if detail.Draft == nil {
		return ErrNoDraft
	}
	if detail.Draft.ThreadKey != detail.Summary.ThreadKey {
		return ErrThreadKeyMismatch
	}
	switch detail.Draft.SafetyStatus {
	case model.SafetyBlock:
		// A blocked verdict ends the attempt and is recorded like any
		// other send outcome.
		if _, recordErr := s.conversations.RecordSend(ctx, id, model.SendLogBlocked, actionFor(manual), "safety block"); recordErr != nil {
			return recordErr
		}
		metrics.SendsTotal.WithLabelValues(string(actionFor(manual)), "blocked").Inc()
		return ErrSafetyBlocked
	case model.SafetyReview:
		if !manual {
			// Bulk sends only take verdict-clean drafts.
			return ErrNeedsReview
		}
	}
	return nil
}

func actionFor(manual bool) model.SendAction {
	if manual {
		return model.SendActionManual
	}
	return model.SendActionBulk
}

func (s *SendService) dispatch(ctx context.Context, id string, detail model.ConversationDetail, action model.SendAction) (model.SendLog, error) {
	err := s.dispatcher.Dispatch(ctx, detail.Summary.ThreadKey, detail.Draft.Content)
	if err != nil {
		entry, recordErr := s.conversations.RecordSend(ctx, id, model.SendLogFailed, action, err.Error())
		if recordErr != nil {
			return model.SendLog{}, recordErr
		}
		metrics.SendsTotal.WithLabelValues(string(action), "failed").Inc()
		s.publishLog(ctx, entry)
		return entry, err
	}

	entry, err := s.conversations.RecordSend(ctx, id, model.SendLogSent, action, "")
	if err != nil {
		return model.SendLog{}, err
	}
	metrics.SendsTotal.WithLabelValues(string(action), "sent").Inc()
	s.publishLog(ctx, entry)

	if s.audit != nil && action == model.SendActionManual {
		ev := model.NewRefreshEvent(model.RefreshScopeConversation, id, "send")
		if err := s.audit.PublishRefresh(ctx, ev); err != nil {
			s.logger.Warn("failed to publish refresh event", zap.Error(err))
		}
	}

	s.logger.Info("draft sent",
		zap.String("conversation_id", id),
		zap.String("action", string(action)),
	)
	return entry, nil
}

func (s *SendService) publishLog(ctx context.Context, entry model.SendLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.PublishSendLog(ctx, &entry); err != nil {
		s.logger.Warn("failed to publish send log",
			zap.String("send_log_id", entry.ID),
			zap.Error(err),
		)
	}
}
