package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"nisser/internal/model"
	"nisser/internal/repository"
)

// 64 symbols, so a random byte masked to 6 bits maps onto it without bias.
const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const maxInviteCodeAttempts = 5

// InviteService mints invite links and redeems them into mutual follows.
type InviteService struct {
	db         *sqlx.DB
	inviteRepo repository.InviteRepository
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	baseURL    string
	now        func() time.Time
	log        *zap.Logger
}

func NewInviteService(
	db *sqlx.DB,
	inviteRepo repository.InviteRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	baseURL string,
	log *zap.Logger,
) *InviteService {
	return &InviteService{
		db:         db,
		inviteRepo: inviteRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		now:        time.Now,
		log:        log.Named("invite"),
	}
}

// Generate creates a fresh invite for inviterID valid for model.InviteTTL.
func (s *InviteService) Generate(ctx context.Context, inviterID int64) (*model.GeneratedInvite, error) {
	for attempt := 1; attempt <= maxInviteCodeAttempts; attempt++ {
		code, err := generateInviteCode(model.InviteCodeLength)
		if err != nil {
			return nil, err
		}

		invite := &model.Invite{
			Code:      code,
			InviterID: inviterID,
			ExpiresAt: s.now().Add(model.InviteTTL),
		}
		err = s.inviteRepo.Create(ctx, invite)
		if errors.Is(err, model.ErrInviteCodeTaken) {
			s.log.Warn("invite code collision", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		return &model.GeneratedInvite{
			InviteURL: s.baseURL + "/invite?code=" + url.QueryEscape(code),
		}, nil
	}

	return nil, fmt.Errorf("generate invite code: %w", model.ErrInviteCodeTaken)
}

// Validate checks a code without consuming it and returns the inviter.
func (s *InviteService) Validate(ctx context.Context, code string) (*model.InviteValidation, error) {
	invite, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !invite.IsRedeemable(s.now()) {
		return nil, model.ErrInviteInvalid
	}

	inviter, err := s.userRepo.GetSummary(ctx, invite.InviterID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrInviteInvalid
	}
	if err != nil {
		return nil, err
	}

	return &model.InviteValidation{Valid: true, Inviter: *inviter}, nil
}

// RedeemOnRegister consumes the code for newUserID and creates the follow
// edges in both directions, all in one transaction.
func (s *InviteService) RedeemOnRegister(ctx context.Context, code string, newUserID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inviterID, err := s.inviteRepo.Consume(ctx, tx, code, newUserID)
	if err != nil {
		return err
	}

	if _, err := s.followRepo.Create(ctx, tx, inviterID, newUserID); err != nil {
		return err
	}
	if _, err := s.followRepo.Create(ctx, tx, newUserID, inviterID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.log.Info("invite redeemed", zap.Int64("inviter_id", inviterID), zap.Int64("user_id", newUserID))
	return nil
}

func generateInviteCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[b&63]
	}
	return string(buf), nil
}
