package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/policy"
	"github.com/librarium/loan-service/internal/core/ports"
)

// BranchService implements branch management.
type BranchService struct {
	branches ports.BranchRepository
	clock    ports.Clock
	logger   zerolog.Logger
}

func NewBranchService(branches ports.BranchRepository, clock ports.Clock, logger zerolog.Logger) *BranchService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &BranchService{branches: branches, clock: clock, logger: logger}
}

func (s *BranchService) Create(ctx context.Context, input ports.CreateBranchInput) (*domain.Branch, error) {
	if !policy.Allowed(input.Actor, policy.ActionBranchWrite, policy.Resource{}) {
		return nil, domain.ErrForbidden
	}

	now := s.clock.Now()
	branch := &domain.Branch{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Address:     input.Address,
		Description: input.Description,
		Phone:       input.Phone,
		Email:       input.Email,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}

	s.logger.Info().Str("branch_id", branch.ID).Str("name", branch.Name).
		Str("actor_id", input.Actor.ID).Msg("branch created")
	return branch, nil
}

func (s *BranchService) Get(ctx context.Context, branchID string) (*domain.Branch, error) {
	return s.branches.FindByID(ctx, branchID)
}

func (s *BranchService) Update(ctx context.Context, input ports.UpdateBranchInput) (*domain.Branch, error) {
	if !policy.Allowed(input.Actor, policy.ActionBranchWrite, policy.Resource{}) {
		return nil, domain.ErrForbidden
	}

	branch, err := s.branches.FindByID(ctx, input.BranchID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		branch.Name = *input.Name
	}
	if input.Address != nil {
		branch.Address = *input.Address
	}
	if input.Description != nil {
		branch.Description = *input.Description
	}
	if input.Phone != nil {
		branch.Phone = *input.Phone
	}
	if input.Email != nil {
		branch.Email = *input.Email
	}
	if input.Active != nil {
		// Soft deactivation: book associations persist.
		branch.Active = *input.Active
	}
	branch.UpdatedAt = s.clock.Now()

	if err := s.branches.Update(ctx, branch); err != nil {
		return nil, err
	}

	s.logger.Info().Str("branch_id", branch.ID).Str("actor_id", input.Actor.ID).Msg("branch updated")
	return branch, nil
}

func (s *BranchService) Delete(ctx context.Context, actor domain.Actor, branchID string) error {
	if !policy.Allowed(actor, policy.ActionBranchDelete, policy.Resource{}) {
		return domain.ErrForbidden
	}
	if err := s.branches.Delete(ctx, branchID); err != nil {
		return err
	}
	s.logger.Info().Str("branch_id", branchID).Str("actor_id", actor.ID).Msg("branch deleted")
	return nil
}

func (s *BranchService) List(ctx context.Context, filter ports.ListBranchesFilter) (*ports.ListBranchesResult, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	items, total, err := s.branches.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return &ports.ListBranchesResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}
