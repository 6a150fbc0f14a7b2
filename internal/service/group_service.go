package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
)

var (
	ErrGroupNameTaken = errors.New("group name already in use")
	ErrNoPendingPlan  = errors.New("group has no staged rollout")
)

var allowedProtocols = map[string]bool{
	"vless": true, "vmess": true, "trojan": true, "shadowsocks": true,
}

// GroupService manages user groups and their staged policy rollouts. A
// rollout stages the next policy document on the group; the scheduler
// applies it once its activation time passes.
type GroupService interface {
	Create(ctx context.Context, req dto.GroupUpsertRequest) (*model.Group, error)
	Update(ctx context.Context, id string, req dto.GroupUpsertRequest) (*model.Group, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
	StageRollout(ctx context.Context, id string, req dto.GroupRolloutRequest) (*model.Group, error)
	CancelRollout(ctx context.Context, id string) (*model.Group, error)
	ApplyDueRollouts(ctx context.Context) error
}

type groupService struct {
	groups   repository.GroupRepository
	recorder AuditRecorder
}

func NewGroupService(groups repository.GroupRepository, recorder AuditRecorder) GroupService {
	return &groupService{groups: groups, recorder: recorder}
}

func validatePolicy(req *dto.GroupUpsertRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("group name is required")
	}
	for _, protocol := range req.Protocols {
		if !allowedProtocols[strings.ToLower(protocol)] {
			return fmt.Errorf("unsupported protocol: %s", protocol)
		}
	}
	if req.QuotaGB < 0 {
		return errors.New("quota_gb cannot be negative")
	}
	if req.ExpiryDays < 0 {
		return errors.New("expiry_days cannot be negative")
	}
	return nil
}

func applyPolicy(group *model.Group, req dto.GroupUpsertRequest) {
	group.Name = req.Name
	group.InboundTag = req.InboundTag
	group.Protocols = strings.ToLower(strings.Join(req.Protocols, ","))
	group.QuotaGB = req.QuotaGB
	group.ExpiryDays = req.ExpiryDays
	if req.Enabled != nil {
		group.Enabled = *req.Enabled
	}
	group.Note = req.Note
}

func (s *groupService) Create(ctx context.Context, req dto.GroupUpsertRequest) (*model.Group, error) {
	if err := validatePolicy(&req); err != nil {
		return nil, err
	}
	if _, err := s.groups.GetByName(ctx, req.Name); err == nil {
		return nil, ErrGroupNameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	group := &model.Group{ID: uuid.NewString(), Enabled: true}
	applyPolicy(group, req)
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	s.audit(ctx, "group.created", group.Name, model.AuditStatusSuccess, "")
	return group, nil
}

func (s *groupService) Update(ctx context.Context, id string, req dto.GroupUpsertRequest) (*model.Group, error) {
	if err := validatePolicy(&req); err != nil {
		return nil, err
	}
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if other, err := s.groups.GetByName(ctx, req.Name); err == nil && other.ID != group.ID {
		return nil, ErrGroupNameTaken
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	applyPolicy(group, req)
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}
	s.audit(ctx, "group.updated", group.Name, model.AuditStatusSuccess, "")
	return group, nil
}

func (s *groupService) Delete(ctx context.Context, id string) error {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, "group.deleted", group.Name, model.AuditStatusSuccess, "")
	return nil
}

func (s *groupService) Get(ctx context.Context, id string) (*model.Group, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *groupService) List(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}

func (s *groupService) StageRollout(ctx context.Context, id string, req dto.GroupRolloutRequest) (*model.Group, error) {
	if err := validatePolicy(&req.Policy); err != nil {
		return nil, err
	}
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Immediate rollout when no activation time is given or it is already
	// in the past.
	if req.RolloutAt == nil || !req.RolloutAt.After(time.Now()) {
		applyPolicy(group, req.Policy)
		group.PendingJSON = ""
		group.RolloutAt = nil
		if err := s.groups.Update(ctx, group); err != nil {
			return nil, err
		}
		s.audit(ctx, "group.rollout_applied", group.Name, model.AuditStatusSuccess, "applied immediately")
		return group, nil
	}

	pending, err := json.Marshal(req.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pending policy: %w", err)
	}
	group.PendingJSON = string(pending)
	group.RolloutAt = req.RolloutAt
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}
	s.audit(ctx, "group.rollout_staged", group.Name, model.AuditStatusSuccess,
		"activates at "+req.RolloutAt.UTC().Format(time.RFC3339))
	return group, nil
}

func (s *groupService) CancelRollout(ctx context.Context, id string) (*model.Group, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group.PendingJSON == "" {
		return nil, ErrNoPendingPlan
	}
	group.PendingJSON = ""
	group.RolloutAt = nil
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}
	s.audit(ctx, "group.rollout_cancelled", group.Name, model.AuditStatusSuccess, "")
	return group, nil
}

// ApplyDueRollouts promotes every staged policy whose activation time has
// passed. The scheduler calls this periodically.
func (s *groupService) ApplyDueRollouts(ctx context.Context) error {
	due, err := s.groups.ListDueRollouts(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to list due rollouts: %w", err)
	}
	for i := range due {
		group := &due[i]
		var policy dto.GroupUpsertRequest
		if err := json.Unmarshal([]byte(group.PendingJSON), &policy); err != nil {
			log.Error().Err(err).Str("group", group.Name).Msg("Staged policy is corrupt, discarding")
			group.PendingJSON = ""
			group.RolloutAt = nil
			if err := s.groups.Update(ctx, group); err != nil {
				log.Error().Err(err).Str("group", group.Name).Msg("Failed to discard corrupt rollout")
			}
			s.audit(ctx, "group.rollout_applied", group.Name, model.AuditStatusFailure, "staged policy was corrupt")
			continue
		}

		applyPolicy(group, policy)
		group.PendingJSON = ""
		group.RolloutAt = nil
		if err := s.groups.Update(ctx, group); err != nil {
			log.Error().Err(err).Str("group", group.Name).Msg("Failed to apply staged rollout")
			continue
		}
		log.Info().Str("group", group.Name).Msg("Applied staged rollout")
		s.audit(ctx, "group.rollout_applied", group.Name, model.AuditStatusSuccess, "")
	}
	return nil
}

func (s *groupService) audit(ctx context.Context, action, target, status, detail string) {
	actor := model.ActorFromContext(ctx)
	s.recorder.Record(model.AuditEvent{
		Category:  model.AuditCategoryGroups,
		Action:    action,
		Actor:     actor.Name,
		ActorIP:   actor.IP,
		Target:    target,
		Status:    status,
		Detail:    detail,
		RequestID: actor.RequestID,
	})
}
