package service

import (
	"context"
	"encoding/json"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/xray"
)

// XrayService fronts the process supervisor and writes the audit trail for
// every control action.
type XrayService interface {
	Status(ctx context.Context) dto.XrayStatusResponse
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	GetConfig(ctx context.Context) (json.RawMessage, error)
	UpdateConfig(ctx context.Context, req dto.XrayConfigUpdateRequest) error
}

type xrayService struct {
	manager  xray.Manager
	recorder AuditRecorder
}

func NewXrayService(manager xray.Manager, recorder AuditRecorder) XrayService {
	return &xrayService{manager: manager, recorder: recorder}
}

func (s *xrayService) Status(ctx context.Context) dto.XrayStatusResponse {
	return s.manager.Status()
}

func (s *xrayService) Start(ctx context.Context) error {
	err := s.manager.Start(ctx)
	if err != nil {
		s.audit(ctx, "xray.started", model.AuditStatusFailure, err.Error())
		return err
	}
	s.audit(ctx, "xray.started", model.AuditStatusSuccess, "")
	return nil
}

func (s *xrayService) Stop(ctx context.Context) error {
	err := s.manager.Stop(ctx)
	if err != nil {
		s.audit(ctx, "xray.stopped", model.AuditStatusFailure, err.Error())
		return err
	}
	s.audit(ctx, "xray.stopped", model.AuditStatusSuccess, "")
	return nil
}

func (s *xrayService) Restart(ctx context.Context) error {
	err := s.manager.Restart(ctx)
	if err != nil {
		s.audit(ctx, "xray.restarted", model.AuditStatusFailure, err.Error())
		return err
	}
	s.audit(ctx, "xray.restarted", model.AuditStatusSuccess, "")
	return nil
}

func (s *xrayService) GetConfig(ctx context.Context) (json.RawMessage, error) {
	return s.manager.CurrentConfig()
}

func (s *xrayService) UpdateConfig(ctx context.Context, req dto.XrayConfigUpdateRequest) error {
	if req.DryRun {
		err := s.manager.ValidateConfig(ctx, req.Config)
		if err != nil {
			s.audit(ctx, "xray.config_validated", model.AuditStatusFailure, err.Error())
			return err
		}
		s.audit(ctx, "xray.config_validated", model.AuditStatusSuccess, "dry run")
		return nil
	}

	err := s.manager.ApplyConfig(ctx, req.Config)
	if err != nil {
		s.audit(ctx, "xray.config_updated", model.AuditStatusFailure, err.Error())
		return err
	}
	s.audit(ctx, "xray.config_updated", model.AuditStatusSuccess, "")
	return nil
}

func (s *xrayService) audit(ctx context.Context, action, status, detail string) {
	actor := model.ActorFromContext(ctx)
	s.recorder.Record(model.AuditEvent{
		Category:  model.AuditCategoryXray,
		Action:    action,
		Actor:     actor.Name,
		ActorIP:   actor.IP,
		Target:    "xray-core",
		Status:    status,
		Detail:    detail,
		RequestID: actor.RequestID,
	})
}
