package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/repository"
	"github.com/iliyamo/service-marketplace/internal/validation"
)

// ReportInput is a public complaint about a listing.
type ReportInput struct {
	ReporterEmail string `json:"reporter_email" validate:"required,email,max=255"`
	Reason        string `json:"reason" validate:"required,min=10,max=2000"`
}

// ReportService files content reports.  Reports are resolved by the
// moderation engine when the service is approved or deleted.
type ReportService struct {
	reports  *repository.ContentReportRepo
	services *repository.ServiceRepo
	validate *validation.Validator
	log      *zap.Logger
}

func NewReportService(reports *repository.ContentReportRepo, services *repository.ServiceRepo, validate *validation.Validator, log *zap.Logger) *ReportService {
	return &ReportService{reports: reports, services: services, validate: validate, log: log.Named("report")}
}

// Create files an OPEN report against an existing service.
func (s *ReportService) Create(ctx context.Context, serviceID uint64, in ReportInput) (model.ContentReport, error) {
	in.ReporterEmail = strings.ToLower(strings.TrimSpace(in.ReporterEmail))
	in.Reason = strings.TrimSpace(in.Reason)
	if err := s.validate.Struct(in); err != nil {
		return model.ContentReport{}, err
	}
	if _, err := s.services.GetByID(ctx, serviceID); err != nil {
		return model.ContentReport{}, err
	}
	rep, err := s.reports.Create(ctx, serviceID, in.ReporterEmail, in.Reason)
	if err != nil {
		return model.ContentReport{}, err
	}
	s.log.Info("content report filed", zap.Uint64("service_id", serviceID), zap.Uint64("report_id", rep.ID))
	return rep, nil
}
