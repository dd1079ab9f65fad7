// Package complaint provides the core logic for handling complaints: intake
// validation, protocol issuance, lookups and the administrative response flow.
package complaint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"ouvidoria/backend/internal/config"
	"ouvidoria/backend/internal/eligibility"
	"ouvidoria/backend/internal/metrics"
	"ouvidoria/backend/internal/models"
	"ouvidoria/backend/internal/protocol"
	"ouvidoria/backend/internal/storage"
	"strings"
	"time"
)

// Dispatcher delivers new-complaint notifications without blocking the caller.
// *notify.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, protocol, category string)
}

// Service handles the business logic for complaints.
type Service struct {
	Storage    storage.Storage
	oracle     eligibility.Oracle
	allocator  protocol.Allocator
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures a Service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithNotifier sets where new complaints are announced once stored.
func WithNotifier(d Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
	}
}

func WithAllocator(a protocol.Allocator) Option {
	return func(s *Service) {
		s.allocator = a
	}
}

// NewService creates a new complaint service.
func NewService(s storage.Storage, oracle eligibility.Oracle, opts ...Option) *Service {
	svc := &Service{
		Storage:   s,
		oracle:    oracle,
		allocator: protocol.NewSequence(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register validates in, stores a new pending complaint and returns its protocol.
// Checks run in a fixed order: national id, enrollment id, eligibility, then
// the required text fields.
func (s *Service) Register(ctx context.Context, in models.RegistrationInput) (string, error) {
	in = in.Trimmed()

	nationalID, err := NormalizeNationalID(in.NationalID)
	if err != nil {
		return "", s.reject(err)
	}
	enrollmentID, err := NormalizeEnrollmentID(in.EnrollmentID)
	if err != nil {
		return "", s.reject(err)
	}

	eligible, err := s.oracle.IsEligible(ctx, enrollmentID)
	if err != nil {
		s.logger.Error("eligibility check failed", "enrollment_id", enrollmentID, "error", err)
		return "", s.reject(newError(KindEligibilityUnavailable, "enrollment_id", err))
	}
	if !eligible {
		return "", s.reject(newError(KindEnrollmentNotEligible, "enrollment_id", nil))
	}

	if in.Category == "" {
		return "", s.reject(newError(KindMissingRequiredField, "category", nil))
	}
	if in.Description == "" {
		return "", s.reject(newError(KindMissingRequiredField, "description", nil))
	}

	filer := in.FilerName
	if filer == "" {
		filer = config.AnonymousFilerName
	}
	createdAt := s.now().UTC()

	for attempt := 1; attempt <= config.MaxProtocolAttempts; attempt++ {
		p, err := s.allocator.Allocate()
		if err != nil {
			return "", s.reject(newError(KindStore, "", fmt.Errorf("allocate protocol: %w", err)))
		}

		c := &models.Complaint{
			Protocol:     p,
			FilerName:    filer,
			NationalID:   nationalID,
			EnrollmentID: enrollmentID,
			Category:     in.Category,
			Description:  in.Description,
			CreatedAt:    createdAt,
			Status:       models.StatusPending,
		}

		err = s.Storage.Append(ctx, c)
		if errors.Is(err, storage.ErrDuplicateProtocol) {
			s.logger.Warn("protocol collision, allocating again", "protocol", p, "attempt", attempt)
			continue
		}
		if err != nil {
			s.logger.Error("failed to store complaint", "protocol", p, "error", err)
			return "", s.reject(newError(KindStore, "", fmt.Errorf("append complaint: %w", err)))
		}

		s.metrics.IncrementRegistered()
		s.logger.Info("complaint registered", "protocol", p, "category", c.Category)
		if s.dispatcher != nil {
			s.dispatcher.Dispatch(ctx, p, c.Category)
		}
		return p, nil
	}

	s.logger.Error("protocol allocation exhausted", "attempts", config.MaxProtocolAttempts)
	return "", s.reject(newError(KindProtocolExhausted, "", nil))
}

func (s *Service) reject(err error) error {
	s.metrics.IncrementRejected(string(KindOf(err)))
	return err
}

// GetByProtocol returns the complaint carrying protocol. Malformed protocols
// and unreadable storage both report not found.
func (s *Service) GetByProtocol(ctx context.Context, p string) (*models.Complaint, error) {
	p = strings.TrimSpace(p)
	if !protocol.Valid(p) {
		return nil, newError(KindNotFound, "protocol", nil)
	}

	c, err := s.Storage.Get(ctx, p)
	if err != nil {
		s.logger.Warn("complaint lookup degraded", "protocol", p, "error", err)
		return nil, newError(KindNotFound, "protocol", nil)
	}
	if c == nil {
		return nil, newError(KindNotFound, "protocol", nil)
	}
	return c, nil
}

// FindByNationalID returns every complaint filed under the given national id.
// The result is never nil.
func (s *Service) FindByNationalID(ctx context.Context, id string) ([]models.Complaint, error) {
	nationalID, err := NormalizeNationalID(id)
	if err != nil {
		return []models.Complaint{}, err
	}
	return s.degrade("national_id", s.Storage.FindByNationalID)(ctx, nationalID), nil
}

// FindByEnrollmentID returns every complaint filed under the given enrollment id.
func (s *Service) FindByEnrollmentID(ctx context.Context, id string) ([]models.Complaint, error) {
	enrollmentID, err := NormalizeEnrollmentID(id)
	if err != nil {
		return []models.Complaint{}, err
	}
	return s.degrade("enrollment_id", s.Storage.FindByEnrollmentID)(ctx, enrollmentID), nil
}

// ListAll returns every complaint, newest first.
func (s *Service) ListAll(ctx context.Context) []models.Complaint {
	cs, err := s.Storage.List(ctx)
	if err != nil {
		s.logger.Warn("complaint listing degraded", "error", err)
		return []models.Complaint{}
	}
	if cs == nil {
		return []models.Complaint{}
	}
	return cs
}

func (s *Service) degrade(key string, find func(context.Context, string) ([]models.Complaint, error)) func(context.Context, string) []models.Complaint {
	return func(ctx context.Context, value string) []models.Complaint {
		cs, err := find(ctx, value)
		if err != nil {
			s.logger.Warn("complaint search degraded", key, value, "error", err)
			return []models.Complaint{}
		}
		if cs == nil {
			return []models.Complaint{}
		}
		return cs
	}
}

// AttachResponse records the administrative response to a complaint and marks
// it responded. A later call replaces the previous response.
func (s *Service) AttachResponse(ctx context.Context, p, text string) error {
	p = strings.TrimSpace(p)
	text = strings.TrimSpace(text)
	if p == "" {
		return newError(KindMissingRequiredField, "protocol", nil)
	}
	if text == "" {
		return newError(KindMissingRequiredField, "response", nil)
	}
	if !protocol.Valid(p) {
		return newError(KindNotFound, "protocol", nil)
	}

	if prev, err := s.Storage.Get(ctx, p); err == nil && prev != nil && prev.IsResponded() {
		s.logger.Warn("overwriting existing complaint response", "protocol", p)
	}

	err := s.Storage.UpdateResponse(ctx, p, text, s.now().UTC())
	if errors.Is(err, storage.ErrNotFound) {
		return newError(KindNotFound, "protocol", nil)
	}
	if err != nil {
		s.logger.Error("failed to store complaint response", "protocol", p, "error", err)
		return newError(KindStore, "", fmt.Errorf("update response: %w", err))
	}

	s.metrics.IncrementResponded()
	s.logger.Info("complaint responded", "protocol", p)
	return nil
}
