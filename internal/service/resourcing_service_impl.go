package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/repository"
)

type resourcingService struct {
	docs  repository.DocumentRepo
	years []string
}

// NewResourcingService reads and writes the personnel and hardware plans.
// Until a plan is saved, the default plan is returned; years seeds the
// default personnel plan and falls back to domain.DefaultYears.
func NewResourcingService(docs repository.DocumentRepo, years []string) ResourcingService {
	if len(years) == 0 {
		years = domain.DefaultYears
	}
	return &resourcingService{docs: docs, years: years}
}

func (s *resourcingService) Personnel(ctx context.Context) (domain.PersonnelPlan, error) {
	var plan domain.PersonnelPlan
	found, err := s.load(ctx, domain.PersonnelDocumentKey, &plan)
	if err != nil {
		return nil, err
	}
	if !found {
		return domain.DefaultPersonnelPlan(s.years...), nil
	}
	return plan, nil
}

func (s *resourcingService) Hardware(ctx context.Context) (domain.HardwarePlan, error) {
	var plan domain.HardwarePlan
	found, err := s.load(ctx, domain.HardwareDocumentKey, &plan)
	if err != nil {
		return nil, err
	}
	if !found {
		return domain.DefaultHardwarePlan(), nil
	}
	return plan, nil
}

func (s *resourcingService) SavePersonnel(ctx context.Context, plan domain.PersonnelPlan) error {
	for year, positions := range plan {
		for i, p := range positions {
			if p.Position == "" {
				return fmt.Errorf("%s line %d: position is required: %w", year, i+1, domain.ErrValidation)
			}
			if p.Cost < 0 || p.Qty < 0 {
				return fmt.Errorf("%s %s: cost and quantity must not be negative: %w", year, p.Position, domain.ErrValidation)
			}
		}
	}
	return s.save(ctx, domain.PersonnelDocumentKey, plan)
}

func (s *resourcingService) SaveHardware(ctx context.Context, plan domain.HardwarePlan) error {
	for year, items := range plan {
		for i, h := range items {
			if h.Item == "" {
				return fmt.Errorf("%s line %d: item is required: %w", year, i+1, domain.ErrValidation)
			}
			if h.Cost < 0 || h.Qty < 0 {
				return fmt.Errorf("%s %s: cost and quantity must not be negative: %w", year, h.Item, domain.ErrValidation)
			}
		}
	}
	return s.save(ctx, domain.HardwareDocumentKey, plan)
}

func (s *resourcingService) load(ctx context.Context, key string, into any) (bool, error) {
	doc, err := s.docs.Load(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal(doc.Body, into); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (s *resourcingService) save(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if _, err := s.docs.Save(ctx, key, body); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
