package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"medrestock/internal/domain"
	"medrestock/internal/repository"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotEnoughStock = errors.New("not enough stock")
)

// MedicationService owns inventory records. It stands in for the external
// inventory operations that mutate quantities.
type MedicationService struct {
	repo repository.MedicationRepository
	tx   repository.TxManager
	log  *zap.Logger
}

func NewMedicationService(repo repository.MedicationRepository, tx repository.TxManager, log *zap.Logger) *MedicationService {
	return &MedicationService{repo: repo, tx: tx, log: log}
}

// Registration is a newly created medication plus its registration-screen
// supply level.
type Registration struct {
	Medication  domain.Medication  `json:"medication"`
	SupplyLevel domain.SupplyLevel `json:"supply_level"`
}

func (s *MedicationService) Create(ctx context.Context, m domain.Medication) (*Registration, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" || m.Quantity < 0 || m.ReorderPoint < 0 || !m.Category.IsValid() {
		return nil, ErrInvalidInput
	}
	cp := m
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	s.log.Info("medication registered",
		zap.String("medication_id", cp.ID),
		zap.String("category", string(cp.Category)),
		zap.Int("quantity", cp.Quantity),
	)
	return &Registration{
		Medication:  cp,
		SupplyLevel: domain.ClassifySupply(cp.Quantity, cp.ReorderPoint),
	}, nil
}

func (s *MedicationService) GetByID(ctx context.Context, id string) (*domain.Medication, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *MedicationService) List(ctx context.Context, f repository.MedicationFilter) ([]domain.Medication, error) {
	return s.repo.List(ctx, f)
}

// LowStock lists medications at or below their reorder point, empty
// shelves included.
func (s *MedicationService) LowStock(ctx context.Context, category domain.Category) ([]domain.Medication, error) {
	return s.repo.List(ctx, repository.MedicationFilter{LowStockOnly: true, Category: category})
}

// AdjustStock applies a signed delta to the quantity on hand.
func (s *MedicationService) AdjustStock(ctx context.Context, id string, delta int) (*domain.Medication, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	var updated *domain.Medication
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if m.Quantity+delta < 0 {
			return ErrNotEnoughStock
		}
		m.Quantity += delta
		if err := s.repo.Update(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
