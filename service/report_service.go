package service

import (
	"context"
	"fmt"

	"accrual/models"
)

type reportService struct {
	uowFactory UnitOfWorkFactory
}

// NewReportService creates a new report service
func NewReportService(uowFactory UnitOfWorkFactory) ReportService {
	return &reportService{uowFactory: uowFactory}
}

func (s *reportService) AccrualHistory(ctx context.Context, accountNumber string, limit int) ([]*models.MonthlyAccrualHistory, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if accountNumber != "" {
		account, err := uow.AccountRepository().GetByNumber(ctx, accountNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountNumber)
		}
	}

	history, err := uow.AccrualRepository().ListMonthlyHistory(ctx, accountNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list accrual history: %w", err)
	}
	return history, nil
}

func (s *reportService) RecentRuns(ctx context.Context, limit int) ([]*models.BatchRun, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	runs, err := uow.BatchRunRepository().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch runs: %w", err)
	}
	return runs, nil
}
