package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/ledger"
)

// ExpenseService orchestrates expense mutations across the ledger store
// and the optional AMQP event stream. A nil AMQP client disables events;
// publish failures never fail the mutation, the local write wins.
type ExpenseService struct {
	store      ledger.Store
	amqpClient *amqp.Client
}

func NewExpenseService(store ledger.Store, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		store:      store,
		amqpClient: amqpClient,
	}
}

func (s *ExpenseService) CreateExpense(ctx context.Context, e core.ExpenseRecord) (int64, error) {
	id, err := s.store.AddExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.ExpenseCreated, id)
	return id, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.ExpenseRecord) error {
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return err
	}

	s.publish(ctx, amqp.ExpenseUpdated, e.ID)
	return nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.ExpenseDeleted, id)
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, kind string, id int64) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishLedgerEvent(ctx, kind, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "expense_id", id, "error", err)
	}
}

// Close closes the store and the AMQP connection.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}

	return nil
}
