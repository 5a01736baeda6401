package service

import (
	"context"
	"errors"

	"koomia/api/internal/apperr"
	"koomia/api/internal/mail"
	"koomia/api/internal/queue"
	"koomia/api/internal/repository"
)

var (
	ErrAccountBlocked  = apperr.New(apperr.Forbidden, "Your account has been blocked.")
	ErrAccountNotFound = apperr.New(apperr.Unauthorized, "Account not found or signed out.")
	ErrProductNotFound = apperr.New(apperr.NotFound, "Product not found.")
	ErrOrderNotFound   = apperr.New(apperr.NotFound, "Order not found.")
)

// Mailer queues mail for asynchronous delivery.
type Mailer interface {
	Enqueue(ctx context.Context, msg mail.Message) error
}

type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, event queue.OrderPlacedEvent) error
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Paging struct {
	Page  int
	Limit int
}

func (p Paging) normalize() Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// notFound turns repository.ErrNotFound into domainErr and passes anything
// else through.
func notFound(err error, domainErr *apperr.Error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domainErr
	}
	return err
}
