package audit

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, e *Event) error
	Paginate(ctx context.Context, page, pageSize int) (PaginatedResult, error)
}
