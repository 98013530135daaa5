// Package statuscatalog reads the backend's status catalog.
package statuscatalog

import (
	"context"
	"net/http"

	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/transport"
)

const basePath = "/v1/status-catalogs"

type Doer interface {
	Do(ctx context.Context, req transport.Request, out any) error
}

type Query struct {
	doer Doer
}

func NewQuery(doer Doer) *Query {
	return &Query{doer: doer}
}

// GetAll returns every catalog entry in backend order.
func (q *Query) GetAll(ctx context.Context) ([]models.StatusCatalog, error) {
	var items []models.StatusCatalog
	err := q.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   basePath,
		Route:  basePath,
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}
