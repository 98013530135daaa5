// Package contracttype wraps the backend's /v1/contract-types resource.
package contracttype

import (
	"context"
	"net/http"

	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/transport"
)

const basePath = "/v1/contract-types"

// Doer performs backend calls. *transport.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req transport.Request, out any) error
}

// API is the contract-type command and query surface.
type API interface {
	CreateContractType(ctx context.Context, body models.CreateContractTypeRequest) (*models.ContractType, error)
	GetAll(ctx context.Context) ([]models.ContractType, error)
}

type Command struct {
	doer Doer
}

func NewCommand(doer Doer) *Command {
	return &Command{doer: doer}
}

// CreateContractType posts a new contract type.
func (c *Command) CreateContractType(ctx context.Context, body models.CreateContractTypeRequest) (*models.ContractType, error) {
	var ct models.ContractType
	err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   basePath,
		Route:  basePath,
		Body:   body,
	}, &ct)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

type Query struct {
	doer Doer
}

func NewQuery(doer Doer) *Query {
	return &Query{doer: doer}
}

// GetAll lists every contract type.
func (q *Query) GetAll(ctx context.Context) ([]models.ContractType, error) {
	var items []models.ContractType
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

// Client combines Command and Query.
type Client struct {
	*Command
	*Query
}

func NewClient(doer Doer) *Client {
	return &Client{Command: NewCommand(doer), Query: NewQuery(doer)}
}
