package tasksync

import (
	"context"
	"fmt"

	"github.com/gurkanbulca/taskdesk/internal/api/contracttype"
	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/querycache"
	"github.com/gurkanbulca/taskdesk/pkg/notify"
)

var opCreateContractType = outcome{"create contract type", "Created successfully", "Failed to create contract type"}

func ContractTypeKey() querycache.Key {
	return querycache.Key{"contract-type"}
}

// ContractTypes serves the HRM contract-type form and list.
type ContractTypes struct {
	cache    *querycache.Cache
	api      contracttype.API
	notifier notify.Notifier

	creating inflight
}

func NewContractTypes(cache *querycache.Cache, api contracttype.API, notifier notify.Notifier) *ContractTypes {
	return &ContractTypes{cache: cache, api: api, notifier: notifier}
}

// All lists the contract types through the cache.
func (c *ContractTypes) All(ctx context.Context) ([]models.ContractType, error) {
	items, err := querycache.Fetch(ctx, c.cache, querycache.Key{"contract-type", "all"}, c.api.GetAll)
	if err != nil {
		return nil, fmt.Errorf("list contract types: %w", err)
	}
	return items, nil
}

// Create submits a new contract type. Notices go out while ctx is live.
func (c *ContractTypes) Create(ctx context.Context, body models.CreateContractTypeRequest) (*models.ContractType, error) {
	defer c.creating.start()()

	ct, err := c.api.CreateContractType(ctx, body)
	settle(ctx, ctx, c.notifier, c.cache, opCreateContractType, err, ContractTypeKey())
	return ct, err
}

func (c *ContractTypes) IsCreating() bool {
	return c.creating.active()
}
