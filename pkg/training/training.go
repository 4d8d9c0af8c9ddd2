package training

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/singnet/snet-payments-go/pkg/grpc"
	"github.com/singnet/snet-payments-go/pkg/payment"
)

// Status values reported by training daemons for a model lifecycle.
const (
	StatusCreated    = "CREATED"
	StatusValidating = "VALIDATING"
	StatusValidated  = "VALIDATED"
	StatusTraining   = "TRAINING"
	StatusReadyToUse = "READY_TO_USE"
	StatusErrored    = "ERRORED"
	StatusDeleted    = "DELETED"
)

// Model is a training model record as reported by the daemon.
type Model struct {
	ModelID          string   `json:"model_id"`
	Status           string   `json:"status"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	GrpcMethodName   string   `json:"grpc_method_name"`
	GrpcServiceName  string   `json:"grpc_service_name"`
	AddressList      []string `json:"address_list"`
	IsPublic         bool     `json:"is_public"`
	TrainingDataLink string   `json:"training_data_link"`
	CreatedDate      string   `json:"created_date"`
	UpdatedDate      string   `json:"updated_date"`
}

// ModelParams describes a new model to register with the daemon. The
// organization, service and group identifiers are filled in by the client.
type ModelParams struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	GrpcMethodName  string   `json:"grpc_method_name,omitempty"`
	GrpcServiceName string   `json:"grpc_service_name,omitempty"`
	AddressList     []string `json:"address_list,omitempty"`
	IsPublic        bool     `json:"is_public,omitempty"`
	OrganizationID  string   `json:"organization_id,omitempty"`
	ServiceID       string   `json:"service_id,omitempty"`
	GroupID         string   `json:"group_id,omitempty"`
}

// ModelFilters narrows a ListModels query. Zero values are not sent.
type ModelFilters struct {
	Statuses        []string `json:"statuses,omitempty"`
	IsPublic        bool     `json:"is_public,omitempty"`
	GrpcMethodName  string   `json:"grpc_method_name,omitempty"`
	GrpcServiceName string   `json:"grpc_service_name,omitempty"`
	Name            string   `json:"name,omitempty"`
	Page            uint32   `json:"page,omitempty"`
	PageSize        uint32   `json:"page_size,omitempty"`
}

// ModelList is one page of ListModels results.
type ModelList struct {
	Models     []*Model `json:"list_of_models"`
	TotalCount uint32   `json:"total_count"`
}

// Client manages training models on a service daemon. Every request is paid
// with train-call payment metadata bound to the model it concerns.
type Client interface {
	CreateModel(params *ModelParams) (string, error)
	GetModel(modelID string) (*Model, error)
	ListModels(filters ModelFilters) (*ModelList, error)
	UpdateModel(modelID string, params *ModelParams) (*Model, error)
	DeleteModel(modelID string) (string, error)

	TrainModelPrice(modelID string) (*big.Int, error)
	TrainModel(modelID string) (string, error)

	ValidateModelPrice(modelID, trainingDataLink string) (*big.Int, error)
	ValidateModel(modelID, trainingDataLink string) (string, error)
}

// DaemonClient talks to one daemon's training service over the dynamic gRPC
// client. The training proto is compiled into every service client's
// descriptor set, so the same connection serves both inference and training.
type DaemonClient struct {
	rpc       *grpc.Client
	channels  payment.ChannelSource
	callPrice *big.Int
	orgID     string
	serviceID string
	groupID   string
	timeout   time.Duration
}

var _ Client = (*DaemonClient)(nil)

// NewDaemonClient builds a training client over an existing service
// connection. callPrice is the service's fixed call price, used for
// management requests; train and validate operations are paid at the price
// the daemon quotes for them.
func NewDaemonClient(rpc *grpc.Client, channels payment.ChannelSource, callPrice *big.Int, orgID, serviceID, groupID string, timeout time.Duration) *DaemonClient {
	return &DaemonClient{
		rpc:       rpc,
		channels:  channels,
		callPrice: callPrice,
		orgID:     orgID,
		serviceID: serviceID,
		groupID:   groupID,
		timeout:   timeout,
	}
}

// CreateModel registers a new model and returns its daemon-assigned ID.
func (c *DaemonClient) CreateModel(params *ModelParams) (string, error) {
	if params == nil || params.Name == "" {
		return "", fmt.Errorf("model name is required")
	}
	req := *params
	req.OrganizationID = c.orgID
	req.ServiceID = c.serviceID
	req.GroupID = c.groupID

	var resp struct {
		ModelID string `json:"model_id"`
	}
	if err := c.call("create_model", "", c.callPrice, req, &resp); err != nil {
		return "", err
	}
	zap.L().Debug("Model created", zap.String("modelID", resp.ModelID))
	return resp.ModelID, nil
}

// GetModel returns one model record.
func (c *DaemonClient) GetModel(modelID string) (*Model, error) {
	var resp Model
	if err := c.call("get_model", modelID, c.callPrice, modelRef{modelID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListModels returns the models visible to the caller, filtered and paged.
func (c *DaemonClient) ListModels(filters ModelFilters) (*ModelList, error) {
	if filters.PageSize == 0 {
		filters.PageSize = 100
	}
	var resp ModelList
	if err := c.call("get_all_models", "", c.callPrice, filters, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateModel changes a model's name, description or access list.
func (c *DaemonClient) UpdateModel(modelID string, params *ModelParams) (*Model, error) {
	if modelID == "" {
		return nil, fmt.Errorf("model id is required")
	}
	req := struct {
		ModelID string `json:"model_id"`
		*ModelParams
	}{modelID, params}

	var resp Model
	if err := c.call("update_model", modelID, c.callPrice, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteModel removes a model and returns its final status.
func (c *DaemonClient) DeleteModel(modelID string) (string, error) {
	var resp statusResponse
	if err := c.call("delete_model", modelID, c.callPrice, modelRef{modelID}, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// TrainModelPrice quotes the price of training the model, in base units.
func (c *DaemonClient) TrainModelPrice(modelID string) (*big.Int, error) {
	var resp priceResponse
	if err := c.call("train_model_price", modelID, c.callPrice, modelRef{modelID}, &resp); err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(resp.Price), nil
}

// TrainModel starts training. The call is paid at the daemon's quoted
// training price, claimed through the payment channel like any other call.
func (c *DaemonClient) TrainModel(modelID string) (string, error) {
	price, err := c.TrainModelPrice(modelID)
	if err != nil {
		return "", err
	}
	var resp statusResponse
	if err := c.call("train_model", modelID, price, modelRef{modelID}, &resp); err != nil {
		return "", err
	}
	zap.L().Debug("Training started",
		zap.String("modelID", modelID),
		zap.String("price", price.String()))
	return resp.Status, nil
}

// ValidateModelPrice quotes the price of validating the model's training
// data, in base units.
func (c *DaemonClient) ValidateModelPrice(modelID, trainingDataLink string) (*big.Int, error) {
	var resp priceResponse
	req := validateRequest{modelID, trainingDataLink}
	if err := c.call("validate_model_price", modelID, c.callPrice, req, &resp); err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(resp.Price), nil
}

// ValidateModel runs validation of the model's training data, paid at the
// daemon's quoted validation price.
func (c *DaemonClient) ValidateModel(modelID, trainingDataLink string) (string, error) {
	price, err := c.ValidateModelPrice(modelID, trainingDataLink)
	if err != nil {
		return "", err
	}
	var resp statusResponse
	req := validateRequest{modelID, trainingDataLink}
	if err := c.call("validate_model", modelID, price, req, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

type modelRef struct {
	ModelID string `json:"model_id"`
}

type validateRequest struct {
	ModelID          string `json:"model_id"`
	TrainingDataLink string `json:"training_data_link"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// priceResponse decodes the daemon's PriceInBaseUnit message. protojson
// renders uint64 as a JSON string.
type priceResponse struct {
	Price uint64 `json:"price,string"`
}

// call performs one unary training RPC with train-call payment metadata
// attached for modelID at the given price.
func (c *DaemonClient) call(method, modelID string, price *big.Int, req, resp any) error {
	ctx, cancel := c.withTimeout(context.Background())
	defer cancel()

	strategy := payment.NewTrainStrategy(c.channels, price, modelID)
	ctx, err := strategy.GRPCMetadata(ctx)
	if err != nil {
		return fmt.Errorf("preparing payment for %s: %w", method, err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}
	out, err := c.rpc.CallWithJSON(ctx, method, body)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	if err := json.Unmarshal(out, resp); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}

func (c *DaemonClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
