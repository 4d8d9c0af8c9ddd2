package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	contracts "github.com/singnet/snet-ecosystem-contracts"
	"go.uber.org/zap"
)

// RegistryContract wraps the on-chain Registry, the directory that maps
// organization and service identifiers to their metadata URIs.
type RegistryContract struct {
	Address  common.Address
	client   *ethclient.Client
	contract *bind.BoundContract
}

// NewRegistryContract binds the Registry contract at addr.
func NewRegistryContract(addr common.Address, client *ethclient.Client) (*RegistryContract, error) {
	parsed, err := parseABI(contracts.GetABIClean(contracts.Registry))
	if err != nil {
		return nil, err
	}
	return &RegistryContract{
		Address:  addr,
		client:   client,
		contract: boundContract(addr, parsed, client),
	}, nil
}

// Organization is the Registry record for one organization.
type Organization struct {
	ID          string
	MetadataURI string
	Owner       common.Address
	Members     []common.Address
	ServiceIDs  []string
}

// GetOrganizationByID reads an organization record from the Registry.
func (c *RegistryContract) GetOrganizationByID(ctx context.Context, orgID string) (*Organization, error) {
	var out []any
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getOrganizationById", StringToBytes32(orgID))
	if err != nil {
		return nil, fmt.Errorf("reading organization %q: %w", orgID, err)
	}
	if !out[0].(bool) {
		return nil, fmt.Errorf("organization %q is not registered", orgID)
	}
	return &Organization{
		ID:          orgID,
		MetadataURI: string(out[2].([]byte)),
		Owner:       out[3].(common.Address),
		Members:     out[4].([]common.Address),
		ServiceIDs:  Bytes32ArrayToStrings(out[5].([][32]byte)),
	}, nil
}

// GetServiceMetadataURI reads the metadata URI recorded for a service.
func (c *RegistryContract) GetServiceMetadataURI(ctx context.Context, orgID, serviceID string) (string, error) {
	var out []any
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getServiceRegistrationById",
		StringToBytes32(orgID), StringToBytes32(serviceID))
	if err != nil {
		return "", fmt.Errorf("reading service %q/%q: %w", orgID, serviceID, err)
	}
	if !out[0].(bool) {
		return "", fmt.Errorf("service %q/%q is not registered", orgID, serviceID)
	}
	return string(out[2].([]byte)), nil
}

// ListOrganizations returns every organization ID in the Registry.
func (c *RegistryContract) ListOrganizations(ctx context.Context) ([]string, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "listOrganizations"); err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return Bytes32ArrayToStrings(out[0].([][32]byte)), nil
}

// CreateOrganization registers a new organization with its metadata URI and
// member list.
func (c *RegistryContract) CreateOrganization(ctx context.Context, opts *bind.TransactOpts, orgID string, metadataURI []byte, members []common.Address) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "creating organization", "createOrganization",
		StringToBytes32(orgID), metadataURI, members)
}

// ChangeOrganizationMetadataURI points an organization at a new metadata
// document.
func (c *RegistryContract) ChangeOrganizationMetadataURI(ctx context.Context, opts *bind.TransactOpts, orgID string, metadataURI []byte) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "updating organization metadata", "changeOrganizationMetadataURI",
		StringToBytes32(orgID), metadataURI)
}

// ChangeOrganizationOwner transfers organization ownership.
func (c *RegistryContract) ChangeOrganizationOwner(ctx context.Context, opts *bind.TransactOpts, orgID string, newOwner common.Address) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "changing organization owner", "changeOrganizationOwner",
		StringToBytes32(orgID), newOwner)
}

// AddOrganizationMembers grants members write access to the organization.
func (c *RegistryContract) AddOrganizationMembers(ctx context.Context, opts *bind.TransactOpts, orgID string, members []common.Address) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "adding organization members", "addOrganizationMembers",
		StringToBytes32(orgID), members)
}

// RemoveOrganizationMembers revokes members from the organization.
func (c *RegistryContract) RemoveOrganizationMembers(ctx context.Context, opts *bind.TransactOpts, orgID string, members []common.Address) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "removing organization members", "removeOrganizationMembers",
		StringToBytes32(orgID), members)
}

// DeleteOrganization removes the organization and all its services.
func (c *RegistryContract) DeleteOrganization(ctx context.Context, opts *bind.TransactOpts, orgID string) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "deleting organization", "deleteOrganization", StringToBytes32(orgID))
}

// CreateServiceRegistration registers a service under an organization.
func (c *RegistryContract) CreateServiceRegistration(ctx context.Context, opts *bind.TransactOpts, orgID, serviceID string, metadataURI []byte) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "creating service registration", "createServiceRegistration",
		StringToBytes32(orgID), StringToBytes32(serviceID), metadataURI)
}

// UpdateServiceRegistration points a service at a new metadata document.
func (c *RegistryContract) UpdateServiceRegistration(ctx context.Context, opts *bind.TransactOpts, orgID, serviceID string, metadataURI []byte) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "updating service registration", "updateServiceRegistration",
		StringToBytes32(orgID), StringToBytes32(serviceID), metadataURI)
}

// DeleteServiceRegistration removes a service from the Registry.
func (c *RegistryContract) DeleteServiceRegistration(ctx context.Context, opts *bind.TransactOpts, orgID, serviceID string) (*types.Receipt, error) {
	return c.transactAndWait(ctx, opts, "deleting service registration", "deleteServiceRegistration",
		StringToBytes32(orgID), StringToBytes32(serviceID))
}

func (c *RegistryContract) transactAndWait(ctx context.Context, opts *bind.TransactOpts, op, method string, args ...any) (*types.Receipt, error) {
	tx, err := c.contract.Transact(estimateGas(ctx, opts), method, args...)
	if err != nil {
		return nil, &TxError{Op: op, Err: err}
	}
	zap.L().Debug("Transaction submitted", zap.String("op", op), zap.String("tx", tx.Hash().Hex()))
	receipt, err := WaitForTransaction(ctx, c.client, tx.Hash(), 0)
	if err != nil {
		return nil, &TxError{Op: op, Hash: tx.Hash(), Err: err}
	}
	return receipt, nil
}

// ListServices returns the service IDs registered under one organization.
func (c *RegistryContract) ListServices(ctx context.Context, orgID string) ([]string, error) {
	var out []any
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "listServicesForOrganization", StringToBytes32(orgID))
	if err != nil {
		return nil, fmt.Errorf("listing services of %q: %w", orgID, err)
	}
	if !out[0].(bool) {
		return nil, fmt.Errorf("organization %q is not registered", orgID)
	}
	return Bytes32ArrayToStrings(out[1].([][32]byte)), nil
}
