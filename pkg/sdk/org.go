package sdk

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/singnet/snet-payments-go/pkg/model"
)

// Organization is the client API for one Registry organization: reading its
// metadata, creating service clients, and the owner's management operations.
type Organization interface {
	// ServiceClient creates a service client for the specified service and
	// group within this organization.
	ServiceClient(ctx context.Context, serviceID, groupName string) (Service, error)

	// ListServices returns the IDs of all services registered under the
	// organization.
	ListServices(ctx context.Context) ([]string, error)

	// Metadata returns the organization metadata document.
	Metadata() *model.OrganizationMetaData

	// Group returns the organization group this client is bound to.
	Group() *model.OrganizationGroup

	// OrgID returns the organization identifier.
	OrgID() string

	// Members returns the member addresses recorded in the Registry.
	Members() []common.Address

	// Owner returns the owner address recorded in the Registry.
	Owner() common.Address

	// UpdateMetadata uploads a new metadata document and points the Registry
	// record at it.
	UpdateMetadata(ctx context.Context, metadata *model.OrganizationMetaData) (*types.Receipt, error)

	// AddMembers grants members write access to the organization.
	AddMembers(ctx context.Context, members []common.Address) (*types.Receipt, error)

	// RemoveMembers revokes members from the organization.
	RemoveMembers(ctx context.Context, members []common.Address) (*types.Receipt, error)

	// ChangeOwner transfers organization ownership.
	ChangeOwner(ctx context.Context, newOwner common.Address) (*types.Receipt, error)

	// Delete removes the organization and all its services from the Registry.
	Delete(ctx context.Context) (*types.Receipt, error)

	// CreateService uploads a service metadata document and registers the
	// service under this organization.
	CreateService(ctx context.Context, serviceID string, metadata *model.ServiceMetadata) (*types.Receipt, error)
}

// OrganizationClient is the concrete Organization implementation.
type OrganizationClient struct {
	core     *Core
	orgID    string
	owner    common.Address
	members  []common.Address
	metadata *model.OrganizationMetaData
	group    *model.OrganizationGroup
}

var _ Organization = (*OrganizationClient)(nil)

// NewOrganizationClient reads the organization record and its metadata
// document and binds the client to the named payment group.
func (c *Core) NewOrganizationClient(ctx context.Context, orgID, groupName string) (Organization, error) {
	readCtx, cancel := withTimeout(ctx, c.cfg.Timeouts.ChainRead)
	defer cancel()

	record, err := c.evm.Registry.GetOrganizationByID(readCtx, orgID)
	if err != nil {
		return nil, err
	}

	var metadata model.OrganizationMetaData
	if err := c.fetchJSON(ctx, record.MetadataURI, &metadata); err != nil {
		return nil, fmt.Errorf("reading organization metadata: %w", err)
	}

	group := metadata.GroupByName(groupName)
	if group == nil {
		return nil, fmt.Errorf("organization %q has no group %q", orgID, groupName)
	}

	return &OrganizationClient{
		core:     c,
		orgID:    orgID,
		owner:    record.Owner,
		members:  record.Members,
		metadata: &metadata,
		group:    group,
	}, nil
}

// OrgID returns the organization identifier.
func (o *OrganizationClient) OrgID() string { return o.orgID }

// Metadata returns the organization metadata document.
func (o *OrganizationClient) Metadata() *model.OrganizationMetaData { return o.metadata }

// Group returns the organization group this client is bound to.
func (o *OrganizationClient) Group() *model.OrganizationGroup { return o.group }

// Members returns the member addresses recorded in the Registry.
func (o *OrganizationClient) Members() []common.Address { return o.members }

// Owner returns the owner address recorded in the Registry.
func (o *OrganizationClient) Owner() common.Address { return o.owner }

// ListServices returns the IDs of all services registered under the
// organization.
func (o *OrganizationClient) ListServices(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, o.core.cfg.Timeouts.ChainRead)
	defer cancel()
	return o.core.evm.Registry.ListServices(ctx, o.orgID)
}

// ServiceClient creates a service client for the specified service and group
// within this organization.
func (o *OrganizationClient) ServiceClient(ctx context.Context, serviceID, groupName string) (Service, error) {
	return o.core.newServiceClient(ctx, o, serviceID, groupName)
}

// UpdateMetadata uploads a new metadata document and points the Registry
// record at it.
func (o *OrganizationClient) UpdateMetadata(ctx context.Context, metadata *model.OrganizationMetaData) (*types.Receipt, error) {
	uri, err := o.core.store.UploadJSON(ctx, metadata)
	if err != nil {
		return nil, fmt.Errorf("uploading organization metadata: %w", err)
	}
	receipt, err := o.transact(ctx, func(ctx context.Context, opts *bind.TransactOpts) (*types.Receipt, error) {
		return o.core.evm.Registry.ChangeOrganizationMetadataURI(ctx, opts, o.orgID, []byte(uri))
	})
	if err != nil {
		return nil, err
	}
	o.metadata = metadata
	zap.L().Info("Organization metadata updated",
		zap.String("orgID", o.orgID),
		zap.String("metadataURI", uri))
	return receipt, nil
}

// AddMembers grants members write access to the organization.
func (o *OrganizationClient) AddMembers(ctx context.Context, members []common.Address) (*types.Receipt, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("no members to add")
	}
	return o.transact(ctx, func(ctx context.Context, opts *bind.TransactOpts) (*types.Receipt, error) {
		return o.core.evm.Registry.AddOrganizationMembers(ctx, opts, o.orgID, members)
	})
}

// RemoveMembers revokes members from the organization.
func (o *OrganizationClient) RemoveMembers(ctx context.Context, members []common.Address) (*types.Receipt, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("no members to remove")
	}
	return o.transact(ctx, func(ctx context.Context, opts *bind.TransactOpts) (*types.Receipt, error) {
		return o.core.evm.Registry.RemoveOrganizationMembers(ctx, opts, o.orgID, members)
	})
}

// ChangeOwner transfers organization ownership.
func (o *OrganizationClient) ChangeOwner(ctx context.Context, newOwner common.Address) (*types.Receipt, error) {
	return o.transact(ctx, func(ctx context.Context, opts *bind.TransactOpts) (*types.Receipt, error) {
		return o.core.evm.Registry.ChangeOrganizationOwner(ctx, opts, o.orgID, newOwner)
	})
}

// Delete removes the organization and all its services from the Registry.
func (o *OrganizationClient) Delete(ctx context.Context) (*types.Receipt, error) {
	return o.transact(ctx, func(ctx context.Context, opts *bind.TransactOpts) (*types.Receipt, error) {
		return o.core.evm.Registry.DeleteOrganization(ctx, opts, o.orgID)
	})
}

// CreateService uploads a service metadata document and registers the
// service under this organization.
func (o *OrganizationClient) CreateService(ctx context.Context, serviceID string, metadata *model.ServiceMetadata) (*types.Receipt, error) {
	uri, err := o.core.store.UploadJSON(ctx, metadata)
	if err != nil {
		return nil, fmt.Errorf("uploading service metadata: %w", err)
	}
	receipt, err := o.transact(ctx, func(ctx context.Context, opts *bind.TransactOpts) (*types.Receipt, error) {
		return o.core.evm.Registry.CreateServiceRegistration(ctx, opts, o.orgID, serviceID, []byte(uri))
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Service registered",
		zap.String("orgID", o.orgID),
		zap.String("serviceID", serviceID),
		zap.String("metadataURI", uri))
	return receipt, nil
}

// transact runs one Registry write under the configured account.
func (o *OrganizationClient) transact(ctx context.Context, run func(context.Context, *bind.TransactOpts) (*types.Receipt, error)) (*types.Receipt, error) {
	account, err := o.core.Account()
	if err != nil {
		return nil, err
	}
	opts, err := o.core.evm.TransactOpts(ctx, account.Signer().PrivateKey())
	if err != nil {
		return nil, err
	}
	return run(ctx, opts)
}
