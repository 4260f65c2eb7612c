package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/devmiek/tencent-cloud-sdk-go/auth"
)

// UniversalClient is a product-bound client usable against any Cloud
// API product. Product packages build their typed surface on top of
// it; callers can also use it directly for actions the SDK does not
// wrap.
type UniversalClient struct {
	*Client

	mu        sync.RWMutex
	productID string
}

// NewUniversalClient returns a universal client for one product. The
// endpoint defaults to PRODUCT.tencentcloudapi.com.
func NewUniversalClient(productID string, credentials auth.Credentials, config ...Config) (*UniversalClient, error) {
	if productID == "" {
		return nil, fmt.Errorf("core: product id required")
	}

	base, err := NewClient(credentials, productID+".tencentcloudapi.com", config...)
	if err != nil {
		return nil, err
	}

	return &UniversalClient{
		Client:    base,
		productID: productID,
	}, nil
}

// ProductID returns the product the client is bound to.
func (u *UniversalClient) ProductID() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.productID
}

// SetProductID rebinds the client to another product. The endpoint is
// left untouched; adjust it with SetEndpoint when needed.
func (u *UniversalClient) SetProductID(productID string) error {
	if productID == "" {
		return fmt.Errorf("core: product id required")
	}
	u.mu.Lock()
	u.productID = productID
	u.mu.Unlock()
	return nil
}

// Action requests one Cloud API action of the bound product.
func (u *UniversalClient) Action(ctx context.Context, regionID, actionID, actionVersion string, params, result interface{}) error {
	return u.RequestAction(ctx, "", u.ProductID(), regionID, actionID, actionVersion, params, result)
}

// ActionForProduct requests an action of a different product through
// the same client and credentials, targeting an explicit endpoint.
// Used for cross-product calls such as monitor data submission.
func (u *UniversalClient) ActionForProduct(ctx context.Context, productID, endpoint, regionID, actionID, actionVersion string, params, result interface{}) error {
	if productID == "" {
		return fmt.Errorf("core: product id required")
	}
	if endpoint == "" {
		endpoint = productID + ".tencentcloudapi.com"
	}
	return u.RequestAction(ctx, endpoint, productID, regionID, actionID, actionVersion, params, result)
}

// ActionFunc is a Cloud API action bound to its identifier and
// version, returned by SelectAction.
type ActionFunc func(ctx context.Context, regionID string, params, result interface{}) error

// SelectAction binds an action identifier and version, returning a
// function that only needs the per-call region and parameters.
func (u *UniversalClient) SelectAction(actionID, actionVersion string) ActionFunc {
	return func(ctx context.Context, regionID string, params, result interface{}) error {
		return u.Action(ctx, regionID, actionID, actionVersion, params, result)
	}
}
