// Package postgres is the product client for the serverless
// PostgreSQL database service.
package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/devmiek/tencent-cloud-sdk-go/auth"
	"github.com/devmiek/tencent-cloud-sdk-go/core"
)

const (
	productID  = "postgres"
	apiVersion = "2017-03-12"
)

const listPageLimit = 20

// Client is the serverless PostgreSQL product client.
type Client struct {
	*core.UniversalClient
}

// NewClient returns a product client.
func NewClient(credentials auth.Credentials, config ...core.Config) (*Client, error) {
	universal, err := core.NewUniversalClient(productID, credentials, config...)
	if err != nil {
		return nil, err
	}
	return &Client{UniversalClient: universal}, nil
}

// CreateInstanceInput describes a serverless database instance to
// create.
type CreateInstanceInput struct {
	RegionID     string
	Zone         string
	InstanceName string

	// Version defaults to "10.4", Charset to "UTF8".
	Version string
	Charset string

	ProjectID int
	VPCID     string
	SubnetID  string
}

// CreateInstance creates a serverless database instance and returns
// its instance identifier.
func (c *Client) CreateInstance(ctx context.Context, input CreateInstanceInput) (string, error) {
	if input.InstanceName == "" {
		return "", fmt.Errorf("create instance: instance name required")
	}
	if input.Zone == "" {
		return "", fmt.Errorf("create instance: zone required")
	}
	version := input.Version
	if version == "" {
		version = "10.4"
	}
	charset := input.Charset
	if charset == "" {
		charset = "UTF8"
	}

	params := map[string]interface{}{
		"DBInstanceName": input.InstanceName,
		"DBVersion":      version,
		"DBCharset":      charset,
		"Zone":           input.Zone,
		"ProjectId":      input.ProjectID,
	}
	if input.VPCID != "" {
		params["VpcId"] = input.VPCID
	}
	if input.SubnetID != "" {
		params["SubnetId"] = input.SubnetID
	}

	var response struct {
		DBInstanceID string `json:"DBInstanceId"`
	}
	err := c.Action(ctx, input.RegionID, "CreateServerlessDBInstance", apiVersion, params, &response)
	if err != nil {
		return "", err
	}
	return response.DBInstanceID, nil
}

// DeleteInstance removes a serverless database instance.
func (c *Client) DeleteInstance(ctx context.Context, regionID, instanceID string) error {
	if instanceID == "" {
		return fmt.Errorf("delete instance: instance id required")
	}
	return c.Action(ctx, regionID, "DeleteServerlessDBInstance", apiVersion, map[string]interface{}{
		"DBInstanceId": instanceID,
	}, nil)
}

// SetExtranetAccess opens or closes the public network access point
// of an instance.
func (c *Client) SetExtranetAccess(ctx context.Context, regionID, instanceID string, enabled bool) error {
	if instanceID == "" {
		return fmt.Errorf("extranet access: instance id required")
	}
	actionID := "CloseServerlessDBExtranetAccess"
	if enabled {
		actionID = "OpenServerlessDBExtranetAccess"
	}
	return c.Action(ctx, regionID, actionID, apiVersion, map[string]interface{}{
		"DBInstanceId": instanceID,
	}, nil)
}

// InstanceNetwork is one access point of an instance.
type InstanceNetwork struct {
	Type      string
	Address   string
	IPAddress string
	Port      int
	Status    string
}

// InstanceAccount is one database account of an instance.
type InstanceAccount struct {
	Username string
	Password string
}

// InstanceInfo describes a serverless database instance.
type InstanceInfo struct {
	ID         string
	Name       string
	Status     string
	Version    string
	Charset    string
	Zone       string
	ProjectID  int
	VPCID      string
	SubnetID   string
	CreateTime string

	Networks  []InstanceNetwork
	Accounts  []InstanceAccount
	Databases []string
	Tags      map[string]string
}

// DSN renders a connection string for one database of the instance,
// using its first account and the first access point of the wanted
// network type ("private" or "public").
func (info *InstanceInfo) DSN(databaseName, networkType string) (string, error) {
	if databaseName == "" {
		return "", fmt.Errorf("dsn: database name required")
	}
	if len(info.Accounts) == 0 {
		return "", fmt.Errorf("dsn: instance %s has no accounts", info.ID)
	}
	if networkType == "" {
		networkType = "private"
	}

	var network *InstanceNetwork
	for i := range info.Networks {
		if info.Networks[i].Type == networkType {
			network = &info.Networks[i]
			break
		}
	}
	if network == nil {
		return "", fmt.Errorf("dsn: instance %s has no %s access point", info.ID, networkType)
	}

	host := network.Address
	if host == "" {
		host = network.IPAddress
	}
	account := info.Accounts[0]

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(account.Username, account.Password),
		Host:   fmt.Sprintf("%s:%d", host, network.Port),
		Path:   "/" + databaseName,
	}
	return dsn.String(), nil
}

type instanceEntry struct {
	DBInstanceID     string `json:"DBInstanceId"`
	DBInstanceName   string `json:"DBInstanceName"`
	DBInstanceStatus string `json:"DBInstanceStatus"`
	DBVersion        string `json:"DBVersion"`
	DBCharset        string `json:"DBCharset"`
	Zone             string `json:"Zone"`
	ProjectID        int    `json:"ProjectId"`
	VpcID            string `json:"VpcId"`
	SubnetID         string `json:"SubnetId"`
	CreateTime       string `json:"CreateTime"`

	DBInstanceNetInfo []struct {
		NetType string `json:"NetType"`
		Address string `json:"Address"`
		IP      string `json:"Ip"`
		Port    int    `json:"Port"`
		Status  string `json:"Status"`
	} `json:"DBInstanceNetInfo"`

	DBAccountSet []struct {
		DBUser     string `json:"DBUser"`
		DBPassword string `json:"DBPassword"`
	} `json:"DBAccountSet"`

	DBDatabaseList []string `json:"DBDatabaseList"`

	TagList []struct {
		TagKey   string `json:"TagKey"`
		TagValue string `json:"TagValue"`
	} `json:"TagList"`
}

func (e instanceEntry) toInfo() InstanceInfo {
	info := InstanceInfo{
		ID:         e.DBInstanceID,
		Name:       e.DBInstanceName,
		Status:     e.DBInstanceStatus,
		Version:    e.DBVersion,
		Charset:    e.DBCharset,
		Zone:       e.Zone,
		ProjectID:  e.ProjectID,
		VPCID:      e.VpcID,
		SubnetID:   e.SubnetID,
		CreateTime: e.CreateTime,
		Databases:  e.DBDatabaseList,
	}
	for _, network := range e.DBInstanceNetInfo {
		info.Networks = append(info.Networks, InstanceNetwork{
			Type:      network.NetType,
			Address:   network.Address,
			IPAddress: network.IP,
			Port:      network.Port,
			Status:    network.Status,
		})
	}
	for _, account := range e.DBAccountSet {
		info.Accounts = append(info.Accounts, InstanceAccount{
			Username: account.DBUser,
			Password: account.DBPassword,
		})
	}
	if len(e.TagList) > 0 {
		info.Tags = make(map[string]string, len(e.TagList))
		for _, tag := range e.TagList {
			info.Tags[tag.TagKey] = tag.TagValue
		}
	}
	return info
}

type describeInstancesResponse struct {
	DBInstanceSet []instanceEntry `json:"DBInstanceSet"`
	TotalCount    int             `json:"TotalCount"`
}

// GetInstance fetches one instance by its identifier.
func (c *Client) GetInstance(ctx context.Context, regionID, instanceID string) (*InstanceInfo, error) {
	if instanceID == "" {
		return nil, fmt.Errorf("get instance: instance id required")
	}

	var response describeInstancesResponse
	err := c.Action(ctx, regionID, "DescribeServerlessDBInstances", apiVersion, map[string]interface{}{
		"Filter": []map[string]interface{}{{
			"Name":   "db-instance-id",
			"Values": []string{instanceID},
		}},
		"Limit": 1,
	}, &response)
	if err != nil {
		return nil, err
	}
	if len(response.DBInstanceSet) == 0 {
		return nil, fmt.Errorf("no such instance %s: %w", instanceID, core.ErrNotFound)
	}
	info := response.DBInstanceSet[0].toInfo()
	return &info, nil
}

// InstancesFilter narrows an instance listing.
type InstancesFilter struct {
	InstanceIDs   []string
	InstanceNames []string
}

// InstanceIterator walks the serverless database instances of a
// region.
type InstanceIterator struct {
	client   *Client
	regionID string
	filter   InstancesFilter

	offset int
	buffer []InstanceInfo
	done   bool
}

// Instances returns an iterator over the instances of a region.
func (c *Client) Instances(regionID string, filter *InstancesFilter) *InstanceIterator {
	it := &InstanceIterator{client: c, regionID: regionID}
	if filter != nil {
		it.filter = *filter
	}
	return it
}

// Next returns the next instance, or a core.ErrNotFound wrapped error
// when the listing is exhausted.
func (it *InstanceIterator) Next(ctx context.Context) (*InstanceInfo, error) {
	if len(it.buffer) == 0 && !it.done {
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
	}
	if len(it.buffer) == 0 {
		return nil, fmt.Errorf("no more instances: %w", core.ErrNotFound)
	}
	info := it.buffer[0]
	it.buffer = it.buffer[1:]
	return &info, nil
}

func (it *InstanceIterator) fetch(ctx context.Context) error {
	params := map[string]interface{}{
		"Offset": it.offset,
		"Limit":  listPageLimit,
	}
	var filters []map[string]interface{}
	if len(it.filter.InstanceIDs) > 0 {
		filters = append(filters, map[string]interface{}{
			"Name":   "db-instance-id",
			"Values": it.filter.InstanceIDs,
		})
	}
	if len(it.filter.InstanceNames) > 0 {
		filters = append(filters, map[string]interface{}{
			"Name":   "db-instance-name",
			"Values": it.filter.InstanceNames,
		})
	}
	if len(filters) > 0 {
		params["Filter"] = filters
	}

	var response describeInstancesResponse
	err := it.client.Action(ctx, it.regionID, "DescribeServerlessDBInstances", apiVersion, params, &response)
	if err != nil {
		return err
	}
	for _, entry := range response.DBInstanceSet {
		it.buffer = append(it.buffer, entry.toInfo())
	}
	it.offset += len(response.DBInstanceSet)
	if len(response.DBInstanceSet) < listPageLimit || it.offset >= response.TotalCount {
		it.done = true
	}
	return nil
}
