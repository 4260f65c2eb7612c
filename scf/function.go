package scf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
)

// waitPollInterval paces the polling loops behind waitable
// operations.
const waitPollInterval = time.Second

// VPCConfig places a function inside a private network.
type VPCConfig struct {
	VPCID    string
	SubnetID string
}

// LogConfig routes function logs to a log service logset topic.
type LogConfig struct {
	LogsetID string
	TopicID  string
}

// LayerBinding references a published layer version.
type LayerBinding struct {
	Name    string
	Version int
}

// DeadLetterConfig routes failed asynchronous invocations to a queue.
type DeadLetterConfig struct {
	Type string
	Name string
}

// FunctionConfig carries the optional runtime configuration of a
// function. Zero-valued fields are left to their platform defaults.
type FunctionConfig struct {
	Handler      string
	MemorySize   int
	Timeout      int
	RoleID       string
	VPC          *VPCConfig
	Logset       *LogConfig
	Environments map[string]string
	Layers       []LayerBinding
	DeadLetter   *DeadLetterConfig
}

func (fc *FunctionConfig) apply(params map[string]interface{}) {
	if fc == nil {
		return
	}
	if fc.Handler != "" {
		params["Handler"] = fc.Handler
	}
	if fc.MemorySize > 0 {
		params["MemorySize"] = fc.MemorySize
	}
	if fc.Timeout > 0 {
		params["Timeout"] = fc.Timeout
	}
	if fc.RoleID != "" {
		params["Role"] = fc.RoleID
	}
	if fc.VPC != nil {
		params["VpcConfig"] = map[string]interface{}{
			"VpcId":    fc.VPC.VPCID,
			"SubnetId": fc.VPC.SubnetID,
		}
	}
	if fc.Logset != nil {
		params["ClsLogsetId"] = fc.Logset.LogsetID
		params["ClsTopicId"] = fc.Logset.TopicID
	}
	if len(fc.Environments) > 0 {
		variables := make([]map[string]interface{}, 0, len(fc.Environments))
		for key, value := range fc.Environments {
			variables = append(variables, map[string]interface{}{
				"Key":   key,
				"Value": value,
			})
		}
		params["Environment"] = map[string]interface{}{"Variables": variables}
	}
	if len(fc.Layers) > 0 {
		layers := make([]map[string]interface{}, 0, len(fc.Layers))
		for _, layer := range fc.Layers {
			layers = append(layers, map[string]interface{}{
				"LayerName":    layer.Name,
				"LayerVersion": layer.Version,
			})
		}
		params["Layers"] = layers
	}
	if fc.DeadLetter != nil {
		params["DeadLetterConfig"] = map[string]interface{}{
			"Type": fc.DeadLetter.Type,
			"Name": fc.DeadLetter.Name,
		}
	}
}

// CreateFunctionInput describes a function to create.
type CreateFunctionInput struct {
	RegionID     string
	Namespace    string
	FunctionName string
	Description  string

	Code *FunctionCode

	// Runtime defaults to RuntimePython.
	Runtime string

	// Type defaults to FunctionTypeEvent.
	Type string

	Config *FunctionConfig
}

// CreateFunction submits a function creation and returns an operation
// that waits until the function becomes visible.
func (c *Client) CreateFunction(ctx context.Context, input CreateFunctionInput) (*core.Operation, error) {
	if input.FunctionName == "" {
		return nil, fmt.Errorf("create function: function name required")
	}
	if input.Code == nil {
		return nil, fmt.Errorf("create function: code required")
	}
	code, err := input.Code.codeParameters()
	if err != nil {
		return nil, err
	}
	regionID := input.RegionID
	if regionID == "" {
		regionID = defaultRegion()
	}
	namespace := input.Namespace
	if namespace == "" {
		namespace = defaultNamespace()
	}
	runtime := input.Runtime
	if runtime == "" {
		runtime = RuntimePython
	}
	functionType := input.Type
	if functionType == "" {
		functionType = FunctionTypeEvent
	}

	params := map[string]interface{}{
		"FunctionName": input.FunctionName,
		"Namespace":    namespace,
		"Runtime":      runtime,
		"Type":         functionType,
		"Code":         code,
	}
	if input.Description != "" {
		params["Description"] = input.Description
	}
	input.Config.apply(params)

	if err := c.Action(ctx, regionID, "CreateFunction", apiVersion, params, nil); err != nil {
		return nil, err
	}

	return core.NewOperation(func(ctx context.Context) (interface{}, error) {
		for {
			info, err := c.GetFunctionInfo(ctx, regionID, namespace, input.FunctionName, "")
			if err == nil {
				return info, nil
			}
			if !isFunctionNotFound(err) {
				return nil, err
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitPollInterval):
			}
		}
	}), nil
}

func isFunctionNotFound(err error) bool {
	var actionErr *core.ActionError
	if !errors.As(err, &actionErr) {
		return false
	}
	switch actionErr.Code {
	case "ResourceNotFound.Function", "ResourceNotFound.FunctionName":
		return true
	}
	return false
}

// DeleteFunction removes a function.
func (c *Client) DeleteFunction(ctx context.Context, regionID, namespace, functionName string) error {
	if functionName == "" {
		return fmt.Errorf("delete function: function name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}
	return c.Action(ctx, regionID, "DeleteFunction", apiVersion, map[string]interface{}{
		"FunctionName": functionName,
		"Namespace":    namespace,
	}, nil)
}

// PublishFunctionVersion freezes the current function code and
// configuration into a new immutable version and returns its name.
func (c *Client) PublishFunctionVersion(ctx context.Context, regionID, namespace, functionName, description string) (string, error) {
	if functionName == "" {
		return "", fmt.Errorf("publish version: function name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}
	params := map[string]interface{}{
		"FunctionName": functionName,
		"Namespace":    namespace,
	}
	if description != "" {
		params["Description"] = description
	}

	var response struct {
		FunctionVersion string `json:"FunctionVersion"`
	}
	err := c.Action(ctx, regionID, "PublishVersion", apiVersion, params, &response)
	if err != nil {
		return "", err
	}
	return response.FunctionVersion, nil
}

// CopyFunctionInput describes a function copy. Target fields default
// to the source values when empty.
type CopyFunctionInput struct {
	RegionID     string
	Namespace    string
	FunctionName string

	TargetRegionID     string
	TargetNamespace    string
	TargetFunctionName string

	// Override replaces the target function when it already exists.
	Override bool

	// CopyConfig carries the source configuration to the target.
	CopyConfig bool
}

// CopyFunction duplicates a function, optionally across regions or
// namespaces.
func (c *Client) CopyFunction(ctx context.Context, input CopyFunctionInput) error {
	if input.FunctionName == "" {
		return fmt.Errorf("copy function: function name required")
	}
	regionID := input.RegionID
	if regionID == "" {
		regionID = defaultRegion()
	}
	namespace := input.Namespace
	if namespace == "" {
		namespace = defaultNamespace()
	}
	targetName := input.TargetFunctionName
	if targetName == "" {
		targetName = input.FunctionName
	}
	targetRegion := input.TargetRegionID
	if targetRegion == "" {
		targetRegion = regionID
	}
	targetNamespace := input.TargetNamespace
	if targetNamespace == "" {
		targetNamespace = namespace
	}

	return c.Action(ctx, regionID, "CopyFunction", apiVersion, map[string]interface{}{
		"FunctionName":      input.FunctionName,
		"Namespace":         namespace,
		"NewFunctionName":   targetName,
		"TargetRegion":      targetRegion,
		"TargetNamespace":   targetNamespace,
		"Override":          input.Override,
		"CopyConfiguration": input.CopyConfig,
	}, nil)
}

// UpdateFunctionCode replaces the code of a function. An optional
// handler updates the entry point together with the code.
func (c *Client) UpdateFunctionCode(ctx context.Context, regionID, namespace, functionName string, code *FunctionCode, handler string) error {
	if functionName == "" {
		return fmt.Errorf("update code: function name required")
	}
	if code == nil {
		return fmt.Errorf("update code: code required")
	}
	codeParams, err := code.codeParameters()
	if err != nil {
		return err
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}

	params := map[string]interface{}{
		"FunctionName": functionName,
		"Namespace":    namespace,
	}
	for key, value := range codeParams {
		params[key] = value
	}
	if handler != "" {
		params["Handler"] = handler
	}
	return c.Action(ctx, regionID, "UpdateFunctionCode", apiVersion, params, nil)
}

// UpdateFunctionConfigure changes the runtime configuration of a
// function.
func (c *Client) UpdateFunctionConfigure(ctx context.Context, regionID, namespace, functionName, description string, config *FunctionConfig) error {
	if functionName == "" {
		return fmt.Errorf("update configure: function name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}

	params := map[string]interface{}{
		"FunctionName": functionName,
		"Namespace":    namespace,
	}
	if description != "" {
		params["Description"] = description
	}
	config.apply(params)
	return c.Action(ctx, regionID, "UpdateFunctionConfiguration", apiVersion, params, nil)
}

// FunctionSummary is the listing view of a function.
type FunctionSummary struct {
	ID               string
	Name             string
	Namespace        string
	Description      string
	Status           string
	Type             string
	Runtime          string
	Tags             map[string]string
	CreateTime       string
	LastModifiedTime string
}

// EIPConfigure describes the fixed public egress of a function.
type EIPConfigure struct {
	Enabled   bool
	Addresses []string
}

// AccessConfigure describes the private access point of a function.
type AccessConfigure struct {
	Hostname  string
	IPAddress string
}

// FunctionConfigure is the resolved runtime configuration of a
// function.
type FunctionConfigure struct {
	Handler      string
	MemorySize   int
	Timeout      int
	RoleID       string
	VPC          VPCConfig
	Logset       LogConfig
	Environments map[string]string
	EIP          EIPConfigure
	Access       AccessConfigure
	Layers       []LayerInfo
	DeadLetter   DeadLetterConfig
}

// FunctionInfo is the full view of a function.
type FunctionInfo struct {
	FunctionSummary
	Configure FunctionConfigure
}

type tagPair struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

func tagsToMap(tags []tagPair) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[tag.Key] = tag.Value
	}
	return m
}

type getFunctionResponse struct {
	FunctionID   string    `json:"FunctionId"`
	FunctionName string    `json:"FunctionName"`
	Namespace    string    `json:"Namespace"`
	Description  string    `json:"Description"`
	Status       string    `json:"Status"`
	Type         string    `json:"Type"`
	Runtime      string    `json:"Runtime"`
	Tags         []tagPair `json:"Tags"`
	AddTime      string    `json:"AddTime"`
	ModTime      string    `json:"ModTime"`

	Handler    string `json:"Handler"`
	MemorySize int    `json:"MemorySize"`
	Timeout    int    `json:"Timeout"`
	Role       string `json:"Role"`

	VPCConfig struct {
		VPCID    string `json:"VpcId"`
		SubnetID string `json:"SubnetId"`
	} `json:"VpcConfig"`

	ClsLogsetID string `json:"ClsLogsetId"`
	ClsTopicID  string `json:"ClsTopicId"`

	Environment struct {
		Variables []tagPair `json:"Variables"`
	} `json:"Environment"`

	EIPConfig struct {
		Fixed     bool     `json:"EipFixed"`
		Addresses []string `json:"Eips"`
	} `json:"EipConfig"`

	AccessInfo struct {
		Host string `json:"Host"`
		VIP  string `json:"Vip"`
	} `json:"AccessInfo"`

	Layers []layerEntry `json:"Layers"`

	DeadLetterConfig struct {
		Type string `json:"Type"`
		Name string `json:"Name"`
	} `json:"DeadLetterConfig"`
}

// GetFunctionInfo fetches a function, optionally at a published
// version.
func (c *Client) GetFunctionInfo(ctx context.Context, regionID, namespace, functionName, version string) (*FunctionInfo, error) {
	if functionName == "" {
		return nil, fmt.Errorf("get function: function name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}

	params := map[string]interface{}{
		"FunctionName": functionName,
		"Namespace":    namespace,
	}
	if version != "" {
		params["Qualifier"] = version
	}

	var response getFunctionResponse
	err := c.Action(ctx, regionID, "GetFunction", apiVersion, params, &response)
	if err != nil {
		return nil, err
	}

	info := &FunctionInfo{
		FunctionSummary: FunctionSummary{
			ID:               response.FunctionID,
			Name:             response.FunctionName,
			Namespace:        response.Namespace,
			Description:      response.Description,
			Status:           response.Status,
			Type:             response.Type,
			Runtime:          response.Runtime,
			Tags:             tagsToMap(response.Tags),
			CreateTime:       response.AddTime,
			LastModifiedTime: response.ModTime,
		},
		Configure: FunctionConfigure{
			Handler:    response.Handler,
			MemorySize: response.MemorySize,
			Timeout:    response.Timeout,
			RoleID:     response.Role,
			VPC: VPCConfig{
				VPCID:    response.VPCConfig.VPCID,
				SubnetID: response.VPCConfig.SubnetID,
			},
			Logset: LogConfig{
				LogsetID: response.ClsLogsetID,
				TopicID:  response.ClsTopicID,
			},
			Environments: tagsToMap(response.Environment.Variables),
			EIP: EIPConfigure{
				Enabled:   response.EIPConfig.Fixed,
				Addresses: response.EIPConfig.Addresses,
			},
			Access: AccessConfigure{
				Hostname:  response.AccessInfo.Host,
				IPAddress: response.AccessInfo.VIP,
			},
			DeadLetter: DeadLetterConfig{
				Type: response.DeadLetterConfig.Type,
				Name: response.DeadLetterConfig.Name,
			},
		},
	}
	for _, layer := range response.Layers {
		info.Configure.Layers = append(info.Configure.Layers, layer.toInfo())
	}
	return info, nil
}

// FunctionAddress is the code download address of a function version.
// The URL is presigned and short-lived.
type FunctionAddress struct {
	URL        string
	CodeSHA256 string
}

// GetFunctionAddress fetches the code download address of a function
// version.
func (c *Client) GetFunctionAddress(ctx context.Context, regionID, namespace, functionName, version string) (*FunctionAddress, error) {
	if functionName == "" {
		return nil, fmt.Errorf("get function address: function name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}

	params := map[string]interface{}{
		"FunctionName": functionName,
		"Namespace":    namespace,
	}
	if version != "" {
		params["Qualifier"] = version
	}

	var response struct {
		URL        string `json:"Url"`
		CodeSha256 string `json:"CodeSha256"`
	}
	err := c.Action(ctx, regionID, "GetFunctionAddress", apiVersion, params, &response)
	if err != nil {
		return nil, err
	}
	return &FunctionAddress{URL: response.URL, CodeSHA256: response.CodeSha256}, nil
}

// DownloadFunctionCode downloads the packaged code of a function
// version to a local file.
func (c *Client) DownloadFunctionCode(ctx context.Context, regionID, namespace, functionName, version, localPath string) error {
	address, err := c.GetFunctionAddress(ctx, regionID, namespace, functionName, version)
	if err != nil {
		return err
	}
	return c.DownloadResource(ctx, address.URL, localPath)
}
