package scf

import (
	"context"
	"fmt"
	"time"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
)

// Paging sizes used by the listing actions.
const (
	listPageLimit    = 20
	resultsPageLimit = 100
)

// logTimeLayout is the wall-clock format of the function log query
// window.
const logTimeLayout = "2006-01-02 15:04:05"

// FunctionResultType filters execution results by outcome.
type FunctionResultType string

const (
	ResultTypeSucceed       FunctionResultType = "is0"
	ResultTypeError         FunctionResultType = "not0"
	ResultTypeTimeLimit     FunctionResultType = "TimeLimitExceeded"
	ResultTypeResourceLimit FunctionResultType = "ResourceLimitExceeded"
	ResultTypeCodeError     FunctionResultType = "UserCodeException"
)

// FunctionResult is one recorded function execution.
type FunctionResult struct {
	FunctionName string
	ReturnResult string
	Successful   bool
	StartTime    string
	RunDuration  float64
	BillDuration float64
	MemoryUsage  float64
	Log          string
	LogLevel     string
	LogSource    string
	RequestID    string
}

// ReturnValue decodes the function return payload, yielding the
// parsed JSON value or the raw string.
func (r *FunctionResult) ReturnValue() interface{} {
	return decodeReturnValue(r.ReturnResult)
}

type functionLogEntry struct {
	FunctionName   string  `json:"FunctionName"`
	RetMsg         string  `json:"RetMsg"`
	InvokeFinished int     `json:"InvokeFinished"`
	RetCode        int     `json:"RetCode"`
	StartTime      string  `json:"StartTime"`
	Duration       float64 `json:"Duration"`
	BillDuration   float64 `json:"BillDuration"`
	MemUsage       float64 `json:"MemUsage"`
	Log            string  `json:"Log"`
	Level          string  `json:"Level"`
	Source         string  `json:"Source"`
	RequestID      string  `json:"RequestId"`
}

func (e functionLogEntry) toResult() FunctionResult {
	return FunctionResult{
		FunctionName: e.FunctionName,
		ReturnResult: e.RetMsg,
		Successful:   e.InvokeFinished == 1 && e.RetCode == 0,
		StartTime:    e.StartTime,
		RunDuration:  e.Duration,
		BillDuration: e.BillDuration,
		MemoryUsage:  e.MemUsage,
		Log:          e.Log,
		LogLevel:     e.Level,
		LogSource:    e.Source,
		RequestID:    e.RequestID,
	}
}

type functionLogsResponse struct {
	Data       []functionLogEntry `json:"Data"`
	TotalCount int                `json:"TotalCount"`
}

// GetFunctionResultByRequestID fetches the execution result of one
// invocation by its request identifier. A result that has not been
// recorded yet yields a core.ErrNotFound wrapped error.
func (c *Client) GetFunctionResultByRequestID(ctx context.Context, regionID, namespace, functionName, requestID, version string) (*FunctionResult, error) {
	if functionName == "" {
		return nil, fmt.Errorf("function result: function name required")
	}
	if requestID == "" {
		return nil, fmt.Errorf("function result: request id required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}

	params := map[string]interface{}{
		"FunctionName":      functionName,
		"Namespace":         namespace,
		"FunctionRequestId": requestID,
	}
	if version != "" {
		params["Qualifier"] = version
	}

	var response functionLogsResponse
	err := c.Action(ctx, regionID, "GetFunctionLogs", apiVersion, params, &response)
	if err != nil {
		return nil, err
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("no result for request %s: %w", requestID, core.ErrNotFound)
	}
	result := response.Data[0].toResult()
	return &result, nil
}

// FunctionResultsFilter narrows a result listing to a time window or
// an outcome type.
type FunctionResultsFilter struct {
	StartTime time.Time
	EndTime   time.Time
	Type      FunctionResultType
}

// FunctionResultIterator walks the recorded executions of a function,
// newest first.
type FunctionResultIterator struct {
	client       *Client
	regionID     string
	namespace    string
	functionName string
	version      string
	filter       FunctionResultsFilter

	offset int
	buffer []FunctionResult
	done   bool
}

// FunctionResults returns an iterator over the recorded executions of
// a function.
func (c *Client) FunctionResults(regionID, namespace, functionName, version string, filter *FunctionResultsFilter) *FunctionResultIterator {
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}
	it := &FunctionResultIterator{
		client:       c,
		regionID:     regionID,
		namespace:    namespace,
		functionName: functionName,
		version:      version,
	}
	if filter != nil {
		it.filter = *filter
	}
	return it
}

// Next returns the next recorded execution, or a core.ErrNotFound
// wrapped error when the listing is exhausted.
func (it *FunctionResultIterator) Next(ctx context.Context) (*FunctionResult, error) {
	if it.functionName == "" {
		return nil, fmt.Errorf("function results: function name required")
	}
	if len(it.buffer) == 0 && !it.done {
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
	}
	if len(it.buffer) == 0 {
		return nil, fmt.Errorf("no more function results: %w", core.ErrNotFound)
	}
	result := it.buffer[0]
	it.buffer = it.buffer[1:]
	return &result, nil
}

func (it *FunctionResultIterator) fetch(ctx context.Context) error {
	params := map[string]interface{}{
		"FunctionName": it.functionName,
		"Namespace":    it.namespace,
		"Offset":       it.offset,
		"Limit":        resultsPageLimit,
	}
	if it.version != "" {
		params["Qualifier"] = it.version
	}
	if !it.filter.StartTime.IsZero() {
		params["StartTime"] = it.filter.StartTime.Format(logTimeLayout)
	}
	if !it.filter.EndTime.IsZero() {
		params["EndTime"] = it.filter.EndTime.Format(logTimeLayout)
	}
	if it.filter.Type != "" {
		params["Filter"] = map[string]interface{}{
			"RetCode": string(it.filter.Type),
		}
	}

	var response functionLogsResponse
	err := it.client.Action(ctx, it.regionID, "GetFunctionLogs", apiVersion, params, &response)
	if err != nil {
		return err
	}
	for _, entry := range response.Data {
		it.buffer = append(it.buffer, entry.toResult())
	}
	it.offset += len(response.Data)
	if len(response.Data) < resultsPageLimit || it.offset >= response.TotalCount {
		it.done = true
	}
	return nil
}

// FunctionsFilter narrows a function listing.
type FunctionsFilter struct {
	SearchKey   string
	Description string
	Tags        map[string]string
}

// FunctionIterator walks every function of a namespace.
type FunctionIterator struct {
	client    *Client
	regionID  string
	namespace string
	filter    FunctionsFilter

	offset int
	buffer []FunctionSummary
	done   bool
}

type functionEntry struct {
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
}

func (e functionEntry) toSummary() FunctionSummary {
	return FunctionSummary{
		ID:               e.FunctionID,
		Name:             e.FunctionName,
		Namespace:        e.Namespace,
		Description:      e.Description,
		Status:           e.Status,
		Type:             e.Type,
		Runtime:          e.Runtime,
		Tags:             tagsToMap(e.Tags),
		CreateTime:       e.AddTime,
		LastModifiedTime: e.ModTime,
	}
}

// Functions returns an iterator over the functions of a namespace.
func (c *Client) Functions(regionID, namespace string, filter *FunctionsFilter) *FunctionIterator {
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}
	it := &FunctionIterator{
		client:    c,
		regionID:  regionID,
		namespace: namespace,
	}
	if filter != nil {
		it.filter = *filter
	}
	return it
}

// Next returns the next function, or a core.ErrNotFound wrapped error
// when the listing is exhausted.
func (it *FunctionIterator) Next(ctx context.Context) (*FunctionSummary, error) {
	if len(it.buffer) == 0 && !it.done {
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
	}
	if len(it.buffer) == 0 {
		return nil, fmt.Errorf("no more functions: %w", core.ErrNotFound)
	}
	summary := it.buffer[0]
	it.buffer = it.buffer[1:]
	return &summary, nil
}

func (it *FunctionIterator) fetch(ctx context.Context) error {
	params := map[string]interface{}{
		"Namespace": it.namespace,
		"Offset":    it.offset,
		"Limit":     listPageLimit,
	}
	if it.filter.SearchKey != "" {
		params["SearchKey"] = it.filter.SearchKey
	}
	if it.filter.Description != "" {
		params["Description"] = it.filter.Description
	}
	if len(it.filter.Tags) > 0 {
		filters := make([]map[string]interface{}, 0, len(it.filter.Tags))
		for key, value := range it.filter.Tags {
			filters = append(filters, map[string]interface{}{
				"Name":   "tag-" + key,
				"Values": []string{value},
			})
		}
		params["Filters"] = filters
	}

	var response struct {
		Functions  []functionEntry `json:"Functions"`
		TotalCount int             `json:"TotalCount"`
	}
	err := it.client.Action(ctx, it.regionID, "ListFunctions", apiVersion, params, &response)
	if err != nil {
		return err
	}
	for _, entry := range response.Functions {
		it.buffer = append(it.buffer, entry.toSummary())
	}
	it.offset += len(response.Functions)
	if len(response.Functions) < listPageLimit || it.offset >= response.TotalCount {
		it.done = true
	}
	return nil
}

// ListFunctionVersions lists the published versions of a function,
// $LATEST included.
func (c *Client) ListFunctionVersions(ctx context.Context, regionID, namespace, functionName string) ([]string, error) {
	if functionName == "" {
		return nil, fmt.Errorf("list versions: function name required")
	}
	if regionID == "" {
		regionID = defaultRegion()
	}
	if namespace == "" {
		namespace = defaultNamespace()
	}

	var response struct {
		FunctionVersion []string `json:"FunctionVersion"`
	}
	err := c.Action(ctx, regionID, "ListVersionByFunction", apiVersion, map[string]interface{}{
		"FunctionName": functionName,
		"Namespace":    namespace,
	}, &response)
	if err != nil {
		return nil, err
	}
	return response.FunctionVersion, nil
}
