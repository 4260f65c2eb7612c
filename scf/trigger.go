package scf

import (
	"context"
	"encoding/json"
	"fmt"
)

// FunctionTriggerKind enumerates trigger types.
type FunctionTriggerKind string

const (
	TriggerTimer               FunctionTriggerKind = "timer"
	TriggerObjectStorageBucket FunctionTriggerKind = "cos"
	TriggerMessageQueueTopic   FunctionTriggerKind = "cmq"
)

// BucketTriggerFilter narrows bucket events to matching object keys.
type BucketTriggerFilter struct {
	Prefix string `json:"Prefix"`
	Suffix string `json:"Suffix"`
}

// FunctionTrigger selects exactly one trigger kind and its
// configuration. Errors surface when the trigger is committed.
type FunctionTrigger struct {
	kind      FunctionTriggerKind
	name      string
	configure string
	err       error
}

// NewFunctionTrigger returns an empty trigger selector.
func NewFunctionTrigger() *FunctionTrigger {
	return &FunctionTrigger{}
}

// UseTimer fires the function on a cron schedule.
func (t *FunctionTrigger) UseTimer(name, cron string) *FunctionTrigger {
	if name == "" || cron == "" {
		t.err = fmt.Errorf("function trigger: timer requires a name and a cron expression")
		return t
	}
	t.kind = TriggerTimer
	t.name = name
	t.configure = cron
	return t
}

// UseObjectStorageBucket fires the function on a bucket event. The
// bucket is addressed by its full domain name.
func (t *FunctionTrigger) UseObjectStorageBucket(bucketDomain, eventID string, filter *BucketTriggerFilter) *FunctionTrigger {
	if bucketDomain == "" || eventID == "" {
		t.err = fmt.Errorf("function trigger: bucket requires a domain and an event identifier")
		return t
	}
	if filter == nil {
		filter = &BucketTriggerFilter{}
	}
	configure, err := json.Marshal(map[string]interface{}{
		"event":  eventID,
		"filter": filter,
	})
	if err != nil {
		t.err = fmt.Errorf("function trigger: marshal bucket configure: %w", err)
		return t
	}
	t.kind = TriggerObjectStorageBucket
	t.name = bucketDomain
	t.configure = string(configure)
	return t
}

// UseMessageQueueTopic fires the function on messages published to a
// queue topic.
func (t *FunctionTrigger) UseMessageQueueTopic(topicName string) *FunctionTrigger {
	if topicName == "" {
		t.err = fmt.Errorf("function trigger: topic requires a name")
		return t
	}
	t.kind = TriggerMessageQueueTopic
	t.name = topicName
	t.configure = ""
	return t
}

// CreateTrigger binds a trigger to a function version.
func (c *Client) CreateTrigger(ctx context.Context, regionID, namespace, functionName string, trigger *FunctionTrigger, version string) error {
	return c.commitTrigger(ctx, "CreateTrigger", regionID, namespace, functionName, trigger, version)
}

// DeleteTrigger removes a trigger from a function version. The
// trigger value must match the one used at creation.
func (c *Client) DeleteTrigger(ctx context.Context, regionID, namespace, functionName string, trigger *FunctionTrigger, version string) error {
	return c.commitTrigger(ctx, "DeleteTrigger", regionID, namespace, functionName, trigger, version)
}

func (c *Client) commitTrigger(ctx context.Context, actionID, regionID, namespace, functionName string, trigger *FunctionTrigger, version string) error {
	if functionName == "" {
		return fmt.Errorf("trigger: function name required")
	}
	if trigger == nil {
		return fmt.Errorf("trigger: trigger required")
	}
	if trigger.err != nil {
		return trigger.err
	}
	if trigger.kind == "" {
		return fmt.Errorf("trigger: no trigger kind selected")
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
		"Type":         string(trigger.kind),
		"TriggerName":  trigger.name,
	}
	if trigger.configure != "" {
		params["TriggerDesc"] = trigger.configure
	}
	if version != "" {
		params["Qualifier"] = version
	}
	return c.Action(ctx, regionID, actionID, apiVersion, params, nil)
}
