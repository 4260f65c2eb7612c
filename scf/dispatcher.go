package scf

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DispatcherConfig defines the config for the invoke dispatcher.
type DispatcherConfig struct {
	Logger core.Logger

	// FlushInterval paces the background flush loop.
	FlushInterval time.Duration

	// FlushLimit caps the tasks taken per flush.
	FlushLimit int

	// Concurrency bounds the parallel invocations per flush.
	Concurrency int

	// MaxAttempts caps the delivery attempts per task before it is
	// dropped.
	MaxAttempts int

	ShowSuccessfulInfo bool
}

// DispatcherConfigDefault is the default config.
var DispatcherConfigDefault = DispatcherConfig{
	FlushLimit:  16,
	Concurrency: 4,
	MaxAttempts: 3,
}

// Helper function to set default values
func dispatcherConfigDefault(config ...DispatcherConfig) DispatcherConfig {
	if len(config) < 1 {
		return DispatcherConfigDefault
	}

	cfg := config[0]

	if cfg.FlushLimit == 0 {
		cfg.FlushLimit = DispatcherConfigDefault.FlushLimit
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DispatcherConfigDefault.Concurrency
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DispatcherConfigDefault.MaxAttempts
	}
	if cfg.FlushInterval < 100*time.Millisecond {
		cfg.FlushInterval = 100 * time.Millisecond
	}

	return cfg
}

// InvokeCallback receives the outcome of a dispatched invocation.
type InvokeCallback func(task *InvokeTask, result *InvokeResult, err error)

// InvokeTask is one queued invocation.
type InvokeTask struct {
	ID       string
	Input    InvokeInput
	Callback InvokeCallback

	attempts int
}

// Dispatcher batches function invocations and delivers them in the
// background, retrying failed tasks until their attempt budget runs
// out.
type Dispatcher struct {
	cfg DispatcherConfig

	client *Client
	logger core.Logger

	mu      sync.Mutex
	pending []*InvokeTask

	stopSig  chan bool
	stopOnce sync.Once
	started  int32
	shutdown int32
}

// NewDispatcher returns a dispatcher bound to a product client. Run
// starts the flush loop.
func NewDispatcher(client *Client, config ...DispatcherConfig) *Dispatcher {
	cfg := dispatcherConfigDefault(config...)

	logger := client.Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger
	}

	return &Dispatcher{
		cfg:     cfg,
		client:  client,
		logger:  logger,
		stopSig: make(chan bool),
	}
}

// Push queues an invocation and returns its task identifier. The
// callback, when set, runs on the flush goroutine once the task
// settles.
func (d *Dispatcher) Push(input InvokeInput, callback InvokeCallback) (string, error) {
	if atomic.LoadInt32(&d.shutdown) != 0 {
		return "", errors.New("dispatcher shutdown")
	}
	task := &InvokeTask{
		ID:       uuid.NewString(),
		Input:    input,
		Callback: callback,
	}
	d.mu.Lock()
	d.pending = append(d.pending, task)
	d.mu.Unlock()
	return task.ID, nil
}

// Len returns the number of queued tasks.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Dispatcher) eject(limit int) []*InvokeTask {
	d.mu.Lock()
	defer d.mu.Unlock()
	if limit < 0 || limit > len(d.pending) {
		limit = len(d.pending)
	}
	tasks := d.pending[:limit]
	d.pending = d.pending[limit:]
	return tasks
}

func (d *Dispatcher) requeue(tasks ...*InvokeTask) {
	d.mu.Lock()
	d.pending = append(d.pending, tasks...)
	d.mu.Unlock()
}

// Stop shuts the dispatcher down and rejects further pushes. With
// flushTail the remaining queue is delivered first; otherwise it is
// dropped. Stop is idempotent and safe before Run.
func (d *Dispatcher) Stop(flushTail bool) {
	atomic.StoreInt32(&d.shutdown, 1)
	d.stopOnce.Do(func() {
		if atomic.LoadInt32(&d.started) == 0 {
			return
		}
		d.stopSig <- flushTail
		<-d.stopSig
	})
}

// Run starts the background flush loop. The context cancels in-flight
// invocations; use Stop to shut down.
func (d *Dispatcher) Run(ctx context.Context) {
	atomic.StoreInt32(&d.started, 1)
	t := time.NewTicker(d.cfg.FlushInterval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				d.flush(ctx, d.cfg.FlushLimit)
			case flushTail := <-d.stopSig:
				if flushTail {
					d.flush(ctx, -1)
				} else if dropped := d.Len(); dropped > 0 {
					d.logger.Warnw("tasks dropped at shutdown", "count", dropped)
				}
				close(d.stopSig)
				return
			}
		}
	}()
}

func (d *Dispatcher) flush(ctx context.Context, limit int) {
	tasks := d.eject(limit)
	if len(tasks) == 0 {
		return
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(d.cfg.Concurrency)
	for _, task := range tasks {
		task := task
		group.Go(func() error {
			d.deliver(ctx, task)
			return nil
		})
	}
	_ = group.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, task *InvokeTask) {
	task.attempts++
	result, err := d.client.Invoke(ctx, task.Input)
	if err == nil {
		if d.cfg.ShowSuccessfulInfo {
			d.logger.Infow("task delivered",
				"task", task.ID,
				"function", task.Input.FunctionName,
			)
		}
		if task.Callback != nil {
			task.Callback(task, result, nil)
		}
		return
	}

	if task.attempts < d.cfg.MaxAttempts && atomic.LoadInt32(&d.shutdown) == 0 {
		d.logger.Warnw("task delivery failed, requeued",
			"task", task.ID,
			"function", task.Input.FunctionName,
			"attempt", task.attempts,
			"error", err,
		)
		d.requeue(task)
		return
	}

	d.logger.Errorw("task lost, attempt budget exhausted",
		"task", task.ID,
		"function", task.Input.FunctionName,
		"error", err,
	)
	if task.Callback != nil {
		task.Callback(task, nil, err)
	}
}
