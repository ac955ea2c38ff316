// Package fetch crawls the remote plan → bucket → task → detail hierarchy and
// assembles a flat, normalized snapshot of remote tasks.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/harrisonrobin/plannersync/pkg/log"
	"github.com/harrisonrobin/plannersync/pkg/model"
	"github.com/harrisonrobin/plannersync/pkg/planner"
	"github.com/harrisonrobin/plannersync/pkg/tags"
)

// Remote is the read side of the remote task store.
type Remote interface {
	ListPlans(ctx context.Context) ([]planner.Plan, error)
	ListBuckets(ctx context.Context, planID string) ([]planner.Bucket, error)
	ListTasks(ctx context.Context, bucketID string) ([]planner.Task, error)
	GetTaskDetails(ctx context.Context, taskID string) (*planner.TaskDetails, error)
}

// FetcherConfig is the configuration of the Fetcher.
type FetcherConfig struct {
	Remote Remote
	// Concurrency bounds the sibling requests in flight per hierarchy level.
	Concurrency int
	// Parse extracts tags from a task description. Defaults to tags.Parse.
	Parse  func(description string) map[string]model.Tag
	Logger log.Logger
}

func (c *FetcherConfig) defaults() error {
	if c.Remote == nil {
		return fmt.Errorf("remote is required")
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Parse == nil {
		c.Parse = tags.Parse
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "fetch.Fetcher"})
	return nil
}

// Result is a remote snapshot.
type Result struct {
	// Tasks in discovery order: plan, bucket, task listing order.
	Tasks []model.RemoteTask
	// TagKeys is the sorted superset of tag keys seen across Tasks.
	TagKeys []string
	// Failures holds one error per skipped hierarchy node, each wrapping
	// model.ErrRemoteNodeUnreachable.
	Failures []error
}

// Fetcher walks the remote hierarchy.
type Fetcher struct {
	remote      Remote
	concurrency int
	parse       func(string) map[string]model.Tag
	logger      log.Logger
}

// NewFetcher returns a new Fetcher.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Fetcher{
		remote:      cfg.Remote,
		concurrency: cfg.Concurrency,
		parse:       cfg.Parse,
		logger:      cfg.Logger,
	}, nil
}

type bucketRef struct {
	plan   planner.Plan
	bucket planner.Bucket
}

type taskRef struct {
	bucketRef
	task planner.Task
}

// failures collects per-node errors from concurrent workers.
type failures struct {
	mu   sync.Mutex
	errs []error
}

func (f *failures) add(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

// authErr returns the first auth failure, those abort the whole fetch.
func (f *failures) authErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, err := range f.errs {
		if errors.Is(err, model.ErrAuthUnavailable) {
			return err
		}
	}
	return nil
}

// Fetch crawls the hierarchy one level at a time. Siblings inside a level are
// fetched concurrently. A failing plan listing aborts with
// model.ErrRemoteUnavailable; failures deeper in the tree skip that subtree
// (or, for task details, leave the task without tags) and are reported in
// Result.Failures. Cancellation is checked between levels.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	logger := f.logger.WithCtxValues(ctx)

	plans, err := f.remote.ListPlans(ctx)
	if err != nil {
		if errors.Is(err, model.ErrAuthUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: could not list plans: %w", model.ErrRemoteUnavailable, err)
	}
	logger.Debugf("found %d plans", len(plans))

	fails := &failures{}

	// Level 1: buckets.
	bucketsByPlan := make([][]planner.Bucket, len(plans))
	f.forEach(len(plans), func(i int) {
		buckets, err := f.remote.ListBuckets(ctx, plans[i].ID)
		if err != nil {
			logger.Warningf("skipping plan %s: %v", plans[i].ID, err)
			fails.add(fmt.Errorf("%w: plan %s buckets: %w", model.ErrRemoteNodeUnreachable, plans[i].ID, err))
			return
		}
		bucketsByPlan[i] = buckets
	})
	if err := levelDone(ctx, fails); err != nil {
		return nil, err
	}

	var bucketRefs []bucketRef
	for i, buckets := range bucketsByPlan {
		for _, b := range buckets {
			bucketRefs = append(bucketRefs, bucketRef{plan: plans[i], bucket: b})
		}
	}

	// Level 2: tasks.
	tasksByBucket := make([][]planner.Task, len(bucketRefs))
	f.forEach(len(bucketRefs), func(i int) {
		tasks, err := f.remote.ListTasks(ctx, bucketRefs[i].bucket.ID)
		if err != nil {
			logger.Warningf("skipping bucket %s: %v", bucketRefs[i].bucket.ID, err)
			fails.add(fmt.Errorf("%w: bucket %s tasks: %w", model.ErrRemoteNodeUnreachable, bucketRefs[i].bucket.ID, err))
			return
		}
		tasksByBucket[i] = tasks
	})
	if err := levelDone(ctx, fails); err != nil {
		return nil, err
	}

	var taskRefs []taskRef
	seen := make(map[string]bool)
	for i, tasks := range tasksByBucket {
		for _, t := range tasks {
			if t.ID == "" || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			taskRefs = append(taskRefs, taskRef{bucketRef: bucketRefs[i], task: t})
		}
	}

	// Level 3: details. Tags merge into the shared superset as each detail
	// completes.
	keys := model.NewTagSet()
	tagsByTask := make([]map[string]model.Tag, len(taskRefs))
	f.forEach(len(taskRefs), func(i int) {
		id := taskRefs[i].task.ID
		details, err := f.remote.GetTaskDetails(ctx, id)
		if err != nil {
			logger.Warningf("task %s without details: %v", id, err)
			fails.add(fmt.Errorf("%w: task %s details: %w", model.ErrRemoteNodeUnreachable, id, err))
			return
		}
		parsed := f.parse(details.Description)
		tagsByTask[i] = parsed
		keys.AddTags(parsed)
	})
	if err := levelDone(ctx, fails); err != nil {
		return nil, err
	}

	res := &Result{
		Tasks:    make([]model.RemoteTask, 0, len(taskRefs)),
		TagKeys:  keys.Sorted(),
		Failures: fails.errs,
	}
	for i, ref := range taskRefs {
		t := tagsByTask[i]
		if t == nil {
			t = map[string]model.Tag{}
		}
		res.Tasks = append(res.Tasks, model.RemoteTask{
			ID:              ref.task.ID,
			PlanID:          ref.plan.ID,
			PlanName:        ref.plan.Title,
			BucketID:        ref.bucket.ID,
			BucketName:      ref.bucket.Name,
			Title:           ref.task.Title,
			PercentComplete: ref.task.PercentComplete,
			VersionToken:    ref.task.ETag,
			Tags:            t,
		})
	}

	logger.Infof("fetched %d tasks from %d plans, %d nodes skipped", len(res.Tasks), len(plans), len(res.Failures))
	return res, nil
}

// forEach runs fn for every index with bounded parallelism and waits.
func (f *Fetcher) forEach(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func levelDone(ctx context.Context, fails *failures) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fetch cancelled: %w", err)
	}
	return fails.authErr()
}
