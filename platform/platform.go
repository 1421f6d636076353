// Package platform is the local imagery platform: it resolves catalog queries
// and named functions for graph evaluation, and owns the export task ledger.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"lst-tools/catalog"
	"lst-tools/export"
	"lst-tools/geometry"
	"lst-tools/imagery"
	"lst-tools/pipeline"
)

// Error is a failure inside the platform: a catalog read, an evaluation, a
// ledger write or an export write.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("platform %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var errDuplicateFunction = errors.New("function already registered")

// Local implements pipeline.Session over a local catalog.
type Local struct {
	catalog catalog.Catalog
	tasks   *export.Store
	runner  *export.Runner
	workers int

	mu        sync.RWMutex
	functions map[string]imagery.Transform
}

func NewLocal(cat catalog.Catalog, tasks *export.Store, runner *export.Runner, workers int) *Local {
	return &Local{
		catalog:   cat,
		tasks:     tasks,
		runner:    runner,
		workers:   workers,
		functions: map[string]imagery.Transform{},
	}
}

// Register makes fn available to map nodes under name.
func (l *Local) Register(name string, fn imagery.Transform) error {
	if name == "" || fn == nil {
		return fmt.Errorf("%w: empty function registration", pipeline.ErrUnknownFunction)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.functions[name]; ok {
		return fmt.Errorf("%w: %s", errDuplicateFunction, name)
	}
	l.functions[name] = fn
	logrus.Debugf("Registered function %s", name)
	return nil
}

func (l *Local) Functions() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.functions))
	for name := range l.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Local) Function(name string) (imagery.Transform, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, ok := l.functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pipeline.ErrUnknownFunction, name)
	}
	return fn, nil
}

func (l *Local) Search(ctx context.Context, q pipeline.QuerySpec) (imagery.Collection, error) {
	return l.catalog.Search(ctx, q)
}

// Materialize evaluates a graph into pixels.
func (l *Local) Materialize(ctx context.Context, img *pipeline.Image) (*imagery.Image, error) {
	logrus.Infof("Materializing %s", img)
	out, err := pipeline.NewEvaluator(l, l.workers).Image(ctx, img)
	if err != nil {
		return nil, &Error{Op: "materialize", Err: err}
	}
	return out, nil
}

// Export registers a READY export task for img. Nothing is evaluated until the
// task is launched.
func (l *Local) Export(ctx context.Context, img *pipeline.Image, req export.Request) (*export.Task, error) {
	graph, err := json.Marshal(img)
	if err != nil {
		return nil, &Error{Op: "export", Err: err}
	}
	task, err := export.NewTask(req, graph)
	if err != nil {
		return nil, err
	}
	if err := l.tasks.Save(ctx, task); err != nil {
		return nil, &Error{Op: "export", Err: err}
	}
	return task, nil
}

func (l *Local) Tasks(ctx context.Context) ([]*export.Task, error) {
	tasks, err := l.tasks.List(ctx)
	if err != nil {
		return nil, &Error{Op: "tasks", Err: err}
	}
	return tasks, nil
}

func (l *Local) Task(ctx context.Context, id string) (*export.Task, error) {
	task, err := l.tasks.Get(ctx, id)
	if err != nil {
		return nil, &Error{Op: "task", Err: err}
	}
	return task, nil
}

// Launch runs a READY (or previously FAILED) task: the graph is evaluated,
// cropped to the request region, resampled to the request scale and written
// to the Drive directory. The task ends COMPLETED with its output path, or
// FAILED with the error text, which is also returned.
func (l *Local) Launch(ctx context.Context, id string) (*export.Task, error) {
	task, err := l.tasks.Transition(ctx, id, export.StateRunning, "", "")
	if err != nil {
		return nil, &Error{Op: "launch", Err: err}
	}
	log := logrus.WithFields(logrus.Fields{"task": id, "description": task.Request.Description})
	log.Info("Launching export task")

	output, runErr := l.run(ctx, task)
	if runErr != nil {
		log.Errorf("Export task failed: %v", runErr)
		// the ledger update must survive a cancelled launch
		if _, err := l.tasks.Transition(context.Background(), id, export.StateFailed, "", runErr.Error()); err != nil {
			runErr = errors.Join(runErr, err)
		}
		return nil, &Error{Op: "launch", Err: runErr}
	}

	done, err := l.tasks.Transition(ctx, id, export.StateCompleted, output, "")
	if err != nil {
		return nil, &Error{Op: "launch", Err: err}
	}
	log.Infof("Export task completed: %s", output)
	return done, nil
}

func (l *Local) run(ctx context.Context, task *export.Task) (string, error) {
	graph, err := pipeline.DecodeImage(task.Graph)
	if err != nil {
		return "", err
	}
	img, err := pipeline.NewEvaluator(l, l.workers).Image(ctx, graph)
	if err != nil {
		return "", err
	}
	img, err = prepare(img, task.Request)
	if err != nil {
		return "", err
	}
	return l.runner.Write(ctx, img, task.Request)
}

// prepare restricts img to the request region and resamples it to the
// request scale in meters.
func prepare(img *imagery.Image, req export.Request) (*imagery.Image, error) {
	if req.Region != nil {
		region, err := req.Region.Decode()
		if err != nil {
			return nil, err
		}
		if img, err = imagery.Clip(img, region); err != nil {
			return nil, err
		}
		if img, err = imagery.Crop(img, region.Bound()); err != nil {
			return nil, err
		}
	}
	center := img.Footprint().Center()
	xres, yres := imagery.MetersToDegrees(req.Scale, center.Lat)
	logrus.Debugf("Resampling %s to %vm (%v x %v degrees)", img.ID, req.Scale, xres, yres)
	return imagery.Resample(img, xres, yres)
}

// RegionArea is the area of an export region in square meters.
func RegionArea(g geometry.Geometry) (float64, error) {
	area, err := geometry.AreaSquareMeters(g)
	if err != nil {
		return 0, &Error{Op: "area", Err: err}
	}
	return area, nil
}
