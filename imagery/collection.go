package imagery

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultWorkers is the fan-out used by Map when no worker count is given.
const DefaultWorkers = 8

// Collection is a time-ordered set of images.
type Collection []*Image

// Transform maps one image to a new image. It must not depend on the position
// of the image in its collection or on other members, since Map runs it in
// parallel.
type Transform func(*Image) (*Image, error)

// Sorted returns a copy ordered by acquisition time, then ID.
func (c Collection) Sorted() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type mapJob struct {
	index int
	image *Image
}

// Map applies fn to every member with a pool of workers and returns a new
// collection in the input order. The input collection is not modified.
func Map(ctx context.Context, c Collection, fn Transform, workers int) (Collection, error) {
	logrus.Debug("Entered Map")
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(c) {
		workers = len(c)
	}

	out := make(Collection, len(c))
	jobs := make(chan mapJob)
	errs := make([]error, len(c))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				logrus.Debugf("Transforming image %s", job.image.ID)
				out[job.index], errs[job.index] = fn(job.image)
			}
		}()
	}

	var ctxErr error
feed:
	for i, img := range c {
		select {
		case jobs <- mapJob{index: i, image: img}:
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}
	for i, err := range errs {
		if err != nil {
			logrus.Errorf("Transform failed for image %s: %v", c[i].ID, err)
			return nil, err
		}
	}
	logrus.Debug("Exited Map")
	return out, nil
}
