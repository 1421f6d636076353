package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"

	"lst-tools/geometry"
	"lst-tools/imagery"
	"lst-tools/pipeline"
)

// bandFile is one file of a scene. Band is the band name taken from a per-band
// product file name, empty for a file holding the whole scene.
type bandFile struct {
	path string
	band string
}

type sceneFiles struct {
	files  []bandFile
	header *imagery.Image
	cells  s2.CellUnion
}

// Dir is a catalog backed by a directory tree of GeoTIFF scenes. The
// collection id of a scene is its directory relative to the root, so
// root/LANDSAT/LC09/C02/T1_L2/scene.tif belongs to LANDSAT/LC09/C02/T1_L2.
// Scenes directly under the root are filed by their Landsat product id.
// Per-band product files (LC09_..._T1_ST_B10.TIF, LC09_..._T1_SR_B4.TIF) in
// one directory are grouped into one scene with a band per file.
// Only headers are read when the directory is opened; pixels are read when a
// search matches.
type Dir struct {
	root        string
	workers     int
	collections map[string][]*sceneFiles
}

func OpenDir(root string, workers int) (*Dir, error) {
	logrus.Debug("Entered OpenDir")
	d := &Dir{root: root, workers: workers, collections: map[string][]*sceneFiles{}}
	products := map[string]*sceneFiles{}
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !isGeoTIFF(path) {
			return nil
		}
		header, err := ReadHeader(path)
		if err != nil {
			logrus.Warnf("Skipping %s: %v", path, err)
			return nil
		}
		collectionID, err := d.collectionOf(path, header.ID)
		if err != nil {
			logrus.Warnf("Skipping %s: %v", path, err)
			return nil
		}

		file := bandFile{path: path}
		if band := BandSuffix(entry.Name()); band != "" {
			if pid, err := ParseProductID(entry.Name()); err == nil {
				file.band = band
				key := filepath.Join(filepath.Dir(path), pid.String())
				if scene, ok := products[key]; ok {
					scene.files = append(scene.files, file)
					logrus.Debugf("Grouped %s into %s", path, pid)
					return nil
				}
				header.ID = pid.String()
				scene := &sceneFiles{files: []bandFile{file}, header: header, cells: geometry.Covering(header.Footprint(), geometry.CoverLevel)}
				products[key] = scene
				d.collections[collectionID] = append(d.collections[collectionID], scene)
				logrus.Debugf("Indexed %s into %s", path, collectionID)
				return nil
			}
		}

		d.collections[collectionID] = append(d.collections[collectionID], &sceneFiles{
			files:  []bandFile{file},
			header: header,
			cells:  geometry.Covering(header.Footprint(), geometry.CoverLevel),
		})
		logrus.Debugf("Indexed %s into %s", path, collectionID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.Infof("Indexed %d collections under %s", len(d.collections), root)
	return d, nil
}

func (d *Dir) collectionOf(path, sceneID string) (string, error) {
	rel, err := filepath.Rel(d.root, filepath.Dir(path))
	if err != nil {
		return "", err
	}
	if rel != "." {
		return filepath.ToSlash(rel), nil
	}
	pid, err := ParseProductID(sceneID)
	if err != nil {
		return "", err
	}
	return pid.CollectionID(), nil
}

func (d *Dir) Collections() []string {
	ids := make([]string, 0, len(d.collections))
	for id := range d.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Search reads the matching scenes of a collection, ordered by acquisition time.
func (d *Dir) Search(ctx context.Context, q pipeline.QuerySpec) (imagery.Collection, error) {
	f, err := newFilter(q)
	if err != nil {
		return nil, err
	}
	scenes, ok := d.collections[q.CatalogID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, q.CatalogID)
	}

	var out imagery.Collection
	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !f.matches(scene.header.Footprint(), scene.cells, scene.header.Time) {
			continue
		}
		img, err := d.read(scene)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out.Sorted(), nil
}

// read reads all files of a scene into one image. The bands of a per-band
// file are named by the file's band suffix.
func (d *Dir) read(scene *sceneFiles) (*imagery.Image, error) {
	var out *imagery.Image
	for _, file := range scene.files {
		logrus.Infof("Reading scene file %s", file.path)
		img, err := ReadScene(file.path, d.workers)
		if err != nil {
			return nil, err
		}
		if file.band != "" {
			renamed := make(map[string]*imagery.Band, len(img.Bands))
			for name, b := range img.Bands {
				if len(img.Bands) == 1 {
					renamed[file.band] = b
				} else {
					renamed[file.band+"_"+name] = b
				}
			}
			img.Bands = renamed
		}
		if out == nil {
			out = img
			out.ID = scene.header.ID
			continue
		}
		if !out.SameGrid(img) {
			return nil, fmt.Errorf("%w: %s does not share the grid of scene %s", imagery.ErrGridMismatch, file.path, out.ID)
		}
		for name, b := range img.Bands {
			out.Bands[name] = b
		}
	}
	return out, nil
}

func isGeoTIFF(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return true
	}
	return false
}
