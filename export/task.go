// Package export implements export tasks: the request model, the sqlite task
// ledger and the GeoTIFF, Parquet and CSV writers.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"lst-tools/geometry"
)

var (
	ErrInvalidRequest = errors.New("invalid export request")
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskState      = errors.New("invalid task state transition")
)

type State string

const (
	StateReady     State = "READY"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// CanTransition reports whether a task in state s may move to state to. A
// failed task may be launched again; a completed one is final.
func (s State) CanTransition(to State) bool {
	switch s {
	case StateReady, StateFailed:
		return to == StateRunning
	case StateRunning:
		return to == StateCompleted || to == StateFailed
	default:
		return false
	}
}

type Format string

const (
	FormatGeoTIFF Format = "geotiff"
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatGeoTIFF, FormatParquet, FormatCSV:
		return f, nil
	case "tif", "tiff":
		return FormatGeoTIFF, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrInvalidRequest, s)
	}
}

func (f Format) Ext() string {
	switch f {
	case FormatGeoTIFF:
		return ".tif"
	case FormatParquet:
		return ".parquet"
	default:
		return ".csv"
	}
}

// DestinationDrive is the only supported destination: a local directory
// standing in for cloud file storage.
const DestinationDrive = "Drive"

// DefaultCellLevel is the s2 level of the cell ids in table exports. Level 18
// cells are about 30m across, the size of a Landsat pixel.
const DefaultCellLevel = 18

var descriptionPattern = regexp.MustCompile(`^[A-Za-z0-9_.,:;-]+$`)

// Request describes an export of an image.
type Request struct {
	Description string            `json:"description"`
	Scale       float64           `json:"scale"`
	Destination string            `json:"destination"`
	Format      Format            `json:"format"`
	Region      *geometry.Encoded `json:"region,omitempty"`
	CellLevel   int               `json:"cell_level,omitempty"`
}

func DefaultRequest() Request {
	return Request{
		Description: "Noho_temperature_7_2_2024",
		Scale:       30,
		Destination: DestinationDrive,
		Format:      FormatGeoTIFF,
	}
}

func (r Request) Validate() error {
	if !descriptionPattern.MatchString(r.Description) {
		return fmt.Errorf("%w: description %q must be non-empty and use only letters, digits and _.,:;-", ErrInvalidRequest, r.Description)
	}
	if !(r.Scale > 0) {
		return fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidRequest, r.Scale)
	}
	if r.Destination != DestinationDrive {
		return fmt.Errorf("%w: unsupported destination %q", ErrInvalidRequest, r.Destination)
	}
	if _, err := ParseFormat(string(r.Format)); err != nil {
		return err
	}
	if r.CellLevel < 0 || r.CellLevel > 30 {
		return fmt.Errorf("%w: s2 cell level %d out of range", ErrInvalidRequest, r.CellLevel)
	}
	if r.Region != nil {
		region, err := r.Region.Decode()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if err := geometry.RequireArea(region); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	return nil
}

func (r Request) cellLevel() int {
	if r.CellLevel == 0 {
		return DefaultCellLevel
	}
	return r.CellLevel
}

// Task is a registered export. Graph holds the encoded computation graph of
// the exported image; nothing is evaluated until the task is launched.
type Task struct {
	ID        string
	Request   Request
	Graph     json.RawMessage
	State     State
	Output    string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTask validates req and registers it as a READY task. Format aliases
// such as tif are stored under their canonical name.
func NewTask(req Request, graph []byte) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	format, err := ParseFormat(string(req.Format))
	if err != nil {
		return nil, err
	}
	req.Format = format
	if len(graph) == 0 {
		return nil, fmt.Errorf("%w: empty graph", ErrInvalidRequest)
	}
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.New().String(),
		Request:   req,
		Graph:     append(json.RawMessage(nil), graph...),
		State:     StateReady,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
