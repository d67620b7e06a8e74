package cli

import (
	"bufio"
	"context"
	"image"
	"io"

	"github.com/dmitrijs2005/facegate/internal/landmark"
	"github.com/dmitrijs2005/facegate/internal/logging"
	"github.com/dmitrijs2005/facegate/internal/models"
	"github.com/dmitrijs2005/facegate/internal/workflow"
)

// Workflows runs registration and authorization off the console goroutine.
type Workflows interface {
	RegisterAsync(ctx context.Context, req workflow.RegisterRequest) <-chan workflow.Outcome
	AuthorizeAsync(ctx context.Context, req workflow.AuthorizeRequest) <-chan workflow.Outcome
}

type Records interface {
	AllRecords(ctx context.Context) ([]models.User, error)
}

type Detector interface {
	Detect(ctx context.Context, img image.Image) (landmark.Detection, *image.Gray, error)
}

type Backuper interface {
	Upload(ctx context.Context) (string, error)
}

type MetricsWriter interface {
	WriteText(w io.Writer) error
}

// Deps are the collaborators the console drives. Backup and Metrics may be
// nil, in which case the matching commands report that they are disabled.
type Deps struct {
	Workflows Workflows
	Records   Records
	Detector  Detector
	Backup    Backuper
	Metrics   MetricsWriter
}

// loadImage is a test seam for landmark.LoadImage.
var loadImage = landmark.LoadImage

type App struct {
	deps   Deps
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(deps Deps, in io.Reader, out io.Writer, logger logging.Logger) *App {
	return &App{deps: deps, logger: logger, reader: bufio.NewReader(in), out: out}
}

// Run serves the console until the input ends, the user exits or ctx is
// cancelled.
func (a *App) Run(ctx context.Context) {
	runREPL(ctx, a, a.reader, a.out)
}
