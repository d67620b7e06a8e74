// Package workflow coordinates the identification engine and the credential
// store into the two user-facing operations: registration and
// authorization.
//
// Every run ends in exactly one Outcome. Rejections are expected decisions
// (no match, wrong password, taken name); faults are failures of detection,
// the store file or I/O. The async variants hand over a single result on a
// buffered channel, so a caller that abandons the request does not block
// the worker.
package workflow

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/dmitrijs2005/facegate/internal/auth"
	"github.com/dmitrijs2005/facegate/internal/features"
	"github.com/dmitrijs2005/facegate/internal/logging"
	"github.com/dmitrijs2005/facegate/internal/matcher"
	"github.com/dmitrijs2005/facegate/internal/metrics"
	"github.com/dmitrijs2005/facegate/internal/models"
	"github.com/go-playground/validator/v10"
)

// Extractor produces the signature of the single face in a capture.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (features.Signature, error)
}

// Store is the part of credentials.Store the workflows need.
type Store interface {
	Exists(ctx context.Context, name string) (*models.User, bool, error)
	Register(ctx context.Context, name, password string, sig features.Signature, overwrite bool) error
	Verify(passwordHash, password string) bool
	AllRecords(ctx context.Context) ([]models.User, error)
}

type RegisterRequest struct {
	Name     string
	Password string
	// NewPassword replaces the password on overwrite. Empty keeps Password.
	NewPassword string
	// ConfirmOverwrite must be set to replace an existing record.
	ConfirmOverwrite bool
	Image            image.Image
}

type AuthorizeRequest struct {
	Image image.Image
}

type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

type Service struct {
	extractor Extractor
	store     Store
	matcher   *matcher.Matcher
	metrics   *metrics.Metrics
	tokens    TokenConfig
	logger    logging.Logger
	validate  *validator.Validate

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewService(extractor Extractor, store Store, m *matcher.Matcher, mt *metrics.Metrics, tokens TokenConfig, logger logging.Logger) *Service {
	return &Service{
		extractor: extractor,
		store:     store,
		matcher:   m,
		metrics:   mt,
		tokens:    tokens,
		logger:    logger,
		validate:  newValidator(),
		inflight:  make(map[string]struct{}),
	}
}

// acquire marks name as having a pending registration. The returned release
// must be called once the request finishes.
func (s *Service) acquire(name string) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[name]; busy {
		return nil, false
	}
	s.inflight[name] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, name)
		s.mu.Unlock()
	}, true
}

func (s *Service) extract(ctx context.Context, img image.Image) (features.Signature, error) {
	start := time.Now()
	sig, err := s.extractor.Extract(ctx, img)
	s.metrics.ObserveExtraction(start, err)
	return sig, err
}

func (s *Service) finish(ctx context.Context, workflow string, out Outcome) Outcome {
	s.metrics.ObserveOutcome(workflow, out.Kind.String())

	args := []any{"workflow", workflow, "kind", out.Kind.String(), "name", out.Name}
	switch out.Kind {
	case Success:
		s.logger.Info(ctx, "workflow finished", args...)
	case Rejected:
		s.logger.Info(ctx, "workflow rejected", append(args, "reason", out.Err)...)
	default:
		s.logger.Error(ctx, "workflow failed", append(args, "category", out.Category(), "error", out.Err)...)
	}
	return out
}

// Register enrolls a new identity or, when the name is taken, replaces its
// signature after the stored password verifies and the caller confirmed the
// overwrite.
func (s *Service) Register(ctx context.Context, req RegisterRequest) Outcome {
	out := s.register(ctx, req)
	return s.finish(ctx, "register", out)
}

func (s *Service) register(ctx context.Context, req RegisterRequest) Outcome {
	name := NormalizeName(req.Name)

	in := credentialsInput{Name: name, Password: req.Password, NewPassword: req.NewPassword}
	if err := validateInput(s.validate, in); err != nil {
		return Outcome{Kind: Rejected, Err: err, Name: name}
	}
	if err := checkPasswordBytes(req.Password, req.NewPassword); err != nil {
		return Outcome{Kind: Rejected, Err: err, Name: name}
	}
	if req.Image == nil {
		return Outcome{Kind: Rejected, Err: fmt.Errorf("%w: image is required", ErrInvalidInput), Name: name}
	}

	release, ok := s.acquire(name)
	if !ok {
		return Outcome{Kind: Rejected, Err: ErrInFlight, Name: name}
	}
	defer release()

	existing, found, err := s.store.Exists(ctx, name)
	if err != nil {
		out := outcomeFor(err)
		out.Name = name
		return out
	}

	password := req.Password
	if found {
		if !s.store.Verify(existing.PasswordHash, req.Password) {
			return Outcome{Kind: Rejected, Err: ErrWrongPassword, Name: name}
		}
		if !req.ConfirmOverwrite {
			return Outcome{Kind: Rejected, Err: ErrOverwriteNotConfirmed, Name: name, UserID: existing.ID}
		}
		if req.NewPassword != "" {
			password = req.NewPassword
		}
	}

	sig, err := s.extract(ctx, req.Image)
	if err != nil {
		out := outcomeFor(err)
		out.Name = name
		return out
	}

	if err := s.store.Register(ctx, name, password, sig, found); err != nil {
		out := outcomeFor(err)
		out.Name = name
		return out
	}

	return Outcome{Kind: Success, Name: name, Overwritten: found}
}

// Authorize extracts the capture's signature and searches every enrolled
// identity for the nearest one within the acceptance threshold. On success
// the outcome carries a signed grant.
func (s *Service) Authorize(ctx context.Context, req AuthorizeRequest) Outcome {
	out := s.authorize(ctx, req)
	return s.finish(ctx, "authorize", out)
}

func (s *Service) authorize(ctx context.Context, req AuthorizeRequest) Outcome {
	if req.Image == nil {
		return Outcome{Kind: Rejected, Err: fmt.Errorf("%w: image is required", ErrInvalidInput)}
	}

	sig, err := s.extract(ctx, req.Image)
	if err != nil {
		return outcomeFor(err)
	}

	records, err := s.store.AllRecords(ctx)
	if err != nil {
		return outcomeFor(err)
	}
	s.metrics.EnrolledUsers.Set(float64(len(records)))

	candidates := make([]matcher.Candidate, len(records))
	for i, r := range records {
		candidates[i] = matcher.Candidate{ID: r.ID, Name: r.Name, Signature: r.Signature}
	}

	best, err := s.matcher.FindNearest(sig, candidates)
	if err != nil {
		return outcomeFor(err)
	}
	if best == nil {
		return Outcome{Kind: Rejected, Err: ErrNoMatch}
	}
	s.metrics.MatchDistance.Observe(best.Distance)
	s.logger.Debug(ctx, "nearest identity", "name", best.Name, "distance", best.Distance, "accepted", best.Accepted)

	if !best.Accepted {
		return Outcome{Kind: Rejected, Err: ErrNoMatch, Distance: best.Distance}
	}

	token, err := auth.GenerateToken(best.ID, best.Name, best.Distance, s.tokens.Secret, s.tokens.TTL)
	if err != nil {
		return Outcome{Kind: Fault, Err: fmt.Errorf("issue grant: %w", err), Name: best.Name}
	}

	return Outcome{Kind: Success, Name: best.Name, UserID: best.ID, Distance: best.Distance, Token: token}
}

// RegisterAsync runs Register on its own goroutine and delivers the single
// outcome on the returned channel.
func (s *Service) RegisterAsync(ctx context.Context, req RegisterRequest) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		ch <- s.Register(ctx, req)
	}()
	return ch
}

// AuthorizeAsync is the asynchronous form of Authorize.
func (s *Service) AuthorizeAsync(ctx context.Context, req AuthorizeRequest) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		ch <- s.Authorize(ctx, req)
	}()
	return ch
}
