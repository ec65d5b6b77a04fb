package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"study-backend/internal/contents"
	"study-backend/internal/extract"
	"study-backend/internal/generation"
	"study-backend/internal/llm"
	"study-backend/internal/materials"
	"study-backend/internal/shared/metrics"
	"study-backend/internal/shared/telemetry"
)

// DefaultMaxContentLength bounds passthrough text sent to the model, in runes.
const DefaultMaxContentLength = 10000

// Extractor turns a job source into study text.
type Extractor interface {
	Extract(ctx context.Context, src extract.Source) (string, error)
}

// Service runs processing jobs: it marks the material processing, extracts text when needed,
// generates content, stores it and marks the material processed.
type Service struct {
	Materials        materials.Repo
	Contents         contents.Repo
	Extractor        Extractor
	Gateway          llm.Completer
	Strategies       *generation.Registry
	Observer         Observer
	MaxContentLength int
	MarkFailed       bool
	Now              func() time.Time
}

// Response is returned for a successful job.
type Response struct {
	Success     bool             `json:"success"`
	ContentType contents.Kind    `json:"contentType"`
	Title       string           `json:"title"`
	Content     contents.Payload `json:"content"`
	ContentID   string           `json:"-"`
	Fallback    bool             `json:"-"`
}

type job struct {
	id              string
	req             Request
	kind            contents.Kind
	material        *materials.StudyMaterial
	processingSaved bool
	started         time.Time
}

// Process validates req and runs it to completion.
func (s *Service) Process(ctx context.Context, req Request) (Response, error) {
	return s.run(ctx, req, nil)
}

// ProcessMaterial runs a job for a stored material, as queue workers and the CLI do.
func (s *Service) ProcessMaterial(ctx context.Context, materialID string, kind contents.Kind) (Response, error) {
	m, err := s.Materials.GetByID(ctx, materialID)
	if err != nil {
		return Response{}, &PersistenceError{Op: "load material", Err: err}
	}
	req := Request{
		MaterialID:  m.ID,
		ContentType: string(kind),
		Content:     materialContent(m),
		FileURL:     m.FileURL,
	}
	return s.run(ctx, req, &m)
}

func (s *Service) run(ctx context.Context, req Request, m *materials.StudyMaterial) (Response, error) {
	j := &job{id: uuid.NewString(), req: req, material: m, started: time.Now()}
	metrics.IncJobStarted()
	s.transition(ctx, j, StateReceived, nil)

	resp, err := s.execute(ctx, j)
	if err != nil {
		s.fail(ctx, j, err)
		return Response{}, err
	}

	metrics.IncJobCompleted()
	metrics.ObserveJobDurationMs(metrics.SinceMillis(j.started))
	s.transition(ctx, j, StateCompleted, nil)
	return resp, nil
}

func (s *Service) execute(ctx context.Context, j *job) (Response, error) {
	s.transition(ctx, j, StateValidating, nil)
	req, err := j.req.Validate()
	j.req = req
	if err != nil {
		return Response{}, err
	}
	j.kind = contents.Kind(req.ContentType)
	strategy, ok := s.strategies().Get(j.kind)
	if !ok {
		return Response{}, &InvalidRequestError{Reason: fmt.Sprintf("Unknown content type: %s", req.ContentType)}
	}
	if err := s.authorize(ctx, j); err != nil {
		return Response{}, err
	}

	if err := s.setStatus(ctx, j, materials.StatusProcessing); err != nil {
		return Response{}, err
	}
	j.processingSaved = true

	text, err := s.text(ctx, j)
	if err != nil {
		return Response{}, err
	}

	s.transition(ctx, j, StateGenerating, nil)
	at := s.now()
	result, err := generation.Run(ctx, s.Gateway, strategy, text, at)
	if err != nil {
		return Response{}, err
	}

	s.transition(ctx, j, StatePersisting, nil)
	record, err := contents.New(req.MaterialID, result.Title, result.Payload, at)
	if err != nil {
		return Response{}, &PersistenceError{Op: "build content", Err: err}
	}
	if err := s.Contents.Insert(ctx, record); err != nil {
		return Response{}, &PersistenceError{Op: "insert content", Err: err}
	}
	if err := s.setStatus(ctx, j, materials.StatusProcessed); err != nil {
		return Response{}, err
	}

	return Response{
		Success:     true,
		ContentType: result.Kind,
		Title:       result.Title,
		Content:     result.Payload,
		ContentID:   record.ID,
		Fallback:    result.Fallback,
	}, nil
}

// authorize checks the job against its stored material before anything is written. A caller
// only reaches materials it owns, and a request fileUrl must name the material's own file.
func (s *Service) authorize(ctx context.Context, j *job) error {
	caller := CallerIDFromContext(ctx)
	if caller == "" && j.req.FileURL == "" {
		return nil
	}
	m, err := s.loadMaterial(ctx, j)
	if err != nil {
		return err
	}
	if caller != "" && m.UserID != caller {
		return &PersistenceError{Op: "load material", Err: materials.ErrNotFound}
	}
	if j.req.FileURL != "" && j.req.FileURL != m.FileURL {
		return &InvalidRequestError{Reason: "fileUrl does not match the material"}
	}
	return nil
}

// text resolves the study text for a job. Extraction runs for an inline image, or for the
// stored file of a material flagged for extraction.
func (s *Service) text(ctx context.Context, j *job) (string, error) {
	req := j.req
	src := extract.Source{
		ImageDataURL: req.ImageDataURL,
		Text:         req.Content,
	}
	if src.ImageDataURL == "" && (req.FileURL != "" || j.material != nil) {
		m, err := s.loadMaterial(ctx, j)
		if err != nil {
			return "", err
		}
		src.FileURL = m.FileURL
		src.NeedsExtraction = m.NeedsExtraction
	}

	if !src.RequiresProvider() {
		return truncateRunes(req.Content, s.maxContentLength()), nil
	}
	if s.Extractor == nil {
		return "", &extract.ExtractionError{Err: errors.New("no extractor configured")}
	}
	s.transition(ctx, j, StateExtracting, nil)
	return s.Extractor.Extract(ctx, src)
}

func (s *Service) loadMaterial(ctx context.Context, j *job) (materials.StudyMaterial, error) {
	if j.material != nil {
		return *j.material, nil
	}
	m, err := s.Materials.GetByID(ctx, j.req.MaterialID)
	if err != nil {
		return materials.StudyMaterial{}, &PersistenceError{Op: "load material", Err: err}
	}
	j.material = &m
	return m, nil
}

func (s *Service) setStatus(ctx context.Context, j *job, status materials.Status) error {
	if err := s.Materials.UpdateStatus(ctx, j.req.MaterialID, status, s.now()); err != nil {
		return &PersistenceError{Op: "set status " + string(status), Err: err}
	}
	return nil
}

// fail records a failed job. When enabled, a material already marked processing is moved to
// failed; that write is best effort and never replaces the job error.
func (s *Service) fail(ctx context.Context, j *job, err error) {
	metrics.IncJobFailed()
	metrics.ObserveJobDurationMs(metrics.SinceMillis(j.started))
	s.transition(ctx, j, StateFailed, err)

	if !s.MarkFailed || !j.processingSaved {
		return
	}
	if markErr := s.Materials.UpdateStatus(context.WithoutCancel(ctx), j.req.MaterialID, materials.StatusFailed, s.now()); markErr != nil {
		telemetry.Warn("job.mark_failed", map[string]any{
			"request_id":  RequestIDFromContext(ctx),
			"job_id":      j.id,
			"material_id": j.req.MaterialID,
			"err":         markErr,
		})
	}
}

func (s *Service) transition(ctx context.Context, j *job, state State, err error) {
	ev := Event{
		JobID:       j.id,
		MaterialID:  j.req.MaterialID,
		ContentType: j.req.ContentType,
		State:       state,
		At:          s.now(),
		Err:         err,
	}
	if s.Observer != nil {
		s.Observer.Observe(ctx, ev)
	}

	fields := map[string]any{
		"request_id":   RequestIDFromContext(ctx),
		"job_id":       j.id,
		"material_id":  j.req.MaterialID,
		"content_type": j.req.ContentType,
		"state":        string(state),
	}
	switch state {
	case StateFailed:
		fields["error_kind"] = ErrorKind(err)
		fields["err"] = err
		fields["duration_ms"] = metrics.SinceMillis(j.started)
		telemetry.Error("job.state", fields)
	case StateCompleted:
		fields["duration_ms"] = metrics.SinceMillis(j.started)
		telemetry.Info("job.state", fields)
	default:
		telemetry.Info("job.state", fields)
	}
}

func (s *Service) strategies() *generation.Registry {
	if s.Strategies != nil {
		return s.Strategies
	}
	return generation.Default()
}

func (s *Service) maxContentLength() int {
	if s.MaxContentLength > 0 {
		return s.MaxContentLength
	}
	return DefaultMaxContentLength
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func materialContent(m materials.StudyMaterial) string {
	if m.HasText() {
		return m.Text()
	}
	return fmt.Sprintf("File uploaded: %s. Content will be extracted during processing.", m.Title)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
