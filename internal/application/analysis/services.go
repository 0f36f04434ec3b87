package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/livestock-vision/internal/application"
	"github.com/bryanwahyu/livestock-vision/internal/domain/analysis"
	"github.com/bryanwahyu/livestock-vision/internal/domain/breeds"
)

const (
	defaultMaxBytes = 10 << 20
	saveTimeout     = 5 * time.Second
)

// Upload is one image as received from the client.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Service runs the image analysis pipeline. Archive and Repo are optional.
// Safe for concurrent use; it holds no mutable state.
type Service struct {
	Classifier analysis.Classifier
	Catalog    *breeds.Catalog
	Archive    analysis.ImageArchive
	Repo       analysis.Repository
	Clock      application.Clock
	Log        logrus.FieldLogger

	UploadDir string
	MaxBytes  int64
	Timeout   time.Duration // bound on the inference call
}

// Analyze stores the upload in a temp file for the duration of the call,
// classifies it and merges the catalog record for the detected breed.
// Inference failures never produce an error; they yield a fallback result.
func (s *Service) Analyze(ctx context.Context, up Upload) (*analysis.Report, error) {
	if up.Body == nil {
		return nil, analysis.ErrNoImage
	}
	name := strings.TrimSpace(up.Filename)
	if name == "" {
		return nil, analysis.ErrEmptyFilename
	}

	id := uuid.NewString()
	ext := imageExt(name)
	path, data, err := s.persist(id, ext, up.Body)
	if err != nil {
		return nil, err
	}
	defer s.remove(path)

	reply := s.classify(ctx, encodeImage(data))
	key, info, matched := s.Catalog.Lookup(reply.Result.Breed)

	report := &analysis.Report{
		ID:           id,
		Result:       reply.Result,
		Outcome:      reply.Outcome,
		BreedKey:     key,
		BreedInfo:    info,
		BreedMatched: matched,
		CreatedAt:    s.now(),
	}
	report.ImageURL = s.archive(ctx, path, objectKey(report, ext))
	s.record(ctx, report)

	s.log().WithFields(logrus.Fields{
		"analysis_id":  id,
		"outcome":      reply.Outcome,
		"breed":        report.Result.Breed,
		"matched":      matched,
		"health_score": report.Result.HealthScore,
	}).Info("image analyzed")
	return report, nil
}

// History lists recorded analyses, newest first.
func (s *Service) History(ctx context.Context, page, pageSize int) ([]*analysis.Record, error) {
	if s.Repo == nil {
		return nil, analysis.ErrHistoryDisabled
	}
	return s.Repo.Paginate(ctx, page, pageSize)
}

// HistoryEnabled reports whether analyses are being recorded.
func (s *Service) HistoryEnabled() bool { return s.Repo != nil }

// persist writes the upload to a fresh temp file and returns its path and bytes.
// On error nothing is left on disk.
func (s *Service) persist(id, ext string, body io.Reader) (path string, data []byte, err error) {
	dir := s.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.CreateTemp(dir, id+"-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path = f.Name()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close temp file: %w", cerr)
		}
		if err != nil {
			s.remove(path)
		}
	}()

	limit := s.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	var buf bytes.Buffer
	n, err := io.Copy(io.MultiWriter(f, &buf), io.LimitReader(body, limit+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, analysis.ErrImageTooLarge
		}
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if n > limit {
		return "", nil, analysis.ErrImageTooLarge
	}
	if n == 0 {
		return "", nil, analysis.ErrEmptyImage
	}
	return path, buf.Bytes(), nil
}

func (s *Service) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log().WithError(err).WithField("path", path).Warn("failed to remove temp upload")
	}
}

// classify performs the single inference call. Panics from the client are
// treated like call failures.
func (s *Service) classify(ctx context.Context, img analysis.Image) (reply analysis.Reply) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			reply = analysis.UpstreamFailure(fmt.Errorf("panic: %v", r))
			s.log().WithError(reply.Err).Error("inference client panicked")
		}
	}()

	text, err := s.Classifier.Classify(ctx, img)
	if err != nil {
		reply = analysis.UpstreamFailure(err)
		s.log().WithError(reply.Err).Warn("error analyzing image")
		return reply
	}
	reply = analysis.ParseReply(text)
	if reply.Outcome == analysis.OutcomeUnparseable {
		s.log().WithField("reply_len", len(text)).Warn("inference reply held no JSON object")
	}
	return reply
}

func (s *Service) archive(ctx context.Context, path, key string) string {
	if s.Archive == nil {
		return ""
	}
	url, err := s.Archive.Upload(ctx, path, key)
	if err != nil {
		s.log().WithError(err).WithField("key", key).Warn("image archive failed")
		return ""
	}
	return url
}

func (s *Service) record(ctx context.Context, r *analysis.Report) {
	if s.Repo == nil {
		return
	}
	result, err := json.Marshal(r.Result)
	if err != nil {
		s.log().WithError(err).Warn("marshal analysis result")
		return
	}
	// outlive a client that hung up after the response was computed
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	rec := &analysis.Record{
		ID:           r.ID,
		Breed:        r.Result.Breed,
		BreedKey:     r.BreedKey,
		BreedMatched: r.BreedMatched,
		Confidence:   r.Result.Confidence,
		HealthScore:  r.Result.HealthScore,
		Outcome:      r.Outcome,
		ImageURL:     r.ImageURL,
		Result:       string(result),
		CreatedAt:    r.CreatedAt,
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		s.log().WithError(err).WithField("analysis_id", r.ID).Warn("failed to save analysis")
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func (s *Service) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// encodeImage base64-encodes data; non-image content is labelled image/jpeg.
func encodeImage(data []byte) analysis.Image {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return analysis.Image{MimeType: mime, Base64: base64.StdEncoding.EncodeToString(data)}
}

// imageExt keeps a short alphanumeric extension from the client filename.
func imageExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func objectKey(r *analysis.Report, ext string) string {
	folder := "unknown"
	if r.BreedMatched {
		folder = r.BreedKey
	}
	return folder + "/" + r.ID + ext
}
