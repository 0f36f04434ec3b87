package analysis

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bryanwahyu/livestock-vision/internal/application"
	domain "github.com/bryanwahyu/livestock-vision/internal/domain/analysis"
	"github.com/bryanwahyu/livestock-vision/internal/domain/breeds"
	"github.com/bryanwahyu/livestock-vision/internal/logger"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeClassifier struct {
	reply    string
	err      error
	panicMsg string
	delay    time.Duration

	mu  sync.Mutex
	got []domain.Image
}

func (f *fakeClassifier) Classify(ctx context.Context, img domain.Image) (string, error) {
	f.mu.Lock()
	f.got = append(f.got, img)
	f.mu.Unlock()
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

type fakeArchive struct {
	keys    []string
	sawFile bool
	err     error
}

func (a *fakeArchive) Upload(ctx context.Context, localPath, key string) (string, error) {
	_, statErr := os.Stat(localPath)
	a.sawFile = statErr == nil
	a.keys = append(a.keys, key)
	if a.err != nil {
		return "", a.err
	}
	return "http://minio.local/images/" + key, nil
}

type memRepo struct {
	saved []*domain.Record
	err   error
}

func (r *memRepo) Save(ctx context.Context, rec *domain.Record) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, rec)
	return nil
}

func (r *memRepo) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	return r.saved, nil
}

func newService(t *testing.T, c domain.Classifier) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return &Service{
		Classifier: c,
		Catalog:    breeds.Default(),
		Clock:      application.FixedClock{T: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)},
		Log:        logger.Discard(),
		UploadDir:  dir,
		MaxBytes:   1 << 10,
		Timeout:    time.Second,
	}, dir
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp upload left behind: %v", entries)
	}
}

func upload(name string, data []byte) Upload {
	return Upload{Filename: name, Body: strings.NewReader(string(data))}
}

func TestAnalyze_ParsedAndMatched(t *testing.T) {
	c := &fakeClassifier{reply: `Sure! {"breed":"Red Sindhi","confidence":0.91,"health_score":83,"health_issues":[],"recommendations":["Routine vaccination"]}`}
	svc, dir := newService(t, c)

	rep, err := svc.Analyze(context.Background(), upload("cow.png", pngHeader))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Outcome != domain.OutcomeParsed || !rep.BreedMatched || rep.BreedKey != "red_sindhi" {
		t.Fatalf("report = %+v", rep)
	}
	if rep.BreedInfo.Origin != "Sindh region (Pakistan)" {
		t.Fatalf("breed info = %+v", rep.BreedInfo)
	}
	if rep.Result.Confidence != 0.91 || rep.Result.HealthScore != 83 {
		t.Fatalf("result = %+v", rep.Result)
	}
	if rep.ID == "" || !rep.CreatedAt.Equal(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("id/created = %q %s", rep.ID, rep.CreatedAt)
	}
	if len(c.got) != 1 {
		t.Fatalf("expected exactly one inference call, got %d", len(c.got))
	}
	if c.got[0].MimeType != "image/png" || c.got[0].Base64 == "" {
		t.Fatalf("image = %+v", c.got[0])
	}
	assertDirEmpty(t, dir)
}

func TestAnalyze_UnmatchedBreed(t *testing.T) {
	c := &fakeClassifier{reply: `{"breed":"Holstein","confidence":0.4}`}
	svc, dir := newService(t, c)

	rep, err := svc.Analyze(context.Background(), upload("x.jpg", []byte("not really an image")))
	if err != nil {
		t.Fatal(err)
	}
	if rep.BreedMatched || rep.BreedInfo != (breeds.BreedRecord{}) {
		t.Fatalf("expected no catalog match: %+v", rep)
	}
	if c.got[0].MimeType != "image/jpeg" {
		t.Fatalf("non-image bytes should be labelled jpeg, got %s", c.got[0].MimeType)
	}
	assertDirEmpty(t, dir)
}

func TestAnalyze_UnparseableReply(t *testing.T) {
	svc, dir := newService(t, &fakeClassifier{reply: "I am unable to see an animal."})

	rep, err := svc.Analyze(context.Background(), upload("a.png", pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Outcome != domain.OutcomeUnparseable || !reflect.DeepEqual(rep.Result, domain.FallbackUnparseable()) {
		t.Fatalf("report = %+v", rep)
	}
	if rep.BreedMatched {
		t.Fatal("Unknown must not match")
	}
	assertDirEmpty(t, dir)
}

func TestAnalyze_UpstreamFailure(t *testing.T) {
	svc, dir := newService(t, &fakeClassifier{err: errors.New("connection refused")})

	rep, err := svc.Analyze(context.Background(), upload("a.png", pngHeader))
	if err != nil {
		t.Fatalf("upstream failure must not surface: %v", err)
	}
	if rep.Outcome != domain.OutcomeUpstreamError || !reflect.DeepEqual(rep.Result, domain.FallbackUpstream()) {
		t.Fatalf("report = %+v", rep)
	}
	assertDirEmpty(t, dir)
}

func TestAnalyze_ClassifierPanic(t *testing.T) {
	svc, dir := newService(t, &fakeClassifier{panicMsg: "nil choices"})

	rep, err := svc.Analyze(context.Background(), upload("a.png", pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Outcome != domain.OutcomeUpstreamError {
		t.Fatalf("outcome = %s", rep.Outcome)
	}
	assertDirEmpty(t, dir)
}

func TestAnalyze_Timeout(t *testing.T) {
	svc, dir := newService(t, &fakeClassifier{delay: time.Second})
	svc.Timeout = 20 * time.Millisecond

	start := time.Now()
	rep, err := svc.Analyze(context.Background(), upload("a.png", pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("timeout not applied")
	}
	if rep.Outcome != domain.OutcomeUpstreamError {
		t.Fatalf("outcome = %s", rep.Outcome)
	}
	assertDirEmpty(t, dir)
}

func TestAnalyze_InputErrors(t *testing.T) {
	c := &fakeClassifier{reply: "{}"}
	svc, dir := newService(t, c)

	cases := []struct {
		name string
		up   Upload
		want error
	}{
		{"no body", Upload{Filename: "a.png"}, domain.ErrNoImage},
		{"empty filename", upload("  ", pngHeader), domain.ErrEmptyFilename},
		{"empty file", upload("a.png", nil), domain.ErrEmptyImage},
		{"too large", upload("a.png", make([]byte, 2<<10)), domain.ErrImageTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tc.up)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if len(c.got) != 0 {
		t.Fatalf("rejected uploads reached the classifier %d times", len(c.got))
	}
	assertDirEmpty(t, dir)
}

func TestAnalyze_ArchiveAndHistory(t *testing.T) {
	svc, dir := newService(t, &fakeClassifier{reply: `{"breed":"Murrah","confidence":0.7}`})
	arch := &fakeArchive{}
	repo := &memRepo{}
	svc.Archive = arch
	svc.Repo = repo

	rep, err := svc.Analyze(context.Background(), upload("Buffalo.JPG", pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if !arch.sawFile {
		t.Fatal("archive ran after temp file was removed")
	}
	wantKey := "murrah/" + rep.ID + ".jpg"
	if len(arch.keys) != 1 || arch.keys[0] != wantKey {
		t.Fatalf("archive keys = %v, want %s", arch.keys, wantKey)
	}
	if rep.ImageURL != "http://minio.local/images/"+wantKey {
		t.Fatalf("image url = %q", rep.ImageURL)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("saved = %d", len(repo.saved))
	}
	rec := repo.saved[0]
	if rec.ID != rep.ID || rec.BreedKey != "murrah" || !rec.BreedMatched || rec.Outcome != domain.OutcomeParsed {
		t.Fatalf("record = %+v", rec)
	}
	if !strings.Contains(rec.Result, `"breed":"Murrah"`) {
		t.Fatalf("result json = %s", rec.Result)
	}
	assertDirEmpty(t, dir)

	list, err := svc.History(context.Background(), 1, 20)
	if err != nil || len(list) != 1 {
		t.Fatalf("History = %v, %v", list, err)
	}
}

func TestAnalyze_ArchiveAndHistoryFailuresAreSoft(t *testing.T) {
	svc, dir := newService(t, &fakeClassifier{reply: `{"breed":"Gir"}`})
	svc.Archive = &fakeArchive{err: errors.New("bucket gone")}
	svc.Repo = &memRepo{err: errors.New("db down")}

	rep, err := svc.Analyze(context.Background(), upload("g.png", pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if rep.ImageURL != "" || rep.Result.Breed != "Gir" {
		t.Fatalf("report = %+v", rep)
	}
	assertDirEmpty(t, dir)
}

func TestHistoryDisabled(t *testing.T) {
	svc, _ := newService(t, &fakeClassifier{})
	if svc.HistoryEnabled() {
		t.Fatal("history should be off without a repo")
	}
	if _, err := svc.History(context.Background(), 1, 10); !errors.Is(err, domain.ErrHistoryDisabled) {
		t.Fatalf("err = %v", err)
	}
}

func TestImageExt(t *testing.T) {
	cases := map[string]string{
		"cow.JPG":          ".jpg",
		"../../etc/x.png":  ".png",
		"noext":            "",
		"weird.p$g":        "",
		"long.extension12": "",
	}
	for in, want := range cases {
		if got := imageExt(in); got != want {
			t.Errorf("imageExt(%q) = %q, want %q", in, got, want)
		}
	}
}
