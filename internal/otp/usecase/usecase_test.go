package usecase

import (
	"context"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/pkg/clock"
	"github.com/andresuryana/vericode/internal/pkg/goerror"
	"github.com/andresuryana/vericode/internal/pkg/goroutine"
	"github.com/andresuryana/vericode/internal/pkg/hash"
	"github.com/andresuryana/vericode/internal/pkg/instrument"
	"github.com/andresuryana/vericode/internal/pkg/storage"
	"github.com/andresuryana/vericode/internal/pkg/validator"
)

// fakeDB is an in-memory repoDB that mimics the store's concurrency
// contract: snapshot reads, compare-and-swap attempt increments, a
// single-winner mark-used, and supersede-on-create.
type fakeDB struct {
	mu      sync.Mutex
	records map[int64]*entity.OTPRecord

	findErr   error
	createErr error
	sweepErr  error

	// forceConflicts makes the next N CompareAndIncrementAttempts calls
	// fail with goerror.ErrConflict.
	forceConflicts int
}

func newFakeDB() *fakeDB {
	return &fakeDB{records: map[int64]*entity.OTPRecord{}}
}

func (f *fakeDB) FindLatest(_ context.Context, subjectID int64, purpose entity.Purpose) (*entity.OTPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}

	var latest *entity.OTPRecord
	for _, rec := range f.records {
		if rec.SubjectID != subjectID || rec.Purpose != purpose {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, goerror.ErrNotFound
	}

	snapshot := *latest
	return &snapshot, nil
}

func (f *fakeDB) GetByID(_ context.Context, id int64) (*entity.OTPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	snapshot := *rec
	return &snapshot, nil
}

func (f *fakeDB) ListFlaggedSubjects(_ context.Context, since time.Time, threshold int64) ([]entity.FlaggedSubject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := map[int64]*entity.FlaggedSubject{}
	for _, rec := range f.records {
		if rec.CreatedAt.Before(since) {
			continue
		}
		fs, ok := counts[rec.SubjectID]
		if !ok {
			fs = &entity.FlaggedSubject{SubjectID: rec.SubjectID}
			counts[rec.SubjectID] = fs
		}
		fs.Requests++
		if rec.CreatedAt.After(fs.LastAt) {
			fs.LastAt = rec.CreatedAt
		}
	}

	var out []entity.FlaggedSubject
	for _, fs := range counts {
		if fs.Requests >= threshold {
			out = append(out, *fs)
		}
	}
	return out, nil
}

func (f *fakeDB) GetStatsSummary(_ context.Context, since, now time.Time) (*entity.StatsSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sum := &entity.StatsSummary{PerPurpose: map[entity.Purpose]int64{}}
	for _, rec := range f.records {
		if rec.CreatedAt.Before(since) {
			continue
		}
		sum.Total++
		sum.TotalAttempts += int64(rec.Attempts)
		sum.PerPurpose[rec.Purpose]++
		if rec.Used {
			sum.Used++
		}
		if rec.Expired {
			sum.Expired++
		}
		if rec.IsActive(now) {
			sum.Active++
		}
	}
	return sum, nil
}

func (f *fakeDB) Create(_ context.Context, in entity.CreateOTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	for _, rec := range f.records {
		if rec.SubjectID == in.SubjectID && rec.Purpose == in.Purpose && !rec.Used && !rec.Expired {
			rec.Expired = true
		}
	}

	f.records[in.ID] = &entity.OTPRecord{
		ID:             in.ID,
		SubjectID:      in.SubjectID,
		ContactAddress: in.ContactAddress,
		Purpose:        in.Purpose,
		CodeHash:       in.CodeHash,
		MaxAttempts:    in.MaxAttempts,
		CreatedAt:      in.CreatedAt,
		ExpiresAt:      in.ExpiresAt,
		RequestIP:      in.RequestIP,
		RequestAgent:   in.RequestAgent,
	}
	return nil
}

func (f *fakeDB) CompareAndIncrementAttempts(_ context.Context, id int64, expectedAttempts int32) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.forceConflicts > 0 {
		f.forceConflicts--
		return 0, goerror.ErrConflict
	}

	rec, ok := f.records[id]
	if !ok || rec.Used || rec.Attempts != expectedAttempts {
		return 0, goerror.ErrConflict
	}

	rec.Attempts++
	return rec.Attempts, nil
}

func (f *fakeDB) MarkUsed(_ context.Context, id int64, verifiedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok || rec.Used {
		return goerror.ErrConflict
	}

	rec.Used = true
	at := verifiedAt
	rec.VerifiedAt = &at
	return nil
}

func (f *fakeDB) MarkExpired(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec, ok := f.records[id]; ok {
		rec.Expired = true
	}
	return nil
}

func (f *fakeDB) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sweepErr != nil {
		return 0, f.sweepErr
	}

	var count int64
	for _, rec := range f.records {
		if !rec.Used && !rec.Expired && rec.ExpiresAt.Before(now) {
			rec.Expired = true
			count++
		}
	}
	return count, nil
}

func (f *fakeDB) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for id, rec := range f.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(f.records, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeDB) record(t *testing.T, id int64) entity.OTPRecord {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[id]
	if !ok {
		t.Fatalf("record %d not found in fake store", id)
	}
	return *rec
}

type fakePublisher struct {
	events chan OTPIssuedEvent
}

func (f *fakePublisher) PublishOTPIssued(_ context.Context, msg OTPIssuedEvent) error {
	f.events <- msg
	return nil
}

func (f *fakePublisher) waitEvent(t *testing.T) OTPIssuedEvent {
	t.Helper()

	select {
	case ev := <-f.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for published event")
		return OTPIssuedEvent{}
	}
}

// fakeConfig returns configured values and falls back to zero values, which
// exercises the usecase defaults.
type fakeConfig struct {
	values map[string]any
}

func (c *fakeConfig) Close() error                { return nil }
func (c *fakeConfig) GetBool(key string) bool     { v, _ := c.values[key].(bool); return v }
func (c *fakeConfig) GetString(key string) string { v, _ := c.values[key].(string); return v }
func (c *fakeConfig) GetInt(key string) int       { v, _ := c.values[key].(int); return v }
func (c *fakeConfig) GetInt32(key string) int32   { return int32(c.GetInt(key)) }
func (c *fakeConfig) GetInt64(key string) int64   { return int64(c.GetInt(key)) }
func (c *fakeConfig) GetUint16(key string) uint16 { return uint16(c.GetInt(key)) }
func (c *fakeConfig) GetBinary(key string) []byte { v, _ := c.values[key].([]byte); return v }
func (c *fakeConfig) GetFloat64(key string) float64 {
	v, _ := c.values[key].(float64)
	return v
}
func (c *fakeConfig) GetSecond(key string) time.Duration {
	return time.Duration(c.GetInt(key)) * time.Second
}
func (c *fakeConfig) GetMinute(key string) time.Duration {
	return time.Duration(c.GetInt(key)) * time.Minute
}
func (c *fakeConfig) GetHour(key string) time.Duration {
	return time.Duration(c.GetInt(key)) * time.Hour
}
func (c *fakeConfig) GetDay(key string) time.Duration {
	return time.Duration(c.GetInt(key)) * 24 * time.Hour
}
func (c *fakeConfig) GetArray(key string) []string {
	v, _ := c.values[key].([]string)
	return v
}
func (c *fakeConfig) GetMap(key string) map[string]string {
	v, _ := c.values[key].(map[string]string)
	return v
}

type fakeCodeGen struct {
	codes []string
	next  int
}

func (f *fakeCodeGen) Generate() (string, error) {
	if len(f.codes) == 0 {
		return "123456", nil
	}

	code := f.codes[min(f.next, len(f.codes)-1)]
	f.next++
	return code, nil
}

type seqUID struct {
	last int64
}

func (s *seqUID) Generate() int64 {
	s.last++
	return s.last
}

// fakeStorage records uploads and returns a deterministic presigned URL.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[bucket+"/"+key] = body

	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(body))}, nil
}

func (f *fakeStorage) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	return nil, storage.ObjectInfo{}, goerror.ErrNotFound
}

func (f *fakeStorage) StatObject(_ context.Context, bucket, key string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, goerror.ErrNotFound
}

func (f *fakeStorage) DeleteObject(_ context.Context, bucket, key string) error { return nil }

func (f *fakeStorage) ListObjects(_ context.Context, bucket, prefix string, limit int32) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (f *fakeStorage) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + bucket + "/" + key + "?ttl=" + strconv.Itoa(int(expiry.Seconds())), nil
}

type fixture struct {
	uc      *Usecase
	db      *fakeDB
	pub     *fakePublisher
	store   *fakeStorage
	clock   *clock.Fixed
	hmac    *hash.HMACSHA256
	cfg     *fakeConfig
	codeGen *fakeCodeGen
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	f := &fixture{
		db:      newFakeDB(),
		pub:     &fakePublisher{events: make(chan OTPIssuedEvent, 8)},
		store:   &fakeStorage{},
		clock:   &clock.Fixed{At: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		hmac:    hash.NewHMACSHA256("unit-test-secret"),
		cfg:     &fakeConfig{values: map[string]any{}},
		codeGen: &fakeCodeGen{},
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.pub,
		Validator:     v,
		Config:        f.cfg,
		Storage:       f.store,
		HMAC:          f.hmac,
		CodeGenerator: f.codeGen,
		UID:           &seqUID{},
		Clock:         f.clock,
		Instrument:    instrument.NewNoop(),
		Goroutine:     goroutine.NewManager(4),
	})

	return f
}

// seed inserts a record directly into the fake store.
func (f *fixture) seed(rec entity.OTPRecord) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	stored := rec
	f.db.records[rec.ID] = &stored
}

// issue runs RequestCode and drains the published event so later assertions
// in the same test see a clean channel.
func (f *fixture) issue(t *testing.T, in RequestCodeInput) *RequestCodeOutput {
	t.Helper()

	out, err := f.uc.RequestCode(context.Background(), in)
	if err != nil {
		t.Fatalf("request code failed: %v", err)
	}
	f.pub.waitEvent(t)

	return out
}
