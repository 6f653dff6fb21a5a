package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"student-api/internal/domain"
	"student-api/internal/repository"
	"student-api/internal/storage"
)

var (
	// ErrNoFields is returned for updates that carry nothing to set.
	ErrNoFields = errors.New("no fields to update")
	// ErrExportDisabled is returned when no export bucket is configured.
	ErrExportDisabled = errors.New("export is not configured")
)

// ExportOptions locates snapshot objects.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

// Export describes one stored snapshot.
type Export struct {
	Key          string
	Location     string
	URL          string
	Records      int
	Size         int64
	LastModified *time.Time
}

// StudentService coordinates record operations backed by the student repository.
type StudentService interface {
	List(ctx context.Context) ([]domain.Student, error)
	Create(ctx context.Context, fields domain.Fields) (string, error)
	// Update reports whether a record changed.
	Update(ctx context.Context, id string, fields domain.Fields) (bool, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id string) (bool, error)
	Export(ctx context.Context) (*Export, error)
	ListExports(ctx context.Context) ([]Export, error)
}

type studentService struct {
	students repository.StudentRepository
	storage  storage.Service
	export   ExportOptions
	now      func() time.Time
}

// NewStudentService wires the repository; store may be nil when exports are disabled.
func NewStudentService(students repository.StudentRepository, store storage.Service, opts ExportOptions) StudentService {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = 15 * time.Minute
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &studentService{
		students: students,
		storage:  store,
		export:   opts,
		now:      time.Now,
	}
}

func (s *studentService) List(ctx context.Context) ([]domain.Student, error) {
	return s.students.List(ctx)
}

func (s *studentService) Create(ctx context.Context, fields domain.Fields) (string, error) {
	if fields == nil {
		fields = domain.Fields{}
	}
	return s.students.Insert(ctx, fields)
}

func (s *studentService) Update(ctx context.Context, id string, fields domain.Fields) (bool, error) {
	if len(fields) == 0 {
		return false, ErrNoFields
	}
	n, err := s.students.UpdateByID(ctx, id, fields)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *studentService) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.students.DeleteByID(ctx, id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *studentService) enabled() bool {
	return s.storage != nil && s.export.Bucket != ""
}

func (s *studentService) Export(ctx context.Context) (*Export, error) {
	if !s.enabled() {
		return nil, ErrExportDisabled
	}

	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(students)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := path.Join(s.export.KeyPrefix, fmt.Sprintf("students-%s.json", s.now().UTC().Format("20060102T150405.000Z")))
	location, err := s.storage.PutObject(ctx, s.export.Bucket, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}
	url, err := s.storage.GetObjectURL(ctx, s.export.Bucket, key, s.export.URLExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign snapshot url: %w", err)
	}

	return &Export{
		Key:      key,
		Location: location,
		URL:      url,
		Records:  len(students),
		Size:     int64(len(body)),
	}, nil
}

func (s *studentService) ListExports(ctx context.Context) ([]Export, error) {
	if !s.enabled() {
		return nil, ErrExportDisabled
	}

	prefix := s.export.KeyPrefix
	if prefix != "" {
		prefix += "/"
	}
	objects, err := s.storage.ListObjects(ctx, s.export.Bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	exports := make([]Export, 0, len(objects))
	for _, obj := range objects {
		exports = append(exports, Export{
			Key:          obj.Key,
			Location:     fmt.Sprintf("s3://%s/%s", s.export.Bucket, obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	// newest first; keys embed the snapshot timestamp
	sort.Slice(exports, func(i, j int) bool { return exports[i].Key > exports[j].Key })
	return exports, nil
}
