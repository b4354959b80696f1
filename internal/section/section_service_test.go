package section

import (
	"context"
	"encoding/json"
	"testing"

	sectionerrors "github.com/sobit-woxsen/wou-attendance-qr/internal/section/errors"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepo struct {
	findByIDFn func(ctx context.Context, id int64) (*Section, error)
	findAllFn  func(ctx context.Context) ([]Section, error)
	countFn    func(ctx context.Context) (int64, error)
}

func (f *fakeRepo) FindByID(ctx context.Context, id int64) (*Section, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeRepo) FindAll(ctx context.Context) ([]Section, error) {
	return f.findAllFn(ctx)
}
func (f *fakeRepo) Count(ctx context.Context) (int64, error) {
	return f.countFn(ctx)
}

func sampleSections() []Section {
	return []Section{
		{
			ID:         1,
			SemesterID: 2,
			Name:       "CSE A",
			Semester:   &Semester{ID: 2, Number: 3, Name: "Semester 3"},
		},
		{
			ID:         2,
			SemesterID: 2,
			Name:       "CSE B",
			Semester:   &Semester{ID: 2, Number: 3, Name: "Semester 3"},
		},
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Section, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewService(repo, nil)

	_, err := svc.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, sectionerrors.ErrSectionNotFound)
}

func TestGetOptions_CacheHitSkipsDatabase(t *testing.T) {
	ctx := context.Background()
	cached := []SectionResponse{
		{ID: 1, Name: "CSE A", SemesterID: 2, SemesterName: "Semester 3", Semester: 3},
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(OptionsCacheKey).SetVal(string(payload))

	repo := &fakeRepo{
		findAllFn: func(ctx context.Context) ([]Section, error) {
			t.Fatal("database must not be queried on a cache hit")
			return nil, nil
		},
	}

	svc := NewService(repo, rdb)

	got, err := svc.GetOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOptions_CacheMissLoadsAndStores(t *testing.T) {
	ctx := context.Background()
	rows := sampleSections()

	expected := []SectionResponse{
		{ID: 1, Name: "CSE A", SemesterID: 2, SemesterName: "Semester 3", Semester: 3},
		{ID: 2, Name: "CSE B", SemesterID: 2, SemesterName: "Semester 3", Semester: 3},
	}
	payload, err := json.Marshal(expected)
	require.NoError(t, err)

	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(OptionsCacheKey).RedisNil()
	mock.ExpectSet(OptionsCacheKey, payload, optionsCacheTTL).SetVal("OK")

	repo := &fakeRepo{
		findAllFn: func(ctx context.Context) ([]Section, error) {
			return rows, nil
		},
	}

	svc := NewService(repo, rdb)

	got, err := svc.GetOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOptions_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	queries := 0
	repo := &fakeRepo{
		findAllFn: func(ctx context.Context) ([]Section, error) {
			queries++
			return sampleSections(), nil
		},
	}

	svc := NewService(repo, nil)

	got, err := svc.GetOptions(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, queries)
}

func TestGetOptions_RepoError(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{
		findAllFn: func(ctx context.Context) ([]Section, error) {
			return nil, assert.AnError
		},
	}

	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet(OptionsCacheKey).RedisNil()

	svc := NewService(repo, rdb)

	_, err := svc.GetOptions(ctx)
	assert.ErrorIs(t, err, assert.AnError)
}
