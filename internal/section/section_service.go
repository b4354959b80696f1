package section

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sectionerrors "github.com/sobit-woxsen/wou-attendance-qr/internal/section/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const OptionsCacheKey = "sections:options"

const optionsCacheTTL = time.Hour

//go:generate mockgen -source=section_service.go -destination=mock/section_service_mock.go -package=mock
type Service interface {
	GetByID(ctx context.Context, id int64) (*Section, error)
	GetOptions(ctx context.Context) ([]SectionResponse, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("section.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("section.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetByID(ctx context.Context, id int64) (*Section, error) {
	sec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sectionerrors.ErrSectionNotFound
		}
		return nil, err
	}
	return sec, nil
}

// GetOptions serves the roster picker. The list is master data, so it is
// cached in redis and concurrent cold-cache reads are collapsed through
// singleflight.
func (s *service) GetOptions(ctx context.Context) ([]SectionResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, OptionsCacheKey).Result(); err == nil {
			var resp []SectionResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(OptionsCacheKey, func() (interface{}, error) {
		rows, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		resp := mapToListResponse(rows)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, OptionsCacheKey, jsonData, optionsCacheTTL).Err(); err != nil {
					s.logger.Warn("cache section options failed", zap.Error(err))
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]SectionResponse), nil
}

func mapToResponse(sec Section) SectionResponse {
	resp := SectionResponse{
		ID:         sec.ID,
		Name:       sec.Name,
		SemesterID: sec.SemesterID,
	}
	if sec.Semester != nil {
		resp.SemesterName = sec.Semester.Name
		resp.Semester = sec.Semester.Number
	}
	return resp
}

func mapToListResponse(rows []Section) []SectionResponse {
	res := make([]SectionResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res
}
