package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/period"
	reporterrors "github.com/sobit-woxsen/wou-attendance-qr/internal/report/errors"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/session"
	"github.com/sobit-woxsen/wou-attendance-qr/internal/submission"

	"go.uber.org/zap"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

//go:generate mockgen -source=report_service.go -destination=mock/report_service_mock.go -package=mock
type Service interface {
	Load(ctx context.Context, req ReportRequest) (*Report, error)
	ExportCSV(ctx context.Context, req ReportRequest) (string, []byte, error)
	BuildResponse(r *Report) SessionReportResponse
}

type service struct {
	sessions  session.Repository
	lifecycle session.Service
	subs      submission.Repository
	policy    *period.Policy
	logger    *zap.Logger

	now func() time.Time
}

func NewService(
	sessions session.Repository,
	lifecycle session.Service,
	subs submission.Repository,
	policy *period.Policy,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("report.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("report.service")
	}
	return &service{
		sessions:  sessions,
		lifecycle: lifecycle,
		subs:      subs,
		policy:    policy,
		logger:    l,
		now:       time.Now,
	}
}

// Load resolves the requested session and its submissions. A stale OPEN
// session is closed silently and re-read once, so the report always
// shows final numbers.
func (s *service) Load(ctx context.Context, req ReportRequest) (*Report, error) {
	if err := validateSelector(req); err != nil {
		return nil, err
	}

	var sess *session.Session
	for attempt := 0; attempt < 2; attempt++ {
		found, err := s.findSession(ctx, req)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, reporterrors.ErrReportNotFound
		}
		sess = found

		if sess.Status != session.StatusOpen || !sess.Expired(s.now()) {
			break
		}
		if _, err := s.lifecycle.Close(ctx, sess.ID.String(), true); err != nil {
			return nil, err
		}
	}

	submissions, err := s.subs.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	return &Report{Session: sess, Submissions: submissions}, nil
}

func (s *service) findSession(ctx context.Context, req ReportRequest) (*session.Session, error) {
	if req.SessionID != "" {
		sess, err := s.sessions.FindByID(ctx, req.SessionID)
		if err != nil {
			if strings.Contains(err.Error(), "record not found") {
				return nil, nil
			}
			return nil, err
		}
		return sess, nil
	}

	sess, err := s.sessions.FindLatestBySlot(ctx, req.Filter.Date, req.Filter.PeriodID, req.Filter.SectionID)
	if err != nil {
		if strings.Contains(err.Error(), "record not found") {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// ExportCSV renders the register the way the academic office files it:
// CRLF rows, submission timestamps in local campus time.
func (s *service) ExportCSV(ctx context.Context, req ReportRequest) (string, []byte, error) {
	report, err := s.Load(ctx, req)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write([]string{"Roll", "Name", "Submitted At (IST)"}); err != nil {
		return "", nil, err
	}
	for _, sub := range report.Submissions {
		row := []string{
			sub.Roll,
			sub.Name,
			s.policy.FormatLocal(sub.SubmittedAtUTC, "2006-01-02 15:04:05"),
		}
		if err := w.Write(row); err != nil {
			return "", nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, err
	}

	s.logger.Info("csv export generated",
		zap.String("session_id", report.Session.ID.String()),
		zap.Int("rows", len(report.Submissions)),
	)
	return s.fileName(report.Session), buf.Bytes(), nil
}

func (s *service) fileName(sess *session.Session) string {
	sectionName := "section"
	semesterNumber := 0
	if sess.Section != nil {
		sectionName = strings.Join(strings.Fields(sess.Section.Name), "_")
		if sess.Section.Semester != nil {
			semesterNumber = sess.Section.Semester.Number
		}
	}
	return fmt.Sprintf(
		"Session_Attendance_%s_S%d_%s_%s.csv",
		sess.DateLocal, semesterNumber, sectionName, sess.PeriodID,
	)
}

func (s *service) BuildResponse(r *Report) SessionReportResponse {
	resp := SessionReportResponse{
		Session: ReportSession{
			ID:          r.Session.ID.String(),
			DateLocal:   r.Session.DateLocal,
			Course:      r.Session.Course,
			FacultyName: r.Session.FacultyName,
			PeriodID:    r.Session.PeriodID,
			StartAtUTC:  r.Session.StartAtUTC,
			EndAtUTC:    r.Session.EndAtUTC,
			ClosedAtUTC: r.Session.ClosedAtUTC,
			Status:      r.Session.Status,
		},
		Metrics:     ReportMetrics{TotalSubmissions: len(r.Submissions)},
		Submissions: make([]ReportSubmission, 0, len(r.Submissions)),
	}

	if window, ok := s.policy.Window(r.Session.PeriodID, r.Session.StartAtUTC); ok {
		resp.Session.PeriodLabel = window.Label
	}
	if r.Session.Section != nil {
		resp.Session.Section = ReportSection{
			ID:   r.Session.Section.ID,
			Name: r.Session.Section.Name,
		}
		if r.Session.Section.Semester != nil {
			resp.Session.Section.SemesterNumber = r.Session.Section.Semester.Number
		}
	}

	for _, sub := range r.Submissions {
		resp.Submissions = append(resp.Submissions, ReportSubmission{
			ID:             sub.ID.String(),
			Roll:           sub.Roll,
			Name:           sub.Name,
			SubmittedAtUTC: sub.SubmittedAtUTC,
		})
	}
	return resp
}

func validateSelector(req ReportRequest) error {
	if req.SessionID != "" {
		return nil
	}
	if req.Filter == nil {
		return reporterrors.ErrInvalidSelector
	}
	if !datePattern.MatchString(req.Filter.Date) || req.Filter.SectionID <= 0 {
		return reporterrors.ErrInvalidSelector
	}
	if len(req.Filter.PeriodID) < 2 || len(req.Filter.PeriodID) > 4 {
		return reporterrors.ErrInvalidSelector
	}
	return nil
}
