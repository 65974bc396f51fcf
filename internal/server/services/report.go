package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/logging"
	"github.com/violetear/api/internal/multihashx"
	"github.com/violetear/api/internal/server/archive"
	"github.com/violetear/api/internal/server/models"
	"github.com/violetear/api/internal/server/notify"
	"github.com/violetear/api/internal/workpool"
)

// notifyTimeout caps the post-commit signal so a dead notifier cannot pin
// the request goroutine.
const notifyTimeout = 30 * time.Second

// ReportService ingests reports, fans out their tasks and serves the
// owner-scoped report reads.
type ReportService struct {
	deps     Deps
	log      logging.Logger
	notifier notify.Notifier
	archive  archive.Archive
}

// NewReportService wires the service. archive may be nil, which disables
// archiving on discard and makes ArchiveURL always report not found.
func NewReportService(d Deps, n notify.Notifier, a archive.Archive) *ReportService {
	d = d.withDefaults()
	return &ReportService{
		deps:     d,
		log:      d.Logger.With("module", "reports"),
		notifier: n,
		archive:  a,
	}
}

// Submit stores payload for user and creates one pending task per distinct
// requested profile, atomically. The work-available signal is sent only
// after the commit succeeded.
func (s *ReportService) Submit(ctx context.Context, user *models.User, payload []byte, identifiers []string) (int64, error) {
	ids := NormalizeIdentifiers(identifiers)
	if len(ids) == 0 {
		return 0, common.ErrorValidation
	}

	digest, err := multihashx.Sum(payload)
	if err != nil {
		return 0, internal(ctx, s.log, "digest payload", err)
	}

	var taskCount int
	reportID, err := workpool.DoValue(ctx, s.deps.Pool, func(ctx context.Context) (int64, error) {
		var reportID int64
		err := s.deps.Tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			var err error
			reportID, err = s.deps.Repos.Reports(tx).Create(ctx, user.ID, digest, payload)
			if err != nil {
				return err
			}

			profileIDs, err := s.resolveProfiles(ctx, tx, ids)
			if err != nil {
				return err
			}

			for _, pid := range profileIDs {
				if _, err := s.deps.Repos.Tasks(tx).Create(ctx, reportID, pid, models.TaskStatusPending); err != nil {
					return err
				}
			}
			taskCount = len(profileIDs)
			return nil
		})
		return reportID, err
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return 0, err
		case ctx.Err() != nil:
			return 0, ctx.Err()
		default:
			return 0, internal(ctx, s.log, "submit report", err)
		}
	}

	s.deps.Metrics.ReportsSubmitted.Inc()
	s.deps.Metrics.TasksCreated.Add(float64(taskCount))
	s.log.Info(ctx, "report submitted", "report_id", reportID, "user_id", user.ID, "tasks", taskCount)

	s.signalWork(ctx)
	return reportID, nil
}

// signalWork outlives the request: the report is already durable, so a
// client hanging up must not suppress the wake-up.
func (s *ReportService) signalWork(ctx context.Context) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(nctx); err != nil {
		s.deps.Metrics.NotifyFailures.Inc()
		s.log.Error(ctx, "work-available signal lost", "error", err)
	}
}

// resolveProfiles maps every identifier to a profile id with a single query
// and returns the distinct ids in request order. A machine-name match wins
// over an id match for the same identifier.
func (s *ReportService) resolveProfiles(ctx context.Context, tx dbx.DBTX, ids []string) ([]int64, error) {
	names, nums := splitIdentifiers(ids)
	profiles, err := s.deps.Repos.Profiles(tx).Resolve(ctx, names, nums)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int64, len(profiles))
	byID := make(map[int64]struct{}, len(profiles))
	for _, p := range profiles {
		byName[p.MachineName] = p.ID
		byID[p.ID] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		pid, ok := byName[id]
		if !ok {
			n, err := strconv.ParseInt(id, 10, 64)
			if _, found := byID[n]; err != nil || !found {
				return nil, fmt.Errorf("profile %q: %w", id, common.ErrorNotFound)
			}
			pid = n
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		out = append(out, pid)
	}
	return out, nil
}

// DiscardFile clears the payload of one of user's reports. With an archive
// configured the payload is uploaded first, under a row lock.
func (s *ReportService) DiscardFile(ctx context.Context, user *models.User, reportID int64) error {
	var err error
	if s.archive == nil {
		err = s.deps.Repos.Reports(s.deps.DB).DiscardFile(ctx, user.ID, reportID)
	} else {
		err = s.deps.Tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.deps.Repos.Reports(tx)
			rep, err := repo.GetFileForUpdate(ctx, user.ID, reportID)
			if err != nil {
				return err
			}
			if rep.File != nil {
				ok, err := multihashx.Verify(rep.File, rep.FileMultihash)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("report %d: payload does not match %s", reportID, rep.FileMultihash)
				}
				if err := s.archive.Put(ctx, rep.FileMultihash, rep.File); err != nil {
					return err
				}
			}
			return repo.DiscardFile(ctx, user.ID, reportID)
		})
	}

	switch {
	case err == nil:
		s.deps.Metrics.FilesDiscarded.Inc()
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorNotFound
	default:
		return internal(ctx, s.log, "discard file", err)
	}
}

// List returns user's reports, newest first, without payloads.
func (s *ReportService) List(ctx context.Context, user *models.User) ([]models.Report, error) {
	reports, err := s.deps.Repos.Reports(s.deps.DB).ListForUser(ctx, user.ID)
	if err != nil {
		return nil, internal(ctx, s.log, "list reports", err)
	}
	return reports, nil
}

// Get returns one of user's reports. Missing and foreign reports are both
// common.ErrorNotFound.
func (s *ReportService) Get(ctx context.Context, user *models.User, reportID int64) (*models.Report, error) {
	rep, err := s.deps.Repos.Reports(s.deps.DB).GetForUser(ctx, user.ID, reportID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, internal(ctx, s.log, "get report", err)
	}
	return rep, nil
}

// ListTasks returns the tasks of one of user's reports. Missing and foreign
// reports are both common.ErrorUnauthorized.
func (s *ReportService) ListTasks(ctx context.Context, user *models.User, reportID int64) ([]models.Task, error) {
	if err := s.deps.Repos.Reports(s.deps.DB).CheckOwner(ctx, user.ID, reportID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, internal(ctx, s.log, "check report owner", err)
	}

	tasks, err := s.deps.Repos.Tasks(s.deps.DB).ListForReport(ctx, reportID)
	if err != nil {
		return nil, internal(ctx, s.log, "list tasks", err)
	}
	return tasks, nil
}

// ArchiveURL returns a presigned download link for an archived payload.
// Reports whose payload is still in the database are not archived yet and
// yield common.ErrorNotFound, as does a server without an archive.
func (s *ReportService) ArchiveURL(ctx context.Context, user *models.User, reportID int64) (string, error) {
	if s.archive == nil {
		return "", common.ErrorNotFound
	}

	rep, err := s.Get(ctx, user, reportID)
	if err != nil {
		return "", err
	}
	if rep.HasFile {
		return "", common.ErrorNotFound
	}
	// A payload discarded while no archive was configured is gone for good.
	archived, err := s.archive.Exists(ctx, rep.FileMultihash)
	if err != nil {
		return "", internal(ctx, s.log, "check archive", err)
	}
	if !archived {
		return "", common.ErrorNotFound
	}

	url, err := s.archive.PresignGet(ctx, rep.FileMultihash)
	if err != nil {
		return "", internal(ctx, s.log, "presign archive url", err)
	}
	return url, nil
}
