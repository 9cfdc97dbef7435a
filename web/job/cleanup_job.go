// Package job holds the cron maintenance jobs run by the web server.
package job

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cinelog/cinelog/config"
	"github.com/cinelog/cinelog/database"
	"github.com/cinelog/cinelog/logger"
	"github.com/cinelog/cinelog/web/session"
	"github.com/cinelog/cinelog/web/upload"
)

// orphanMinAge keeps freshly written files safe: an upload belonging to a
// transaction that has not committed yet must not be swept.
const orphanMinAge = 24 * time.Hour

// CleanupJob removes expired session rows and upload files no database row
// references anymore.
type CleanupJob struct {
	store *session.GormStore
}

func NewCleanupJob(store *session.GormStore) *CleanupJob {
	return &CleanupJob{store: store}
}

func (j *CleanupJob) Run() {
	if n, err := j.store.PurgeExpired(); err != nil {
		logger.Warning("cleanup job: purge sessions err:", err)
	} else if n > 0 {
		logger.Debugf("cleanup job: purged %d expired sessions", n)
	}

	j.sweepOrphans(config.GetIconFolder(), "users")
	j.sweepOrphans(config.GetThumbnailFolder(), "items")
}

// sweepOrphans deletes files in dir whose name no row of table references.
func (j *CleanupJob) sweepOrphans(dir, table string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warning("cleanup job: read dir err:", err)
		}
		return
	}

	var referenced []string
	err = database.GetDB().Table(table).
		Where("image <> ''").
		Pluck("image", &referenced).Error
	if err != nil {
		logger.Warning("cleanup job: list images err:", err)
		return
	}

	known := make(map[string]bool, len(referenced))
	for _, name := range referenced {
		known[filepath.Base(name)] = true
	}

	for _, entry := range entries {
		if entry.IsDir() || known[entry.Name()] || upload.IsProtected(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < orphanMinAge {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			logger.Warning("cleanup job: remove err:", err)
		} else {
			logger.Debugf("cleanup job: removed orphaned upload %s", entry.Name())
		}
	}
}
