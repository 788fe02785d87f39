package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/grove/internal/storage"
	"github.com/OFFIS-RIT/grove/pkg/leaselock"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	indexstorage "github.com/OFFIS-RIT/grove/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessDeleteMessage removes a project's current index, run history and S3
// artifacts. The database side runs under the project lease so a delete
// never races an index or merge persist.
func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(JobMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if err := data.validate(); err != nil {
		return err
	}

	st := indexstorage.NewIndexDBStorageWithConnection(conn)
	lock := leaselock.New(conn)
	err := lock.WithLease(ctx, leaselock.ProjectKey(data.ProjectID), leaseOptions(data.ProjectID, "delete"),
		func(leaseCtx context.Context) error {
			return st.DeleteProject(leaseCtx, data.ProjectID)
		})
	if err != nil {
		return fmt.Errorf("failed to delete project index: %w", err)
	}

	// Row deletion is idempotent, so a failure here retries the whole job
	// safely.
	if err := storage.DeleteProjectFiles(ctx, s3Client, data.ProjectID); err != nil {
		return err
	}

	logger.Info("[Queue] Project index deleted", "project_id", data.ProjectID)
	return nil
}
