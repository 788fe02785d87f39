package storage

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/grove/pkg/index"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UploadStagedInput stages a run's input tables for the worker and returns
// the object key.
func UploadStagedInput(ctx context.Context, client *s3.Client, projectID int64, runID string, input index.Input) (string, error) {
	key := StagingKey(projectID, runID)
	if err := PutJSON(ctx, client, key, input); err != nil {
		return "", err
	}
	return key, nil
}

// DownloadStagedInput fetches the input tables a run was enqueued with.
func DownloadStagedInput(ctx context.Context, client *s3.Client, projectID int64, runID string) (index.Input, error) {
	var input index.Input
	if err := GetJSON(ctx, client, StagingKey(projectID, runID), &input); err != nil {
		return index.Input{}, err
	}
	return input, nil
}

// SnapshotOutput archives a completed run's tables, one JSON file per table.
// The current index in Postgres stays the serving copy; snapshots exist for
// audit and debugging.
func SnapshotOutput(ctx context.Context, client *s3.Client, projectID int64, runID string, out index.Output) error {
	tables := []struct {
		name string
		data any
	}{
		{"entities", out.Entities},
		{"relationships", out.Relationships},
		{"communities", out.Communities},
		{"reports", out.Reports},
		{"contexts", out.Contexts},
	}
	for _, t := range tables {
		if err := PutJSON(ctx, client, snapshotKey(projectID, runID, t.name), t.data); err != nil {
			return fmt.Errorf("failed to snapshot %s table: %w", t.name, err)
		}
	}
	return nil
}
