package cli

import (
	"context"

	"github.com/dmitrijs2005/vibedtracker/internal/client/backup"
)

func (a *App) backupSink(ctx context.Context) (backup.Sink, error) {
	if a.sink != nil {
		return a.sink, nil
	}

	b := a.config.Backup
	if !b.UsesS3() {
		a.sink = backup.NewFileSink(b.Dir)
		return a.sink, nil
	}

	s, err := backup.NewS3Sink(ctx, backup.S3Options{
		Bucket:    b.S3Bucket,
		Region:    b.S3Region,
		Endpoint:  b.S3Endpoint,
		AccessKey: b.S3AccessKey,
		SecretKey: b.S3SecretKey,
		Prefix:    b.S3Prefix,
	})
	if err != nil {
		return nil, err
	}
	a.sink = s
	return s, nil
}

// Export writes the encrypted items and key info to the configured backup
// destination. It does not need the key.
func (a *App) Export(ctx context.Context) error {
	sink, err := a.backupSink(ctx)
	if err != nil {
		return err
	}

	var res *backup.Result
	err = a.withSpinner(ctx, "Exporting...", func() error {
		var err error
		res, err = backup.NewExporter(a.apiClient, sink, a.logger).Export(ctx)
		return err
	})
	if err != nil {
		return err
	}

	success("Exported %d item(s) to %s", res.Items, res.Location)
	return nil
}
