package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	mapset "github.com/deckarep/golang-set/v2"

	"lobbysign/api/client"
	"lobbysign/util"
)

const remoteCheckInterval = time.Duration(1 * time.Hour)

// RemoteManager mirrors announcement feed files from an S3 bucket into the
// local feed directory and republishes the rotation after each sync. When
// no bucket is configured the manager stays disabled and the display runs
// on local feeds alone.
type RemoteManager struct {
	client *s3.Client

	profile  string
	s3Bucket string

	outputPath string

	feedClient *client.FeedClient

	Updated chan bool
}

func NewRemoteManager() (*RemoteManager, error) {
	// if empty then defaults to current directory
	rootPath := os.Getenv("LOBBYSIGN_ROOT_PATH")
	if rootPath == "" {
		rootPath = "."
	}
	outputPath := filepath.Join(rootPath, "feeds")

	r := &RemoteManager{
		outputPath: outputPath,
		feedClient: client.NewFeedClient(serverURL()),
		Updated:    make(chan bool),
	}

	awsProfileName := os.Getenv("LOBBYSIGN_AWS_PROFILE")
	s3Bucket := os.Getenv("LOBBYSIGN_S3_BUCKET")
	if awsProfileName == "" || s3Bucket == "" {
		slog.Info("no aws profile or s3 bucket configured, remote feed disabled")
		return r, nil
	}

	// Load the Shared AWS Configuration (~/.aws/config)
	ctxCfg, cancelCfg := context.WithTimeout(context.Background(), time.Duration(3*time.Second))
	cfg, err := config.LoadDefaultConfig(
		ctxCfg,
		config.WithSharedConfigProfile(awsProfileName),
	)
	cancelCfg()
	if err != nil {
		return nil, err
	}

	r.client = s3.NewFromConfig(cfg)
	r.profile = awsProfileName
	r.s3Bucket = s3Bucket

	return r, nil
}

func (r *RemoteManager) Enabled() bool {
	return r.client != nil
}

func (r *RemoteManager) GetS3Objects(ctx context.Context) ([]s3types.Object, error) {
	// Get the first page of results for ListObjectsV2 for a bucket
	output, err := r.client.ListObjectsV2(
		ctx,
		&s3.ListObjectsV2Input{
			Bucket: aws.String(r.s3Bucket),
		},
	)
	if err != nil {
		return nil, err
	}

	return output.Contents, nil
}

func (r *RemoteManager) DownloadObject(ctx context.Context, name string) error {
	downloader := manager.NewDownloader(r.client)

	f, err := os.Create(filepath.Join(r.outputPath, name))
	if err != nil {
		return fmt.Errorf("unable to create file for s3 download, %s, %w", name, err)
	}
	defer f.Close()

	if _, err := downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(r.s3Bucket),
		Key:    aws.String(name),
	}); err != nil {
		return fmt.Errorf("unable to download object from s3, %s, %w", name, err)
	}
	return nil
}

func (r *RemoteManager) getLocalFiles() (mapset.Set[string], error) {
	dirs, err := os.ReadDir(r.outputPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory, %s, %w", r.outputPath, err)
	}

	localFiles := mapset.NewSet[string]()
	for _, dir := range dirs {
		name := dir.Name()
		if !util.SupportedFeedExt.Contains(filepath.Ext(name)) {
			continue
		}
		localFiles.Add(name)
	}

	if localFiles.Cardinality() == 0 {
		slog.Info("no local feed files found")
	}
	return localFiles, nil
}

func (r *RemoteManager) getRemoteFiles(ctx context.Context) (mapset.Set[string], error) {
	remoteFiles := mapset.NewSet[string]()
	objects, err := r.GetS3Objects(ctx)
	if err != nil {
		return nil, err
	}
	for _, object := range objects {
		name := aws.ToString(object.Key)
		if !util.SupportedFeedExt.Contains(filepath.Ext(name)) {
			continue
		}
		remoteFiles.Add(name)
	}

	if remoteFiles.Cardinality() == 0 {
		slog.Info("no remote feed files found")
	}
	return remoteFiles, nil
}

// SyncFolder reconciles the local feed directory against the bucket and
// republishes the rotation when anything changed.
func (r *RemoteManager) SyncFolder(ctx context.Context) error {
	localFiles, err := r.getLocalFiles()
	if err != nil {
		return err
	}

	remoteFiles, err := r.getRemoteFiles(ctx)
	if err != nil {
		return err
	}

	toDelete := localFiles.Difference(remoteFiles).ToSlice()
	toDownload := remoteFiles.Difference(localFiles).ToSlice()
	if len(toDelete) > 0 {
		slog.Info("deleting local feed files", "count", len(toDelete), "names", toDelete)
		for _, name := range toDelete {
			filePath := filepath.Join(r.outputPath, name)
			if err := os.Remove(filePath); err != nil {
				slog.Warn("unable to remove local feed file", "error", err)
			}
		}
	}
	if len(toDownload) > 0 {
		slog.Info("downloading feed files", "count", len(toDownload), "names", toDownload)
		for _, name := range toDownload {
			if err := r.DownloadObject(ctx, name); err != nil {
				slog.Warn("error while downloading s3 object", "name", name, "error", err)
				continue
			}
		}
	}

	// Only republish if there were actual changes
	if len(toDelete) > 0 || len(toDownload) > 0 {
		items := loadFeedDir(r.outputPath)
		if err := r.feedClient.PublishItems(items); err != nil {
			slog.Warn("error publishing synced feed", "error", err)
			return nil
		}
		r.Updated <- true
	}
	return nil
}

func (r *RemoteManager) Run() {
	if !r.Enabled() {
		return
	}

	ticker := time.NewTicker(remoteCheckInterval)

	// Initial sync
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(30*time.Minute))
	if err := r.SyncFolder(ctx); err != nil {
		slog.Warn("error while syncing with remote", "error", err)
	}
	cancel()

	for range ticker.C {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(30*time.Minute))
		if err := r.SyncFolder(ctx); err != nil {
			slog.Warn("error while syncing with remote", "error", err)
		}
		cancel()
	}
}
