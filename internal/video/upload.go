package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tubeclone/tubeclone/internal/validate"
)

// Stage is an upload milestone; its value is the percentage reported to the
// caller.
type Stage int

const (
	StageValidated       Stage = 10
	StageVideoStored     Stage = 30
	StageThumbnailStored Stage = 50
	StageMetadataRead    Stage = 70
	StageRecordCreated   Stage = 100
)

func (s Stage) String() string {
	switch s {
	case StageValidated:
		return "validated"
	case StageVideoStored:
		return "video stored"
	case StageThumbnailStored:
		return "thumbnail stored"
	case StageMetadataRead:
		return "metadata read"
	case StageRecordCreated:
		return "record created"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Progress receives upload milestones. It is advisory and may be nil.
type Progress func(Stage)

// Asset is an uploaded file spooled to local disk.
type Asset struct {
	Filename    string
	ContentType string
	Path        string
}

type UploadInput struct {
	Video       *Asset
	Thumbnail   *Asset
	Title       string
	Description string
	OwnerID     string
}

type UploadResult struct {
	Bucket    string
	Path      string
	PublicURL string
}

// Upload validates the input, stores the assets, reads the video duration
// and inserts the record. Nothing is inserted unless every earlier step
// succeeded; assets already stored by a failed upload are left in place.
func (c *Catalog) Upload(ctx context.Context, in UploadInput, progress Progress) (Video, error) {
	report := func(s Stage) {
		if progress != nil {
			progress(s)
		}
	}

	title, description, err := c.validateUpload(&in)
	if err != nil {
		return Video{}, err
	}
	report(StageValidated)

	stored, err := c.storeAsset(ctx, c.videosBucket, in.OwnerID, in.Video)
	if err != nil {
		return Video{}, fmt.Errorf("store video: %w", err)
	}
	report(StageVideoStored)

	var thumbnailURL *string
	if in.Thumbnail != nil {
		thumb, err := c.storeAsset(ctx, c.thumbnailsBucket, in.OwnerID, in.Thumbnail)
		if err != nil {
			return Video{}, fmt.Errorf("store thumbnail: %w", err)
		}
		thumbnailURL = &thumb.PublicURL
		report(StageThumbnailStored)
	}

	duration, err := c.durations.ReadDuration(ctx, in.Video.Path)
	if err != nil {
		return Video{}, fmt.Errorf("read video duration: %w", err)
	}
	report(StageMetadataRead)

	v, err := c.store.InsertVideo(ctx, NewVideo{
		Title:        title,
		Description:  description,
		VideoURL:     stored.PublicURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		OwnerID:      in.OwnerID,
	})
	if err != nil {
		return Video{}, fmt.Errorf("insert video: %w", err)
	}
	report(StageRecordCreated)

	slog.Info("catalog: video uploaded", "video_id", v.ID, "owner_id", in.OwnerID, "duration", duration)
	return v, nil
}

func (c *Catalog) validateUpload(in *UploadInput) (string, *string, error) {
	if in.Video == nil || in.Video.Path == "" {
		return "", nil, invalid("video", "a video file is required")
	}
	in.Video.ContentType = detectContentType(in.Video)
	if !strings.HasPrefix(in.Video.ContentType, "video/") {
		return "", nil, invalid("video", "the selected file is not a video")
	}

	if in.Thumbnail != nil {
		in.Thumbnail.ContentType = detectContentType(in.Thumbnail)
		if !strings.HasPrefix(in.Thumbnail.ContentType, "image/") {
			return "", nil, invalid("thumbnail", "the thumbnail must be an image")
		}
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return "", nil, invalid("titulo", "title is required")
	}
	if msg := validate.Title(title); msg != "" {
		return "", nil, invalid("titulo", msg)
	}

	var description *string
	if d := strings.TrimSpace(in.Description); d != "" {
		if msg := validate.Description(d); msg != "" {
			return "", nil, invalid("descripcion", msg)
		}
		description = &d
	}

	if in.OwnerID == "" {
		return "", nil, invalid("usuario_id", "you must be signed in to upload")
	}
	return title, description, nil
}

// detectContentType trusts a specific declared type and sniffs the file for
// missing or generic ones.
func detectContentType(a *Asset) string {
	declared := mediaType(a.ContentType)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	mt, err := mimetype.DetectFile(a.Path)
	if err != nil {
		slog.Debug("catalog: content sniffing failed", "file", a.Filename, "error", err)
		return declared
	}
	return mediaType(mt.String())
}

func mediaType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func (c *Catalog) storeAsset(ctx context.Context, bucket, ownerID string, a *Asset) (UploadResult, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("open %s: %w", a.Filename, err)
	}
	defer func() { _ = f.Close() }()

	path := objectPath(ownerID, a.Filename, c.now())
	stored, err := c.objects.Upload(ctx, bucket, path, f, a.ContentType)
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{
		Bucket:    bucket,
		Path:      stored,
		PublicURL: c.objects.PublicURL(bucket, stored),
	}, nil
}
