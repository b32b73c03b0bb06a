package services

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jon-the-dev/album-relay/email"
	"github.com/jon-the-dev/album-relay/models"
	"github.com/jon-the-dev/album-relay/storage"
	"github.com/jon-the-dev/album-relay/utils"
)

// AlbumLedger is the slice of the album store the pipeline writes to.
type AlbumLedger interface {
	Create(ctx context.Context, delivery *models.AlbumDelivery) error
	Update(ctx context.Context, delivery *models.AlbumDelivery) error
}

// DeliveryRequest names what to deliver and to whom. Either ClientName and
// AlbumName identify an album prefix to package, or ObjectKey points at an
// object that already exists in the bucket (the single-photo webhook path).
type DeliveryRequest struct {
	ClientName string
	AlbumName  string
	ObjectKey  string
	Email      string
}

type DeliveryService struct {
	store   storage.ObjectStore
	mailer  email.Mailer
	albums  AlbumLedger
	linkTTL time.Duration
	retry   *utils.RetryConfig
	logger  *utils.Logger
}

func NewDeliveryService(store storage.ObjectStore, mailer email.Mailer, albums AlbumLedger, linkTTL time.Duration) *DeliveryService {
	if linkTTL <= 0 {
		linkTTL = time.Hour
	}
	return &DeliveryService{
		store:   store,
		mailer:  mailer,
		albums:  albums,
		linkTTL: linkTTL,
		retry:   utils.DefaultRetryConfig(),
		logger:  utils.NewLogger("delivery"),
	}
}

// Deliver runs the pipeline: package and upload (or verify an existing
// object), presign, record, notify. The presigned link is generated strictly
// after the upload has been confirmed, and the delivery record is written
// before the email goes out. A failed send leaves the record intact with
// the failure noted.
func (s *DeliveryService) Deliver(ctx context.Context, req *DeliveryRequest) (*models.AlbumDelivery, error) {
	if verr := utils.ValidateEmail(req.Email, "email"); verr != nil {
		return nil, utils.ErrInvalidEmail
	}

	var zipKey string
	clientName := utils.SanitizePathSegment(req.ClientName)
	albumName := utils.SanitizePathSegment(req.AlbumName)

	if req.ObjectKey != "" {
		if err := s.store.Stat(ctx, req.ObjectKey); err != nil {
			return nil, utils.WrapError(err, "delivery object missing")
		}
		zipKey = req.ObjectKey
	} else {
		if clientName == "" || albumName == "" {
			return nil, utils.ErrMissingFields
		}

		prefix := fmt.Sprintf("clients/%s/%s/", clientName, albumName)
		zipKey = fmt.Sprintf("zipped-albums/%s/%s.zip", clientName, albumName)

		if err := s.packageAndUpload(ctx, prefix, zipKey); err != nil {
			return nil, err
		}
	}

	downloadURL, err := s.store.Presign(ctx, zipKey, s.linkTTL)
	if err != nil {
		return nil, utils.WrapError(err, "failed to generate download link")
	}

	expiresAt := time.Now().Add(s.linkTTL)
	delivery := &models.AlbumDelivery{
		ID:           uuid.NewString(),
		ClientName:   clientName,
		AlbumName:    albumName,
		ZipFileKey:   zipKey,
		Email:        req.Email,
		DownloadLink: downloadURL,
		ExpiresAt:    &expiresAt,
	}
	if err := s.albums.Create(ctx, delivery); err != nil {
		return nil, utils.WrapError(err, "failed to record delivery")
	}

	notifyErr := utils.Retry(ctx, s.retry, func() error {
		return s.mailer.SendDownloadLink(ctx, req.Email, downloadURL, s.linkTTL)
	})
	if notifyErr != nil {
		s.logger.Error(ctx, "download notification failed", map[string]interface{}{
			"album_id": delivery.ID,
			"email":    req.Email,
			"error":    notifyErr.Error(),
		})
		delivery.NotifyError = notifyErr.Error()
		if uerr := s.albums.Update(ctx, delivery); uerr != nil {
			s.logger.Error(ctx, "failed to record notification failure", map[string]interface{}{
				"album_id": delivery.ID,
				"error":    uerr.Error(),
			})
		}
	}

	return delivery, nil
}

// packageAndUpload streams every object under prefix into a single zip and
// uploads it. The zip is produced on a pipe so nothing is staged on local
// disk; Upload returns only once the archive is fully stored.
func (s *DeliveryService) packageAndUpload(ctx context.Context, prefix, zipKey string) error {
	keys, err := s.store.List(ctx, prefix)
	if err != nil {
		return utils.WrapError(err, "failed to list album objects")
	}
	if len(keys) == 0 {
		return utils.ErrAlbumEmpty
	}

	pr, pw := io.Pipe()

	go func() {
		zw := zip.NewWriter(pw)
		var err error
		for _, key := range keys {
			err = s.addZipEntry(ctx, zw, key, strings.TrimPrefix(key, prefix))
			if err != nil {
				break
			}
		}
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	if err := s.store.Upload(ctx, zipKey, pr); err != nil {
		// Upload can fail without draining the pipe; close the read side so
		// the producer goroutine unblocks instead of leaking.
		pr.CloseWithError(err)
		return utils.WrapError(err, "failed to upload archive")
	}
	return nil
}

func (s *DeliveryService) addZipEntry(ctx context.Context, zw *zip.Writer, key, name string) error {
	body, err := s.store.Download(ctx, key)
	if err != nil {
		return err
	}
	defer body.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, body)
	return err
}
