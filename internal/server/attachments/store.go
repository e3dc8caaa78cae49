// Package attachments persists uploaded profile pictures and hands back
// the path recorded in the profile.
package attachments

import (
	"context"
	"io"
	"strings"

	"github.com/dmitrijs2005/astroprofile/internal/server/config"
	"github.com/google/uuid"
)

// Store saves one upload and returns where it ended up. Delete takes a
// path previously returned by Save.
type Store interface {
	Save(ctx context.Context, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}

// New builds the store selected by cfg.AttachmentStorage.
func New(cfg *config.Config) (Store, error) {
	if cfg.AttachmentStorage == config.StorageS3 {
		return NewS3Store(cfg), nil
	}
	return NewLocalStore(cfg.UploadDir)
}

// newName mirrors multipart upload middlewares: a random hex name
// without extension.
var newName = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
