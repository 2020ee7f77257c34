package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// SupportedExtensions are the reference image extensions DirSource picks up.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// Reference is one reference image for an identity. Load is called lazily by
// the builder so unreadable files only skip their own identity.
type Reference struct {
	Identity domain.Identity
	Name     string
	Load     func(ctx context.Context) ([]byte, error)
}

// ReferenceSource lists the reference images a gallery is built from.
type ReferenceSource interface {
	References(ctx context.Context) ([]Reference, error)
}

// DirSource reads one image per identity from a flat directory. The identity
// is the filename without its extension.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// References lists supported image files in lexical order, as returned by
// os.ReadDir.
func (s *DirSource) References(ctx context.Context) ([]Reference, error) {
	info, err := os.Stat(s.Dir)
	if err != nil {
		return nil, domain.ErrReferenceDirInvalid.WithError(fmt.Errorf("stat %s: %w", s.Dir, err))
	}
	if !info.IsDir() {
		return nil, domain.ErrReferenceDirInvalid.WithError(fmt.Errorf("%s is not a directory", s.Dir))
	}

	dirEntries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, domain.ErrReferenceDirInvalid.WithError(fmt.Errorf("read %s: %w", s.Dir, err))
	}

	refs := make([]Reference, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !IsSupported(de.Name()) {
			continue
		}
		refs = append(refs, fileReference(IdentityFromFilename(de.Name()), filepath.Join(s.Dir, de.Name())))
	}

	return refs, nil
}

// ImagePath is where the reference image for identity is stored inside dir.
func ImagePath(dir string, identity domain.Identity) string {
	return filepath.Join(dir, string(identity)+".jpg")
}

// IdentityFromFilename strips the directory and extension from name.
func IdentityFromFilename(name string) domain.Identity {
	base := filepath.Base(name)
	return domain.Identity(strings.TrimSuffix(base, filepath.Ext(base)))
}

func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

func fileReference(identity domain.Identity, path string) Reference {
	return Reference{
		Identity: identity,
		Name:     filepath.Base(path),
		Load: func(ctx context.Context) ([]byte, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return os.ReadFile(path)
		},
	}
}

// UserLister lists enrolled users.
type UserLister interface {
	List(ctx context.Context) ([]domain.User, error)
}

// UserSource builds references from enrolled user records: the identity is
// the enrollment number and the image is the user's stored photo.
type UserSource struct {
	users UserLister
}

func NewUserSource(users UserLister) *UserSource {
	return &UserSource{users: users}
}

func (s *UserSource) References(ctx context.Context) ([]Reference, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	refs := make([]Reference, 0, len(users))
	for _, u := range users {
		if u.ImagePath == "" {
			continue
		}
		refs = append(refs, fileReference(u.Identity(), u.ImagePath))
	}
	return refs, nil
}
