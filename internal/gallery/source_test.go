package gallery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

func TestDirSource_References(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bob.png", []byte("b"))
	writeFile(t, dir, "alice.JPG", []byte("a"))
	writeFile(t, dir, "carol.webp", []byte("c"))
	writeFile(t, dir, "notes.txt", []byte("ignored"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

	refs, err := NewDirSource(dir).References(context.Background())
	require.NoError(t, err)

	var ids []domain.Identity
	for _, r := range refs {
		ids = append(ids, r.Identity)
	}
	assert.Equal(t, []domain.Identity{"alice", "bob", "carol"}, ids)

	data, err := refs[1].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)
}

func TestDirSource_Invalid(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.jpg")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name string
		dir  string
	}{
		{name: "missing", dir: filepath.Join(dir, "nope")},
		{name: "not a directory", dir: file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDirSource(tt.dir).References(context.Background())
			assert.True(t, errors.Is(err, domain.ErrReferenceDirInvalid), "got %v", err)
		})
	}
}

func TestIdentityFromFilename(t *testing.T) {
	assert.Equal(t, domain.Identity("2021001"), IdentityFromFilename("images/2021001.jpg"))
	assert.Equal(t, domain.Identity("elon.musk"), IdentityFromFilename("elon.musk.png"))
	assert.Equal(t, "imgs/42.jpg", ImagePath("imgs", "42"))
	assert.True(t, IsSupported("x.JPEG"))
	assert.False(t, IsSupported("x.gif"))
}

type MockUserLister struct {
	mock.Mock
}

func (m *MockUserLister) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func TestUserSource_References(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2021001.jpg", []byte("photo"))

	users := &MockUserLister{}
	users.On("List", mock.Anything).Return([]domain.User{
		{Enrollment: "2021001", Name: "Alice", ImagePath: filepath.Join(dir, "2021001.jpg")},
		{Enrollment: "2021002", Name: "No Photo"},
	}, nil)

	refs, err := NewUserSource(users).References(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, domain.Identity("2021001"), refs[0].Identity)

	data, err := refs[0].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("photo"), data)

	failing := &MockUserLister{}
	failing.On("List", mock.Anything).Return(nil, errors.New("db down"))
	_, err = NewUserSource(failing).References(context.Background())
	assert.Error(t, err)
}
