package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/safecheck/internal/common"
	"github.com/dmitrijs2005/safecheck/internal/config"
	"github.com/dmitrijs2005/safecheck/internal/cryptox"
	"github.com/dmitrijs2005/safecheck/internal/models"
	"github.com/dmitrijs2005/safecheck/internal/storage"
)

type fakeRepo struct {
	data   map[string][]byte
	getErr error
	setErr   error
	clearErr error
	clears   int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{data: map[string][]byte{}} }

func (f *fakeRepo) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.data[key], nil
}

func (f *fakeRepo) SetMany(_ context.Context, values map[string][]byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	for k, v := range values {
		f.data[k] = v
	}
	return nil
}

// Clear is all-or-nothing, like every real backend.
func (f *fakeRepo) Clear(context.Context) error {
	f.clears++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.data = map[string][]byte{}
	return nil
}

func armedState() *models.AppState {
	last := time.Date(2026, 5, 1, 9, 15, 30, 123456789, time.UTC)
	fired := last.Add(time.Hour)
	return &models.AppState{
		User: &models.User{Name: "Ann", Email: "ann@example.com"},
		Contacts: []models.Contact{
			{Name: "Bob", Phone: "+15550100", Relationship: "brother", SMSAlertsEnabled: true},
			{Name: "", Email: "nobody@example.com"},
		},
		PeriodHours:       4,
		LastCheckIn:       &last,
		SetupComplete:     true,
		HasSeenWelcome:    true,
		AlertDispatchedAt: &fired,
	}
}

func TestLoad_Empty(t *testing.T) {
	s := NewStore(newFakeRepo())
	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	repo := newFakeRepo()
	s := NewStore(repo)
	ctx := context.Background()
	want := armedState()

	require.NoError(t, s.Save(ctx, want))
	assert.Equal(t, []byte("true"), repo.data[KeyHasSeenWelcome])

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.LastCheckIn.Equal(*want.LastCheckIn), "nanoseconds survive")
}

func TestSave_ConvertsToUTC(t *testing.T) {
	s := NewStore(newFakeRepo())
	ctx := context.Background()
	local := time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("EET", 3*3600))
	st := &models.AppState{User: &models.User{Name: "Ann"}, PeriodHours: 1, LastCheckIn: &local}

	require.NoError(t, s.Save(ctx, st))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.LastCheckIn.Equal(local))
	assert.Equal(t, time.UTC, got.LastCheckIn.Location())
}

func TestLoad_WelcomeFlagOnly(t *testing.T) {
	repo := newFakeRepo()
	repo.data[KeyHasSeenWelcome] = []byte("true")

	st, err := NewStore(repo).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.HasSeenWelcome)
	assert.Nil(t, st.User)
	assert.Equal(t, models.DefaultPeriodHours, st.PeriodHours)
}

func TestLoad_CorruptRecordKeepsWelcomeFlag(t *testing.T) {
	repo := newFakeRepo()
	repo.data[KeyAppState] = []byte("{not json")
	repo.data[KeyHasSeenWelcome] = []byte("true")

	st, err := NewStore(repo).Load(context.Background())
	require.ErrorIs(t, err, common.ErrCorruptState)
	require.NotNil(t, st)
	assert.True(t, st.HasSeenWelcome)
	assert.Nil(t, st.User)
	assert.False(t, st.SetupComplete)
}

func TestLoad_RepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.getErr = errors.New("disk I/O error")

	_, err := NewStore(repo).Load(context.Background())
	require.ErrorIs(t, err, common.ErrPersistence)
}

func TestSave_RepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.setErr = errors.New("read-only file system")

	err := NewStore(repo).Save(context.Background(), armedState())
	require.ErrorIs(t, err, common.ErrPersistence)
	assert.Empty(t, repo.data)
}

func TestSaveNil_Erases(t *testing.T) {
	repo := newFakeRepo()
	s := NewStore(repo)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, armedState()))

	require.NoError(t, s.Save(ctx, nil))
	assert.Empty(t, repo.data)
	assert.Equal(t, 1, repo.clears)

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestSaveNil_FailedEraseLeavesBothKeys(t *testing.T) {
	repo := newFakeRepo()
	s := NewStore(repo)
	ctx := context.Background()
	want := armedState()
	require.NoError(t, s.Save(ctx, want))

	repo.clearErr = errors.New("database is locked")
	require.ErrorIs(t, s.Save(ctx, nil), common.ErrPersistence)
	assert.Contains(t, repo.data, KeyAppState)
	assert.Contains(t, repo.data, KeyHasSeenWelcome)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveNil_ErasesOnSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SQLitePath = ":memory:"
	ctx := context.Background()

	repo, closer, err := storage.Open(ctx, cfg)
	require.NoError(t, err)
	defer closer.Close()

	s := NewStore(repo)
	require.NoError(t, s.Save(ctx, armedState()))
	require.NoError(t, s.Save(ctx, nil))

	for _, k := range []string{KeyAppState, KeyHasSeenWelcome} {
		v, err := repo.Get(ctx, k)
		require.NoError(t, err)
		assert.Nil(t, v, k)
	}
}

func TestStore_OnSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SQLitePath = ":memory:"
	ctx := context.Background()

	repo, closer, err := storage.Open(ctx, cfg)
	require.NoError(t, err)
	defer closer.Close()

	s := NewStore(repo)
	want := armedState()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func newSealer(t *testing.T, pass string) *cryptox.Sealer {
	t.Helper()
	s, err := cryptox.NewSealer(pass, cryptox.KDFParams{Time: 1, Memory: 64, Threads: 1})
	require.NoError(t, err)
	return s
}

func TestSealedStore_RoundTrip(t *testing.T) {
	repo := newFakeRepo()
	s := NewSealedStore(repo, newSealer(t, "pw"))
	ctx := context.Background()
	want := armedState()

	require.NoError(t, s.Save(ctx, want))
	assert.True(t, cryptox.IsSealed(repo.data[KeyAppState]))
	assert.NotContains(t, string(repo.data[KeyAppState]), "ann@example.com")

	got, err := NewSealedStore(repo, newSealer(t, "pw")).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSealedStore_WrongPassphrase(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()
	require.NoError(t, NewSealedStore(repo, newSealer(t, "pw")).Save(ctx, armedState()))

	_, err := NewSealedStore(repo, newSealer(t, "nope")).Load(ctx)
	require.ErrorIs(t, err, common.ErrPersistence)
	assert.ErrorIs(t, err, cryptox.ErrWrongKey)
	assert.NotErrorIs(t, err, common.ErrCorruptState)
}

func TestSealedRecord_WithoutPassphrase(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()
	require.NoError(t, NewSealedStore(repo, newSealer(t, "pw")).Save(ctx, armedState()))

	_, err := NewStore(repo).Load(ctx)
	require.ErrorIs(t, err, common.ErrPersistence)
}

func TestSealedStore_ReadsPlainRecord(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()
	require.NoError(t, NewStore(repo).Save(ctx, armedState()))

	s := NewSealedStore(repo, newSealer(t, "pw"))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, armedState(), got)

	require.NoError(t, s.Save(ctx, got))
	assert.True(t, cryptox.IsSealed(repo.data[KeyAppState]))
}
