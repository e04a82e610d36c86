// Package settings persists the engine's AppState aggregate on top of a
// metadata.Repository.
//
// Two keys are used: the JSON record under KeyAppState and the welcome flag
// under KeyHasSeenWelcome. They are always written together in one batch
// and erased together by one Clear. With a sealer the record is stored
// encrypted; plain records written before encryption was enabled still load
// and are sealed on the next save.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/safecheck/internal/common"
	"github.com/dmitrijs2005/safecheck/internal/cryptox"
	"github.com/dmitrijs2005/safecheck/internal/models"
	"github.com/dmitrijs2005/safecheck/internal/repositories/metadata"
)

const (
	KeyAppState       = "app_state"
	KeyHasSeenWelcome = "has_seen_welcome"
)

type Store struct {
	repo   metadata.Repository
	sealer *cryptox.Sealer
}

func NewStore(repo metadata.Repository) *Store {
	return &Store{repo: repo}
}

// NewSealedStore encrypts the state record with sealer.
func NewSealedStore(repo metadata.Repository, sealer *cryptox.Sealer) *Store {
	return &Store{repo: repo, sealer: sealer}
}

type userDTO struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type contactDTO struct {
	Name                  string `json:"name"`
	Phone                 string `json:"phone,omitempty"`
	Email                 string `json:"email,omitempty"`
	Relationship          string `json:"relationship,omitempty"`
	SMSAlertsEnabled      bool   `json:"smsAlertsEnabled"`
	AutomatedCallsEnabled bool   `json:"automatedCallsEnabled"`
}

// stateDTO is the wire form of the record. time.Time marshals as RFC 3339
// with nanoseconds.
type stateDTO struct {
	User              *userDTO     `json:"user,omitempty"`
	Contacts          []contactDTO `json:"contacts"`
	PeriodHours       int          `json:"periodHours"`
	LastCheckIn       *time.Time   `json:"lastCheckIn,omitempty"`
	SetupComplete     bool         `json:"setupComplete"`
	AlertDispatchedAt *time.Time   `json:"alertDispatchedAt,omitempty"`
}

func toDTO(s *models.AppState) stateDTO {
	d := stateDTO{
		Contacts:          make([]contactDTO, 0, len(s.Contacts)),
		PeriodHours:       s.PeriodHours,
		LastCheckIn:       utc(s.LastCheckIn),
		SetupComplete:     s.SetupComplete,
		AlertDispatchedAt: utc(s.AlertDispatchedAt),
	}
	if s.User != nil {
		d.User = &userDTO{Name: s.User.Name, Phone: s.User.Phone, Email: s.User.Email}
	}
	for _, c := range s.Contacts {
		d.Contacts = append(d.Contacts, contactDTO(c))
	}
	return d
}

func (d stateDTO) toModel(hasSeenWelcome bool) *models.AppState {
	s := &models.AppState{
		PeriodHours:       d.PeriodHours,
		LastCheckIn:       d.LastCheckIn,
		SetupComplete:     d.SetupComplete,
		HasSeenWelcome:    hasSeenWelcome,
		AlertDispatchedAt: d.AlertDispatchedAt,
	}
	if d.User != nil {
		s.User = &models.User{Name: d.User.Name, Phone: d.User.Phone, Email: d.User.Email}
	}
	if len(d.Contacts) > 0 {
		s.Contacts = make([]models.Contact, 0, len(d.Contacts))
		for _, c := range d.Contacts {
			s.Contacts = append(s.Contacts, models.Contact(c))
		}
	}
	return s
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// Load reads the persisted state. It returns (nil, nil) when neither key is
// present.
//
// An unparsable record yields a fresh state carrying only the welcome flag,
// together with an error wrapping common.ErrCorruptState. Callers are
// expected to continue with that state.
func (s *Store) Load(ctx context.Context) (*models.AppState, error) {
	rawWelcome, err := s.repo.Get(ctx, KeyHasSeenWelcome)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	rawState, err := s.repo.Get(ctx, KeyAppState)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	if rawWelcome == nil && rawState == nil {
		return nil, nil
	}

	// an unreadable flag is treated as not seen
	welcome, _ := strconv.ParseBool(string(rawWelcome))

	if rawState == nil {
		return &models.AppState{PeriodHours: models.DefaultPeriodHours, HasSeenWelcome: welcome}, nil
	}

	if cryptox.IsSealed(rawState) {
		if s.sealer == nil {
			return nil, fmt.Errorf("%w: saved state is encrypted and no passphrase is set", common.ErrPersistence)
		}
		rawState, err = s.sealer.Open(rawState)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrPersistence, err)
		}
	}

	var d stateDTO
	if err := json.Unmarshal(rawState, &d); err != nil {
		fresh := &models.AppState{PeriodHours: models.DefaultPeriodHours, HasSeenWelcome: welcome}
		return fresh, fmt.Errorf("%w: %w", common.ErrCorruptState, err)
	}
	return d.toModel(welcome), nil
}

// Save writes state, or erases both keys when state is nil.
func (s *Store) Save(ctx context.Context, state *models.AppState) error {
	if state == nil {
		return s.erase(ctx)
	}

	data, err := json.Marshal(toDTO(state))
	if err != nil {
		return fmt.Errorf("%w: encode state: %w", common.ErrPersistence, err)
	}
	if s.sealer != nil {
		if data, err = s.sealer.Seal(data); err != nil {
			return fmt.Errorf("%w: seal state: %w", common.ErrPersistence, err)
		}
	}
	err = s.repo.SetMany(ctx, map[string][]byte{
		KeyAppState:       data,
		KeyHasSeenWelcome: []byte(strconv.FormatBool(state.HasSeenWelcome)),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	return nil
}

// erase drops both keys in one write; a failure leaves the record intact.
func (s *Store) erase(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	return nil
}
