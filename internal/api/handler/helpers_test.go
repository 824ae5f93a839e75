package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/chronicle-app/chronicle/internal/auth"
	"github.com/chronicle-app/chronicle/internal/cryptox"
	"github.com/chronicle-app/chronicle/internal/expense"
	"github.com/chronicle-app/chronicle/internal/metadata"
	"github.com/chronicle-app/chronicle/internal/reqctx"
	"github.com/chronicle-app/chronicle/internal/settings"
)

// memoryUsers is an in-memory auth.UserStore. Lookups return a fresh copy,
// matching the real store's row-per-query assembly.
type memoryUsers struct {
	byEmail map[string]*auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]*auth.User{}}
}

func copyUser(u *auth.User) *auth.User {
	c := *u
	c.Sessions = append([]auth.Session(nil), u.Sessions...)
	if u.Native != nil {
		native := *u.Native
		c.Native = &native
	}
	if u.OAuth != nil {
		oauth := *u.OAuth
		c.OAuth = &oauth
	}
	return &c
}

func (m *memoryUsers) record(id uuid.UUID) (*auth.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memoryUsers) Create(_ context.Context, user *auth.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return auth.ErrEmailTaken
	}
	user.ID = uuid.New()
	m.byEmail[user.Email] = copyUser(user)
	return nil
}

func (m *memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	u, err := m.record(id)
	if err != nil {
		return nil, err
	}
	return copyUser(u), nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (m *memoryUsers) AppendSession(_ context.Context, id uuid.UUID, session auth.Session) error {
	u, err := m.record(id)
	if err != nil {
		return err
	}
	u.Sessions = append(u.Sessions, session)
	return nil
}

func (m *memoryUsers) RemoveSession(_ context.Context, id uuid.UUID, sessionID string) error {
	u, err := m.record(id)
	if err != nil {
		return err
	}
	if sessionID == auth.AllSessions {
		u.Sessions = nil
		return nil
	}
	kept := u.Sessions[:0]
	for _, s := range u.Sessions {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	u.Sessions = kept
	return nil
}

func (m *memoryUsers) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	u, err := m.record(id)
	if err != nil {
		return err
	}
	if u.Kind != auth.KindNative {
		return auth.ErrUserNotFound
	}
	u.Native.PasswordHash = hash
	return nil
}

// memorySettings is an in-memory settings.Repository.
type memorySettings struct {
	byUser      map[uuid.UUID]*settings.Settings
	nextGroupID int
}

func newMemorySettings() *memorySettings {
	return &memorySettings{byUser: map[uuid.UUID]*settings.Settings{}, nextGroupID: 1}
}

func (m *memorySettings) Create(_ context.Context, s *settings.Settings) error {
	m.byUser[s.UserID] = s
	return nil
}

func (m *memorySettings) FindByUserID(_ context.Context, uid uuid.UUID) (*settings.Settings, error) {
	s, ok := m.byUser[uid]
	if !ok {
		return nil, settings.ErrSettingsNotFound
	}
	c := *s
	c.Profiles = append([]settings.Profile(nil), s.Profiles...)
	c.Groups = append([]settings.ExpenseGroup(nil), s.Groups...)
	c.PaymentMethods = append([]string(nil), s.PaymentMethods...)
	return &c, nil
}

func (m *memorySettings) AddPaymentMethod(_ context.Context, uid uuid.UUID, name string) error {
	s, ok := m.byUser[uid]
	if !ok {
		return settings.ErrSettingsNotFound
	}
	s.PaymentMethods = append(s.PaymentMethods, name)
	return nil
}

func (m *memorySettings) RemovePaymentMethod(_ context.Context, uid uuid.UUID, name string) error {
	s, ok := m.byUser[uid]
	if !ok {
		return settings.ErrSettingsNotFound
	}
	kept := s.PaymentMethods[:0]
	for _, pm := range s.PaymentMethods {
		if pm != name {
			kept = append(kept, pm)
		}
	}
	s.PaymentMethods = kept
	return nil
}

func (m *memorySettings) AddExpenseGroup(_ context.Context, uid uuid.UUID, name string, words []string) (int, error) {
	s, ok := m.byUser[uid]
	if !ok {
		return 0, settings.ErrSettingsNotFound
	}
	id := m.nextGroupID
	m.nextGroupID++
	s.Groups = append(s.Groups, settings.ExpenseGroup{ID: id, Name: name, Words: words})
	return id, nil
}

func (m *memorySettings) UpdateExpenseGroup(_ context.Context, uid uuid.UUID, id int, name string, words []string) error {
	s, ok := m.byUser[uid]
	if !ok {
		return settings.ErrSettingsNotFound
	}
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			s.Groups[i].Name = name
			s.Groups[i].Words = words
			return nil
		}
	}
	return settings.ErrGroupNotFound
}

func (m *memorySettings) RemoveExpenseGroup(_ context.Context, uid uuid.UUID, id int) error {
	s, ok := m.byUser[uid]
	if !ok {
		return settings.ErrSettingsNotFound
	}
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			s.Groups = append(s.Groups[:i], s.Groups[i+1:]...)
			return nil
		}
	}
	return settings.ErrGroupNotFound
}

// memoryExpenses is an in-memory expense.Repository keyed by (upid, id).
type memoryExpenses struct {
	rows map[uuid.UUID]*expense.Expense
}

func newMemoryExpenses() *memoryExpenses {
	return &memoryExpenses{rows: map[uuid.UUID]*expense.Expense{}}
}

func (m *memoryExpenses) Create(_ context.Context, e *expense.Expense) error {
	e.ID = uuid.New()
	c := *e
	m.rows[e.ID] = &c
	return nil
}

func (m *memoryExpenses) FindByID(_ context.Context, upid string, id uuid.UUID) (*expense.Expense, error) {
	e, ok := m.rows[id]
	if !ok || e.UPID != upid {
		return nil, expense.ErrExpenseNotFound
	}
	c := *e
	return &c, nil
}

func (m *memoryExpenses) List(_ context.Context, upid string, limit, offset int) ([]expense.Expense, error) {
	var out []expense.Expense
	for _, e := range m.rows {
		if e.UPID == upid {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryExpenses) Update(_ context.Context, e *expense.Expense) error {
	existing, ok := m.rows[e.ID]
	if !ok || existing.UPID != e.UPID {
		return expense.ErrExpenseNotFound
	}
	c := *e
	m.rows[e.ID] = &c
	return nil
}

func (m *memoryExpenses) Delete(_ context.Context, upid string, id uuid.UUID) error {
	e, ok := m.rows[id]
	if !ok || e.UPID != upid {
		return expense.ErrExpenseNotFound
	}
	delete(m.rows, id)
	return nil
}

// memoryMetadata is an in-memory metadata.Repository with the same
// create-on-first-use counter semantics as the Postgres one.
type memoryMetadata struct {
	rows map[string]*metadata.Metadata
}

func newMemoryMetadata() *memoryMetadata {
	return &memoryMetadata{rows: map[string]*metadata.Metadata{}}
}

func (m *memoryMetadata) Create(_ context.Context, md *metadata.Metadata) error {
	c := *md
	m.rows[md.UPID] = &c
	return nil
}

func (m *memoryMetadata) FindByUPID(_ context.Context, upid string) (*metadata.Metadata, error) {
	md, ok := m.rows[upid]
	if !ok {
		return nil, metadata.ErrMetadataNotFound
	}
	c := *md
	return &c, nil
}

func (m *memoryMetadata) IncrementBillCounter(_ context.Context, upid string, delta int) error {
	md, ok := m.rows[upid]
	if !ok {
		md = &metadata.Metadata{UPID: upid, Module: metadata.ModuleFinance}
		m.rows[upid] = md
	}
	md.BillCount += delta
	if md.BillCount < 0 {
		md.BillCount = 0
	}
	return nil
}

func testBox(t *testing.T) *cryptox.Box {
	t.Helper()
	box, err := cryptox.NewBox(bytes.Repeat([]byte{0x11}, 32), bytes.Repeat([]byte{0x22}, 32))
	require.NoError(t, err)
	return box
}

// newTestUser stores a native account with one live session and returns the
// stored user and the session.
func newTestUser(t *testing.T, users *memoryUsers, svc *auth.Service, email string) (*auth.User, *auth.Session) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password@123"), bcrypt.MinCost)
	require.NoError(t, err)
	session, err := svc.NewSession()
	require.NoError(t, err)
	u := &auth.User{
		Email:    email,
		Name:     "Ada",
		Kind:     auth.KindNative,
		Native:   &auth.NativeCredentials{PasswordHash: string(hash)},
		Sessions: []auth.Session{session},
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u, &session
}

// withScope attaches an initialized request scope carrying the given
// identity, mirroring what the auth middleware does for real requests.
func withScope(t *testing.T, r *http.Request, user *auth.User, session *auth.Session, s *settings.Settings, profile *settings.Profile) *http.Request {
	t.Helper()
	ctx, _ := reqctx.New(r.Context(), r)
	if session != nil {
		require.NoError(t, reqctx.SetCurrentSession(ctx, session))
	}
	require.NoError(t, reqctx.SetCurrentUser(ctx, user, s, profile))
	return r.WithContext(ctx)
}

// decodeEnvelope unmarshals a recorded response body into the generic
// envelope shape.
func decodeEnvelope(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}
