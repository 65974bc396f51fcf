package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/server/models"
	"github.com/violetear/api/internal/server/repositories/profiles"
	"github.com/violetear/api/internal/server/repositories/reports"
	"github.com/violetear/api/internal/server/repositories/tasks"
	"github.com/violetear/api/internal/server/repositories/tokens"
	"github.com/violetear/api/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// store is an in-memory database. Transactions work on a clone that replaces
// the original on commit.
type store struct {
	mu sync.Mutex

	users    map[int64]models.User
	tokens   map[string]models.Token
	profiles map[int64]models.Profile
	reports  map[int64]models.Report
	tasks    map[int64]models.Task
	nextID   int64

	// fail maps "repo.Method" to an injected error.
	fail map[string]error
}

func newStore() *store {
	return &store{
		users:    map[int64]models.User{},
		tokens:   map[string]models.Token{},
		profiles: map[int64]models.Profile{},
		reports:  map[int64]models.Report{},
		tasks:    map[int64]models.Task{},
		fail:     map[string]error{},
	}
}

func (s *store) clone() *store {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := newStore()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.reports {
		c.reports[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	c.nextID = s.nextID
	c.fail = s.fail
	return c
}

func (s *store) replaceWith(c *store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.tokens, s.profiles = c.users, c.tokens, c.profiles
	s.reports, s.tasks, s.nextID = c.reports, c.tasks, c.nextID
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) injected(op string) error {
	return s.fail[op]
}

func (s *store) addProfile(name string) models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Profile{ID: s.id(), MachineName: name, HumanName: name, Module: name}
	s.profiles[p.ID] = p
	return p
}

func (s *store) counts() (nReports, nTasks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports), len(s.tasks)
}

// fakeDB marks the non-transactional handle; fakeTx carries a staged store.
type fakeDB struct{ dbx.DBTX }

type fakeTx struct {
	dbx.DBTX
	st *store
}

type fakeRunner struct {
	base  *store
	txMu  sync.Mutex
	calls int
}

func (r *fakeRunner) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.calls++

	if err := ctx.Err(); err != nil {
		return err
	}
	staged := r.base.clone()
	if err := fn(ctx, &fakeTx{st: staged}); err != nil {
		return err
	}
	if err := r.base.injected("tx.Commit"); err != nil {
		return err
	}
	r.base.replaceWith(staged)
	return nil
}

type fakeRepoManager struct {
	base *store
}

func (m *fakeRepoManager) pick(db dbx.DBTX) *store {
	if tx, ok := db.(*fakeTx); ok {
		return tx.st
	}
	return m.base
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository         { return &fakeUsers{m.pick(db)} }
func (m *fakeRepoManager) Tokens(db dbx.DBTX) tokens.Repository       { return &fakeTokens{m.pick(db)} }
func (m *fakeRepoManager) Profiles(db dbx.DBTX) profiles.Repository   { return &fakeProfiles{m.pick(db)} }
func (m *fakeRepoManager) Reports(db dbx.DBTX) reports.Repository     { return &fakeReports{m.pick(db)} }
func (m *fakeRepoManager) Tasks(db dbx.DBTX) tasks.Repository         { return &fakeTasks{m.pick(db)} }

type fakeUsers struct{ st *store }

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("users.Create"); err != nil {
		return nil, err
	}
	for _, existing := range f.st.users {
		if existing.UserName == u.UserName {
			return nil, common.ErrorConflict
		}
	}
	out := *u
	out.ID = f.st.id()
	f.st.users[out.ID] = out
	return &out, nil
}

func (f *fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("users.GetUserByLogin"); err != nil {
		return nil, err
	}
	for _, u := range f.st.users {
		if u.UserName == login {
			out := u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeTokens struct{ st *store }

func (f *fakeTokens) Create(_ context.Context, userID int64, token string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("tokens.Create"); err != nil {
		return err
	}
	if _, ok := f.st.users[userID]; !ok {
		return fmt.Errorf("db error: fk violation")
	}
	if _, dup := f.st.tokens[token]; dup {
		return common.ErrorConflict
	}
	f.st.tokens[token] = models.Token{ID: f.st.id(), UserID: userID, Token: token, CreatedWhen: time.Now()}
	return nil
}

func (f *fakeTokens) FindWithUser(_ context.Context, token string) (*models.Token, *models.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("tokens.FindWithUser"); err != nil {
		return nil, nil, err
	}
	t, ok := f.st.tokens[token]
	if !ok {
		return nil, nil, common.ErrorNotFound
	}
	u := f.st.users[t.UserID]
	return &t, &u, nil
}

func (f *fakeTokens) Delete(_ context.Context, token string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("tokens.Delete"); err != nil {
		return err
	}
	if _, ok := f.st.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(f.st.tokens, token)
	return nil
}

type fakeProfiles struct{ st *store }

func (f *fakeProfiles) List(context.Context) ([]models.Profile, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("profiles.List"); err != nil {
		return nil, err
	}
	return f.sorted(func(models.Profile) bool { return true }), nil
}

func (f *fakeProfiles) Resolve(_ context.Context, names []string, ids []int64) ([]models.Profile, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("profiles.Resolve"); err != nil {
		return nil, err
	}
	return f.sorted(func(p models.Profile) bool {
		for _, n := range names {
			if p.MachineName == n {
				return true
			}
		}
		for _, id := range ids {
			if p.ID == id {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeProfiles) sorted(keep func(models.Profile) bool) []models.Profile {
	var out []models.Profile
	for _, p := range f.st.profiles {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeReports struct{ st *store }

func (f *fakeReports) Create(_ context.Context, userID int64, multihash string, file []byte) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("reports.Create"); err != nil {
		return 0, err
	}
	r := models.Report{ID: f.st.id(), UserID: userID, CreatedWhen: time.Now(), FileMultihash: multihash, File: file, HasFile: file != nil}
	f.st.reports[r.ID] = r
	return r.ID, nil
}

func (f *fakeReports) owned(userID, reportID int64) (models.Report, error) {
	r, ok := f.st.reports[reportID]
	if !ok || r.UserID != userID {
		return models.Report{}, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakeReports) ListForUser(_ context.Context, userID int64) ([]models.Report, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("reports.ListForUser"); err != nil {
		return nil, err
	}
	var out []models.Report
	for _, r := range f.st.reports {
		if r.UserID == userID {
			r.File = nil
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeReports) GetForUser(_ context.Context, userID, reportID int64) (*models.Report, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("reports.GetForUser"); err != nil {
		return nil, err
	}
	r, err := f.owned(userID, reportID)
	if err != nil {
		return nil, err
	}
	r.File = nil
	return &r, nil
}

func (f *fakeReports) CheckOwner(_ context.Context, userID, reportID int64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("reports.CheckOwner"); err != nil {
		return err
	}
	_, err := f.owned(userID, reportID)
	return err
}

func (f *fakeReports) GetFileForUpdate(_ context.Context, userID, reportID int64) (*models.Report, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	r, err := f.owned(userID, reportID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (f *fakeReports) DiscardFile(_ context.Context, userID, reportID int64) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("reports.DiscardFile"); err != nil {
		return err
	}
	r, err := f.owned(userID, reportID)
	if err != nil {
		return err
	}
	r.File, r.HasFile = nil, false
	f.st.reports[reportID] = r
	return nil
}

type fakeTasks struct{ st *store }

func (f *fakeTasks) Create(_ context.Context, reportID, profileID int64, status string) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("tasks.Create"); err != nil {
		return 0, err
	}
	for _, t := range f.st.tasks {
		if t.ReportID == reportID && t.ProfileID == profileID {
			return 0, common.ErrorConflict
		}
	}
	t := models.Task{ID: f.st.id(), ReportID: reportID, ProfileID: profileID, CreatedWhen: time.Now(), Status: status}
	f.st.tasks[t.ID] = t
	return t.ID, nil
}

func (f *fakeTasks) ListForReport(_ context.Context, reportID int64) ([]models.Task, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if err := f.st.injected("tasks.ListForReport"); err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range f.st.tasks {
		if t.ReportID == reportID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (n *fakeNotifier) Notify(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type fakeArchive struct {
	puts      map[string][]byte
	putErr    error
	existsErr error
}

func (a *fakeArchive) Put(_ context.Context, multihash string, data []byte) error {
	if a.putErr != nil {
		return a.putErr
	}
	if a.puts == nil {
		a.puts = map[string][]byte{}
	}
	a.puts[multihash] = data
	return nil
}

func (a *fakeArchive) Exists(_ context.Context, multihash string) (bool, error) {
	if a.existsErr != nil {
		return false, a.existsErr
	}
	_, ok := a.puts[multihash]
	return ok, nil
}

func (a *fakeArchive) PresignGet(_ context.Context, multihash string) (string, error) {
	return "https://s3.example/reports/" + multihash + "?sig=x", nil
}

// env bundles a fresh store with deps pointing at it.
type env struct {
	st     *store
	runner *fakeRunner
	deps   Deps
}

func newEnv() *env {
	st := newStore()
	runner := &fakeRunner{base: st}
	return &env{
		st:     st,
		runner: runner,
		deps: Deps{
			DB:    fakeDB{},
			Tx:    runner,
			Repos: &fakeRepoManager{base: st},
		},
	}
}
