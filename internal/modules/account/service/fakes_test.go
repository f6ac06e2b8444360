package service

import (
	"context"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/handchatter/internal/entity"
	session "anoa.com/handchatter/internal/modules/session/service"
	signupRepo "anoa.com/handchatter/internal/modules/signup/repository"
	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory AccountRepository enforcing the same unique
// constraints as the database.
type fakeRepo struct {
	mu       sync.Mutex
	next     uint
	accounts map[uint]*entity.Account
	err      error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: map[uint]*entity.Account{}}
}

func (r *fakeRepo) find(match func(*entity.Account) bool) (*entity.Account, error) {
	if r.err != nil {
		return nil, r.err
	}
	for idx := uint(1); idx <= r.next; idx++ {
		if a, ok := r.accounts[idx]; ok && match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *fakeRepo) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, other := range r.accounts {
		if other.LoginID == a.LoginID || other.Nickname == a.Nickname {
			return apperror.ErrConflict
		}
	}
	r.next++
	a.Idx = r.next
	a.CreatedAt = time.Now()
	cp := *a
	r.accounts[a.Idx] = &cp
	return nil
}

func (r *fakeRepo) FindByIdx(_ context.Context, idx uint) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(a *entity.Account) bool { return a.Idx == idx })
}

func (r *fakeRepo) FindByLoginID(_ context.Context, role entity.Role, loginID string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(a *entity.Account) bool { return a.Role == role && a.LoginID == loginID })
}

func (r *fakeRepo) FindByEmail(_ context.Context, email string) ([]entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var students, tutors []entity.Account
	for idx := uint(1); idx <= r.next; idx++ {
		a, ok := r.accounts[idx]
		if !ok || a.Email != email {
			continue
		}
		if a.Role == entity.RoleStudent {
			students = append(students, *a)
		} else {
			tutors = append(tutors, *a)
		}
	}
	return append(students, tutors...), nil
}

func (r *fakeRepo) FindByLoginIDAndEmail(_ context.Context, loginID, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(a *entity.Account) bool { return a.LoginID == loginID && a.Email == email })
}

func (r *fakeRepo) FindByProvider(_ context.Context, provider, providerID string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(a *entity.Account) bool {
		return a.Provider == provider && a.ProviderID != nil && *a.ProviderID == providerID
	})
}

func (r *fakeRepo) ExistsLoginID(_ context.Context, loginID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.find(func(a *entity.Account) bool { return a.LoginID == loginID })
	if err == apperror.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeRepo) ExistsNickname(_ context.Context, nickname string, excludeIdx uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.find(func(a *entity.Account) bool { return a.Nickname == nickname && a.Idx != excludeIdx })
	if err == apperror.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeRepo) UpdateProfile(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[a.Idx]
	if !ok {
		return apperror.ErrNotFound
	}
	stored.Nickname = a.Nickname
	stored.ProfileImg = a.ProfileImg
	stored.Description = a.Description
	stored.Price = a.Price
	stored.DesVideo = a.DesVideo
	stored.Level = a.Level
	return nil
}

func (r *fakeRepo) UpdatePassword(_ context.Context, idx uint, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[idx]
	if !ok {
		return apperror.ErrNotFound
	}
	stored.PasswordHash = hash
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, idx uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[idx]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.accounts, idx)
	return nil
}

func (r *fakeRepo) FindTutors(_ context.Context, query string) ([]entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Account
	for idx := uint(1); idx <= r.next; idx++ {
		a, ok := r.accounts[idx]
		if ok && a.IsTutor() && strings.Contains(strings.ToLower(a.Description), strings.ToLower(query)) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) Ping(context.Context) error { return nil }

// seed stores an account with a hashed password and returns it.
func (r *fakeRepo) seed(t *testing.T, role entity.Role, loginID, nickname, plain, email string) *entity.Account {
	t.Helper()
	hash, err := password.Hash(plain)
	require.NoError(t, err)
	a := &entity.Account{Role: role, LoginID: loginID, Nickname: nickname, PasswordHash: hash, Email: email,
		Provider: entity.ProviderLocal, ProfileImg: entity.DefaultProfileImg}
	require.NoError(t, r.Create(context.Background(), a))
	return a
}

type fakeIndex struct {
	indexed map[uint]entity.Account
	deleted []uint
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uint]entity.Account{}}
}

func (f *fakeIndex) IndexTutor(a *entity.Account) error {
	f.indexed[a.Idx] = *a
	return nil
}

func (f *fakeIndex) DeleteTutor(idx uint) error {
	f.deleted = append(f.deleted, idx)
	delete(f.indexed, idx)
	return nil
}

func (f *fakeIndex) GenerateSearchToken() (string, error) { return "search-token", nil }

type fakeImages struct {
	uploaded []string
	deleted  []string
}

func (f *fakeImages) UploadImage(_ context.Context, r io.Reader, fileName string) (string, error) {
	_, _ = io.ReadAll(r)
	url := "https://res.cloudinary.com/demo/image/upload/v1/hc/profiles/" + fileName
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeImages) DeleteImage(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeDocs struct {
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeDocs) UploadDocument(_ context.Context, r io.Reader, fileName, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.ReadAll(r)
	key := "credentials/" + fileName
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeDocs) DeleteDocument(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type env struct {
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	repo     *fakeRepo
	sessions session.SessionService
	tickets  signupRepo.TicketStore
	index    *fakeIndex
	images   *fakeImages
	docs     *fakeDocs
	mail     *fakeMailer
}

func newEnv(t *testing.T) *env {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &env{
		mr:       mr,
		rdb:      rdb,
		repo:     newFakeRepo(),
		sessions: session.NewSessionService(rdb, "secret", time.Hour),
		tickets:  signupRepo.NewTicketStore(rdb, 30*time.Minute),
		index:    newFakeIndex(),
		images:   &fakeImages{},
		docs:     &fakeDocs{},
		mail:     &fakeMailer{},
	}
}

func (e *env) recoveryService() RecoveryService {
	return NewRecoveryService(e.repo, e.sessions, e.rdb, e.mail, "http://front.test/resetPassword")
}

func (e *env) accountService(requireTicket bool) AccountService {
	return NewAccountService(e.repo, e.sessions, e.tickets, e.index, e.images, e.docs, Options{RequireTicket: requireTicket})
}

// readyTicket issues a ticket that passed both duplicate checks and email
// verification for the given values.
func (e *env) readyTicket(t *testing.T, id, nickname, email string) string {
	t.Helper()
	ctx := context.Background()
	ticket, err := e.tickets.Issue(ctx)
	require.NoError(t, err)
	require.NoError(t, e.tickets.MarkChecked(ctx, ticket, signupRepo.FieldID, id))
	require.NoError(t, e.tickets.MarkChecked(ctx, ticket, signupRepo.FieldNickname, nickname))
	require.NoError(t, e.tickets.MarkEmailVerified(ctx, ticket, email))
	return ticket
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var resetLinkToken = regexp.MustCompile(`token=([0-9a-f-]{36})`)

// lastResetToken reads the token out of the most recent reset mail.
func (m *fakeMailer) lastResetToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	match := resetLinkToken.FindStringSubmatch(m.sent[len(m.sent)-1].body)
	require.Len(t, match, 2, "mail carries no reset link")
	return match[1]
}
