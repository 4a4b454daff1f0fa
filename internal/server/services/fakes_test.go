package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/cryptox"
	"github.com/dmitrijs2005/rustytech/internal/dbx"
	"github.com/dmitrijs2005/rustytech/internal/logging"
	"github.com/dmitrijs2005/rustytech/internal/server/mail"
	"github.com/dmitrijs2005/rustytech/internal/server/media"
	"github.com/dmitrijs2005/rustytech/internal/server/models"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/keywords"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/logins"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/posts"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/roles"
	"github.com/dmitrijs2005/rustytech/internal/server/repositories/users"
	"github.com/google/uuid"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func bufferLogger(buf *bytes.Buffer) logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(buf, nil)))
}

// --- users ---

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	err   error
	upErr error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*models.User{}} }

func (m *memUsers) put(u *models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	c := *u
	m.byID[u.ID] = &c
	return u
}

func (m *memUsers) get(id string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u.CreatedAt = time.Now()
	return m.put(u), nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.NormalizedEmail == email })
}

func (m *memUsers) GetByUserName(ctx context.Context, name string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.NormalizedUserName == name })
}

func (m *memUsers) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.VerificationToken == token })
}

func (m *memUsers) List(ctx context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.User
	for _, u := range m.byID {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memUsers) Update(ctx context.Context, u *models.User) error {
	if m.upErr != nil {
		return m.upErr
	}
	if m.get(u.ID) == nil {
		return common.ErrorNotFound
	}
	m.put(u)
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

// --- roles ---

type memRoles struct {
	roles     map[string]*models.Role
	userRoles map[string][]string
}

func newMemRoles() *memRoles {
	return &memRoles{roles: map[string]*models.Role{}, userRoles: map[string][]string{}}
}

func (m *memRoles) Create(ctx context.Context, r *models.Role) (*models.Role, error) {
	for _, x := range m.roles {
		if x.NormalizedName == r.NormalizedName {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.ID = uuid.NewString()
	m.roles[r.ID] = r
	return r, nil
}

func (m *memRoles) GetByID(ctx context.Context, id string) (*models.Role, error) {
	if r, ok := m.roles[id]; ok {
		return r, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memRoles) GetByName(ctx context.Context, name string) (*models.Role, error) {
	for _, r := range m.roles {
		if r.NormalizedName == name {
			return r, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memRoles) List(ctx context.Context) ([]*models.Role, error) {
	var out []*models.Role
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRoles) Delete(ctx context.Context, id string) error {
	if _, ok := m.roles[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.roles, id)
	return nil
}

func (m *memRoles) AddToUser(ctx context.Context, userID, roleID string) error {
	for _, id := range m.userRoles[userID] {
		if id == roleID {
			return nil
		}
	}
	m.userRoles[userID] = append(m.userRoles[userID], roleID)
	return nil
}

func (m *memRoles) RemoveFromUser(ctx context.Context, userID, roleID string) error {
	ids := m.userRoles[userID]
	for i, id := range ids {
		if id == roleID {
			m.userRoles[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memRoles) ListForUser(ctx context.Context, userID string) ([]*models.Role, error) {
	var out []*models.Role
	for _, id := range m.userRoles[userID] {
		out = append(out, m.roles[id])
	}
	return out, nil
}

// --- logins ---

type memLogins struct {
	items []*models.LoginInfo
	err   error
}

func (m *memLogins) Create(ctx context.Context, info *models.LoginInfo) error {
	if m.err != nil {
		return m.err
	}
	info.ID = uuid.NewString()
	m.items = append(m.items, info)
	return nil
}

// --- refresh tokens ---

type memRefresh struct {
	tokens    map[string]*models.RefreshToken
	findErr   error
	delErr    error
	createErr error
}

func newMemRefresh() *memRefresh { return &memRefresh{tokens: map[string]*models.RefreshToken{}} }

func (m *memRefresh) Create(ctx context.Context, t *models.RefreshToken) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.tokens[t.Token] = t
	return nil
}

func (m *memRefresh) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memRefresh) Delete(ctx context.Context, token string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.tokens, token)
	return nil
}

func (m *memRefresh) DeleteForUser(ctx context.Context, userID string) error {
	for k, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, k)
		}
	}
	return nil
}

func (m *memRefresh) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for k, t := range m.tokens {
		if t.Expired(now) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

// --- posts ---

type memPosts struct {
	byID map[string]*models.Post
	err  error
}

func newMemPosts() *memPosts { return &memPosts{byID: map[string]*models.Post{}} }

func (m *memPosts) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	p.ID = uuid.NewString()
	c := *p
	m.byID[p.ID] = &c
	return p, nil
}

func (m *memPosts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if p, ok := m.byID[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memPosts) list(match func(*models.Post) bool) []*models.Post {
	var out []*models.Post
	for _, p := range m.byID {
		if match(p) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memPosts) List(ctx context.Context, published bool) ([]*models.Post, error) {
	return m.list(func(p *models.Post) bool { return p.IsPublished == published }), nil
}

func (m *memPosts) ListAll(ctx context.Context) ([]*models.Post, error) {
	return m.list(func(*models.Post) bool { return true }), nil
}

func (m *memPosts) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	return m.list(func(p *models.Post) bool { return p.UserID == userID }), nil
}

func (m *memPosts) Update(ctx context.Context, p *models.Post) error {
	cur, ok := m.byID[p.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Title, cur.Content, cur.PlainTextContent, cur.UpdatedAt = p.Title, p.Content, p.PlainTextContent, p.UpdatedAt
	return nil
}

func (m *memPosts) TogglePublished(ctx context.Context, id string) (bool, error) {
	p, ok := m.byID[id]
	if !ok {
		return false, common.ErrorNotFound
	}
	p.IsPublished = !p.IsPublished
	return p.IsPublished, nil
}

func (m *memPosts) Delete(ctx context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memPosts) Search(ctx context.Context, query string) ([]*models.Post, error) {
	q := strings.ToLower(query)
	return m.list(func(p *models.Post) bool {
		return p.IsPublished && strings.Contains(strings.ToLower(p.Title), q)
	}), nil
}

// --- keywords ---

type memKeywords struct {
	byText map[string]*models.Keyword
	links  map[string][]string
}

func newMemKeywords() *memKeywords {
	return &memKeywords{byText: map[string]*models.Keyword{}, links: map[string][]string{}}
}

func (m *memKeywords) GetOrCreate(ctx context.Context, text string) (*models.Keyword, error) {
	if k, ok := m.byText[text]; ok {
		return k, nil
	}
	k := &models.Keyword{ID: uuid.NewString(), Text: text}
	m.byText[text] = k
	return k, nil
}

func (m *memKeywords) List(ctx context.Context) ([]*models.Keyword, error) {
	var out []*models.Keyword
	for _, k := range m.byText {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out, nil
}

func (m *memKeywords) ListForPost(ctx context.Context, postID string) ([]*models.Keyword, error) {
	var out []*models.Keyword
	for _, id := range m.links[postID] {
		for _, k := range m.byText {
			if k.ID == id {
				out = append(out, k)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out, nil
}

func (m *memKeywords) Attach(ctx context.Context, postID, keywordID string) error {
	for _, id := range m.links[postID] {
		if id == keywordID {
			return nil
		}
	}
	m.links[postID] = append(m.links[postID], keywordID)
	return nil
}

func (m *memKeywords) Detach(ctx context.Context, postID, keywordID string) error {
	ids := m.links[postID]
	for i, id := range ids {
		if id == keywordID {
			m.links[postID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	users    *memUsers
	roles    *memRoles
	logins   *memLogins
	refresh  *memRefresh
	posts    *memPosts
	keywords *memKeywords
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:    newMemUsers(),
		roles:    newMemRoles(),
		logins:   &memLogins{},
		refresh:  newMemRefresh(),
		posts:    newMemPosts(),
		keywords: newMemKeywords(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error      { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                  { return m.users }
func (m *fakeRepoManager) Roles(dbx.DBTX) roles.Repository                  { return m.roles }
func (m *fakeRepoManager) Logins(dbx.DBTX) logins.Repository                { return m.logins }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository  { return m.refresh }
func (m *fakeRepoManager) Posts(dbx.DBTX) posts.Repository                  { return m.posts }
func (m *fakeRepoManager) Keywords(dbx.DBTX) keywords.Repository            { return m.keywords }

// verifiedUser stores a confirmed account with the given password.
func (m *fakeRepoManager) verifiedUser(email, name, password string) *models.User {
	salt := cryptox.NewSalt()
	now := time.Now().Add(-time.Hour)
	return m.users.put(&models.User{
		Email:              email,
		NormalizedEmail:    normalize(email),
		UserName:           name,
		NormalizedUserName: normalize(name),
		PasswordSalt:       salt,
		PasswordHash:       cryptox.HashPassword(password, salt),
		VerificationToken:  "verify-" + name,
		VerifiedAt:         &now,
		EmailConfirmed:     true,
	})
}

// --- mail and media ---

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeMedia struct {
	n          int
	err        error
	failAfter  int
	presignErr error
	deleted    []string
	deleteErr  error
}

// upload counts a stored object and fails once failAfter objects exist.
func (f *fakeMedia) upload() error {
	if f.err != nil {
		return f.err
	}
	if f.failAfter > 0 && f.n >= f.failAfter {
		return errBoom{}
	}
	f.n++
	return nil
}

func (f *fakeMedia) UploadImage(ctx context.Context, data []byte) (*media.Uploaded, error) {
	if err := f.upload(); err != nil {
		return nil, err
	}
	key := "media/images/" + uuid.NewString() + ".png"
	return &media.Uploaded{Key: key, URL: "https://cdn/" + key, Image: &media.ImageMetadata{Width: 1, Height: 1, Format: "png"}}, nil
}

func (f *fakeMedia) UploadVideo(ctx context.Context, name string, data []byte) (*media.Uploaded, error) {
	if err := f.upload(); err != nil {
		return nil, err
	}
	key := "media/videos/" + name
	return &media.Uploaded{Key: key, URL: "https://cdn/" + key, Video: &media.VideoMetadata{Name: name, Size: int64(len(data))}}, nil
}

func (f *fakeMedia) PresignGet(ctx context.Context, key string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://cdn/" + key, nil
}

func (f *fakeMedia) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}
