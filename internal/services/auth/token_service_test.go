package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modaliv/modaliv-backend/internal/config"
	"github.com/modaliv/modaliv-backend/internal/models"
)

type fakeTokenStore struct {
	mu         sync.Mutex
	records    map[string]*models.RefreshToken
	failUpdate bool
	failCount  bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{records: map[string]*models.RefreshToken{}}
}

func (f *fakeTokenStore) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[token]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (f *fakeTokenStore) ListActiveByUser(_ context.Context, userID string, now time.Time) ([]models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RefreshToken
	for _, record := range f.records {
		if record.UserID == userID && record.IsActive(now) {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeTokenStore) CountActiveByUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	if f.failCount {
		return 0, errors.New("storage down")
	}
	active, err := f.ListActiveByUser(ctx, userID, now)
	return int64(len(active)), err
}

func (f *fakeTokenStore) Add(_ context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *token
	f.records[token.Token] = &clone
	return nil
}

func (f *fakeTokenStore) Update(_ context.Context, token *models.RefreshToken) error {
	if f.failUpdate {
		return errors.New("storage down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *token
	f.records[token.Token] = &clone
	return nil
}

func (f *fakeTokenStore) UpdateMany(ctx context.Context, tokens []models.RefreshToken) error {
	for i := range tokens {
		if err := f.Update(ctx, &tokens[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTokenStore) RemoveStale(_ context.Context, expiredBefore, revokedBefore time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for token, record := range f.records {
		stale := record.ExpiresAt.Before(expiredBefore) ||
			(record.Revoked && record.RevokedAt != nil && record.RevokedAt.Before(revokedBefore))
		if stale {
			delete(f.records, token)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeTokenStore) InTransaction(_ context.Context, fn func(RefreshTokenStore) error) error {
	f.mu.Lock()
	snapshot := make(map[string]*models.RefreshToken, len(f.records))
	for token, record := range f.records {
		clone := *record
		snapshot[token] = &clone
	}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.records = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

type fakeUserStore struct {
	users map[string]*models.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, user := range f.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Username
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) Update(_ context.Context, user *models.User) error {
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) List(_ context.Context, _, _ int, _ string) ([]models.User, int64, error) {
	var out []models.User
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, int64(len(out)), nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:               []byte("test-secret"),
		JWTIssuer:               "modaliv-test",
		JWTAudience:             "modaliv-storefront",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTL:         7 * 24 * time.Hour,
		RefreshTokenRememberTTL: 30 * 24 * time.Hour,
		MaxTokensPerUser:        2,
		MaxTokensSystemUser:     5,
		TokenRetention:          14 * 24 * time.Hour,
	}
}

func newTestTokenService(t *testing.T) (*TokenService, *fakeTokenStore, *fakeUserStore) {
	t.Helper()
	store := newFakeTokenStore()
	users := &fakeUserStore{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "ada@example.com", Username: "ada", IsActive: true},
	}}
	return NewTokenService(store, users, testConfig()), store, users
}

func TestIssueAndValidate(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	record, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(record.Token) != models.RefreshTokenLength {
		t.Fatalf("expected %d-char token, got %d", models.RefreshTokenLength, len(record.Token))
	}
	if !tokenFormat.MatchString(record.Token) {
		t.Fatalf("token is not alphanumeric: %q", record.Token)
	}
	if !record.ExpiresAt.After(time.Now()) {
		t.Fatal("expiry must be strictly in the future at creation")
	}

	user, got, err := svc.Validate(ctx, record.Token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("expected owner user-1, got %s", user.ID)
	}
	if got.Token != record.Token {
		t.Fatal("validated record does not match issued token")
	}
}

func TestIssueRememberMeExtendsExpiry(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	short, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	long, err := svc.Issue(ctx, "user-1", "10.0.0.1", true, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !long.ExpiresAt.After(short.ExpiresAt) {
		t.Fatal("remember-me token must outlive the regular token")
	}
}

func TestIssueRequiresArguments(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "", "10.0.0.1", false, false); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Issue(ctx, "user-1", "", false, false); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestValidateUnknownTokenNotFound(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	unknown := strings.Repeat("A", models.RefreshTokenLength)

	_, _, err := svc.Validate(context.Background(), unknown)
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestValidateMalformedBeforeLookup(t *testing.T) {
	svc, _, _ := newTestTokenService(t)

	for _, token := range []string{"", "short", strings.Repeat("A", models.RefreshTokenLength-1), strings.Repeat("A", models.RefreshTokenLength-1) + "!"} {
		if _, _, err := svc.Validate(context.Background(), token); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("token %q: expected ErrTokenMalformed, got %v", token, err)
		}
	}
}

func TestValidateExpired(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	record, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, _, err := svc.Validate(ctx, record.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRevokeIdempotent(t *testing.T) {
	svc, store, _ := newTestTokenService(t)
	ctx := context.Background()

	record, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	status, err := svc.Revoke(ctx, record.Token, "10.0.0.2", "Suspicious activity")
	if err != nil || status != RevokeStatusRevoked {
		t.Fatalf("first revoke: status %v, err %v", status, err)
	}
	first, _ := store.FindByToken(ctx, record.Token)
	if !first.Revoked || first.RevokedAt == nil || first.RevokedByIP != "10.0.0.2" {
		t.Fatalf("revocation fields not set: %+v", first)
	}

	status, err = svc.Revoke(ctx, record.Token, "10.0.0.3", "Again")
	if err != nil || status != RevokeStatusAlreadyRevoked {
		t.Fatalf("second revoke: status %v, err %v", status, err)
	}
	second, _ := store.FindByToken(ctx, record.Token)
	if !second.RevokedAt.Equal(*first.RevokedAt) {
		t.Fatal("second revoke must not change the revoked timestamp")
	}
	if second.RevokedByIP != "10.0.0.2" {
		t.Fatal("second revoke must not touch the record")
	}
}

func TestRotateChainsAndInvalidatesOld(t *testing.T) {
	svc, store, _ := newTestTokenService(t)
	ctx := context.Background()

	old, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rotated, err := svc.Rotate(ctx, old.Token, "10.0.0.9", false, false)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if rotated.Token == old.Token {
		t.Fatal("rotation must never reuse the old token string")
	}

	if _, _, err := svc.Validate(ctx, old.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("old token after rotation: expected ErrTokenRevoked, got %v", err)
	}
	if _, _, err := svc.Validate(ctx, rotated.Token); err != nil {
		t.Fatalf("new token must validate: %v", err)
	}

	oldRecord, _ := store.FindByToken(ctx, old.Token)
	if oldRecord.ReplacedByToken != rotated.Token {
		t.Fatalf("replacement reference not chained: %q", oldRecord.ReplacedByToken)
	}
	if oldRecord.RevocationReason != RevocationReasonRotated {
		t.Fatalf("expected rotation reason, got %q", oldRecord.RevocationReason)
	}
	if !oldRecord.IsReplaced() {
		t.Fatal("old record must report replaced")
	}
}

func TestRotateAtCapSucceeds(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Rotation replaces a slot rather than consuming a new one.
	if _, err := svc.Rotate(ctx, first.Token, "10.0.0.1", false, false); err != nil {
		t.Fatalf("Rotate at cap failed: %v", err)
	}
}

func TestRotateRollsBackOnStorageFailure(t *testing.T) {
	svc, store, _ := newTestTokenService(t)
	ctx := context.Background()

	old, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	store.failUpdate = true
	if _, err := svc.Rotate(ctx, old.Token, "10.0.0.1", false, false); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected ErrOperationFailed, got %v", err)
	}
	store.failUpdate = false

	// A partially-rotated state must never be observable.
	if _, _, err := svc.Validate(ctx, old.Token); err != nil {
		t.Fatalf("old token must remain active after rollback: %v", err)
	}
	count, _ := store.CountActiveByUser(ctx, "user-1", time.Now())
	if count != 1 {
		t.Fatalf("expected 1 active token after rollback, got %d", count)
	}
}

func TestRotateUnknownToken(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	unknown := strings.Repeat("B", models.RefreshTokenLength)

	if _, err := svc.Rotate(context.Background(), unknown, "10.0.0.1", false, false); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestRevokeAllForUserHonorsException(t *testing.T) {
	svc, store, _ := newTestTokenService(t)
	ctx := context.Background()

	keep, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	other, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	count, err := svc.RevokeAllForUser(ctx, "user-1", "10.0.0.1", "Logout everywhere", keep.Token)
	if err != nil {
		t.Fatalf("RevokeAllForUser failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 revocation, got %d", count)
	}

	if _, _, err := svc.Validate(ctx, keep.Token); err != nil {
		t.Fatalf("excepted token must stay active: %v", err)
	}
	if _, _, err := svc.Validate(ctx, other.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("other token must be revoked, got %v", err)
	}

	// No active tokens left besides the exception: repeat returns zero.
	count, err = svc.RevokeAllForUser(ctx, "user-1", "10.0.0.1", "Logout everywhere", keep.Token)
	if err != nil || count != 0 {
		t.Fatalf("expected 0 revocations without error, got %d, %v", count, err)
	}
	_ = store
}

func TestIssueCapConflictThenSuccessAfterRevoke(t *testing.T) {
	svc, _, _ := newTestTokenService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false); !errors.Is(err, ErrSessionLimitExceeded) {
		t.Fatalf("expected ErrSessionLimitExceeded at cap, got %v", err)
	}

	if _, err := svc.Revoke(ctx, first.Token, "10.0.0.1", "Make room"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false); err != nil {
		t.Fatalf("Issue after revoke failed: %v", err)
	}
}

func TestSystemUserGetsLargerCap(t *testing.T) {
	svc, _, users := newTestTokenService(t)
	ctx := context.Background()
	users.users["sys-1"] = &models.User{ID: "sys-1", Username: "feedsync", IsActive: true, IsSystem: true}

	for i := 0; i < 5; i++ {
		if _, err := svc.Issue(ctx, "sys-1", "10.0.0.1", false, true); err != nil {
			t.Fatalf("system issue %d failed: %v", i, err)
		}
	}
	if _, err := svc.Issue(ctx, "sys-1", "10.0.0.1", false, true); !errors.Is(err, ErrSessionLimitExceeded) {
		t.Fatalf("expected system cap at 5, got %v", err)
	}
}

func TestStorageFailureIsHidden(t *testing.T) {
	svc, store, _ := newTestTokenService(t)
	store.failCount = true

	_, err := svc.Issue(context.Background(), "user-1", "10.0.0.1", false, false)
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected generic ErrOperationFailed, got %v", err)
	}
	if strings.Contains(err.Error(), "storage down") {
		t.Fatal("storage details must not leak to the caller")
	}
}

func TestCleanupRemovesOnlyStaleTokens(t *testing.T) {
	svc, store, _ := newTestTokenService(t)
	ctx := context.Background()

	active, err := svc.Issue(ctx, "user-1", "10.0.0.1", false, false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	now := time.Now()
	longAgo := now.Add(-30 * 24 * time.Hour)
	expired := &models.RefreshToken{Token: strings.Repeat("C", models.RefreshTokenLength), UserID: "user-1", ExpiresAt: longAgo}
	revoked := &models.RefreshToken{Token: strings.Repeat("D", models.RefreshTokenLength), UserID: "user-1", ExpiresAt: now.Add(time.Hour), Revoked: true, RevokedAt: &longAgo}
	freshRevoked := &models.RefreshToken{Token: strings.Repeat("E", models.RefreshTokenLength), UserID: "user-1", ExpiresAt: now.Add(time.Hour), Revoked: true, RevokedAt: &now}
	for _, record := range []*models.RefreshToken{expired, revoked, freshRevoked} {
		if err := store.Add(ctx, record); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	removed, err := svc.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 stale tokens removed, got %d", removed)
	}
	if rec, _ := store.FindByToken(ctx, active.Token); rec == nil {
		t.Fatal("active token must survive cleanup")
	}
	if rec, _ := store.FindByToken(ctx, freshRevoked.Token); rec == nil {
		t.Fatal("recently revoked token must survive cleanup until retention passes")
	}
}
