package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hostara-cloud/internal/config"
	"github.com/hostara-cloud/internal/constants"
	"github.com/hostara-cloud/internal/models"
	"github.com/hostara-cloud/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newUserAuthTestService(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "user-auth-test-secret"
	cfg.UserJWT.ExpireHours = 2
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:     8,
		RequireNumber: true,
	}
	return NewUserAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterIssuesTokenAndReferralCode(t *testing.T) {
	svc, _ := newUserAuthTestService(t)

	user, token, expiresAt, err := svc.Register("  New.User@Example.COM ", "sup3rsecret", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "new.user@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.DisplayName != "new.user" {
		t.Fatalf("expected nickname from email, got %s", user.DisplayName)
	}
	if len(user.ReferralCode) != 8 {
		t.Fatalf("expected 8-char referral code, got %q", user.ReferralCode)
	}
	if user.Status != constants.UserStatusActive {
		t.Fatalf("expected active user, got %s", user.Status)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestRegisterFixesReferralChain(t *testing.T) {
	svc, db := newUserAuthTestService(t)

	a, _, _, err := svc.Register("a@example.com", "sup3rsecret", "")
	if err != nil {
		t.Fatalf("register a failed: %v", err)
	}
	b, _, _, err := svc.Register("b@example.com", "sup3rsecret", a.ReferralCode)
	if err != nil {
		t.Fatalf("register b failed: %v", err)
	}
	c, _, _, err := svc.Register("c@example.com", "sup3rsecret", b.ReferralCode)
	if err != nil {
		t.Fatalf("register c failed: %v", err)
	}
	d, _, _, err := svc.Register("d@example.com", "sup3rsecret", c.ReferralCode)
	if err != nil {
		t.Fatalf("register d failed: %v", err)
	}

	if d.ReferredByL1 == nil || *d.ReferredByL1 != c.ID {
		t.Fatalf("expected L1=%d, got %v", c.ID, d.ReferredByL1)
	}
	if d.ReferredByL2 == nil || *d.ReferredByL2 != b.ID {
		t.Fatalf("expected L2=%d, got %v", b.ID, d.ReferredByL2)
	}
	if d.ReferredByL3 == nil || *d.ReferredByL3 != a.ID {
		t.Fatalf("expected L3=%d, got %v", a.ID, d.ReferredByL3)
	}

	var reloaded models.User
	if err := db.First(&reloaded, c.ID).Error; err != nil {
		t.Fatalf("reload c failed: %v", err)
	}
	if reloaded.TotalReferrals != 1 {
		t.Fatalf("expected 1 direct referral on c, got %d", reloaded.TotalReferrals)
	}

	// 推荐码大小写不敏感
	e, _, _, err := svc.Register("e@example.com", "sup3rsecret", lowercase(c.ReferralCode))
	if err != nil {
		t.Fatalf("register e failed: %v", err)
	}
	if e.ReferredByL1 == nil || *e.ReferredByL1 != c.ID {
		t.Fatalf("expected case-insensitive referral match, got %v", e.ReferredByL1)
	}
}

func lowercase(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserAuthTestService(t)

	if _, _, _, err := svc.Register("not-an-email", "sup3rsecret", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, _, _, err := svc.Register("weak@example.com", "short1", ""); err == nil {
		t.Fatal("expected password policy rejection")
	}
	if _, _, _, err := svc.Register("nonum@example.com", "longenoughpass", ""); err == nil {
		t.Fatal("expected rejection without digit")
	}

	if _, _, _, err := svc.Register("dup@example.com", "sup3rsecret", ""); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, _, _, err := svc.Register("DUP@example.com", "sup3rsecret", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	if _, _, _, err := svc.Register("ref@example.com", "sup3rsecret", "NOSUCHCO"); !errors.Is(err, ErrReferralCodeInvalid) {
		t.Fatalf("expected ErrReferralCodeInvalid, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, db := newUserAuthTestService(t)

	user, _, _, err := svc.Register("login@example.com", "sup3rsecret", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	got, token, _, err := svc.Login("login@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if got.ID != user.ID || token == "" {
		t.Fatalf("unexpected login result: %+v", got)
	}
	if got.LastLoginAt == nil {
		t.Fatal("expected last_login_at to be set")
	}

	if _, _, _, err := svc.Login("login@example.com", "wrongpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("ghost@example.com", "sup3rsecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := svc.Login("login@example.com", "sup3rsecret"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, db := newUserAuthTestService(t)

	user, _, _, err := svc.Register("change@example.com", "sup3rsecret", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "wrongpass1", "an0thersecret"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "sup3rsecret", "short1"); err == nil {
		t.Fatal("expected policy rejection for new password")
	}
	if err := svc.ChangePassword(user.ID, "sup3rsecret", "an0thersecret"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	// 改密后旧 token 全量失效
	if reloaded.TokenVersion != user.TokenVersion+1 || reloaded.TokenInvalidBefore == nil {
		t.Fatalf("expected token invalidation markers, got %+v", reloaded)
	}

	if _, _, _, err := svc.Login("change@example.com", "an0thersecret"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, _, err := svc.Login("change@example.com", "sup3rsecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must be rejected, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newUserAuthTestService(t)

	user, _, _, err := svc.Register("profile@example.com", "sup3rsecret", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.UpdateProfile(user.ID, nil, nil); !errors.Is(err, ErrProfileEmpty) {
		t.Fatalf("expected ErrProfileEmpty, got %v", err)
	}
	blank := "   "
	if _, err := svc.UpdateProfile(user.ID, &blank, nil); !errors.Is(err, ErrProfileEmpty) {
		t.Fatalf("expected ErrProfileEmpty for blank nickname, got %v", err)
	}

	nickname := "  Ops Lead  "
	locale := "hi-IN"
	updated, err := svc.UpdateProfile(user.ID, &nickname, &locale)
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.DisplayName != "Ops Lead" || updated.Locale != "hi-IN" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
}
