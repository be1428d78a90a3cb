package session

import (
	"context"

	"go.uber.org/zap"

	"wallet-client/internal/model"
)

// CheckTwoFactor mirrors the backend's 2FA flag into the session and the store.
func (s *Session) CheckTwoFactor(ctx context.Context) (bool, error) {
	token, err := s.token()
	if err != nil {
		return false, err
	}
	enabled, err := s.backend.Check2FA(ctx, token)
	if err != nil {
		return false, err
	}
	s.setTwoFactor(ctx, enabled)
	return enabled, nil
}

// Enable2FA starts enrolment. The setup is returned for display only; the
// flag flips once Deploy2FA succeeds.
func (s *Session) Enable2FA(ctx context.Context) (*model.TwoFactorSetup, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	setup, err := s.backend.Enable2FA(ctx, token)
	if err != nil {
		return nil, err
	}
	s.log.Info("2FA enrolment started", zap.Any("setup", *setup))
	return setup, nil
}

// Deploy2FA confirms enrolment with the first authenticator code.
func (s *Session) Deploy2FA(ctx context.Context, code string) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	if _, err := s.backend.Deploy2FA(ctx, token, code); err != nil {
		return err
	}
	s.setTwoFactor(ctx, true)
	s.log.Info("2FA enabled")
	return nil
}

// Disable2FA is itself sensitive: with 2FA on it waits for Verify2FA.
func (s *Session) Disable2FA(ctx context.Context) (Result, error) {
	token, err := s.token()
	if err != nil {
		return Result{}, err
	}
	return s.guard.Do(ctx, "disable2FA", func(ctx context.Context) (any, error) {
		if err := s.backend.Disable2FA(ctx, token); err != nil {
			return nil, err
		}
		s.setTwoFactor(ctx, false)
		s.log.Info("2FA disabled")
		return true, nil
	})
}

// Verify2FA submits code for the parked sensitive operation and runs it on
// success. On failure the operation stays parked and is not invoked.
func (s *Session) Verify2FA(ctx context.Context, code string) (Result, error) {
	return s.guard.Resume(ctx, code)
}

// VerifyLogin is the plain code check shown after logging in to an account
// with 2FA on.
func (s *Session) VerifyLogin(ctx context.Context, code string) error {
	return s.verifyCode(ctx, code)
}

func (s *Session) verifyCode(ctx context.Context, code string) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	_, err = s.backend.Verify2FA(ctx, token, code)
	return err
}

func (s *Session) twoFactorOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TwoFactorEnabled
}

func (s *Session) setTwoFactor(ctx context.Context, enabled bool) {
	s.mu.Lock()
	s.state.TwoFactorEnabled = enabled
	s.mu.Unlock()
	if err := s.prefs.SetTwoFactorEnabled(ctx, enabled); err != nil {
		s.log.Warn("could not persist 2FA flag", zap.Error(err))
	}
}
