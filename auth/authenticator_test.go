package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libopenstorage/keymaster"
	"github.com/libopenstorage/keymaster/auth"
	"github.com/libopenstorage/keymaster/auth/fake"
	"github.com/libopenstorage/keymaster/auth/mock"
)

const reason = "Access the secret for mykey"

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func getMockPlatform(t *testing.T) *mock.MockPlatform {
	ctrl := gomock.NewController(t)
	return mock.NewMockPlatform(ctrl)
}

func replyWith(ok bool, err error) func(auth.Challenge, auth.Reply) {
	return func(_ auth.Challenge, reply auth.Reply) {
		go reply(ok, err)
	}
}

func TestStrongSucceeds(t *testing.T) {
	p := getMockPlatform(t)
	p.EXPECT().CanEvaluate(auth.Strong).Return(nil).Times(1)
	p.EXPECT().
		Evaluate(auth.Challenge{Method: auth.Strong, Reason: reason}, gomock.Any()).
		Do(replyWith(true, nil)).
		Times(1)

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(context.Background(), reason)
	assert.True(t, outcome.Succeeded)
	assert.Empty(t, outcome.Diagnostic)
	assert.NoError(t, outcome.Err())
}

func TestStrongFailsFallsBackToWeak(t *testing.T) {
	p := getMockPlatform(t)
	gomock.InOrder(
		p.EXPECT().CanEvaluate(auth.Strong).Return(nil),
		p.EXPECT().
			Evaluate(auth.Challenge{Method: auth.Strong, Reason: reason}, gomock.Any()).
			Do(replyWith(false, auth.ErrUserCancelled)),
		p.EXPECT().CanEvaluate(auth.Weak).Return(nil),
		p.EXPECT().
			Evaluate(auth.Challenge{Method: auth.Weak, Reason: reason}, gomock.Any()).
			Do(replyWith(true, nil)),
	)

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(context.Background(), reason)
	assert.True(t, outcome.Succeeded)
}

func TestStrongFailsWithoutFallback(t *testing.T) {
	p := getMockPlatform(t)
	gomock.InOrder(
		p.EXPECT().CanEvaluate(auth.Strong).Return(nil),
		p.EXPECT().
			Evaluate(gomock.Any(), gomock.Any()).
			Do(replyWith(false, errors.New("verify-no-match"))),
		p.EXPECT().CanEvaluate(auth.Weak).Return(auth.ErrMethodUnavailable),
	)

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(context.Background(), reason)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, "fallback authentication not available: verify-no-match", outcome.Diagnostic)
	assert.True(t, keymaster.IsKind(outcome.Err(), keymaster.KindAuthentication))
}

func TestStrongUnavailableWeakSucceeds(t *testing.T) {
	p := getMockPlatform(t)
	gomock.InOrder(
		p.EXPECT().CanEvaluate(auth.Strong).Return(errors.New("no fingerprint reader")),
		p.EXPECT().CanEvaluate(auth.Weak).Return(nil),
		p.EXPECT().
			Evaluate(auth.Challenge{Method: auth.Weak, Reason: reason}, gomock.Any()).
			Do(replyWith(true, nil)),
	)

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(context.Background(), reason)
	assert.True(t, outcome.Succeeded)
}

func TestWeakFails(t *testing.T) {
	p := getMockPlatform(t)
	gomock.InOrder(
		p.EXPECT().CanEvaluate(auth.Strong).Return(auth.ErrMethodUnavailable),
		p.EXPECT().CanEvaluate(auth.Weak).Return(nil),
		p.EXPECT().
			Evaluate(gomock.Any(), gomock.Any()).
			Do(replyWith(false, errors.New("incorrect passcode"))),
	)

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(context.Background(), reason)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, "authentication failed: incorrect passcode", outcome.Diagnostic)
}

func TestWeakFailsWithoutReason(t *testing.T) {
	p := getMockPlatform(t)
	gomock.InOrder(
		p.EXPECT().CanEvaluate(auth.Strong).Return(auth.ErrMethodUnavailable),
		p.EXPECT().CanEvaluate(auth.Weak).Return(nil),
		p.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Do(replyWith(false, nil)),
	)

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(context.Background(), reason)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, "authentication failed: passcode authentication failed", outcome.Diagnostic)
}

func TestNoMethodAvailable(t *testing.T) {
	p := getMockPlatform(t)
	p.EXPECT().CanEvaluate(auth.Strong).Return(auth.ErrMethodUnavailable)
	p.EXPECT().CanEvaluate(auth.Weak).Return(errors.New("no passcode configured"))

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(context.Background(), reason)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, "no authentication method available: no passcode configured", outcome.Diagnostic)
}

func TestCancelledWhileSuspended(t *testing.T) {
	p := getMockPlatform(t)
	ctx, cancel := context.WithCancel(context.Background())
	p.EXPECT().CanEvaluate(auth.Strong).Return(nil)
	p.EXPECT().
		Evaluate(gomock.Any(), gomock.Any()).
		Do(func(auth.Challenge, auth.Reply) {
			// the platform never replies; the user interrupts instead
			cancel()
		})

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(ctx, reason)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, "authentication cancelled: context canceled", outcome.Diagnostic)
}

func TestSynchronousReplyDoesNotBlock(t *testing.T) {
	p := getMockPlatform(t)
	p.EXPECT().CanEvaluate(auth.Strong).Return(nil)
	p.EXPECT().
		Evaluate(gomock.Any(), gomock.Any()).
		Do(func(_ auth.Challenge, reply auth.Reply) {
			reply(true, nil)
			reply(false, errors.New("late duplicate"))
		})

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(context.Background(), reason)
	assert.True(t, outcome.Succeeded)
}

func TestChallengesNeverReuse(t *testing.T) {
	p := fake.NewPlatform()
	p.Strong = fake.Result{Err: auth.ErrUserCancelled}
	a := auth.NewAuthenticator(p, quietLogger())

	require.True(t, a.Authenticate(context.Background(), reason).Succeeded)
	require.True(t, a.Authenticate(context.Background(), reason).Succeeded)

	challenges := p.Challenges()
	require.Len(t, challenges, 4, "Expected every call to issue fresh challenges")
	for _, c := range challenges {
		assert.Zero(t, c.ReuseDuration)
		assert.Equal(t, reason, c.Reason)
	}
	assert.Equal(t, auth.Strong, challenges[0].Method)
	assert.Equal(t, auth.Weak, challenges[1].Method)
}

func TestFakeBothUnavailable(t *testing.T) {
	p := fake.NewPlatform()
	p.Strong = fake.Result{Unavailable: auth.ErrMethodUnavailable}
	p.Weak = fake.Result{Unavailable: auth.ErrMethodUnavailable}

	outcome := auth.NewAuthenticator(p, quietLogger()).Authenticate(context.Background(), reason)
	assert.False(t, outcome.Succeeded)
	assert.Contains(t, outcome.Diagnostic, "no authentication method available")
	assert.Empty(t, p.Challenges())
}
