package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms-suite/oms-gateway/internal/models"
	"github.com/oms-suite/oms-gateway/internal/sheets"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

type fakeSheetClient struct {
	getResponses  map[string][]byte
	getErr        error
	postResponse  []byte
	postErr       error
	lastGetAction string
	lastGetParams map[string]string
	lastPostBody  map[string]interface{}
}

func (f *fakeSheetClient) Get(ctx context.Context, action string, params map[string]string) (*sheets.Result, error) {
	f.lastGetAction = action
	f.lastGetParams = params
	if f.getErr != nil {
		return nil, f.getErr
	}
	body, ok := f.getResponses[action]
	if !ok {
		return nil, errors.New("unexpected action " + action)
	}
	return sheets.ParseResult(body)
}

func (f *fakeSheetClient) Post(ctx context.Context, body map[string]interface{}) (*sheets.Result, error) {
	f.lastPostBody = body
	if f.postErr != nil {
		return nil, f.postErr
	}
	payload := f.postResponse
	if payload == nil {
		payload = []byte(`{"success":true,"message":"ok"}`)
	}
	return sheets.ParseResult(payload)
}

type fakeSessionStore struct {
	saved   map[string]models.UpstreamCredentials
	saveErr error
	loadErr error
	deleted []string
}

func (f *fakeSessionStore) Save(ctx context.Context, sessionID string, creds models.UpstreamCredentials, ttl time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = make(map[string]models.UpstreamCredentials)
	}
	f.saved[sessionID] = creds
	return nil
}

func (f *fakeSessionStore) Load(ctx context.Context, sessionID string) (models.UpstreamCredentials, error) {
	if f.loadErr != nil {
		return models.UpstreamCredentials{}, f.loadErr
	}
	creds, ok := f.saved[sessionID]
	if !ok {
		return models.UpstreamCredentials{}, appErrors.ErrSessionExpired
	}
	return creds, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, sessionID string) error {
	f.deleted = append(f.deleted, sessionID)
	delete(f.saved, sessionID)
	return nil
}

func newTestAuthService(client *fakeSheetClient, sessions *fakeSessionStore) *AuthService {
	return NewAuthService(client, sessions, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "oms-gateway-test",
		SessionTTL:        time.Hour,
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	client := &fakeSheetClient{getResponses: map[string][]byte{
		"login": []byte(`{"success":true,"name":"สมชาย","role":"Admin","username":"somchai"}`),
	}}
	sessions := &fakeSessionStore{}
	svc := newTestAuthService(client, sessions)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "somchai", Password: "s3cret"})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "login", client.lastGetAction)
	assert.Equal(t, "somchai", client.lastGetParams["username"])
	assert.Equal(t, "สมชาย", res.User.Name)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.NotEmpty(t, res.AccessToken)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "somchai", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	require.NotEmpty(t, claims.SessionID)

	creds, ok := sessions.saved[claims.SessionID]
	require.True(t, ok, "session should hold the upstream credentials")
	assert.Equal(t, "s3cret", creds.Password)
}

func TestAuthServiceLoginRejected(t *testing.T) {
	client := &fakeSheetClient{getResponses: map[string][]byte{
		"login": []byte(`{"success":false,"error":"wrong password"}`),
	}}
	svc := newTestAuthService(client, &fakeSessionStore{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "somchai", Password: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc := newTestAuthService(&fakeSheetClient{}, &fakeSessionStore{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "", Password: ""})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthServiceUnknownRoleDowngraded(t *testing.T) {
	client := &fakeSheetClient{getResponses: map[string][]byte{
		"login": []byte(`{"success":true,"name":"Guest","role":"Owner"}`),
	}}
	svc := newTestAuthService(client, &fakeSessionStore{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "guest", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, res.User.Role)
}

func TestAuthServiceValidateTokenRejectsForged(t *testing.T) {
	svc := newTestAuthService(&fakeSheetClient{}, &fakeSessionStore{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceLogoutClosesSession(t *testing.T) {
	client := &fakeSheetClient{getResponses: map[string][]byte{
		"login": []byte(`{"success":true,"name":"สมชาย","role":"Admin"}`),
	}}
	sessions := &fakeSessionStore{}
	svc := newTestAuthService(client, sessions)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "somchai", Password: "pw"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))
	assert.Contains(t, sessions.deleted, claims.SessionID)

	_, err = svc.CredentialsFor(context.Background(), claims)
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
}
