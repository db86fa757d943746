package api

import (
	"context"
	"net/http"

	"github.com/debemdeboas/inkwell/internal/document"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/routes"
)

func normalizeAuth(r model.AuthResponse, err error) (model.AuthResponse, error) {
	if err != nil {
		return model.AuthResponse{}, err
	}
	r.User.Normalize()
	return r, nil
}

func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.AuthResponse, error) {
	res, err := send[model.AuthResponse](ctx, c, http.MethodPost, routes.AuthLogin, creds, "")
	return normalizeAuth(res, err)
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (model.AuthResponse, error) {
	res, err := send[model.AuthResponse](ctx, c, http.MethodPost, routes.AuthRegister, reg, "")
	return normalizeAuth(res, err)
}

func (c *Client) SendVerificationCode(ctx context.Context, email string, purpose model.VerificationPurpose) (model.BaseResponse, error) {
	return send[model.BaseResponse](ctx, c, http.MethodPost, routes.AuthSendVerification,
		model.VerificationRequest{Email: email, Type: purpose}, "")
}

// CheckEmail asks whether an account exists for email, as the first step of a password reset.
func (c *Client) CheckEmail(ctx context.Context, email string) (model.CheckEmailResponse, error) {
	return send[model.CheckEmailResponse](ctx, c, http.MethodPost, routes.AuthForgotPassword,
		map[string]string{"email": email}, "")
}

func (c *Client) ResetPassword(ctx context.Context, reset model.PasswordReset) (model.BaseResponse, error) {
	return send[model.BaseResponse](ctx, c, http.MethodPut, routes.AuthResetPassword, reset, "")
}

func (c *Client) UpdateNickname(ctx context.Context, nickname string) (model.AuthResponse, error) {
	token, err := c.requireToken()
	if err != nil {
		return model.AuthResponse{}, err
	}
	res, err := send[model.AuthResponse](ctx, c, http.MethodPut, routes.UserNickname,
		map[string]string{"nickname": nickname}, token)
	return normalizeAuth(res, err)
}

func (c *Client) UploadAvatar(ctx context.Context, f *document.LocalFile) (model.AuthResponse, error) {
	token, err := c.requireToken()
	if err != nil {
		return model.AuthResponse{}, err
	}
	res, err := upload[model.AuthResponse](ctx, c, routes.UserAvatar, f, token)
	return normalizeAuth(res, err)
}
