package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/Farhad7860/TaskFlow/models"
)

type UserService struct {
	client *Client
}

func NewUserService(client *Client) *UserService {
	return &UserService{client: client}
}

func (s *UserService) RegisterUser(ctx context.Context, reg models.Registration) (models.User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	switch {
	case reg.Name == "":
		return models.User{}, invalid("name", "Name is required")
	case reg.Email == "":
		return models.User{}, invalid("email", "Email is required")
	case reg.Password == "":
		return models.User{}, invalid("password", "Password is required")
	}
	var user models.User
	err := s.client.do(ctx, request{
		area: areaUsers, op: "registerUser",
		method: http.MethodPost, path: "/api/users/register",
		body: reg, fallback: "Registration failed",
	}, &user)
	return user, err
}

func (s *UserService) LoginUser(ctx context.Context, creds models.Credentials) (models.AuthResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return models.AuthResult{}, invalid("credentials", "Email and password are required")
	}
	var res models.AuthResult
	err := s.client.do(ctx, request{
		area: areaUsers, op: "loginUser",
		method: http.MethodPost, path: "/api/users/login",
		body: creds, fallback: "Login failed",
	}, &res)
	if err == nil && res.Token == "" {
		return models.AuthResult{}, &APIError{Status: http.StatusBadGateway, Message: "Login failed"}
	}
	return res, err
}
