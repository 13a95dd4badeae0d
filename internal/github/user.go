package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const UsersPath = "/users/"

// User is the profile detail returned by the users endpoint.
type User struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	Location    string `json:"location"`
	Followers   int    `json:"followers"`
	PublicRepos int    `json:"public_repos"`
	Blog        string `json:"blog"`
	AvatarURL   string `json:"avatar_url"`
	HTMLURL     string `json:"html_url"`
}

// UserResult carries the classified outcome of one profile fetch.
type UserResult struct {
	Outcome Outcome
	Status  int
	User    *User
}

// GetUser fetches the full profile for login.
func (c *Client) GetUser(ctx context.Context, login string) (*UserResult, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, fmt.Errorf("login is required")
	}

	var user User
	status, err := c.getJSON(ctx, UsersPath+url.PathEscape(login), nil, &user)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", login, err)
	}

	result := &UserResult{Outcome: Classify(status), Status: status}
	if result.Outcome == OutcomeOK {
		user.normalize()
		result.User = &user
	}

	return result, nil
}

func (u *User) normalize() {
	if u.Followers < 0 {
		u.Followers = 0
	}
	if u.PublicRepos < 0 {
		u.PublicRepos = 0
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Bio = strings.TrimSpace(u.Bio)
	u.Location = strings.TrimSpace(u.Location)
	u.Blog = strings.TrimSpace(u.Blog)
}
