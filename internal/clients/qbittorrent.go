package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Qbit talks to the qBittorrent WebUI API (v2). Login is cookie based; the
// client logs in lazily and retries once on an expired session.
type Qbit struct {
	BaseURL  string
	Username string
	Password string

	http     *http.Client
	loggedIn bool
}

func NewQbit(baseURL, username, password string) *Qbit {
	jar, _ := cookiejar.New(nil)
	return &Qbit{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Username: username,
		Password: password,
		http:     &http.Client{Timeout: 15 * time.Second, Jar: jar},
	}
}

func (q *Qbit) login(ctx context.Context) error {
	form := url.Values{"username": {q.Username}, "password": {q.Password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		q.BaseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := q.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qbit: login failed with status %d", resp.StatusCode)
	}
	q.loggedIn = true
	return nil
}

// SetPreferences pushes a partial preferences object to qBittorrent.
// An expired session cookie is re-established and the call retried once.
func (q *Qbit) SetPreferences(ctx context.Context, prefs map[string]any) error {
	body, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	for attempt := 0; attempt < 2; attempt++ {
		if !q.loggedIn {
			if err := q.login(ctx); err != nil {
				return err
			}
		}
		status, err := q.postForm(ctx, "/api/v2/app/setPreferences",
			url.Values{"json": {string(body)}})
		if err != nil {
			return err
		}
		if status == http.StatusForbidden {
			q.loggedIn = false
			continue
		}
		if status != http.StatusOK {
			return fmt.Errorf("qbit: setPreferences failed with status %d", status)
		}
		return nil
	}
	return fmt.Errorf("qbit: setPreferences rejected after re-login")
}

func (q *Qbit) postForm(ctx context.Context, path string, form url.Values) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		q.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := q.http.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
