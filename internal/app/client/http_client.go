package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"pacekeeper/internal/app/client/config"
)

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	userAgent string

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &httpClient{
		client:    client,
		log:       log.With("component", "http_client"),
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "Pacekeeper-Client/1.0",
	}
}

// SetToken устанавливает токен аутентификации
func (h *httpClient) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

func (h *httpClient) currentToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// HasSession сообщает, есть ли сохранённый токен
func (h *httpClient) HasSession() bool {
	return h.currentToken() != ""
}

// SessionKey отпечаток текущего токена
func (h *httpClient) SessionKey() string {
	token := h.currentToken()
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

func (h *httpClient) Register(ctx context.Context, login, password string) (int, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", credentials{Login: login, Password: password})
	if err != nil {
		return 0, err
	}

	var registerResp struct {
		ID int `json:"user_id"`
	}
	if err := h.parseResponse(resp, &registerResp); err != nil {
		return 0, err
	}

	return registerResp.ID, nil
}

func (h *httpClient) Login(ctx context.Context, login, password string) (string, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", credentials{Login: login, Password: password})
	if err != nil {
		return "", err
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := h.parseResponse(resp, &loginResp); err != nil {
		return "", err
	}
	if loginResp.Token == "" {
		return "", fmt.Errorf("%w: сервер не выдал токен", ErrRejected)
	}

	h.SetToken(loginResp.Token)
	return loginResp.Token, nil
}

// CurrentProfile возвращает профиль владельца токена
func (h *httpClient) CurrentProfile(ctx context.Context) (Profile, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/profiles/me", nil)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	if err := h.parseResponse(resp, &p); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return Profile{}, fmt.Errorf("%w: %v", ErrProfileMissing, err)
		}
		return Profile{}, err
	}

	return p, nil
}

// UpdateProfile выставляет флаг премиум-доступа
func (h *httpClient) UpdateProfile(ctx context.Context, premium bool) error {
	resp, err := h.doRequest(ctx, http.MethodPatch, "/api/v1/profiles/me", map[string]bool{"is_premium": premium})
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

// Insert идемпотентная вставка строки в коллекцию
func (h *httpClient) Insert(ctx context.Context, collection string, row json.RawMessage) (json.RawMessage, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/rows/"+url.PathEscape(collection), row)
	if err != nil {
		return nil, err
	}

	var stored json.RawMessage
	if err := h.parseResponse(resp, &stored); err != nil {
		return nil, err
	}

	return stored, nil
}

// Select выборка строк коллекции
func (h *httpClient) Select(ctx context.Context, collection string, filter Filter) ([]json.RawMessage, error) {
	path := "/api/v1/rows/" + url.PathEscape(collection)
	if filter.OwnerID != "" {
		path += "?owner_id=" + url.QueryEscape(filter.OwnerID)
	}

	resp, err := h.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var rowsResp struct {
		Rows []json.RawMessage `json:"rows"`
	}
	if err := h.parseResponse(resp, &rowsResp); err != nil {
		return nil, err
	}

	return rowsResp.Rows, nil
}

// Update частичное обновление строки
func (h *httpClient) Update(ctx context.Context, collection, id string, patch json.RawMessage) (json.RawMessage, error) {
	path := "/api/v1/rows/" + url.PathEscape(collection) + "/" + url.PathEscape(id)
	resp, err := h.doRequest(ctx, http.MethodPatch, path, patch)
	if err != nil {
		return nil, err
	}

	var stored json.RawMessage
	if err := h.parseResponse(resp, &stored); err != nil {
		return nil, err
	}

	return stored, nil
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		reqBody = bytes.NewReader(b)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if token := h.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: ошибка чтения ответа: %v", ErrUnavailable, err)
	}

	h.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"size", len(body),
	)

	if resp.StatusCode >= 400 {
		var problem struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		_ = json.Unmarshal(body, &problem)

		detail := problem.Detail
		if detail == "" {
			detail = problem.Error
		}
		return &StatusError{Status: resp.StatusCode, Detail: detail, kind: classifyStatus(resp.StatusCode)}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("%w: ошибка парсинга ответа: %v", ErrRejected, err)
		}
	}

	return nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusFailedDependency:
		return ErrReferential
	case status == http.StatusTooManyRequests, status >= 500:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}
