package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/napryag/tg_wellness_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

// ErrUnauthorized — бэкенд ответил 401: токен протух или отозван.
// Любой обработчик, поймав его, обязан снести локальную сессию и вернуть
// пользователя на логин, с какого бы экрана ни пришёл вызов.
var ErrUnauthorized = errors.New("unauthorized")

const (
	requestTimeout = 10 * time.Second
	getRetries     = 3
)

// Client — HTTP-клиент портала. Токен не разбирает и не хранит: подставляет
// тот, что передали в вызов, как есть.
type Client struct {
	http    *http.Client
	baseURL string
	logger  zerolog.Logger
}

func New(rawBaseURL string, logger zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: NormalizeBaseURL(rawBaseURL),
		logger:  logger,
	}
}

// NormalizeBaseURL приводит адрес из конфига к полному URL: срезает хвостовые
// слэши и дописывает https://, если схему не указали.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

// BaseURL возвращает нормализованный адрес бэкенда.
func (c *Client) BaseURL() string { return c.baseURL }

type errorBody struct {
	Error string `json:"error"`
}

// do выполняет один вызов бэкенда. GET ретраится с экспоненциальной паузой,
// мутирующие методы ходят один раз и несут ключ идемпотентности.
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errs.New("failed to encode request body").Wrap(err)
		}
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	idemKey := ""
	if method != http.MethodGet {
		idemKey = uuid.NewString()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = getRetries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			c.logger.Warn().Err(lastErr).Int("retry", i).Str("path", path).Msg("request failed, retrying")
			select {
			case <-ctx.Done():
				return errs.New("request cancelled").Wrap(ctx.Err())
			case <-time.After(time.Duration(math.Pow(2, float64(i-1))) * time.Second):
			}
		}

		retryable, err := c.once(ctx, method, fullURL, token, idemKey, payload, out)
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// once — одна попытка. Второе значение: можно ли повторять (сетевая ошибка
// или 5xx); ошибки уровня приложения повторять нельзя.
func (c *Client) once(ctx context.Context, method, fullURL, token, idemKey string, payload []byte, out interface{}) (bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return false, errs.New("failed to build request").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("X-Idempotency-Key", idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, errs.New("backend unreachable").Wrap(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return false, errs.New("session expired").Wrap(ErrUnauthorized)
	case resp.StatusCode >= 500:
		return true, errs.New("backend error").Arg("status", resp.StatusCode)
	case resp.StatusCode >= 300:
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			return false, errs.New("request failed").Arg("status", resp.StatusCode)
		}
		// Текст из тела ответа адресован пользователю, показываем как есть.
		return false, errs.New(eb.Error).Arg("status", resp.StatusCode).User()
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, errs.New("failed to decode response").Wrap(err)
	}
	return false, nil
}

func (c *Client) get(ctx context.Context, path, token string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, token, query, nil, out)
}

func (c *Client) post(ctx context.Context, path, token string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, token, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path, token string, body, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, token, nil, body, out)
}

func (c *Client) put(ctx context.Context, path, token string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, token, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path, token string) error {
	return c.do(ctx, http.MethodDelete, path, token, nil, nil, nil)
}

// pathID экранирует идентификатор из внешних данных перед подстановкой в путь.
func pathID(format, id string) string {
	return fmt.Sprintf(format, url.PathEscape(id))
}
