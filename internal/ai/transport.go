package ai

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// Transport выполняет один обмен запрос/ответ. Без повторов и кэша.
type Transport interface {
	Do(ctx context.Context, req Request) (status int, body []byte, err error)
}

// HTTPTransport реализация Transport поверх net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport создаёт транспорт. nil означает http.DefaultClient
// с таймаутами платформы.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

// Do отправляет запрос. Любая ошибка до получения статуса или при чтении тела
// оборачивается в NetworkError.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return 0, nil, &Error{Kind: NetworkError, Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return 0, nil, &Error{Kind: NetworkError, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &Error{Kind: NetworkError, StatusCode: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, body, nil
}
