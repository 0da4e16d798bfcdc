package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListLocalModels запрашивает GET <base>/api/tags и возвращает имена моделей
// в порядке сервера. Любой статус кроме 200: InvalidResponse.
func ListLocalModels(ctx context.Context, transport Transport, baseURL string) ([]string, error) {
	req := Request{
		Method: http.MethodGet,
		URL:    strings.TrimRight(baseURL, "/") + "/api/tags",
		Header: http.Header{},
	}
	status, body, err := transport.Do(ctx, req)
	if err != nil {
		if KindOf(err) == "" {
			err = &Error{Kind: NetworkError, Err: err}
		}
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &Error{
			Kind:       InvalidResponse,
			Message:    fmt.Sprintf("HTTP %d", status),
			StatusCode: status,
			Body:       bodyHint(body),
		}
	}

	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, &Error{Kind: DecodingError, Message: err.Error(), StatusCode: status, Body: bodyHint(body), Err: err}
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// ListHostedModels возвращает идентификаторы моделей OpenAI-совместимого API
// через официальный SDK (GET {base}/models, без повторов).
func ListHostedModels(ctx context.Context, cfg BackendConfig, httpClient *http.Client) ([]string, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &Error{Kind: MissingCredential}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(sdkBaseURL(cfg.EffectiveBaseURL())),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)

	page, err := client.Models.List(ctx)
	if err != nil {
		return nil, classifySDKError(err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// ListModels каталог моделей для настроенного бэкенда.
func ListModels(ctx context.Context, cfg BackendConfig, httpClient *http.Client) ([]string, error) {
	switch cfg.Kind {
	case Local:
		return ListLocalModels(ctx, NewHTTPTransport(httpClient), cfg.EffectiveBaseURL())
	case Hosted:
		return ListHostedModels(ctx, cfg, httpClient)
	default:
		return nil, fmt.Errorf("list models: unsupported backend %v", cfg.Kind)
	}
}

// sdkBaseURL: SDK дописывает относительные пути (models) к базе с /v1/ на конце.
func sdkBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/"
}

func classifySDKError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:       InvalidResponse,
			Message:    fmt.Sprintf("HTTP %d", apiErr.StatusCode),
			StatusCode: apiErr.StatusCode,
			Err:        err,
		}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Error{Kind: DecodingError, Message: err.Error(), Err: err}
	}
	return &Error{Kind: NetworkError, Err: err}
}
