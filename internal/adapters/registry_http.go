package adapters

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"cargo-add/internal/ports"
	"cargo-add/internal/shared"
	"cargo-add/internal/types"
)

const DefaultRegistryURL = "https://crates.io"

// RegistryHTTPAdapter queries a crates.io compatible web API.
type RegistryHTTPAdapter struct {
	BaseURL string
	http    httpRetryConfig
}

type crateResponse struct {
	Crate struct {
		Name string `json:"name"`
	} `json:"crate"`
	Versions []struct {
		Num    string `json:"num"`
		Yanked bool   `json:"yanked"`
	} `json:"versions"`
}

func NewRegistryHTTPAdapter(baseURL string, opts HTTPOptions) RegistryHTTPAdapter {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultRegistryURL
	}
	return RegistryHTTPAdapter{BaseURL: base, http: normalizeHTTPConfig(opts)}
}

func (a RegistryHTTPAdapter) AvailableVersions(ctx context.Context, name string) (types.CrateVersions, error) {
	endpoint := a.BaseURL + "/api/v1/crates/" + url.PathEscape(name)
	log.Debug().Str("crate", name).Str("url", endpoint).Msg("querying registry")
	resp, err := doRequest(ctx, endpoint, a.http)
	if err != nil {
		return types.CrateVersions{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("registry request failed for " + name).
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return types.CrateVersions{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("crate " + name + " not found in registry").
			WithCause(shared.HTTPStatusError(resp.StatusCode, endpoint))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.CrateVersions{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("registry returned an error for " + name).
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, endpoint, strings.TrimSpace(string(body))))
	}
	var payload crateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return types.CrateVersions{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("invalid registry response for " + name).
			WithCause(err)
	}
	result := types.CrateVersions{Name: payload.Crate.Name}
	if result.Name == "" {
		result.Name = name
	}
	for _, v := range payload.Versions {
		if v.Yanked || strings.TrimSpace(v.Num) == "" {
			continue
		}
		result.Versions = append(result.Versions, v.Num)
	}
	return result, nil
}

var _ ports.RegistryPort = RegistryHTTPAdapter{}
