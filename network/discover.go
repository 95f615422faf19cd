package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/experica/orthocam/shared/directory"
)

// ErrNoHosts is returned when the directory lists no usable command host.
var ErrNoHosts = errors.New("no command hosts registered")

// Discover lists the command hosts known to the directory at masterURL that
// accept version.
func Discover(ctx context.Context, httpClient *http.Client, masterURL, version string) ([]directory.Host, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	u, err := url.Parse(masterURL + "/servers")
	if err != nil {
		return nil, fmt.Errorf("master url: %w", err)
	}
	if version != "" {
		u.RawQuery = url.Values{"version": {version}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("master server query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("master server returned status %d", resp.StatusCode)
	}

	var hosts []directory.Host
	if err := json.NewDecoder(resp.Body).Decode(&hosts); err != nil {
		return nil, fmt.Errorf("decode host list: %w", err)
	}
	return hosts, nil
}

// PickHost returns the host called name, or the first listed host when name
// is empty.
func PickHost(hosts []directory.Host, name string) (directory.Host, error) {
	for _, h := range hosts {
		if h.Address == "" {
			continue
		}
		if name == "" || h.Name == name {
			return h, nil
		}
	}
	if name != "" {
		return directory.Host{}, fmt.Errorf("%w: no host named %q", ErrNoHosts, name)
	}
	return directory.Host{}, ErrNoHosts
}
