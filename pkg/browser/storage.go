package browser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-rod/rod/lib/proto"
)

// StorageState is a saved cookie snapshot that can pre-seed an ephemeral
// session with an authenticated login.
type StorageState struct {
	Cookies []*proto.NetworkCookieParam `json:"cookies"`
}

// LoadStorageState reads a storage-state file. A missing file is not an
// error; it yields no cookies so the run proceeds unauthenticated.
func LoadStorageState(path string) ([]*proto.NetworkCookieParam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read storage state: %w", err)
	}

	var state StorageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse storage state: %w", err)
	}
	return state.Cookies, nil
}
