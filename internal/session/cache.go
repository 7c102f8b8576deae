package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxCachedBytes bounds a single cached JSON value.
const DefaultMaxCachedBytes = 64 * 1024

// heavyKeys are dropped when a cached value is too large. They hold
// images or other blobs the client can refetch.
var heavyKeys = []string{"profilePic", "profile_pic", "photo", "avatar", "image", "picture", "signature"}

// SetCached stores v as JSON under key. When the value exceeds limit or
// the storage reports ErrQuotaExceeded, heavy fields are stripped and the
// write is retried once. A limit of 0 uses DefaultMaxCachedBytes.
func SetCached(store Storage, key string, v interface{}, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxCachedBytes
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	if len(data) <= limit {
		err = store.Set(key, string(data))
		if err == nil || !errors.Is(err, ErrQuotaExceeded) {
			return err
		}
	}

	small, err := Minimize(data)
	if err != nil {
		return err
	}
	if len(small) > limit {
		return fmt.Errorf("session: %s is %d bytes after minimizing: %w", key, len(small), ErrQuotaExceeded)
	}
	return store.Set(key, string(small))
}

// Minimize removes heavy fields and long data URLs from a JSON object,
// recursing into nested objects.
func Minimize(data []byte) ([]byte, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		// Not an object: nothing to strip.
		return data, nil
	}
	strip(obj)
	return json.Marshal(obj)
}

func strip(obj map[string]interface{}) {
	for _, k := range heavyKeys {
		delete(obj, k)
	}
	for k, v := range obj {
		switch val := v.(type) {
		case map[string]interface{}:
			strip(val)
		case string:
			if strings.HasPrefix(val, "data:") && len(val) > 256 {
				delete(obj, k)
			}
		}
	}
}
