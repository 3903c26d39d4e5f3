package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"student-records/internal/matching"
)

// ProfileStore keeps named matching-criteria overrides in Redis so
// operators can tune matching without a redeploy. Profiles are applied
// on top of a preset at detection time.
type ProfileStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileStore creates a ProfileStore. A zero ttl keeps profiles
// until explicitly deleted.
func NewProfileStore(client *redis.Client, ttl time.Duration) *ProfileStore {
	return &ProfileStore{client: client, ttl: ttl}
}

func profileKey(name string) string {
	return "matching:profile:" + name
}

// Save stores the overrides under the profile name.
func (s *ProfileStore) Save(ctx context.Context, name string, overrides matching.Overrides) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("marshal profile %q: %w", name, err)
	}
	return s.client.Set(ctx, profileKey(name), data, s.ttl).Err()
}

// Get loads a profile's overrides. The second return is false when the
// profile does not exist.
func (s *ProfileStore) Get(ctx context.Context, name string) (matching.Overrides, bool, error) {
	data, err := s.client.Get(ctx, profileKey(name)).Bytes()
	if err == redis.Nil {
		return matching.Overrides{}, false, nil
	}
	if err != nil {
		return matching.Overrides{}, false, fmt.Errorf("load profile %q: %w", name, err)
	}

	var overrides matching.Overrides
	if err := json.Unmarshal(data, &overrides); err != nil {
		return matching.Overrides{}, false, fmt.Errorf("decode profile %q: %w", name, err)
	}
	return overrides, true, nil
}

// Delete removes a profile.
func (s *ProfileStore) Delete(ctx context.Context, name string) error {
	return s.client.Del(ctx, profileKey(name)).Err()
}
