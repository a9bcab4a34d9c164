package ttlstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_SetGet(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Stop()

	s.Set("key", "value", time.Minute)

	v, ok := s.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.True(t, s.Has("key"))
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Stop()

	s.Set("key", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := s.Get("key")
	assert.False(t, ok)
	assert.False(t, s.Has("key"))
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Stop()

	s.Set("key", 1, time.Minute)
	s.Delete("key")
	assert.False(t, s.Has("key"))
}

func TestMemoryStore_Overwrite(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Stop()

	s.Set("key", 1, time.Minute)
	s.Set("key", 2, time.Minute)

	v, ok := s.Get("key")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
