package utils

import (
	"context"
	"time"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
)

// Captcha issues and verifies digit captchas for registration.
type Captcha struct {
	store  base64Captcha.Store
	driver base64Captcha.Driver
}

// NewCaptcha uses Redis for answers when rc is set so captchas survive
// across instances; otherwise the library's in-memory store.
func NewCaptcha(rc *redis.Client) *Captcha {
	var store base64Captcha.Store = base64Captcha.DefaultMemStore
	if rc != nil {
		store = &redisCaptchaStore{rc: rc, ttl: 10 * time.Minute}
	}
	return &Captcha{
		store:  store,
		driver: base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80),
	}
}

// Generate returns a captcha id and its image as a data URI.
func (c *Captcha) Generate() (string, string, error) {
	id, b64, _, err := base64Captcha.NewCaptcha(c.driver, c.store).Generate()
	return id, b64, err
}

// Verify checks the answer and consumes the captcha.
func (c *Captcha) Verify(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return c.store.Verify(id, answer, true)
}

// redisCaptchaStore implements base64Captcha.Store backed by Redis.
type redisCaptchaStore struct {
	rc  *redis.Client
	ttl time.Duration
}

func (s *redisCaptchaStore) key(id string) string { return "captcha:" + id }

func (s *redisCaptchaStore) Set(id string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.rc.Set(ctx, s.key(id), value, s.ttl).Err()
}

func (s *redisCaptchaStore) Get(id string, clear bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if clear {
		v, err := s.rc.GetDel(ctx, s.key(id)).Result()
		if err != nil {
			return ""
		}
		return v
	}
	v, err := s.rc.Get(ctx, s.key(id)).Result()
	if err != nil {
		return ""
	}
	return v
}

func (s *redisCaptchaStore) Verify(id, answer string, clear bool) bool {
	v := s.Get(id, clear)
	return v != "" && v == answer
}
